package main

import (
	"strings"
	"time"

	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/config"
)

type options struct {
	configPath string
	host       string
	port       int
	dataFile   string
	source     string
	timeout    time.Duration
}

func loadClientConfig(opts options) (config.ClientFile, error) {
	cfg, err := config.LoadClient(opts.configPath)
	if err != nil {
		return config.ClientFile{}, err
	}
	if v := strings.TrimSpace(opts.host); v != "" {
		cfg.Host = v
	}
	if opts.port != 0 {
		cfg.Port = opts.port
	}
	if v := strings.TrimSpace(opts.dataFile); v != "" {
		cfg.DataFile = v
	}
	if v := strings.TrimSpace(opts.source); v != "" {
		cfg.Source = v
	}
	if opts.timeout > 0 {
		cfg.TimeoutMS = int(opts.timeout / time.Millisecond)
	}
	if err := cfg.Validate(); err != nil {
		return config.ClientFile{}, err
	}
	return cfg, nil
}
