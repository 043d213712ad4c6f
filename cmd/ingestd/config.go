package main

import (
	"strings"

	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/config"
)

type options struct {
	configPath string
	addr       string
	adminAddr  string
}

// loadServerConfig layers flags over file and environment settings.
func loadServerConfig(opts options) (config.ServerFile, error) {
	cfg, err := config.LoadServer(opts.configPath)
	if err != nil {
		return config.ServerFile{}, err
	}
	changed := false
	if addr := strings.TrimSpace(opts.addr); addr != "" {
		cfg.Addr = addr
		changed = true
	}
	if addr := strings.TrimSpace(opts.adminAddr); addr != "" {
		cfg.AdminAddr = addr
		changed = true
	}
	if changed {
		if err := cfg.Validate(); err != nil {
			return config.ServerFile{}, err
		}
	}
	return cfg, nil
}
