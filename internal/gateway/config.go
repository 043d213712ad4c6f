package gateway

import (
	"strings"
	"time"

	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/protocol/session"
)

// ServiceConfig configures the ingest listener.
type ServiceConfig struct {
	ListenAddr             string
	MaxConcurrentExchanges int
	// AcceptTimeout bounds each blocking accept; zero waits indefinitely.
	AcceptTimeout time.Duration
	ShutdownGrace time.Duration
	Session       session.Config
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		ListenAddr:             "127.0.0.1:9000",
		MaxConcurrentExchanges: 64,
		ShutdownGrace:          5 * time.Second,
		Session:                session.DefaultConfig(),
	}
}

// WithDefaults fills unset fields from DefaultServiceConfig.
func (c ServiceConfig) WithDefaults() ServiceConfig {
	def := DefaultServiceConfig()
	if strings.TrimSpace(c.ListenAddr) == "" {
		c.ListenAddr = def.ListenAddr
	}
	if c.MaxConcurrentExchanges <= 0 {
		c.MaxConcurrentExchanges = def.MaxConcurrentExchanges
	}
	if c.AcceptTimeout < 0 {
		c.AcceptTimeout = 0
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = def.ShutdownGrace
	}
	c.Session = c.Session.WithDefaults()
	return c
}
