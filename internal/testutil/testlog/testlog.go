package testlog

import (
	"testing"

	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/logging"
	"github.com/rs/zerolog"
)

// Start returns a debug logger that writes through t.Log.
func Start(t *testing.T) zerolog.Logger {
	t.Helper()
	logger := logging.NewWithConfig(zerolog.NewTestWriter(t), "", logging.DefaultConfig(logging.ProfileTest))
	logger.Info().Str("test", t.Name()).Msg("testlog.Start")
	return logger
}
