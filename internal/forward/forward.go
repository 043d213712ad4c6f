// Package forward hands accepted readings to downstream consumers after the
// response has been sent. Forwarding never affects the ingest response.
package forward

import (
	"context"
	"time"

	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/model"
)

// Batch is the accepted part of one exchange.
type Batch struct {
	RequestID  string
	Source     string
	ReceivedAt time.Time
	Readings   []model.SensorReading
}

type Forwarder interface {
	Forward(ctx context.Context, batch Batch) error
	Close() error
}

// Nop drops every batch.
type Nop struct{}

func (Nop) Forward(context.Context, Batch) error { return nil }
func (Nop) Close() error                         { return nil }
