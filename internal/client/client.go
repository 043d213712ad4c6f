// Package client sends one ingest exchange to the gateway. It never retries.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/model"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/protocol"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/protocol/envelope"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/protocol/frame"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/protocol/session"
	"github.com/rs/zerolog"
)

var (
	ErrAddressRequired = errors.New("client: server address required")
	ErrNoResponse      = errors.New("client: connection closed without response")
	ErrTimeout         = errors.New("client: timed out waiting for response")
	ErrRemote          = errors.New("client: server returned an error envelope")
	ErrUnexpectedType  = errors.New("client: unexpected response type")
)

// RemoteError carries the message of an error envelope.
type RemoteError struct {
	RequestID string
	Message   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("client: server error request_id=%s: %s", e.RequestID, e.Message)
}

func (e *RemoteError) Is(target error) bool {
	return target == ErrRemote
}

type Config struct {
	Address string
	Session session.Config
}

func DefaultConfig() Config {
	s := session.DefaultConfig()
	s.ReadTimeout = 10 * time.Second
	s.WriteTimeout = 10 * time.Second
	return Config{
		Address: "127.0.0.1:9000",
		Session: s,
	}
}

type Client struct {
	cfg    Config
	logger zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, ErrAddressRequired
	}
	cfg.Session = cfg.Session.WithDefaults()
	if err := cfg.Session.ValidateClientTransport(); err != nil {
		return nil, err
	}
	return &Client{cfg: cfg, logger: logger}, nil
}

// Send performs one exchange: dial, write env, read exactly one envelope.
func (c *Client) Send(ctx context.Context, env envelope.Envelope) (envelope.Envelope, error) {
	conn, err := c.cfg.Session.Dial(ctx, c.cfg.Address)
	if err != nil {
		return envelope.Envelope{}, fmt.Errorf("client: dial %s: %w", c.cfg.Address, err)
	}
	ex := session.NewExchange(conn, c.cfg.Session)
	defer ex.Close()
	stop := context.AfterFunc(ctx, func() { _ = ex.Close() })
	defer stop()

	if err := ex.WriteEnvelope(env); err != nil {
		return envelope.Envelope{}, c.transportError(ctx, "write", err)
	}
	resp, err := ex.ReadEnvelope()
	if errors.Is(err, envelope.ErrDecode) {
		return envelope.Envelope{}, fmt.Errorf("client: decode response: %w", err)
	}
	if err != nil {
		return envelope.Envelope{}, c.transportError(ctx, "read", err)
	}
	return resp, nil
}

func (c *Client) transportError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	switch {
	case errors.Is(err, io.EOF):
		return ErrNoResponse
	case errors.Is(err, frame.ErrTimeout), errors.Is(err, session.ErrWriteTimeout):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	default:
		return fmt.Errorf("client: %s %s: %w", op, c.cfg.Address, err)
	}
}

// Result is a decoded ingest_response plus client-side timing.
type Result struct {
	RequestID string
	Response  model.IngestResponse
	Elapsed   time.Duration
}

// Ingest wraps readings in an ingest_request and waits for the response.
func (c *Client) Ingest(ctx context.Context, source string, readings []model.SensorReading) (Result, error) {
	req, err := envelope.New(protocol.MsgIngestRequest, model.IngestRequest{Source: source, Readings: readings}, "")
	if err != nil {
		return Result{}, err
	}
	logger := c.logger.With().Str("request_id", req.RequestID).Str("addr", c.cfg.Address).Logger()
	logger.Info().Str("source", source).Int("readings", len(readings)).Msg("client.Ingest sending")

	start := time.Now()
	resp, err := c.Send(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		logger.Error().Err(err).Dur("elapsed", elapsed).Msg("client.Ingest failed")
		return Result{RequestID: req.RequestID, Elapsed: elapsed}, err
	}

	switch resp.Type {
	case protocol.MsgIngestResponse:
	case protocol.MsgError:
		var p envelope.ErrorPayload
		_ = resp.DecodePayload(&p)
		return Result{RequestID: req.RequestID, Elapsed: elapsed}, &RemoteError{RequestID: resp.RequestID, Message: p.Message}
	default:
		return Result{RequestID: req.RequestID, Elapsed: elapsed}, fmt.Errorf("%w: %q", ErrUnexpectedType, resp.Type)
	}

	var out model.IngestResponse
	if err := resp.DecodePayload(&out); err != nil {
		return Result{RequestID: req.RequestID, Elapsed: elapsed}, fmt.Errorf("client: decode ingest_response: %w", err)
	}
	logger.Info().
		Int("accepted", out.AcceptedCount).
		Int("rejected", out.RejectedCount).
		Dur("elapsed", elapsed).
		Msg("client.Ingest done")
	return Result{RequestID: req.RequestID, Response: out, Elapsed: elapsed}, nil
}
