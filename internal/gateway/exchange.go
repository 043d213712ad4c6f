package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/forward"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/model"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/observability"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/protocol"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/protocol/envelope"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/protocol/frame"
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/protocol/session"
	"github.com/rs/zerolog"
)

const malformedPayloadMessage = "malformed ingest_request payload: expected a json object"

func unsupportedTypeMessage(msgType string) string {
	return fmt.Sprintf("unsupported message type: %s", msgType)
}

// handleConn drives one exchange. The connection is closed before accepted
// readings are forwarded.
func (s *Service) handleConn(conn net.Conn) {
	remote := conn.RemoteAddr().String()
	s.stats.active.Add(1)
	s.metrics.ExchangeStarted()
	s.logger.Debug().Str("remote", remote).Msg("gateway.handleConn accepted")

	ex := session.NewExchange(conn, s.cfg.Session)
	outcome, batch := s.exchange(ex, remote)

	_ = ex.Close()
	s.untrackConn(conn)
	s.stats.active.Add(-1)
	s.stats.finish(outcome)
	s.metrics.ExchangeFinished(outcome)

	if batch != nil {
		s.forward(*batch)
	}
}

func (s *Service) exchange(ex *session.Exchange, remote string) (string, *forward.Batch) {
	logger := s.logger.With().Str("remote", remote).Logger()

	line, err := ex.ReadLine()
	receivedAt := time.Now()
	if err != nil {
		return s.readFailure(logger, err), nil
	}

	env, err := envelope.Decode(line)
	if err != nil {
		logger.Warn().Err(err).Str("request_id", protocol.UnknownRequestID).Msg("gateway.exchange decode failed")
		return observability.OutcomeDecodeError, nil
	}
	requestID := env.RequestIDOr(protocol.UnknownRequestID)
	logger = logger.With().Str("request_id", requestID).Logger()
	logger.Info().Str("type", env.Type).Msg("gateway.exchange received")
	if env.Version != protocol.Version {
		logger.Debug().Str("version", env.Version).Msg("gateway.exchange version mismatch ignored")
	}

	if env.Type != protocol.MsgIngestRequest {
		logger.Warn().Str("type", env.Type).Msg("gateway.exchange unsupported type")
		if err := s.replyError(ex, unsupportedTypeMessage(env.Type), requestID); err != nil {
			logger.Error().Err(err).Msg("gateway.exchange write error envelope")
			return observability.OutcomeTransportError, nil
		}
		return observability.OutcomeUnsupportedType, nil
	}

	req, err := model.DecodeIngestRequest(env.Payload)
	if err != nil {
		logger.Warn().Err(err).Msg("gateway.exchange malformed payload")
		if env.HasRequestID() {
			if err := s.replyError(ex, malformedPayloadMessage, requestID); err != nil {
				logger.Error().Err(err).Msg("gateway.exchange write error envelope")
				return observability.OutcomeTransportError, nil
			}
		}
		return observability.OutcomeMalformedPayload, nil
	}
	logger.Info().Str("source", req.Source).Int("readings", len(req.Readings)).Msg("gateway.exchange validating")

	accepted, errs := s.engine.Batch(req.Readings)
	elapsed := time.Since(receivedAt)
	resp := model.NewIngestResponse(requestID, len(req.Readings), len(accepted), errs, elapsed)
	s.metrics.ObserveProcessing(elapsed)
	s.stats.readingsAccepted.Add(uint64(resp.AcceptedCount))
	s.stats.readingsRejected.Add(uint64(resp.RejectedCount))

	out, err := envelope.New(protocol.MsgIngestResponse, resp, requestID)
	if err != nil {
		logger.Error().Err(err).Msg("gateway.exchange build response")
		return observability.OutcomeTransportError, nil
	}
	if err := ex.WriteEnvelope(out); err != nil {
		logger.Error().Err(err).Msg("gateway.exchange write response")
		return observability.OutcomeTransportError, nil
	}
	logger.Info().
		Int("accepted", resp.AcceptedCount).
		Int("rejected", resp.RejectedCount).
		Float64("processing_time_ms", resp.ProcessingTimeMS).
		Msg("gateway.exchange responded")

	if len(accepted) == 0 {
		return observability.OutcomeResponded, nil
	}
	return observability.OutcomeResponded, &forward.Batch{
		RequestID:  requestID,
		Source:     req.Source,
		ReceivedAt: receivedAt,
		Readings:   accepted,
	}
}

func (s *Service) readFailure(logger zerolog.Logger, err error) string {
	logger = logger.With().Str("request_id", protocol.UnknownRequestID).Logger()
	switch {
	case errors.Is(err, io.EOF):
		logger.Debug().Msg("gateway.exchange peer closed without sending")
		return observability.OutcomeEmpty
	case errors.Is(err, frame.ErrMessageTooLarge):
		logger.Warn().Err(err).Msg("gateway.exchange message too large")
		return observability.OutcomeTooLarge
	case errors.Is(err, frame.ErrInvalidEncoding):
		logger.Warn().Err(err).Msg("gateway.exchange invalid encoding")
		return observability.OutcomeInvalidEncoding
	case errors.Is(err, frame.ErrTimeout):
		logger.Warn().Err(err).Msg("gateway.exchange read timeout")
		return observability.OutcomeTimeout
	default:
		logger.Error().Err(err).Msg("gateway.exchange read failed")
		return observability.OutcomeTransportError
	}
}

func (s *Service) replyError(ex *session.Exchange, message string, requestID string) error {
	env, err := envelope.NewError(message, requestID)
	if err != nil {
		return err
	}
	return ex.WriteEnvelope(env)
}

func (s *Service) forward(batch forward.Batch) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Session.WriteTimeout)
	defer cancel()
	err := s.forwarder.Forward(ctx, batch)
	s.metrics.ObserveForward(len(batch.Readings), err)
	if err != nil {
		s.stats.forwardFailures.Add(1)
		s.logger.Warn().Err(err).Str("request_id", batch.RequestID).Msg("gateway.forward failed")
	}
}
