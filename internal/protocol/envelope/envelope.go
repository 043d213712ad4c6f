// Package envelope builds, encodes and decodes protocol message envelopes.
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/protocol"
	"github.com/google/uuid"
)

// SentAtLayout is the ISO-8601 local timestamp layout used for sent_at.
const SentAtLayout = "2006-01-02T15:04:05.000000"

var (
	ErrDecode           = errors.New("envelope: decode failed")
	ErrEmptyMessage     = fmt.Errorf("%w: empty message", ErrDecode)
	ErrMalformedMessage = fmt.Errorf("%w: malformed message", ErrDecode)
)

// Envelope is the outer wrapper of every protocol message.
type Envelope struct {
	Version   string          `json:"version"`
	Type      string          `json:"type"`
	RequestID string          `json:"request_id"`
	SentAt    string          `json:"sent_at"`
	Payload   json.RawMessage `json:"payload"`
}

// ErrorPayload is the payload of an "error" envelope.
type ErrorPayload struct {
	Message string `json:"message"`
}

// New builds an envelope stamped now. An empty requestID gets a fresh UUID.
func New(msgType string, payload any, requestID string) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("envelope: marshal %s payload: %w", msgType, err)
	}
	if strings.TrimSpace(requestID) == "" {
		requestID = NewRequestID()
	}
	return Envelope{
		Version:   protocol.Version,
		Type:      msgType,
		RequestID: requestID,
		SentAt:    time.Now().Format(SentAtLayout),
		Payload:   raw,
	}, nil
}

// NewError builds an "error" envelope carrying message.
func NewError(message string, requestID string) (Envelope, error) {
	return New(protocol.MsgError, ErrorPayload{Message: message}, requestID)
}

func NewRequestID() string {
	return uuid.NewString()
}

// Encode renders env as one compact JSON line followed by a single '\n'.
func Encode(env Envelope) ([]byte, error) {
	if len(env.Payload) == 0 {
		env.Payload = json.RawMessage("null")
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// json.Encoder terminates each value with exactly one newline.
	if err := enc.Encode(env); err != nil {
		return nil, fmt.Errorf("envelope: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses one line. Keys are optional; absent keys keep zero values.
func Decode(line string) (Envelope, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Envelope{}, ErrEmptyMessage
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &fields); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if fields == nil {
		// top-level null
		return Envelope{}, fmt.Errorf("%w: not a json object", ErrMalformedMessage)
	}
	env := Envelope{
		Version:   scalarText(fields["version"]),
		Type:      scalarText(fields["type"]),
		RequestID: scalarText(fields["request_id"]),
		SentAt:    scalarText(fields["sent_at"]),
	}
	if raw, ok := fields["payload"]; ok && !isNull(raw) {
		env.Payload = raw
	}
	return env, nil
}

// DecodePayload unmarshals the payload into out. Absent payloads leave out untouched.
func (e Envelope) DecodePayload(out any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	return json.Unmarshal(e.Payload, out)
}

// RequestIDOr returns the request id exactly as received, or fallback when blank.
func (e Envelope) RequestIDOr(fallback string) string {
	if e.HasRequestID() {
		return e.RequestID
	}
	return fallback
}

// HasRequestID reports whether the peer supplied a usable request id.
func (e Envelope) HasRequestID() bool {
	return strings.TrimSpace(e.RequestID) != ""
}

// scalarText keeps JSON strings as-is and other scalars as their literal text.
func scalarText(raw json.RawMessage) string {
	if len(raw) == 0 || isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
