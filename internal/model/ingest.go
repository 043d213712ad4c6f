package model

import (
	"encoding/json"
	"errors"
	"math"
	"time"
)

var ErrMalformedPayload = errors.New("model: ingest payload is not a json object")

// ValidationError describes one failed rule on one reading.
type ValidationError struct {
	SensorID string `json:"sensor_id"`
	Field    string `json:"field"`
	Message  string `json:"message"`
}

func (e ValidationError) String() string {
	return "[" + e.SensorID + "] " + e.Field + ": " + e.Message
}

// IngestRequest is the payload of an ingest_request envelope.
type IngestRequest struct {
	Source   string          `json:"source"`
	Readings []SensorReading `json:"readings"`
}

func (r IngestRequest) MarshalJSON() ([]byte, error) {
	type wire IngestRequest
	if r.Readings == nil {
		r.Readings = []SensorReading{}
	}
	return json.Marshal(wire(r))
}

// DecodeIngestRequest reads a request payload. An absent or null payload is an
// empty request; any other non-object is ErrMalformedPayload. A missing or
// non-array readings field yields no readings.
func DecodeIngestRequest(raw json.RawMessage) (IngestRequest, error) {
	req := IngestRequest{Readings: []SensorReading{}}
	if len(raw) == 0 || isNull(raw) {
		return req, nil
	}
	fields, ok := objectFields(raw)
	if !ok {
		return IngestRequest{}, ErrMalformedPayload
	}
	req.Source = stringField(fields["source"])

	var elems []json.RawMessage
	if err := json.Unmarshal(fields["readings"], &elems); err != nil {
		return req, nil
	}
	for _, elem := range elems {
		var reading SensorReading
		_ = reading.UnmarshalJSON(elem)
		req.Readings = append(req.Readings, reading)
	}
	return req, nil
}

// IngestResponse is the payload of an ingest_response envelope.
type IngestResponse struct {
	RequestID     string `json:"request_id"`
	AcceptedCount int    `json:"accepted_count"`
	// RejectedCount counts rejected readings, not entries in Errors: one
	// reading can fail several rules.
	RejectedCount    int               `json:"rejected_count"`
	Errors           []ValidationError `json:"errors"`
	ProcessingTimeMS float64           `json:"processing_time_ms"`
}

// NewIngestResponse summarizes a validated batch of total readings.
func NewIngestResponse(requestID string, total int, accepted int, errs []ValidationError, elapsed time.Duration) IngestResponse {
	if errs == nil {
		errs = []ValidationError{}
	}
	return IngestResponse{
		RequestID:        requestID,
		AcceptedCount:    accepted,
		RejectedCount:    total - accepted,
		Errors:           errs,
		ProcessingTimeMS: Millis(elapsed),
	}
}

func (r IngestResponse) MarshalJSON() ([]byte, error) {
	type wire IngestResponse
	if r.Errors == nil {
		r.Errors = []ValidationError{}
	}
	return json.Marshal(wire(r))
}

// Millis converts d to milliseconds rounded to two decimals.
func Millis(d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	return math.Round(ms*100) / 100
}
