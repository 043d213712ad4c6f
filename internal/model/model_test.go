package model

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawValueKinds(t *testing.T) {
	cases := []struct {
		raw     string
		kind    string
		numeric bool
	}{
		{raw: ``, kind: KindMissing},
		{raw: `null`, kind: KindNull},
		{raw: `22.5`, kind: KindNumber, numeric: true},
		{raw: `-999`, kind: KindNumber, numeric: true},
		{raw: `1e400`, kind: KindNumber, numeric: true},
		{raw: `-1e400`, kind: KindNumber, numeric: true},
		{raw: `1e400x`, kind: KindInvalid},
		{raw: `"22.5"`, kind: KindString},
		{raw: `true`, kind: KindBool},
		{raw: `[1,2]`, kind: KindArray},
		{raw: `{"v":1}`, kind: KindObject},
	}
	for _, tc := range cases {
		v := RawValue(json.RawMessage(tc.raw))
		assert.Equal(t, tc.kind, v.Kind(), "raw=%q", tc.raw)
		assert.Equal(t, tc.numeric, v.IsNumber(), "raw=%q", tc.raw)
	}
}

func TestOverflowingNumberIsInfinite(t *testing.T) {
	f, ok := RawValue(json.RawMessage(`1e400`)).Float()
	require.True(t, ok)
	assert.True(t, math.IsInf(f, 1))

	f, ok = RawValue(json.RawMessage(`-1e400`)).Float()
	require.True(t, ok)
	assert.True(t, math.IsInf(f, -1))

	out, err := json.Marshal(RawValue(json.RawMessage(`1e400`)))
	require.NoError(t, err)
	assert.Equal(t, `1e400`, string(out))
}

func TestValueKeepsRawEncoding(t *testing.T) {
	v := RawValue(json.RawMessage(` 1.50 `))
	f, ok := v.Float()
	require.True(t, ok)
	assert.Equal(t, 1.5, f)

	out, err := json.Marshal(v)
	require.NoError(t, err)
	assert.Equal(t, `1.50`, string(out))

	out, err = json.Marshal(Value{})
	require.NoError(t, err)
	assert.Equal(t, `null`, string(out))
}

func TestNumberValue(t *testing.T) {
	v := Number(22)
	assert.True(t, v.IsNumber())
	assert.Equal(t, "22", v.String())
}

func TestSensorReadingLenientDecode(t *testing.T) {
	var r SensorReading
	raw := `{"sensor_id":7,"type":"temperature","value":"abc","unit":"°C","pump_status":"OFF","irrigation_mm":"12"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &r))

	assert.Equal(t, "", r.SensorID)
	assert.Equal(t, "temperature", r.Type)
	assert.Equal(t, KindString, r.Value.Kind())
	assert.Equal(t, "°C", r.Unit)
	assert.Equal(t, "", r.Timestamp)
	require.NotNil(t, r.PumpStatus)
	assert.Equal(t, "OFF", *r.PumpStatus)
	assert.Nil(t, r.IrrigationMM)
	assert.Equal(t, EmptySensorLabel, r.Label())
}

func TestSensorReadingOptionalFields(t *testing.T) {
	var r SensorReading
	require.NoError(t, json.Unmarshal([]byte(`{"sensor_id":"i01","pump_status":null,"irrigation_mm":4.5}`), &r))
	assert.Nil(t, r.PumpStatus)
	require.NotNil(t, r.IrrigationMM)
	assert.Equal(t, 4.5, *r.IrrigationMM)
	assert.Equal(t, KindMissing, r.Value.Kind())
	assert.Equal(t, "i01", r.Label())
}

func TestSensorReadingEncodeOmitsAbsentOptionals(t *testing.T) {
	r := SensorReading{SensorID: "t01", Type: "temperature", Value: Number(22), Unit: "C", Timestamp: "2026-02-23T10:00:00"}
	out, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"sensor_id":"t01","type":"temperature","value":22,"unit":"C","timestamp":"2026-02-23T10:00:00"}`, string(out))
}

func TestDecodeIngestRequest(t *testing.T) {
	req, err := DecodeIngestRequest(json.RawMessage(`{"source":"station_agri_01","readings":[{"sensor_id":"t01","value":1},"junk",{"sensor_id":"h01"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "station_agri_01", req.Source)
	require.Len(t, req.Readings, 3)
	assert.Equal(t, "t01", req.Readings[0].SensorID)
	assert.Equal(t, SensorReading{}, req.Readings[1])
	assert.Equal(t, "h01", req.Readings[2].SensorID)
}

func TestDecodeIngestRequestDefaults(t *testing.T) {
	for _, raw := range []string{``, `null`, `{}`, `{"readings":"nope"}`, `{"readings":null,"source":3}`} {
		req, err := DecodeIngestRequest(json.RawMessage(raw))
		require.NoError(t, err, "raw=%q", raw)
		assert.Equal(t, "", req.Source, "raw=%q", raw)
		assert.NotNil(t, req.Readings, "raw=%q", raw)
		assert.Empty(t, req.Readings, "raw=%q", raw)
	}
}

func TestDecodeIngestRequestMalformed(t *testing.T) {
	for _, raw := range []string{`[]`, `"readings"`, `42`, `{`} {
		_, err := DecodeIngestRequest(json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrMalformedPayload, "raw=%q", raw)
	}
}

func TestIngestRequestEncodesEmptyReadings(t *testing.T) {
	out, err := json.Marshal(IngestRequest{Source: "s"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"source":"s","readings":[]}`, string(out))
}

func TestNewIngestResponse(t *testing.T) {
	errs := []ValidationError{{SensorID: "t02", Field: "value", Message: "out of range"}}
	resp := NewIngestResponse("req-1", 3, 2, errs, 1234567*time.Nanosecond)
	assert.Equal(t, "req-1", resp.RequestID)
	assert.Equal(t, 2, resp.AcceptedCount)
	assert.Equal(t, 1, resp.RejectedCount)
	assert.Equal(t, 1.23, resp.ProcessingTimeMS)

	out, err := json.Marshal(NewIngestResponse("req-2", 0, 0, nil, 0))
	require.NoError(t, err)
	assert.JSONEq(t, `{"request_id":"req-2","accepted_count":0,"rejected_count":0,"errors":[],"processing_time_ms":0}`, string(out))
}

func TestRejectedCountIsPerReading(t *testing.T) {
	errs := []ValidationError{
		{SensorID: "(empty)", Field: "sensor_id", Message: "blank"},
		{SensorID: "(empty)", Field: "timestamp", Message: "bad"},
		{SensorID: "t02", Field: "value", Message: "out of range"},
	}
	resp := NewIngestResponse("req-3", 4, 2, errs, 0)
	assert.Equal(t, 2, resp.RejectedCount)
	assert.Len(t, resp.Errors, 3)
	assert.Equal(t, 4, resp.AcceptedCount+resp.RejectedCount)
}

func TestValidationErrorString(t *testing.T) {
	e := ValidationError{SensorID: "t01", Field: "timestamp", Message: "invalid timestamp"}
	assert.Equal(t, "[t01] timestamp: invalid timestamp", e.String())
}
