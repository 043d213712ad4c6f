// Package samples loads sensor readings from a JSON array file.
package samples

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/model"
)

const (
	DefaultPath   = "data/sample_readings.json"
	DefaultSource = "station_agri_01"
)

var ErrNotArray = errors.New("samples: expected a json array of readings")

func Load(path string) ([]model.SensorReading, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("samples: open %s: %w", path, err)
	}
	defer f.Close()
	readings, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return readings, nil
}

// Decode reads one JSON array. Elements decode leniently, so a malformed entry
// becomes a reading the gateway will reject rather than a load failure.
func Decode(r io.Reader) ([]model.SensorReading, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("samples: decode: %w", err)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, ErrNotArray
	}
	readings := make([]model.SensorReading, 0, len(items))
	for _, item := range items {
		var reading model.SensorReading
		if err := json.Unmarshal(item, &reading); err != nil {
			return nil, fmt.Errorf("samples: reading %d: %w", len(readings), err)
		}
		readings = append(readings, reading)
	}
	return readings, nil
}
