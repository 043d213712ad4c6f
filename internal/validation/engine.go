package validation

import (
	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/model"
	"github.com/rs/zerolog"
)

// Observer receives per-reading outcomes. observability.Metrics implements it.
type Observer interface {
	ObserveReading(accepted bool)
	ObserveValidationError(field string)
}

type nopObserver struct{}

func (nopObserver) ObserveReading(bool)           {}
func (nopObserver) ObserveValidationError(string) {}

// Engine validates batches. It holds no mutable state and is safe for
// concurrent use by every connection.
type Engine struct {
	logger   zerolog.Logger
	observer Observer
}

func New(logger zerolog.Logger, observer Observer) *Engine {
	if observer == nil {
		observer = nopObserver{}
	}
	return &Engine{logger: logger, observer: observer}
}

// Batch validates readings in order. Accepted readings keep their relative
// order; errors are concatenated in reading order.
func (e *Engine) Batch(readings []model.SensorReading) ([]model.SensorReading, []model.ValidationError) {
	accepted := make([]model.SensorReading, 0, len(readings))
	errs := make([]model.ValidationError, 0)
	for _, r := range readings {
		readingErrs := Reading(r)
		if len(readingErrs) == 0 {
			accepted = append(accepted, r)
			e.observer.ObserveReading(true)
			e.logger.Debug().Str("sensor_id", r.Label()).Msg("validation.Batch accepted")
			continue
		}
		errs = append(errs, readingErrs...)
		e.observer.ObserveReading(false)
		for _, ve := range readingErrs {
			e.observer.ObserveValidationError(ve.Field)
		}
		e.logger.Warn().Str("sensor_id", r.Label()).Int("errors", len(readingErrs)).Msg("validation.Batch rejected")
	}
	e.logger.Info().
		Int("accepted", len(accepted)).
		Int("rejected", len(readings)-len(accepted)).
		Int("errors", len(errs)).
		Msg("validation.Batch done")
	return accepted, errs
}
