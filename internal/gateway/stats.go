package gateway

import (
	"sync/atomic"

	"github.com/amina2005-hub/Mini-service-d-ingestion-IoT-sur-sockets-TCP/internal/observability"
)

// Stats is a point-in-time view of service totals.
type Stats struct {
	ActiveExchanges  int64             `json:"active_exchanges"`
	Exchanges        uint64            `json:"exchanges"`
	Outcomes         map[string]uint64 `json:"outcomes"`
	ReadingsAccepted uint64            `json:"readings_accepted"`
	ReadingsRejected uint64            `json:"readings_rejected"`
	ForwardFailures  uint64            `json:"forward_failures"`
}

var outcomeLabels = []string{
	observability.OutcomeResponded,
	observability.OutcomeUnsupportedType,
	observability.OutcomeMalformedPayload,
	observability.OutcomeEmpty,
	observability.OutcomeDecodeError,
	observability.OutcomeTooLarge,
	observability.OutcomeInvalidEncoding,
	observability.OutcomeTimeout,
	observability.OutcomeTransportError,
}

type counters struct {
	active           atomic.Int64
	exchanges        atomic.Uint64
	outcomes         map[string]*atomic.Uint64
	readingsAccepted atomic.Uint64
	readingsRejected atomic.Uint64
	forwardFailures  atomic.Uint64
}

func newCounters() *counters {
	c := &counters{outcomes: make(map[string]*atomic.Uint64, len(outcomeLabels))}
	for _, label := range outcomeLabels {
		c.outcomes[label] = new(atomic.Uint64)
	}
	return c
}

func (c *counters) finish(outcome string) {
	c.exchanges.Add(1)
	if n, ok := c.outcomes[outcome]; ok {
		n.Add(1)
	}
}

func (c *counters) snapshot() Stats {
	out := Stats{
		ActiveExchanges:  c.active.Load(),
		Exchanges:        c.exchanges.Load(),
		Outcomes:         make(map[string]uint64, len(c.outcomes)),
		ReadingsAccepted: c.readingsAccepted.Load(),
		ReadingsRejected: c.readingsRejected.Load(),
		ForwardFailures:  c.forwardFailures.Load(),
	}
	for label, n := range c.outcomes {
		out.Outcomes[label] = n.Load()
	}
	return out
}
