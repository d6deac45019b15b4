/*
alerts.go - Alert sinks

PURPOSE:
  Collects threshold-crossing events emitted by the ledger so the UI and
  reporting layer can surface them. Pure collection, no business logic.

CONTRACT:
  Publishing never blocks and never returns an error. A full sink drops
  its oldest entries rather than failing the stock operation that
  produced the alert.
*/
package inventory

import "sync"

// Sink receives alerts from the ledger.
type Sink interface {
	Publish(alert Alert)
}

// NopSink discards all alerts.
type NopSink struct{}

func (NopSink) Publish(Alert) {}

// =============================================================================
// COLLECTOR SINK - Bounded in-memory accumulation
// =============================================================================

const defaultAlertCap = 1000

// CollectorSink accumulates alerts in memory, keeping at most cap
// entries. When full, the oldest entry is dropped.
type CollectorSink struct {
	mu     sync.RWMutex
	alerts []Alert
	cap    int
}

// NewCollectorSink creates a sink holding up to cap alerts.
// A non-positive cap uses the default.
func NewCollectorSink(cap int) *CollectorSink {
	if cap <= 0 {
		cap = defaultAlertCap
	}
	return &CollectorSink{cap: cap}
}

func (s *CollectorSink) Publish(alert Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.alerts = append(s.alerts, alert)
	if len(s.alerts) > s.cap {
		s.alerts = s.alerts[len(s.alerts)-s.cap:]
	}
}

// Alerts returns a copy of the collected alerts, oldest first.
func (s *CollectorSink) Alerts() []Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Alert, len(s.alerts))
	copy(out, s.alerts)
	return out
}
