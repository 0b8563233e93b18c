// Package telemetry exports editor events as Prometheus metrics.
package telemetry

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	sessionOpened = "editor.session.opened"
	sessionClosed = "editor.session.closed"
)

// Prometheus records editor events in counters. It satisfies the editor
// Telemetry interface.
type Prometheus struct {
	events   *prometheus.CounterVec
	sessions prometheus.Gauge
}

// NewPrometheus creates and registers the collectors. A nil registerer uses
// prometheus.DefaultRegisterer.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p := &Prometheus{
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rwadmin",
			Subsystem: "editor",
			Name:      "events_total",
			Help:      "Total editor events by name and step kind",
		}, []string{"event", "kind"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "rwadmin",
			Subsystem: "editor",
			Name:      "open_sessions",
			Help:      "Number of open editing sessions",
		}),
	}
	for _, c := range []prometheus.Collector{p.events, p.sessions} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("telemetry: register collector: %w", err)
		}
	}
	return p, nil
}

// Record implements the editor Telemetry contract.
func (p *Prometheus) Record(_ context.Context, event string, payload map[string]any) {
	kind, _ := payload["kind"].(string)
	p.events.WithLabelValues(event, strings.TrimSpace(kind)).Inc()
	switch event {
	case sessionOpened:
		p.sessions.Inc()
	case sessionClosed:
		p.sessions.Dec()
	}
}

// Events exposes the event counter for inspection.
func (p *Prometheus) Events() *prometheus.CounterVec { return p.events }

// Sessions exposes the open sessions gauge.
func (p *Prometheus) Sessions() prometheus.Gauge { return p.sessions }
