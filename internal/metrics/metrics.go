// Package metrics exports session and transport metrics to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sushrusha/sushrusha/pkg/domain"
)

// Metrics holds the collectors of one process.
type Metrics struct {
	registry *prometheus.Registry

	transitions    *prometheus.CounterVec
	checklistItems *prometheus.CounterVec
	operationErrs  *prometheus.CounterVec
	requests       *prometheus.HistogramVec
}

// New creates the collectors on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sushrusha_session_transitions_total",
				Help: "Total number of session phase transitions",
			},
			[]string{"from", "to"},
		),
		checklistItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sushrusha_checklist_items_total",
				Help: "Checklist items evaluated per outcome",
			},
			[]string{"outcome"},
		),
		operationErrs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sushrusha_operation_errors_total",
				Help: "Failed session operations",
			},
			[]string{"op", "kind"},
		),
		requests: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sushrusha_evaluator_request_duration_seconds",
				Help:    "Duration of evaluator exchanges",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op", "outcome"},
		),
	}
	m.registry.MustRegister(m.transitions, m.checklistItems, m.operationErrs, m.requests)
	return m
}

// Hooks returns lifecycle hooks that record session events.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.TransitionEvent) {
			m.transitions.WithLabelValues(string(e.From), string(e.To)).Inc()
		},
		OnTurnEvaluated: func(ctx context.Context, e *domain.TurnEvent) {
			missed, critical := countMissed(e.Evaluation)
			m.checklistItems.WithLabelValues("matched").Add(float64(len(e.Evaluation.MatchedItems)))
			m.checklistItems.WithLabelValues("missed").Add(float64(missed))
			m.checklistItems.WithLabelValues("critical_missed").Add(float64(critical))
		},
		OnOperationError: func(ctx context.Context, e *domain.ErrorEvent) {
			m.operationErrs.WithLabelValues(e.Op, errorKind(e.Err)).Inc()
		},
	}
}

// ObserveRequest records one evaluator exchange. Its signature matches the
// HTTP transport observer.
func (m *Metrics) ObserveRequest(op string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.requests.WithLabelValues(op, outcome).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// countMissed splits the distinct missed items into plain and critical ones.
func countMissed(e domain.TurnEvaluation) (missed, critical int) {
	isCritical := make(map[string]bool, len(e.CriticalMissed))
	for _, item := range e.CriticalMissed {
		isCritical[item] = true
	}
	seen := make(map[string]bool, len(e.MissedItems))
	for _, item := range e.MissedItems {
		if seen[item] {
			continue
		}
		seen[item] = true
		if isCritical[item] {
			critical++
		} else {
			missed++
		}
	}
	return missed, critical
}

func errorKind(err error) string {
	switch {
	case domain.IsValidation(err):
		return "validation"
	case domain.IsTransport(err):
		return "transport"
	default:
		return "other"
	}
}
