// Package monitoring exposes the service's Prometheus collectors. The
// metrics endpoint itself is served by promhttp from cmd/main.go.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all collectors used by the ledger and task services.
type Metrics struct {
	ActionsRecorded   *prometheus.CounterVec
	HistoryEdits      prometheus.Counter
	StockConflicts    prometheus.Counter
	NotifyFailures    prometheus.Counter
	TasksCompleted    prometheus.Counter
	GateViolations    prometheus.Counter
	ValidationRejects prometheus.Counter
}

// New registers all collectors with reg and returns them. Pass
// prometheus.DefaultRegisterer in production; tests use a private registry
// so parallel tests never collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActionsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "storekeep_actions_recorded_total",
			Help: "Ledger entries recorded, by action type.",
		}, []string{"action"}),
		HistoryEdits: factory.NewCounter(prometheus.CounterOpts{
			Name: "storekeep_history_edits_total",
			Help: "Edits applied to existing ledger entries.",
		}),
		StockConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "storekeep_stock_conflicts_total",
			Help: "Conditional stock updates that lost the race and were retried.",
		}),
		NotifyFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "storekeep_notify_failures_total",
			Help: "Admin notifications that could not be delivered.",
		}),
		TasksCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "storekeep_tasks_completed_total",
			Help: "Tasks marked done.",
		}),
		GateViolations: factory.NewCounter(prometheus.CounterOpts{
			Name: "storekeep_gate_violations_total",
			Help: "Task completions rejected by the eligibility gate.",
		}),
		ValidationRejects: factory.NewCounter(prometheus.CounterOpts{
			Name: "storekeep_validation_rejects_total",
			Help: "Requests rejected before any write.",
		}),
	}
}
