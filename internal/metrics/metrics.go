// Package metrics defines the Prometheus collectors for ledger activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Ledger groups the collectors updated by the settlement service and the
// summary projector. A nil *Ledger is valid and records nothing.
type Ledger struct {
	PaymentsRecorded    prometheus.Counter
	PaymentsDeleted     prometheus.Counter
	AmountSettled       prometheus.Counter
	PayoffRuns          *prometheus.CounterVec
	Compensations       *prometheus.CounterVec
	ActiveSubscriptions *prometheus.GaugeVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Ledger {
	m := &Ledger{
		PaymentsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "debtbook",
			Name:      "payments_recorded_total",
			Help:      "Number of debt payments recorded.",
		}),
		PaymentsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "debtbook",
			Name:      "payments_deleted_total",
			Help:      "Number of debt payments deleted.",
		}),
		AmountSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "debtbook",
			Name:      "amount_settled_total",
			Help:      "Sum of recorded payment amounts.",
		}),
		PayoffRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "debtbook",
			Name:      "payoff_runs_total",
			Help:      "Pay-off-all runs by result (noop, settled, partial, failed).",
		}, []string{"result"}),
		Compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "debtbook",
			Name:      "compensations_total",
			Help:      "Two-phase write repairs by operation and result (completed, rolled_back, failed).",
		}, []string{"op", "result"}),
		ActiveSubscriptions: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "debtbook",
			Name:      "active_subscriptions",
			Help:      "Live summary subscriptions by view (contact, ledger, payments).",
		}, []string{"view"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.PaymentsRecorded,
			m.PaymentsDeleted,
			m.AmountSettled,
			m.PayoffRuns,
			m.Compensations,
			m.ActiveSubscriptions,
		)
	}
	return m
}

// PaymentRecorded counts one recorded payment of amount.
func (m *Ledger) PaymentRecorded(amount decimal.Decimal) {
	if m == nil {
		return
	}
	m.PaymentsRecorded.Inc()
	m.AmountSettled.Add(amount.InexactFloat64())
}

// PaymentDeleted counts one deleted payment.
func (m *Ledger) PaymentDeleted() {
	if m == nil {
		return
	}
	m.PaymentsDeleted.Inc()
}

// PayoffRun counts one pay-off-all run.
func (m *Ledger) PayoffRun(result string) {
	if m == nil {
		return
	}
	m.PayoffRuns.WithLabelValues(result).Inc()
}

// Compensation counts one repair of a two-phase write.
func (m *Ledger) Compensation(op, result string) {
	if m == nil {
		return
	}
	m.Compensations.WithLabelValues(op, result).Inc()
}

// SubscriptionOpened and SubscriptionClosed track live subscriptions per view.
func (m *Ledger) SubscriptionOpened(view string) {
	if m == nil {
		return
	}
	m.ActiveSubscriptions.WithLabelValues(view).Inc()
}

func (m *Ledger) SubscriptionClosed(view string) {
	if m == nil {
		return
	}
	m.ActiveSubscriptions.WithLabelValues(view).Dec()
}
