package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reservations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketr",
		Name:      "reservations_total",
		Help:      "Ticket reservation attempts by outcome",
	}, []string{"outcome"})

	transitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketr",
		Name:      "ticket_transitions_total",
		Help:      "Ticket lifecycle transitions by target status",
	}, []string{"status"})

	refundDispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ticketr",
		Name:      "refund_dispatches_total",
		Help:      "Refund instruction dispatch results",
	}, []string{"status"})

	eventCancellations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ticketr",
		Name:      "event_cancellations_total",
		Help:      "Events flagged cancelled",
	})
)

func RecordReservation(outcome string) {
	reservations.WithLabelValues(outcome).Inc()
}

func RecordTransition(status string) {
	transitions.WithLabelValues(status).Inc()
}

func RecordRefundDispatch(status string) {
	refundDispatches.WithLabelValues(status).Inc()
}

func RecordEventCancellation() {
	eventCancellations.Inc()
}
