package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConversationMetrics exposes counters/histograms for the dialogue flows.
type ConversationMetrics struct {
	handledTotal   *prometheus.CounterVec
	fallbackTotal  *prometheus.CounterVec
	bookingTotal   *prometheus.CounterVec
	processLatency *prometheus.HistogramVec
	inboundTotal   *prometheus.CounterVec
	outboundTotal  *prometheus.CounterVec
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		handledTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turnos",
			Subsystem: "conversation",
			Name:      "handled_total",
			Help:      "Messages resolved by the dialogue engine, by resulting state",
		}, []string{"state"}),
		fallbackTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turnos",
			Subsystem: "conversation",
			Name:      "fallback_total",
			Help:      "Messages deferred to the generative agent",
		}, []string{"status"}),
		bookingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turnos",
			Subsystem: "conversation",
			Name:      "booking_total",
			Help:      "Booking operations executed against the calendar",
		}, []string{"operation", "status"}),
		processLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "turnos",
			Subsystem: "conversation",
			Name:      "process_latency_seconds",
			Help:      "Latency of inbound message processing",
			Buckets:   prometheus.DefBuckets,
		}, []string{"handled"}),
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turnos",
			Subsystem: "messaging",
			Name:      "inbound_webhook_total",
			Help:      "Total inbound WhatsApp webhooks",
		}, []string{"status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "turnos",
			Subsystem: "messaging",
			Name:      "outbound_total",
			Help:      "Total outbound WhatsApp sends",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.handledTotal, m.fallbackTotal, m.bookingTotal, m.processLatency, m.inboundTotal, m.outboundTotal)
	return m
}

func (m *ConversationMetrics) ObserveHandled(state string) {
	if m == nil {
		return
	}
	m.handledTotal.WithLabelValues(state).Inc()
}

func (m *ConversationMetrics) ObserveFallback(status string) {
	if m == nil {
		return
	}
	m.fallbackTotal.WithLabelValues(status).Inc()
}

func (m *ConversationMetrics) ObserveBooking(operation, status string) {
	if m == nil {
		return
	}
	m.bookingTotal.WithLabelValues(operation, status).Inc()
}

func (m *ConversationMetrics) ObserveProcessLatency(handled bool, seconds float64) {
	if m == nil {
		return
	}
	label := "false"
	if handled {
		label = "true"
	}
	m.processLatency.WithLabelValues(label).Observe(seconds)
}

func (m *ConversationMetrics) ObserveInbound(status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(status).Inc()
}

func (m *ConversationMetrics) ObserveOutbound(status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(status).Inc()
}
