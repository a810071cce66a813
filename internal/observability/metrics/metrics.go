package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters for the realtime chat flows.
type ChatMetrics struct {
	sentTotal     *prometheus.CounterVec
	receivedTotal *prometheus.CounterVec
	connectsTotal *prometheus.CounterVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		sentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "chat",
			Name:      "sent_total",
			Help:      "Total chat messages sent over the realtime connection",
		}, []string{"status"}),
		receivedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "chat",
			Name:      "received_total",
			Help:      "Total chat messages received over the realtime connection",
		}, []string{"kind"}),
		connectsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "chat",
			Name:      "connects_total",
			Help:      "Realtime connection attempts",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.sentTotal, m.receivedTotal, m.connectsTotal)
	return m
}

func (m *ChatMetrics) ObserveSent(status string) {
	if m == nil {
		return
	}
	m.sentTotal.WithLabelValues(status).Inc()
}

func (m *ChatMetrics) ObserveReceived(kind string) {
	if m == nil {
		return
	}
	m.receivedTotal.WithLabelValues(kind).Inc()
}

func (m *ChatMetrics) ObserveConnect(status string) {
	if m == nil {
		return
	}
	m.connectsTotal.WithLabelValues(status).Inc()
}
