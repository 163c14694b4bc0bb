package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nerrad567/mqttsub/internal/session"
)

// Reconnect attempt results.
const (
	resultSuccess = "success"
	resultFailure = "failure"
)

// Metrics holds the Prometheus registry and the subscriber's meters.
//
// It implements session.Observer and delivery.Observer so the session
// manager and delivery loop report into it without importing Prometheus.
type Metrics struct {
	Registry          *prometheus.Registry
	MessagesReceived  *prometheus.CounterVec
	PayloadBytes      prometheus.Counter
	ReconnectAttempts *prometheus.CounterVec
	SessionState      prometheus.Gauge
}

// New creates a private Prometheus registry with the subscriber's metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	received := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mqttsub_messages_received_total",
		Help: "Total number of messages written to the output.",
	}, []string{"retained"})

	payloadBytes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "mqttsub_payload_bytes_total",
		Help: "Total payload bytes written to the output.",
	})

	reconnects := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mqttsub_reconnect_attempts_total",
		Help: "Total number of reconnection attempts.",
	}, []string{"result"})

	state := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "mqttsub_session_state",
		Help: "Session state: 0 disconnected, 1 connecting, 2 connected, 3 reconnecting.",
	})

	reg.MustRegister(received, payloadBytes, reconnects, state)

	return &Metrics{
		Registry:          reg,
		MessagesReceived:  received,
		PayloadBytes:      payloadBytes,
		ReconnectAttempts: reconnects,
		SessionState:      state,
	}
}

// MessageDelivered implements delivery.Observer.
func (m *Metrics) MessageDelivered(msg session.Message) {
	m.MessagesReceived.WithLabelValues(strconv.FormatBool(msg.Retained)).Inc()
	m.PayloadBytes.Add(float64(len(msg.Payload)))
}

// StateChanged implements session.Observer.
func (m *Metrics) StateChanged(state session.State) {
	m.SessionState.Set(float64(state))
}

// ReconnectAttempt implements session.Observer.
func (m *Metrics) ReconnectAttempt(_ int, err error) {
	result := resultSuccess
	if err != nil {
		result = resultFailure
	}
	m.ReconnectAttempts.WithLabelValues(result).Inc()
}
