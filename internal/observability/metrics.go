package observability

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	heartbeatsSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gatewayctl",
			Subsystem: "session",
			Name:      "heartbeats_sent_total",
			Help:      "Heartbeats sent to the gateway.",
		},
	)
	heartbeatAcks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gatewayctl",
			Subsystem: "session",
			Name:      "heartbeat_acks_total",
			Help:      "Heartbeat acknowledgments received from the gateway.",
		},
	)
	reconnects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gatewayctl",
			Subsystem: "session",
			Name:      "reconnects_total",
			Help:      "Reconnect attempts by trigger.",
		},
		[]string{"reason"},
	)
	handshakes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gatewayctl",
			Subsystem: "session",
			Name:      "handshakes_total",
			Help:      "Completed handshakes by mode.",
		},
		[]string{"mode"},
	)
	dispatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gatewayctl",
			Subsystem: "session",
			Name:      "dispatches_total",
			Help:      "Dispatch events received by event name.",
		},
		[]string{"event"},
	)
	malformedEnvelopes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gatewayctl",
			Subsystem: "session",
			Name:      "malformed_envelopes_total",
			Help:      "Inbound frames dropped because they did not decode.",
		},
	)
	transportCloses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gatewayctl",
			Subsystem: "transport",
			Name:      "closes_total",
			Help:      "Transport closes observed by clean flag and close code.",
		},
		[]string{"clean", "code"},
	)
	sessionState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "gatewayctl",
			Subsystem: "session",
			Name:      "state",
			Help:      "1 for the current session state, 0 otherwise.",
		},
		[]string{"state"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			heartbeatsSent,
			heartbeatAcks,
			reconnects,
			handshakes,
			dispatches,
			malformedEnvelopes,
			transportCloses,
			sessionState,
		)
	})
}

func RecordHeartbeatSent() {
	RegisterMetrics()
	heartbeatsSent.Inc()
}

func RecordHeartbeatAck() {
	RegisterMetrics()
	heartbeatAcks.Inc()
}

func RecordReconnect(reason string) {
	RegisterMetrics()
	reconnects.WithLabelValues(reason).Inc()
}

func RecordHandshake(mode string) {
	RegisterMetrics()
	handshakes.WithLabelValues(mode).Inc()
}

func RecordDispatch(event string) {
	RegisterMetrics()
	dispatches.WithLabelValues(event).Inc()
}

func RecordMalformedEnvelope() {
	RegisterMetrics()
	malformedEnvelopes.Inc()
}

func RecordTransportClose(clean bool, code int) {
	RegisterMetrics()
	transportCloses.WithLabelValues(strconv.FormatBool(clean), strconv.Itoa(code)).Inc()
}

// SetSessionState marks current as the only active state among all.
func SetSessionState(current string, all []string) {
	RegisterMetrics()
	for _, s := range all {
		v := 0.0
		if s == current {
			v = 1
		}
		sessionState.WithLabelValues(s).Set(v)
	}
}
