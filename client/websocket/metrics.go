package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Frame categories of the frames counter.
const (
	frameResponse = "response"
	frameNotify   = "notify"
	frameData     = "data"
	frameSnapshot = "snapshot"
	frameInvalid  = "invalid"
	frameUnknown  = "unknown"
)

// streamMetrics counts frames, requests and emitted events. A nil
// *streamMetrics records nothing.
type streamMetrics struct {
	frames   *prometheus.CounterVec
	requests *prometheus.CounterVec
	events   *prometheus.CounterVec
}

func newStreamMetrics(reg prometheus.Registerer) *streamMetrics {
	if reg == nil {
		return nil
	}

	return &streamMetrics{
		frames: registerCounterVec(reg, prometheus.CounterOpts{
			Namespace: "tda",
			Subsystem: "stream",
			Name:      "frames_total",
			Help:      "Inbound stream frames by category.",
		}, "category"),
		requests: registerCounterVec(reg, prometheus.CounterOpts{
			Namespace: "tda",
			Subsystem: "stream",
			Name:      "requests_total",
			Help:      "Requests sent to the streamer.",
		}, "service", "command"),
		events: registerCounterVec(reg, prometheus.CounterOpts{
			Namespace: "tda",
			Subsystem: "stream",
			Name:      "events_total",
			Help:      "Events emitted to listeners.",
		}, "event"),
	}
}

// registerCounterVec registers a counter vec, or returns the one already
// registered under the same name, so that several clients can share a
// registerer.
func registerCounterVec(reg prometheus.Registerer, opts prometheus.CounterOpts, labels ...string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(opts, labels)

	if err := reg.Register(cv); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		// Unusable registerer; count into the unregistered vec.
	}

	return cv
}

func (m *streamMetrics) frame(category string) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(category).Inc()
}

func (m *streamMetrics) request(req Request) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(string(req.Service), string(req.Command)).Inc()
}

func (m *streamMetrics) event(name string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(name).Inc()
}
