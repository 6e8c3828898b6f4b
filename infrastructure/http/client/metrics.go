package client

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	domainerror "github.com/tourneyhub/tourney-client/domain/error"
)

const metricsNamespace = "tourney_client"

type metrics struct {
	requests  *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	replays   prometheus.Counter
}

// newMetrics builds the client counters and registers them on reg when it is
// non-nil. Counters already registered by another client are reused.
func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "requests_total",
			Help:      "Logical requests by final outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "refresh_total",
			Help:      "Calls to the refresh endpoint by result.",
		}, []string{"result"}),
		replays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "replays_total",
			Help:      "Requests replayed after a 401.",
		}),
	}
	if reg == nil {
		return m
	}

	m.requests = register(reg, m.requests).(*prometheus.CounterVec)
	m.refreshes = register(reg, m.refreshes).(*prometheus.CounterVec)
	m.replays = register(reg, m.replays).(prometheus.Counter)
	return m
}

func register(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return already.ExistingCollector
		}
		panic(err)
	}
	return c
}

func (m *metrics) observeRequest(err error) {
	outcome := "success"
	if err != nil {
		outcome = domainerror.KindOf(err).String()
	}
	m.requests.WithLabelValues(outcome).Inc()
}

func (m *metrics) observeRefresh(err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *metrics) observeReplay() {
	m.replays.Inc()
}
