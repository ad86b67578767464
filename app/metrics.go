package app

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "app"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Orders that reached a new state, labelled by action
	// (create, pay, cancel).
	Transitions metrics.Counter
	// Requests rejected, labelled by ABCI code.
	FailedTxs metrics.Counter
	// Instructions emitted, labelled by message type.
	Effects metrics.Counter
	// Orders still awaiting payment or cancellation at the last commit.
	PendingOrders metrics.Gauge
	// Height of the last commit.
	Height metrics.Gauge
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		Transitions: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "order_transitions",
			Help:      "Number of successful order transitions.",
		}, withLabel(labels, "action")).With(labelsAndValues...),
		FailedTxs: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "failed_txs",
			Help:      "Number of rejected transactions.",
		}, withLabel(labels, "code")).With(labelsAndValues...),
		Effects: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "effects",
			Help:      "Number of instructions emitted to the host.",
		}, withLabel(labels, "type")).With(labelsAndValues...),
		PendingOrders: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "pending_orders",
			Help:      "Number of pending orders at the last commit.",
		}, labels).With(labelsAndValues...),
		Height: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "height",
			Help:      "Height of the last commit.",
		}, labels).With(labelsAndValues...),
	}
}

func withLabel(labels []string, label string) []string {
	return append(append(make([]string, 0, len(labels)+1), labels...), label)
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Transitions:   discard.NewCounter(),
		FailedTxs:     discard.NewCounter(),
		Effects:       discard.NewCounter(),
		PendingOrders: discard.NewGauge(),
		Height:        discard.NewGauge(),
	}
}
