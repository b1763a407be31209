// Package metrics exposes Prometheus counters for sequences and packets.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Sequence results.
const (
	ResultOK       = "ok"
	ResultFailed   = "failed"
	ResultCanceled = "canceled"
	ResultRejected = "rejected"
)

var (
	// Registry holds every collector served on /metrics.
	Registry = prometheus.NewRegistry()

	SequencesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomba_sequences_total",
			Help: "Move sequences by outcome.",
		},
		[]string{"result"},
	)

	SequenceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roomba_sequence_duration_seconds",
			Help:    "Wall time spent executing a move sequence.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
	)

	CommandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomba_commands_total",
			Help: "Commands executed, by action.",
		},
		[]string{"action"},
	)

	PacketsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomba_packets_total",
			Help: "Open Interface packets written, by opcode.",
		},
		[]string{"opcode"},
	)

	WriteErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "roomba_write_errors_total",
			Help: "Failed writes on the serial channel.",
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "roomba_queue_depth",
			Help: "Sequences waiting behind the running one.",
		},
	)
)

func init() {
	Registry.MustRegister(
		SequencesTotal,
		SequenceDuration,
		CommandsTotal,
		PacketsTotal,
		WriteErrorsTotal,
		QueueDepth,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}
