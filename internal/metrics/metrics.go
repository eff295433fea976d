package metrics

import (
	"ticksession/internal/dto"

	"github.com/prometheus/client_golang/prometheus"
)

// Merge counts what merge engines emit. It satisfies merge.Observer.
type Merge struct {
	records  *prometheus.CounterVec
	failures *prometheus.CounterVec
}

func NewMerge(reg prometheus.Registerer) *Merge {
	m := &Merge{
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticks_merged_total",
			Help: "Ticks emitted by merge engines, by source and kind.",
		}, []string{"source", "kind"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ticks_source_failures_total",
			Help: "Merges halted by a failing source.",
		}, []string{"source"}),
	}
	reg.MustRegister(m.records, m.failures)
	return m
}

func (m *Merge) RecordEmitted(source string, kind dto.DataKind) {
	m.records.WithLabelValues(source, kind.String()).Inc()
}

func (m *Merge) SourceFailed(source string, _ error) {
	m.failures.WithLabelValues(source).Inc()
}

// Publisher counts records written to the outbound topic.
type Publisher struct {
	published prometheus.Counter
	failed    prometheus.Counter
}

func NewPublisher(reg prometheus.Registerer) *Publisher {
	p := &Publisher{
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ticks_published_total",
			Help: "Ticks written to Kafka.",
		}),
		failed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ticks_publish_failures_total",
			Help: "Kafka batch writes that failed.",
		}),
	}
	reg.MustRegister(p.published, p.failed)
	return p
}

func (p *Publisher) Published(n int) {
	p.published.Add(float64(n))
}

func (p *Publisher) PublishFailed() {
	p.failed.Inc()
}
