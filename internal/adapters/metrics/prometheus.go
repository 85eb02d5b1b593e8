// Package metrics exposes record log measurements as prometheus collectors.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mrecordlog"

// Prometheus implements ports.MetricsPort with prometheus collectors.
type Prometheus struct {
	recordsAppended prometheus.Counter
	bytesAppended   prometheus.Counter
	truncates       prometheus.Counter
	recordsReplayed prometheus.Counter
	rotations       prometheus.Counter
	segmentsDeleted prometheus.Counter
	flushes         prometheus.Counter
	fsyncs          prometheus.Counter

	queues        prometheus.Gauge
	segments      prometheus.Gauge
	inMemoryBytes prometheus.Gauge
	onDiskBytes   prometheus.Gauge
}

// NewPrometheus creates the collectors and registers them with reg.
// Collectors already registered by another log in the same process are
// shared rather than rejected.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	p := &Prometheus{}
	var err error

	counters := []struct {
		dst  *prometheus.Counter
		name string
		help string
	}{
		{&p.recordsAppended, "records_appended_total", "Total number of records appended to queues"},
		{&p.bytesAppended, "bytes_appended_total", "Total payload bytes appended to queues"},
		{&p.truncates, "truncates_total", "Total number of truncates that advanced a queue watermark"},
		{&p.recordsReplayed, "records_replayed_total", "Total number of records replayed during recovery"},
		{&p.rotations, "segment_rotations_total", "Total number of segment rotations"},
		{&p.segmentsDeleted, "segments_deleted_total", "Total number of segment files deleted"},
		{&p.flushes, "flushes_total", "Total number of buffer flushes"},
		{&p.fsyncs, "fsyncs_total", "Total number of fsyncs of the active segment"},
	}
	for _, c := range counters {
		counter := prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: c.name, Help: c.help})
		if *c.dst, err = register(reg, counter); err != nil {
			return nil, err
		}
	}

	gauges := []struct {
		dst  *prometheus.Gauge
		name string
		help string
	}{
		{&p.queues, "queues", "Current number of queues"},
		{&p.segments, "segments", "Current number of segment files"},
		{&p.inMemoryBytes, "in_memory_bytes", "Payload bytes retained in memory"},
		{&p.onDiskBytes, "on_disk_bytes", "Bytes held by segment files"},
	}
	for _, g := range gauges {
		gauge := prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: g.name, Help: g.help})
		if *g.dst, err = register(reg, gauge); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (p *Prometheus) RecordsAppended(records int, bytes int) {
	p.recordsAppended.Add(float64(records))
	p.bytesAppended.Add(float64(bytes))
}

func (p *Prometheus) QueueTruncated()             { p.truncates.Inc() }
func (p *Prometheus) RecordsReplayed(records int) { p.recordsReplayed.Add(float64(records)) }
func (p *Prometheus) SetQueues(count int)         { p.queues.Set(float64(count)) }
func (p *Prometheus) SetSegments(count int)       { p.segments.Set(float64(count)) }
func (p *Prometheus) SetInMemoryBytes(bytes int)  { p.inMemoryBytes.Set(float64(bytes)) }
func (p *Prometheus) SetOnDiskBytes(bytes int64)  { p.onDiskBytes.Set(float64(bytes)) }
func (p *Prometheus) SegmentRotated()             { p.rotations.Inc() }
func (p *Prometheus) SegmentsDeleted(count int)   { p.segmentsDeleted.Add(float64(count)) }

func (p *Prometheus) Flushed(fsync bool) {
	p.flushes.Inc()
	if fsync {
		p.fsyncs.Inc()
	}
}
