// Package metrics holds the in-process counters of a run. They are kept in
// a private registry and summarized into the log at shutdown.
package metrics

import (
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/ayusman/gesturesnake/internal/control"
)

// Namespace prefixes every metric name.
const Namespace = "gesturesnake"

type Metrics struct {
	registry *prometheus.Registry

	Frames         prometheus.Counter
	FramesWithHand prometheus.Counter
	FrameErrors    prometheus.Counter
	Directions     *prometheus.CounterVec
	PinchFrames    prometheus.Counter
	Ticks          prometheus.Counter
	Fruit          prometheus.Counter
	Restarts       prometheus.Counter
	Score          prometheus.Gauge
	FrameLatency   prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "frames_total",
			Help:      "Camera frames processed by the observation loop",
		}),
		FramesWithHand: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "frames_with_hand_total",
			Help:      "Frames in which a hand was detected",
		}),
		FrameErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "frame_errors_total",
			Help:      "Frames that failed to capture or detect",
		}),
		Directions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "directions_total",
			Help:      "Committed direction changes by direction",
		}, []string{"direction"}),
		PinchFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "pinch_frames_total",
			Help:      "Frames classified as pinching",
		}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "ticks_total",
			Help:      "Simulation ticks",
		}),
		Fruit: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "fruit_eaten_total",
			Help:      "Fruit eaten across all rounds",
		}),
		Restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "restarts_total",
			Help:      "Rounds restarted after game over",
		}),
		Score: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "score",
			Help:      "Score of the current round",
		}),
		FrameLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "frame_latency_seconds",
			Help:      "Time from frame capture to published command",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
	}

	m.registry.MustRegister(
		m.Frames,
		m.FramesWithHand,
		m.FrameErrors,
		m.Directions,
		m.PinchFrames,
		m.Ticks,
		m.Fruit,
		m.Restarts,
		m.Score,
		m.FrameLatency,
	)

	return m
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveFrame records one processed frame.
func (m *Metrics) ObserveFrame(hasHand, pinching bool, latency time.Duration) {
	m.Frames.Inc()
	if hasHand {
		m.FramesWithHand.Inc()
	}
	if pinching {
		m.PinchFrames.Inc()
	}
	m.FrameLatency.Observe(latency.Seconds())
}

func (m *Metrics) IncFrameErrors() {
	m.FrameErrors.Inc()
}

// IncDirection counts a committed direction change.
func (m *Metrics) IncDirection(d control.Direction) {
	m.Directions.WithLabelValues(d.String()).Inc()
}

func (m *Metrics) IncTicks() {
	m.Ticks.Inc()
}

func (m *Metrics) IncFruit() {
	m.Fruit.Inc()
}

func (m *Metrics) IncRestarts() {
	m.Restarts.Inc()
}

func (m *Metrics) SetScore(score int) {
	m.Score.Set(float64(score))
}

// Summary gathers the current values as name/value pairs suitable for a
// structured log line, sorted by name. Labelled series use name{label}, and
// histograms report their sample count and mean.
func (m *Metrics) Summary() ([]any, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}

	values := map[string]float64{}
	for _, mf := range families {
		name := mf.GetName()
		for _, metric := range mf.GetMetric() {
			key := name
			if labels := metric.GetLabel(); len(labels) > 0 {
				key += "{" + labels[0].GetValue() + "}"
			}
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				values[key] = metric.GetCounter().GetValue()
			case dto.MetricType_GAUGE:
				values[key] = metric.GetGauge().GetValue()
			case dto.MetricType_HISTOGRAM:
				h := metric.GetHistogram()
				values[key+"_count"] = float64(h.GetSampleCount())
				if n := h.GetSampleCount(); n > 0 {
					values[key+"_mean"] = h.GetSampleSum() / float64(n)
				}
			}
		}
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		kv = append(kv, k, values[k])
	}
	return kv, nil
}
