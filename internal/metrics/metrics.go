package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Image fetch outcomes.
const (
	FetchSuccess  = "success"
	FetchFallback = "fallback"
)

var (
	activeStreams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catchat_active_streams",
		Help: "Number of event streams currently held open",
	})

	streamsClosedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catchat_streams_closed_total",
		Help: "Event streams closed grouped by reason",
	}, []string{"reason"})

	framesSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catchat_frames_sent_total",
		Help: "Frames written to clients grouped by kind",
	}, []string{"kind"})

	imageFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catchat_image_fetch_duration_seconds",
		Help:    "Latency of cat image lookups",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"outcome"})

	imageFetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catchat_image_fetch_total",
		Help: "Cat image lookups grouped by outcome",
	}, []string{"outcome"})
)

// StreamOpened records a newly opened event stream.
func StreamOpened() {
	activeStreams.Inc()
}

// StreamClosed records the end of an event stream.
func StreamClosed(reason string) {
	if reason == "" {
		reason = "unknown"
	}
	activeStreams.Dec()
	streamsClosedTotal.WithLabelValues(reason).Inc()
}

// ActiveStreams reports the current open stream count.
func ActiveStreams() float64 {
	var m dto.Metric
	if err := activeStreams.Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

// FrameSent records one frame written to a client.
func FrameSent(kind string) {
	framesSentTotal.WithLabelValues(kind).Inc()
}

// ObserveImageFetch records the duration and outcome of an image lookup.
func ObserveImageFetch(outcome string, duration time.Duration) {
	imageFetchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	imageFetchTotal.WithLabelValues(outcome).Inc()
}
