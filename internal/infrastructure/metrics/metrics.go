package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records backup run outcomes. The scheduler daemon exposes them
// over HTTP; one-shot runs use Noop.
type Metrics interface {
	IncRunStarted(source string)
	IncRunCompleted(source, status string)
	AddArtifactBytes(source string, bytes float64)
	IncArtifactsRemoved(store string)
	ObserveRunDuration(source string, seconds float64)
}

// Run statuses reported to IncRunCompleted.
const (
	StatusOK           = "ok"
	StatusFailed       = "failed"
	StatusUploadFailed = "upload_failed"
)

// Noop implements Metrics without emitting anything.
type Noop struct{}

func (Noop) IncRunStarted(string)               {}
func (Noop) IncRunCompleted(string, string)     {}
func (Noop) AddArtifactBytes(string, float64)   {}
func (Noop) IncArtifactsRemoved(string)         {}
func (Noop) ObserveRunDuration(string, float64) {}

// Prom implements Metrics backed by Prometheus collectors.
type Prom struct {
	runsStarted      *prometheus.CounterVec
	runsCompleted    *prometheus.CounterVec
	artifactBytes    *prometheus.CounterVec
	artifactsRemoved *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	once             sync.Once
}

func NewProm(namespace string) *Prom {
	p := &Prom{
		runsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Backup runs started by source",
		}, []string{"source"}),
		runsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_completed_total",
			Help:      "Backup runs completed by source and status",
		}, []string{"source", "status"}),
		artifactBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_bytes_total",
			Help:      "Bytes of backup artifacts produced by source",
		}, []string{"source"}),
		artifactsRemoved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifacts_removed_total",
			Help:      "Artifacts removed by retention per store",
		}, []string{"store"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Backup run duration by source",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
	}
	p.register()
	return p
}

func (p *Prom) register() {
	p.once.Do(func() {
		prometheus.MustRegister(p.runsStarted, p.runsCompleted, p.artifactBytes, p.artifactsRemoved, p.runDuration)
	})
}

func (p *Prom) IncRunStarted(source string) {
	p.runsStarted.WithLabelValues(source).Inc()
}

func (p *Prom) IncRunCompleted(source, status string) {
	p.runsCompleted.WithLabelValues(source, status).Inc()
}

func (p *Prom) AddArtifactBytes(source string, bytes float64) {
	p.artifactBytes.WithLabelValues(source).Add(bytes)
}

func (p *Prom) IncArtifactsRemoved(store string) {
	p.artifactsRemoved.WithLabelValues(store).Inc()
}

func (p *Prom) ObserveRunDuration(source string, seconds float64) {
	p.runDuration.WithLabelValues(source).Observe(seconds)
}

// Handler returns an HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
