// Package telemetry defines the Prometheus collectors for batch runs and
// the web UI and exposes an HTTP handler for scraping.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Metrics holds all collectors. Each Metrics has its own registry so tests
// and commands can create as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	ArticlesFetched  *prometheus.CounterVec
	ArticlesAnalyzed *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram
	LexiconWords     *prometheus.GaugeVec
	HTTPRequests     *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ArticlesFetched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "articles_fetched_total",
				Help: "Articles fetched and extracted, by result.",
			},
			[]string{"result"},
		),
		ArticlesAnalyzed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "articles_analyzed_total",
				Help: "Articles analyzed, by result. Failed articles are reported as zero records.",
			},
			[]string{"result"},
		),
		AnalysisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "analysis_duration_seconds",
				Help:    "Time spent computing metrics for one article.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
		),
		LexiconWords: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lexicon_words",
				Help: "Number of words loaded per lexicon set.",
			},
			[]string{"set"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Web UI requests by route and status.",
			},
			[]string{"route", "status"},
		),
	}

	m.registry.MustRegister(
		m.ArticlesFetched,
		m.ArticlesAnalyzed,
		m.AnalysisDuration,
		m.LexiconWords,
		m.HTTPRequests,
	)

	return m
}

// ObserveFetch counts one fetch attempt.
func (m *Metrics) ObserveFetch(err error) {
	if m == nil {
		return
	}
	m.ArticlesFetched.WithLabelValues(result(err)).Inc()
}

// ObserveAnalysis counts one analyzed article and its duration.
func (m *Metrics) ObserveAnalysis(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.ArticlesAnalyzed.WithLabelValues(result(err)).Inc()
	if err == nil {
		m.AnalysisDuration.Observe(d.Seconds())
	}
}

// SetLexicon records the sizes of the loaded word sets.
func (m *Metrics) SetLexicon(stopwords, positive, negative int) {
	if m == nil {
		return
	}
	m.LexiconWords.WithLabelValues("stopwords").Set(float64(stopwords))
	m.LexiconWords.WithLabelValues("positive").Set(float64(positive))
	m.LexiconWords.WithLabelValues("negative").Set(float64(negative))
}

// Handler returns the scrape handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return ResultFailed
	}
	return ResultOK
}
