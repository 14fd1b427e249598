package metrics

import (
	"fmt"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"net/http"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cv_extraction_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	JobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cv_extraction_job_duration_seconds",
			Help:    "Duration of each job attempt in seconds.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"type", "outcome"},
	)
	ExtractionStepDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "cv_extraction_step_duration_seconds",
			Help:       "Duration of each step in the extraction pipeline.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step"},
	)
	JobsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cv_extraction_jobs_total",
			Help: "Total number of finished job attempts by outcome.",
		},
		[]string{"type", "outcome"},
	)
	CacheFailOpenCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cv_extraction_cache_fail_open_total",
			Help: "Total number of idempotency checks that fell back to extraction because the store failed.",
		},
	)
	DroppedLanguagesCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cv_extraction_dropped_languages_total",
			Help: "Total number of extracted languages that did not match any known language.",
		},
	)
)

func init() {
	prometheus.MustRegister(ErrorsCounter)
	prometheus.MustRegister(JobDuration)
	prometheus.MustRegister(ExtractionStepDuration)
	prometheus.MustRegister(JobsCounter)
	prometheus.MustRegister(CacheFailOpenCounter)
	prometheus.MustRegister(DroppedLanguagesCounter)
}

func StartMetricsServer(port int) {

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", port), mux))
	}()
}
