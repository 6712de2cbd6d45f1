package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var (
	ErrorsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_errors_total",
			Help: "Total number of occurred errors.",
		},
		[]string{"type"},
	)
	AttemptsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_attempts_total",
			Help: "Total number of finished application attempts.",
		},
		[]string{"site", "outcome"},
	)
	AttemptStepDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "automation_attempt_step_duration_seconds",
			Help:       "Duration of each step in one application attempt.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step"},
	)
	SessionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "automation_session_duration_seconds",
			Help:    "Duration of each automation session in seconds.",
			Buckets: []float64{60, 300, 900, 1800, 3600},
		},
	)
	ScoredPostingsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "automation_postings_scored_total",
			Help: "Total number of postings scored by the match scorer.",
		},
	)
	BreakerTripsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "automation_breaker_trips_total",
			Help: "Total number of per-site circuit breaker trips.",
		},
		[]string{"site"},
	)
)

func StartMetricsServer(addr string) {

	prometheus.MustRegister(ErrorsCounter)
	prometheus.MustRegister(AttemptsCounter)
	prometheus.MustRegister(AttemptStepDuration)
	prometheus.MustRegister(SessionDuration)
	prometheus.MustRegister(ScoredPostingsCounter)
	prometheus.MustRegister(BreakerTripsCounter)

	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Fatal(http.ListenAndServe(addr, nil))
	}()
}
