package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success                  Outcome       = "success"
	Error                    Outcome       = "error"
	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (O Outcome) String() string {
	return string(O)
}

func outcome(failure bool) Outcome {
	if failure {
		return Error
	}
	return Success
}

var defaultHistogramBucketsSeconds = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30}

// Collectors exist from package load so recording works before Init; Init
// registers them and starts serving.
var (
	once          sync.Once
	metricsRouter *chi.Mux

	custodyClientLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "custody_client_latency_seconds",
			Help:    "Histogram of custody client durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"method", "status"},
	)

	// add a counter for the number of errors from the fail to push message into queue
	queueSendErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_send_error_count",
			Help: "The total number of errors when sending messages to the queue",
		},
	)

	pollerDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poller_duration_seconds",
			Help:    "Histogram of poller durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"type", "status"},
	)

	transitionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_transition_duration_seconds",
			Help:    "Ledger execute message duration in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"action", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of api request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"endpoint", "status"},
	)

	poolTotalSharesGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_pool_total_shares",
			Help: "Total shares outstanding",
		},
	)

	poolTotalTokensGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_pool_total_tokens",
			Help: "Total tokens backing the pool",
		},
	)

	pendingTransfersGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_pending_transfers",
			Help: "Number of transfer instructions not yet dispatched",
		},
	)

	unsettledTransfersGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ledger_unsettled_transfers",
			Help: "Number of transfer instructions not yet acknowledged as executed",
		},
	)

	dbLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "db_latency_seconds",
			Help: "DB latency in seconds splitted by method and execution status",
		},
		[]string{"method", "status"},
	)
)

// Init initializes the metrics package.
func Init(metricsPort int) {
	once.Do(func() {
		initMetricsRouter(metricsPort)
		registerMetrics()
	})
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	// Create a custom server with timeout settings
	metricsAddr := fmt.Sprintf(":%d", metricsPort)
	server := &http.Server{
		Addr:         metricsAddr,
		Handler:      metricsRouter,
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	// Start the server in a separate goroutine
	go func() {
		log.Printf("Starting metrics server on %s", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("Error starting metrics server on %s", metricsAddr)
		}
	}()
}

// registerMetrics register the Prometheus metrics.
func registerMetrics() {
	prometheus.MustRegister(
		custodyClientLatency,
		queueSendErrorCounter,
		pollerDurationHistogram,
		transitionDuration,
		httpRequestDuration,
		poolTotalSharesGauge,
		poolTotalTokensGauge,
		pendingTransfersGauge,
		unsettledTransfersGauge,
		dbLatency,
	)
}

func RecordCustodyClientLatency(d time.Duration, method string, failure bool) {
	custodyClientLatency.WithLabelValues(method, outcome(failure).String()).Observe(d.Seconds())
}

func RecordDbLatency(d time.Duration, method string, failure bool) {
	dbLatency.WithLabelValues(method, outcome(failure).String()).Observe(d.Seconds())
}

func RecordTransitionDuration(d time.Duration, action string, failure bool) {
	transitionDuration.WithLabelValues(action, outcome(failure).String()).Observe(d.Seconds())
}

func RecordHttpRequestDuration(d time.Duration, endpoint string, statusCode int) {
	httpRequestDuration.WithLabelValues(endpoint, fmt.Sprintf("%d", statusCode)).Observe(d.Seconds())
}

// RecordPoolTotals exports pool totals. Values above float64 precision are
// approximated.
func RecordPoolTotals(totalShares, totalTokens float64) {
	poolTotalSharesGauge.Set(totalShares)
	poolTotalTokensGauge.Set(totalTokens)
}

func RecordPendingTransfers(count int64) {
	pendingTransfersGauge.Set(float64(count))
}

func RecordUnsettledTransfers(count int64) {
	unsettledTransfersGauge.Set(float64(count))
}

func RecordQueueSendError() {
	queueSendErrorCounter.Inc()
}
