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

var (
	once                           sync.Once
	metricsRouter                  *chi.Mux
	registryClientLatency          *prometheus.HistogramVec
	queueSendErrorCounter          prometheus.Counter
	clientRequestDurationHistogram *prometheus.HistogramVec
	pollerDurationHistogram        *prometheus.HistogramVec
	releasableRecordsGauge         prometheus.Gauge
	custodyOperationDuration       *prometheus.HistogramVec
	pointsCreditedCounter          prometheus.Counter
	compensationFailureCounter     *prometheus.CounterVec
	apiRequestDurationHistogram    *prometheus.HistogramVec
	dbLatency                      *prometheus.HistogramVec
)

func init() {
	registerMetrics()
}

// Init starts the metrics server. Collectors are registered at package
// initialization, so recording before Init is safe.
func Init(metricsPort int) {
	once.Do(func() {
		initMetricsRouter(metricsPort)
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

// registerMetrics initializes and register the Prometheus metrics.
func registerMetrics() {
	defaultHistogramBucketsSeconds := []float64{0.1, 0.5, 1, 2.5, 5, 10, 30}

	// client requests are the ones sending to other service
	clientRequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "client_request_duration_seconds",
			Help:    "Histogram of outgoing client request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"baseurl", "method", "path", "status"},
	)

	registryClientLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "registry_client_latency_seconds",
			Help:    "Histogram of asset registry client durations in seconds.",
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

	releasableRecordsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "releasable_custody_records_count",
			Help: "Number of custody records whose freeze period has passed",
		},
	)

	custodyOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "custody_operation_duration_seconds",
			Help:    "Stake and unstake duration in seconds split by outcome.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"operation", "status", "error_code"},
	)

	pointsCreditedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "points_credited_total",
			Help: "Total reward points credited to user ledgers",
		},
	)

	compensationFailureCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_compensation_failure_count",
			Help: "Number of registry rollbacks that failed and left the asset inconsistent",
		},
		[]string{"operation"},
	)

	apiRequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of API request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"method", "route", "status"},
	)

	dbLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "db_latency_seconds",
			Help: "DB latency in seconds splitted by method and execution status",
		},
		[]string{"method", "status"},
	)

	prometheus.MustRegister(
		registryClientLatency,
		queueSendErrorCounter,
		clientRequestDurationHistogram,
		pollerDurationHistogram,
		releasableRecordsGauge,
		custodyOperationDuration,
		pointsCreditedCounter,
		compensationFailureCounter,
		apiRequestDurationHistogram,
		dbLatency,
	)
}

func RecordRegistryClientLatency(d time.Duration, method string, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	registryClientLatency.WithLabelValues(method, status.String()).Observe(d.Seconds())
}

func RecordDbLatency(d time.Duration, method string, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	dbLatency.WithLabelValues(method, status.String()).Observe(d.Seconds())
}

func RecordPollerDuration(d time.Duration, pollerType string, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	pollerDurationHistogram.WithLabelValues(pollerType, status.String()).Observe(d.Seconds())
}

func RecordReleasableRecordsCount(count int64) {
	releasableRecordsGauge.Set(float64(count))
}

// RecordCustodyOperation records a stake/unstake attempt. errorCode is empty
// on success.
func RecordCustodyOperation(d time.Duration, operation, errorCode string) {
	status := Success
	if errorCode != "" {
		status = Error
	}

	custodyOperationDuration.WithLabelValues(operation, status.String(), errorCode).Observe(d.Seconds())
}

func AddPointsCredited(points uint64) {
	pointsCreditedCounter.Add(float64(points))
}

func IncCompensationFailures(operation string) {
	compensationFailureCounter.WithLabelValues(operation).Inc()
}

func RecordAPIRequestDuration(d time.Duration, method, route string, statusCode int) {
	apiRequestDurationHistogram.WithLabelValues(method, route, fmt.Sprintf("%d", statusCode)).Observe(d.Seconds())
}

// StartClientRequestDurationTimer starts a timer to measure outgoing client request duration.
func StartClientRequestDurationTimer(baseUrl, method, path string) func(statusCode int) {
	startTime := time.Now()
	return func(statusCode int) {
		duration := time.Since(startTime).Seconds()
		clientRequestDurationHistogram.WithLabelValues(
			baseUrl,
			method,
			path,
			fmt.Sprintf("%d", statusCode),
		).Observe(duration)
	}
}

func RecordQueueSendError() {
	queueSendErrorCounter.Inc()
}
