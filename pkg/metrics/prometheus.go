package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics глобальный контейнер метрик
type Metrics struct {
	// HTTP метрики
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Метрики заданий оптимизации
	JobsSubmittedTotal  *prometheus.CounterVec
	JobsCompletedTotal  *prometheus.CounterVec
	JobQueueDepth       prometheus.Gauge
	JobDurationSeconds  *prometheus.HistogramVec
	SolveDurationSeconds *prometheus.HistogramVec

	// Метрики решения VRP
	RoutesCreatedTotal    *prometheus.CounterVec
	UnassignedShipments   *prometheus.HistogramVec
	VehiclesUsed          *prometheus.HistogramVec
	SolutionObjectiveValue *prometheus.GaugeVec
	TemperatureViolations *prometheus.CounterVec

	// Системные метрики
	MemoryUsage *prometheus.GaugeVec
	Goroutines  prometheus.Gauge

	// Информация о сервисе
	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics инициализирует метрики
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		JobsSubmittedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_submitted_total",
				Help:      "Total number of optimization jobs submitted",
			},
			[]string{},
		),

		JobsCompletedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "jobs_completed_total",
				Help:      "Total number of optimization jobs completed, by terminal status",
			},
			[]string{"status"},
		),

		JobQueueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "job_queue_depth",
				Help:      "Current number of jobs waiting in the broker queue",
			},
		),

		JobDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "job_duration_seconds",
				Help:      "Wall-clock time from job submission to terminal status",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 3600},
			},
			[]string{"status"},
		),

		SolveDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solve_duration_seconds",
				Help:      "Duration of the constraint solver run itself",
				Buckets:   []float64{.5, 1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"status"},
		),

		RoutesCreatedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "routes_created_total",
				Help:      "Total number of routes materialized from accepted solutions",
			},
			[]string{},
		),

		UnassignedShipments: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "unassigned_shipments",
				Help:      "Number of shipments left unassigned per solve",
				Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
			},
			[]string{},
		),

		VehiclesUsed: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "vehicles_used",
				Help:      "Number of vehicles that served at least one stop per solve",
				Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
			},
			[]string{},
		),

		SolutionObjectiveValue: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "solution_objective_value",
				Help:      "Objective value of the last accepted solution",
			},
			[]string{"job_id"},
		),

		TemperatureViolations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "temperature_violations_total",
				Help:      "Total number of stops that breached their temperature SLA",
			},
			[]string{"sla"},
		),

		MemoryUsage: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "memory_usage_bytes",
				Help:      "Current memory usage",
			},
			[]string{"type"},
		),

		Goroutines: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "goroutines",
				Help:      "Current number of goroutines",
			},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service information",
			},
			[]string{"version", "environment"},
		),
	}

	defaultMetrics = m
	return m
}

// Get возвращает глобальные метрики
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("logistics", "routing")
	}
	return defaultMetrics
}

// RecordHTTPRequest записывает метрики HTTP запроса
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordJobSubmitted увеличивает счётчик принятых заданий
func (m *Metrics) RecordJobSubmitted() {
	m.JobsSubmittedTotal.WithLabelValues().Inc()
}

// RecordJobCompleted записывает завершение задания с его терминальным статусом
func (m *Metrics) RecordJobCompleted(status string, duration time.Duration) {
	m.JobsCompletedTotal.WithLabelValues(status).Inc()
	m.JobDurationSeconds.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordSolve записывает длительность и результат запуска решателя
func (m *Metrics) RecordSolve(status string, duration time.Duration) {
	m.SolveDurationSeconds.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordSolution записывает характеристики принятого решения
func (m *Metrics) RecordSolution(jobID string, routesCreated, unassigned, vehiclesUsed int, objective float64) {
	m.RoutesCreatedTotal.WithLabelValues().Add(float64(routesCreated))
	m.UnassignedShipments.WithLabelValues().Observe(float64(unassigned))
	m.VehiclesUsed.WithLabelValues().Observe(float64(vehiclesUsed))
	m.SolutionObjectiveValue.WithLabelValues(jobID).Set(objective)
}

// RecordTemperatureViolation увеличивает счётчик нарушений температурного SLA
func (m *Metrics) RecordTemperatureViolation(sla string) {
	m.TemperatureViolations.WithLabelValues(sla).Inc()
}

// SetQueueDepth устанавливает текущую глубину очереди заданий
func (m *Metrics) SetQueueDepth(depth int) {
	m.JobQueueDepth.Set(float64(depth))
}

// SetServiceInfo устанавливает информацию о сервисе
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler возвращает HTTP handler для /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer запускает HTTP сервер для метрик
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		// Игнорируем ошибку записи - response уже отправлен
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint, ошибка записи не критична
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
