package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Metrics содержит все метрики шлюза
type Metrics struct {
	logger   *zap.Logger
	registry *prometheus.Registry

	// Счетчики
	httpRequests     *prometheus.CounterVec
	providerRequests *prometheus.CounterVec
	audioBytes       prometheus.Counter

	// Гистограммы
	httpDuration     *prometheus.HistogramVec
	providerDuration *prometheus.HistogramVec
}

// New создает новый экземпляр метрик с собственным реестром
func New(logger *zap.Logger) *Metrics {
	m := &Metrics{
		logger:   logger,
		registry: prometheus.NewRegistry(),

		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Общее количество HTTP запросов к шлюзу",
			},
			[]string{"method", "route", "status"},
		),

		providerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "provider_requests_total",
				Help: "Общее количество обращений к внешним провайдерам",
			},
			[]string{"operation", "status"}, // status: success, failed, timeout
		),

		audioBytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "synthesized_audio_bytes_total",
				Help: "Объем синтезированного аудио в байтах",
			},
		),

		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Время обработки HTTP запроса в секундах",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		providerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "provider_response_time_seconds",
				Help:    "Время ответа внешнего провайдера в секундах",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"operation"},
		),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.providerRequests,
		m.audioBytes,
		m.httpDuration,
		m.providerDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

// RecordHTTPRequest записывает обработанный HTTP запрос
func (m *Metrics) RecordHTTPRequest(method, route, status string, seconds float64) {
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}

// RecordProviderCall записывает обращение к провайдеру
func (m *Metrics) RecordProviderCall(operation, status string, seconds float64) {
	m.providerRequests.WithLabelValues(operation, status).Inc()
	m.providerDuration.WithLabelValues(operation).Observe(seconds)
	m.logger.Debug("метрика провайдера обновлена",
		zap.String("operation", operation),
		zap.String("status", status),
		zap.Float64("seconds", seconds))
}

// RecordAudioBytes учитывает объем синтезированного аудио
func (m *Metrics) RecordAudioBytes(n int) {
	m.audioBytes.Add(float64(n))
}

// Registry возвращает реестр метрик
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler возвращает HTTP handler для метрик
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
