package gateway

import (
	"fmt"
	"net/http"
	"time"

	"voice-assistant/internal/config"
	"voice-assistant/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// NewRouter собирает HTTP маршруты шлюза
func NewRouter(h *Handler, mh *metrics.Handler, m *metrics.Metrics, cfg config.HTTPConfig, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		withMetrics(m),
		withLogging(logger),
	)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"Content-Length", "Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", mh.HealthHandler)
	r.Method(http.MethodGet, "/metrics", mh.MetricsHandler())

	r.Route("/voice", func(vr chi.Router) {
		if cfg.RateLimit > 0 {
			vr.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
		}

		vr.Post("/speech-to-text", h.SpeechToText)
		vr.Post("/text-to-speech", h.TextToSpeech)
		vr.Get("/voices", h.Voices)
		vr.Post("/process-conversation", h.ProcessConversation)
	})

	return r
}

// unmatchedRoute метка для запросов вне маршрутов, сырой путь в метки не попадает
const unmatchedRoute = "unmatched"

// withMetrics учитывает HTTP запросы по шаблону маршрута
func withMetrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			if m == nil {
				return
			}
			route := unmatchedRoute
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.RecordHTTPRequest(r.Method, route, fmt.Sprintf("%d", status), time.Since(start).Seconds())
		})
	}
}

// withLogging пишет access-лог запроса
func withLogging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("HTTP запрос",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
