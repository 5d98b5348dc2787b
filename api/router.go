package api

import (
	"net/http"
	"time"

	"celerdev/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type RouterProps struct {
	Logger  *logger.LogMiddleware
	Handler *Handler
	// Timeout bounds the whole request; zero disables it.
	Timeout time.Duration
}

func NewRouter(args RouterProps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/", args.Handler.ServeAction)
	r.Post("/interviewAgent", args.Handler.ServeAction)
	r.Post("/api/ai/generate", args.Handler.ForceAction(actionGenerateInstruction))
	r.Post("/api/ai/refine", args.Handler.ForceAction(actionRefineInstruction))

	var h http.Handler = r
	if args.Timeout > 0 {
		h = jsonDefault(http.TimeoutHandler(r, args.Timeout, timeoutBody))
	}

	// Logging and CORS wrap the timeout so they also see its 503.
	return chi.Chain(
		middleware.RequestID,
		middleware.RealIP,
		requestLoggerMiddleware(args.Logger),
		CORS,
	).Handler(h)
}

const timeoutBody = `{"error":"request timed out"}`

// jsonDefault presets the content type; handlers that write audio override it.
func jsonDefault(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// CORS is fully open; the service has no authentication.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLoggerMiddleware(logger *logger.LogMiddleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			logger.Logger(ctx).Info("Request Received",
				zap.String("url", r.URL.Path),
				zap.String("method", r.Method),
				zap.String("request_id", middleware.GetReqID(ctx)))
			next.ServeHTTP(ww, r)
			fields := []zap.Field{
				zap.String("path", r.URL.Path),
				zap.String("method", r.Method),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
			}
			if ww.Status() == http.StatusServiceUnavailable {
				logger.Logger(ctx).Warn("Request Timed Out", fields...)
				return
			}
			logger.Logger(ctx).Info("Request Completed", fields...)
		})
	}
}
