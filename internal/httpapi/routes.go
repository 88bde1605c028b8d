package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/DoyleJ11/hexboard-backend/internal/engine"
	"github.com/DoyleJ11/hexboard-backend/internal/hub"
	"github.com/DoyleJ11/hexboard-backend/internal/ws"
)

type Deps struct {
	Hub    *hub.Hub
	Rules  engine.Rules
	WS     ws.Options
	Logger *zap.Logger
}

func SetupRoutes(d Deps) http.Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if d.WS.Logger == nil {
		d.WS.Logger = log.Named("ws")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log.Named("http")))
	r.Use(middleware.Recoverer)

	// Public routes
	r.Post("/sessions", CreateSession(d.Hub, d.Rules, log))
	r.Get("/sessions/{code}", GetSession(d.Hub))
	r.Get("/healthz", Healthz)
	r.Get("/ws", ws.Handler(d.Hub, d.WS))
	return r
}

func requestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Debug("request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Duration("took", time.Since(start)))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
