package chat

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/louisbranch/chatfeed/internal/services/chat/platform/httpx"
	"github.com/louisbranch/chatfeed/internal/services/chat/static"
)

func newRouter(h *handlers, cfg Config) http.Handler {
	r := chi.NewRouter()
	r.Use(httpx.RecoverPanic(cfg.Logger))
	r.Use(httpx.RequestID())
	// Forwarded client addresses feed the rate limiter, so they are only
	// honored behind a trusted proxy.
	if cfg.SchemePolicy.TrustForwardedProto {
		r.Use(middleware.RealIP)
	}
	r.Use(httpx.RequestLogger(cfg.Logger))
	r.Use(httpx.Metrics())
	r.Use(httpx.SecurityHeaders())

	r.Get("/", h.showPage)
	r.Get("/feed", h.showFeed)
	r.Get("/healthz", h.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static.FS))))

	r.Group(func(r chi.Router) {
		r.Use(httpx.RejectCrossOrigin(cfg.SchemePolicy))
		r.Use(httpx.MaxBodySize(cfg.MaxBodyBytes))
		r.With(httpx.RateLimit(cfg.SendLimiter, nil)).Post("/feed/revalidate", h.revalidate)
		r.With(httpx.RateLimit(cfg.SendLimiter, h.sendRateLimited)).Post("/messages", h.sendMessage)
		r.With(httpx.RateLimit(cfg.SendLimiter, h.usernameRateLimited)).Post("/username", h.setUsername)
	})
	return r
}
