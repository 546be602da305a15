package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"staticfund-api/internal/handlers"
	"staticfund-api/internal/metrics"
	"staticfund-api/internal/middleware"
	"staticfund-api/internal/ratelimit"
)

// Handlers groups every endpoint handler the router mounts.
type Handlers struct {
	System     *handlers.SystemHandler
	Auth       *handlers.AuthHandler
	Users      *handlers.UserHandler
	Devices    *handlers.DeviceHandler
	Habits     *handlers.HabitHandler
	Advice     *handlers.AdviceHandler
	Quotations *handlers.QuotationHandler
	Reports    *handlers.ReportHandler
}

type Options struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	AllowedOrigins []string
	Stats          *middleware.RequestStats
	Tokens         middleware.TokenVerifier
	Limits         *ratelimit.Set
}

func SetupRouter(r *chi.Mux, baseLogger *zap.Logger, h Handlers, opts Options) {
	r.Use(metrics.Middleware)

	// base middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)

	r.Use(middleware.LoggingContext(baseLogger))
	r.Use(middleware.Recoverer())
	r.Use(opts.Stats.Count)
	r.Use(middleware.CORS(opts.AllowedOrigins))
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(middleware.MaxBodySize(opts.MaxBodyBytes))

	requireAuth := middleware.RequireAuth(opts.Tokens)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.Limits.API))

		r.Get("/test", h.System.Test)
		r.Get("/health", h.System.Health)
		r.With(requireAuth).Get("/stats", h.System.Stats)

		r.With(middleware.RateLimit(opts.Limits.Register)).Post("/register", h.Auth.Register)
		r.With(middleware.RateLimit(opts.Limits.Login)).Post("/login", h.Auth.Login)

		r.Route("/users", func(r chi.Router) {
			r.Use(requireAuth)
			r.Put("/onboarding", h.Users.Onboarding)
			r.Patch("/profile", h.Users.Profile)
			r.Put("/budget", h.Users.Budget)
		})

		r.Get("/devices", h.Devices.List)
		r.Post("/devices", h.Devices.Create)
		r.Put("/devices/{id}", h.Devices.Update)
		r.Delete("/devices/{id}", h.Devices.Delete)

		r.Post("/usage", h.Devices.LogUsage)
		r.Get("/usage", h.Devices.ListUsage)

		r.Get("/habits", h.Habits.List)
		r.Post("/habits/log", h.Habits.Log)

		r.Route("/gemini", func(r chi.Router) {
			r.Use(middleware.RateLimit(opts.Limits.Gemini))
			r.Post("/scan", h.Advice.Scan)
			r.Post("/tips", h.Advice.Tips)
			r.Post("/completeness", h.Advice.Completeness)
			r.Post("/interview", h.Advice.Interview)
			r.Post("/onboard", h.Advice.Onboard)
			r.Post("/solar-quotes", h.Advice.SolarQuotes)
		})

		r.Route("/quotations", func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", h.Quotations.Create)
			r.Get("/", h.Quotations.List)
			r.Get("/{reference}", h.Quotations.Get)
		})

		r.With(requireAuth).Post("/reports/request", h.Reports.Request)
	})

	// health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", metrics.Handler())
}
