package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tillpos-backend/internal/config"
	"tillpos-backend/internal/domain"
	"tillpos-backend/internal/handler"
	"tillpos-backend/internal/metrics"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Health        handler.HealthHandler
	Auth          handler.AuthHandler
	Users         handler.UserHandler
	Products      handler.ProductHandler
	ProductsAdmin handler.ProductAdminHandler
	Transactions  handler.TransactionHandler
	Shifts        handler.ShiftHandler
	Reports       handler.ReportHandler
}

// NewRouter wires HTTP routes and middleware. gatherer serves /metrics.
func NewRouter(cfg config.Config, logger *slog.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer, h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(logger))
	r.Use(MetricsMiddleware(m))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	rate := cfg.RateLimit
	if rate <= 0 {
		rate = 200
	}
	r.Use(httprate.LimitByIP(rate, 1*time.Minute))

	h.Health.RegisterRoutes(r)
	h.Auth.RegisterRoutes(r)
	r.Method("GET", "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Group(func(pr chi.Router) {
		pr.Use(AuthMiddleware(cfg.JWTSecret))
		// staff-level (kasir/manager/admin)
		pr.Group(func(sr chi.Router) {
			sr.Use(RequireRole(domain.RoleAdmin, domain.RoleManager, domain.RoleCashier))
			h.Products.RegisterRoutes(sr)
			h.Transactions.RegisterRoutes(sr)
			h.Shifts.RegisterRoutes(sr)
		})
		// manager-level (manager/admin)
		pr.Group(func(mr chi.Router) {
			mr.Use(RequireRole(domain.RoleAdmin, domain.RoleManager))
			h.ProductsAdmin.RegisterRoutes(mr)
			h.Reports.RegisterRoutes(mr)
		})
		// admin only
		pr.Group(func(ar chi.Router) {
			ar.Use(RequireRole(domain.RoleAdmin))
			h.Users.RegisterRoutes(ar)
		})
	})

	return r
}
