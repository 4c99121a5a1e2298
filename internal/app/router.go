package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-crm/meridian-crm/internal/auth"
	"github.com/meridian-crm/meridian-crm/internal/clients"
	"github.com/meridian-crm/meridian-crm/internal/contracts"
	"github.com/meridian-crm/meridian-crm/internal/events"
	"github.com/meridian-crm/meridian-crm/internal/observability"
	"github.com/meridian-crm/meridian-crm/internal/rbac"
	"github.com/meridian-crm/meridian-crm/internal/users"
	"github.com/meridian-crm/meridian-crm/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	AuthHandler      *auth.Handler
	AuthMiddleware   *auth.Middleware
	RBACHandler      *rbac.Handler
	UsersHandler     *users.Handler
	ClientsHandler   *clients.Handler
	ContractsHandler *contracts.Handler
	EventsHandler    *events.Handler
	JobsHandler      *jobs.Handler
	Metrics          *observability.Metrics
	Pool             *pgxpool.Pool
}

// NewRouter assembles the chi router with the full middleware chain.
func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	for _, mw := range MiddlewareStack(MiddlewareConfig{Logger: p.Logger, Config: p.Config, Metrics: p.Metrics}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if p.Pool != nil {
			if err := p.Pool.Ping(req.Context()); err != nil {
				http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if p.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", p.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.With(LoginRateLimiter(p.Config)).Post("/login", p.AuthHandler.HandleLogin)
		r.With(p.AuthMiddleware.RequirePrincipal).Post("/logout", p.AuthHandler.HandleLogout)
	})

	r.Group(func(r chi.Router) {
		r.Use(p.AuthMiddleware.RequirePrincipal)
		p.UsersHandler.MountRoutes(r)
		p.RBACHandler.MountRoutes(r)
		p.ClientsHandler.MountRoutes(r)
		p.ContractsHandler.MountRoutes(r)
		p.EventsHandler.MountRoutes(r)
		if p.JobsHandler != nil {
			r.Route("/jobs", p.JobsHandler.MountRoutes)
		}
	})

	return r
}
