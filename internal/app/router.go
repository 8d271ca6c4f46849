package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/consorcia/consorcia/internal/auth"
	"github.com/consorcia/consorcia/internal/cierres"
	"github.com/consorcia/consorcia/internal/cuotas"
	"github.com/consorcia/consorcia/internal/edificios"
	"github.com/consorcia/consorcia/internal/fondos"
	"github.com/consorcia/consorcia/internal/gastos"
	"github.com/consorcia/consorcia/internal/observability"
	"github.com/consorcia/consorcia/internal/shared"
	"github.com/consorcia/consorcia/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager

	AuthHandler     *auth.Handler
	EdificioHandler *edificios.Handler
	FondosHandler   *fondos.Handler
	CuotasHandler   *cuotas.Handler
	GastosHandler   *gastos.Handler
	CierresHandler  *cierres.Handler
	JobHandler      *jobs.Handler
	Metrics         *observability.Metrics
}

// NewRouter constructs the chi.Router with the application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)
		if params.EdificioHandler != nil {
			r.Route("/edificio", params.EdificioHandler.MountRoutes)
		}
		if params.FondosHandler != nil {
			r.Route("/fondos", params.FondosHandler.MountRoutes)
		}
		if params.CuotasHandler != nil {
			r.Route("/cuotas", params.CuotasHandler.MountRoutes)
		}
		if params.GastosHandler != nil {
			r.Route("/gastos", params.GastosHandler.MountRoutes)
		}
		if params.CierresHandler != nil {
			r.Route("/cierres", params.CierresHandler.MountRoutes)
		}
	})

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
