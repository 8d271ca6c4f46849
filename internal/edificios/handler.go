package edificios

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/consorcia/consorcia/internal/platform/httpx"
	"github.com/consorcia/consorcia/internal/shared"
)

// Handler exposes building configuration endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      Middleware
}

// NewHandler constructs the Handler.
func NewHandler(logger *slog.Logger, service *Service, mw Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers building routes under /api/edificio.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Get("/", h.show)
		r.With(h.mw.RequireAdmin).Put("/", h.updateConfig)
	})
}

type edificioView struct {
	ID                  int64           `json:"id"`
	Nombre              string          `json:"nombre"`
	TotalUnidades       int             `json:"totalUnidades"`
	CuotaMensual        decimal.Decimal `json:"cuotaMensual"`
	CuotaExtraordinaria decimal.Decimal `json:"cuotaExtraordinaria"`
	DiaCorte            int             `json:"diaCorte"`
	DiasGracia          int             `json:"diasGracia"`
	RecargoPorc         decimal.Decimal `json:"recargoPorc"`
	FondoIngresos       string          `json:"fondoIngresos"`
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	edificio, err := h.service.Get(r.Context(), id.EdificioID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"edificio": toView(edificio)})
}

func (h *Handler) updateConfig(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	var in ConfigInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "cuerpo invalido")
		return
	}
	edificio, err := h.service.UpdateConfig(r.Context(), id.EdificioID, in)
	if err != nil {
		h.logger.Warn("update edificio config", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"edificio": toView(edificio)})
}

func toView(e Edificio) edificioView {
	return edificioView{
		ID:                  e.ID,
		Nombre:              e.Nombre,
		TotalUnidades:       e.TotalUnidades,
		CuotaMensual:        e.CuotaMensual,
		CuotaExtraordinaria: e.CuotaExtraordinaria,
		DiaCorte:            e.DiaCorte,
		DiasGracia:          e.DiasGracia,
		RecargoPorc:         e.RecargoPorc,
		FondoIngresos:       e.FondoIngresos,
	}
}
