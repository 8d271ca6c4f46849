package cierres

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/consorcia/consorcia/internal/edificios"
	"github.com/consorcia/consorcia/internal/platform/httpx"
	"github.com/consorcia/consorcia/internal/shared"
)

// Handler wires the closure endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      edificios.Middleware
}

// NewHandler constructs the Handler.
func NewHandler(logger *slog.Logger, service *Service, mw edificios.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers closure routes under /api/cierres.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.With(h.mw.RequireAdmin).Post("/", h.create)
	})
}

type createRequest struct {
	Tipo string          `json:"tipo"`
	Mes  json.RawMessage `json:"mes"`
	Anio int             `json:"anio"`
}

type cierreView struct {
	ID            int64           `json:"id"`
	Tipo          TipoCierre      `json:"tipo"`
	Mes           int             `json:"mes,omitempty"`
	Anio          int             `json:"anio"`
	Periodo       string          `json:"periodo"`
	TotalIngresos decimal.Decimal `json:"totalIngresos"`
	TotalEgresos  decimal.Decimal `json:"totalEgresos"`
	Resultado     decimal.Decimal `json:"resultado"`
	Fondos        []FondoSaldo    `json:"fondos"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "cuerpo invalido")
		return
	}
	tipo := TipoMensual
	if req.Tipo != "" {
		tipo = TipoCierre(strings.ToUpper(req.Tipo))
	}
	mes := 0
	if tipo == TipoMensual {
		var err error
		mes, err = decodeMes(req.Mes)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	cierre, err := h.service.Create(r.Context(), CreateInput{
		EdificioID: id.EdificioID,
		Tipo:       tipo,
		Mes:        mes,
		Anio:       req.Anio,
		ActorID:    id.UserID,
	})
	if err != nil {
		h.logger.Warn("crear cierre", slog.Int64("edificio", id.EdificioID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, map[string]any{
		"cierre": toCierreView(cierre),
		"msg":    "Cierre de " + cierre.Periodo() + " generado",
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	cierres, err := h.service.List(r.Context(), id.EdificioID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	views := make([]cierreView, 0, len(cierres))
	for _, c := range cierres {
		views = append(views, toCierreView(c))
	}
	httpx.OK(w, http.StatusOK, map[string]any{"cierres": views})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	cierreID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "id invalido")
		return
	}
	cierre, err := h.service.Get(r.Context(), id.EdificioID, cierreID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"cierre": toCierreView(cierre)})
}

// decodeMes accepts either a month number or a Spanish month name.
func decodeMes(raw json.RawMessage) (int, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n int
		if err := json.Unmarshal(raw, &n); err != nil {
			return 0, shared.ErrValidation
		}
		return n, nil
	}
	return shared.ParseMes(s)
}

func toCierreView(c Cierre) cierreView {
	return cierreView{
		ID:            c.ID,
		Tipo:          c.Tipo,
		Mes:           c.Mes,
		Anio:          c.Anio,
		Periodo:       c.Periodo(),
		TotalIngresos: c.TotalIngresos,
		TotalEgresos:  c.TotalEgresos,
		Resultado:     c.Resultado,
		Fondos:        c.Fondos,
		CreatedAt:     c.CreatedAt,
	}
}
