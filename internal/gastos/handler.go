package gastos

import (
	"fmt"
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

// Handler wires the expense ledger endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      edificios.Middleware
}

// NewHandler constructs the Handler.
func NewHandler(logger *slog.Logger, service *Service, mw edificios.Middleware) *Handler {
	return &Handler{logger: logger, service: service, mw: mw}
}

// MountRoutes registers expense routes under /api/gastos.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Get("/", h.list)
		r.Get("/stats", h.stats)
		r.Get("/{id}", h.get)
		r.With(h.mw.RequireWrite).Post("/", h.create)
		r.With(h.mw.RequireWrite).Put("/{id}", h.update)
		r.With(h.mw.RequireWrite).Delete("/{id}", h.remove)
	})
}

type gastoRequest struct {
	Categoria   string          `json:"categoria"`
	Descripcion string          `json:"descripcion"`
	Proveedor   string          `json:"proveedor"`
	Monto       decimal.Decimal `json:"monto"`
	Fondo       string          `json:"fondo"`
	Fecha       *time.Time      `json:"fecha"`
}

type gastoView struct {
	ID          int64           `json:"id"`
	Categoria   string          `json:"categoria"`
	Descripcion string          `json:"descripcion"`
	Proveedor   string          `json:"proveedor,omitempty"`
	Monto       decimal.Decimal `json:"monto"`
	Fondo       string          `json:"fondo"`
	Fecha       time.Time       `json:"fecha"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	var req gastoRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "cuerpo invalido")
		return
	}
	in := CreateInput{
		EdificioID:  id.EdificioID,
		Categoria:   req.Categoria,
		Descripcion: req.Descripcion,
		Proveedor:   req.Proveedor,
		Monto:       req.Monto,
		Fondo:       req.Fondo,
		ActorID:     id.UserID,
	}
	if req.Fecha != nil {
		in.Fecha = *req.Fecha
	}
	gasto, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.logger.Warn("crear gasto", slog.Int64("edificio", id.EdificioID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusCreated, map[string]any{"gasto": toGastoView(gasto), "msg": "Gasto registrado"})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	gastoID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "id invalido")
		return
	}
	var req gastoRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "cuerpo invalido")
		return
	}
	gasto, err := h.service.Update(r.Context(), UpdateInput{
		EdificioID:  id.EdificioID,
		GastoID:     gastoID,
		Categoria:   req.Categoria,
		Descripcion: req.Descripcion,
		Proveedor:   req.Proveedor,
		Monto:       req.Monto,
		Fondo:       req.Fondo,
		ActorID:     id.UserID,
	})
	if err != nil {
		h.logger.Warn("editar gasto", slog.Int64("gasto", gastoID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"gasto": toGastoView(gasto), "msg": "Gasto actualizado"})
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	gastoID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "id invalido")
		return
	}
	if err := h.service.Delete(r.Context(), id.EdificioID, gastoID, id.UserID); err != nil {
		h.logger.Warn("eliminar gasto", slog.Int64("gasto", gastoID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"msg": "Gasto eliminado y monto restituido al fondo"})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	filter, err := parseListFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	gastos, err := h.service.List(r.Context(), id.EdificioID, filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	views := make([]gastoView, 0, len(gastos))
	for _, g := range gastos {
		views = append(views, toGastoView(g))
	}
	httpx.OK(w, http.StatusOK, map[string]any{"gastos": views})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	gastoID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "id invalido")
		return
	}
	gasto, err := h.service.Get(r.Context(), id.EdificioID, gastoID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"gasto": toGastoView(gasto)})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	periodo, err := parsePeriodo(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	stats, err := h.service.Stats(r.Context(), id.EdificioID, periodo)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"stats": stats})
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	filter := ListFilter{Categoria: strings.TrimSpace(r.URL.Query().Get("categoria"))}
	periodo, err := parsePeriodo(r)
	if err != nil {
		return ListFilter{}, err
	}
	filter.Periodo = periodo
	return filter, nil
}

func parsePeriodo(r *http.Request) (*shared.Periodo, error) {
	q := r.URL.Query()
	rawMes := q.Get("mes")
	if rawMes == "" {
		return nil, nil
	}
	mes, err := shared.ParseMes(rawMes)
	if err != nil {
		return nil, err
	}
	anio, err := strconv.Atoi(q.Get("anio"))
	if err != nil {
		return nil, fmt.Errorf("gastos: anio invalido: %w", shared.ErrValidation)
	}
	periodo, err := shared.NuevoPeriodo(mes, anio)
	if err != nil {
		return nil, err
	}
	return &periodo, nil
}

func toGastoView(g Gasto) gastoView {
	return gastoView{
		ID:          g.ID,
		Categoria:   g.Categoria,
		Descripcion: g.Descripcion,
		Proveedor:   g.Proveedor,
		Monto:       g.Monto,
		Fondo:       g.Fondo,
		Fecha:       g.Fecha,
	}
}
