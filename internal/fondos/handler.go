package fondos

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/consorcia/consorcia/internal/edificios"
	"github.com/consorcia/consorcia/internal/platform/httpx"
	"github.com/consorcia/consorcia/internal/shared"
)

// Handler wires the fund ledger endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	mw      edificios.Middleware
	printer *message.Printer
}

// NewHandler constructs the Handler.
func NewHandler(logger *slog.Logger, service *Service, mw edificios.Middleware) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
		mw:      mw,
		printer: message.NewPrinter(language.Spanish),
	}
}

// MountRoutes registers fund routes under /api/fondos.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Get("/", h.list)
		r.Get("/patrimonio", h.patrimonio)
		r.Get("/movimientos", h.movimientos)
		r.With(h.mw.RequireWrite).Post("/transferencia", h.transfer)
	})
}

type fondoView struct {
	ID        int64           `json:"id"`
	Nombre    string          `json:"nombre"`
	Saldo     decimal.Decimal `json:"saldo"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type transferRequest struct {
	Origen   string          `json:"origen"`
	Destino  string          `json:"destino"`
	Monto    decimal.Decimal `json:"monto"`
	Concepto string          `json:"concepto"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	fondos, err := h.service.List(r.Context(), id.EdificioID)
	if err != nil {
		h.logger.Error("list fondos", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"fondos": toViews(fondos)})
}

func (h *Handler) patrimonio(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	fondos, err := h.service.List(r.Context(), id.EdificioID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	total := decimal.Zero
	for _, f := range fondos {
		total = total.Add(f.Saldo)
	}
	httpx.OK(w, http.StatusOK, map[string]any{
		"patrimonioTotal": total,
		"fondos":          toViews(fondos),
	})
}

func (h *Handler) movimientos(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	movs, err := h.service.ListMovimientos(r.Context(), id.EdificioID, 100)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"movimientos": movs})
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	var req transferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "cuerpo invalido")
		return
	}
	fondos, err := h.service.Transfer(r.Context(), TransferInput{
		EdificioID: id.EdificioID,
		Origen:     req.Origen,
		Destino:    req.Destino,
		Monto:      req.Monto,
		Concepto:   req.Concepto,
		ActorID:    id.UserID,
	})
	if err != nil {
		h.logger.Warn("transferencia", slog.Int64("edificio", id.EdificioID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	msg := h.printer.Sprintf("Transferencia de %v de %s a %s realizada", req.Monto, req.Origen, req.Destino)
	httpx.OK(w, http.StatusOK, map[string]any{"fondos": toViews(fondos), "msg": msg})
}

func toViews(fondos []Fondo) []fondoView {
	views := make([]fondoView, 0, len(fondos))
	for _, f := range fondos {
		views = append(views, fondoView{ID: f.ID, Nombre: f.Nombre, Saldo: f.Saldo, UpdatedAt: f.UpdatedAt})
	}
	return views
}
