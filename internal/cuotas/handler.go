package cuotas

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/consorcia/consorcia/internal/edificios"
	"github.com/consorcia/consorcia/internal/platform/httpx"
	"github.com/consorcia/consorcia/internal/shared"
)

// Handler wires the fee engine endpoints.
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

// MountRoutes registers fee routes under /api/cuotas.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAuth)
		r.Get("/", h.list)
		r.Get("/stats", h.stats)
		r.Get("/{id}", h.get)
		r.With(h.mw.RequireWrite).Post("/generar", h.generar)
		r.With(h.mw.RequireWrite).Post("/{id}/pagar", h.pagar)
		r.With(h.mw.RequireWrite).Post("/verificar-vencimientos", h.verificarVencimientos)
	})
}

// mesField accepts either a Spanish month name ("Diciembre") or a number, as
// both appear in the wild from older clients.
type mesField struct {
	raw string
}

func (m *mesField) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		m.raw = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	m.raw = n.String()
	return nil
}

type generarRequest struct {
	Mes          mesField         `json:"mes"`
	Anio         int              `json:"anio"`
	Tipo         string           `json:"tipo"`
	Monto        *decimal.Decimal `json:"monto"`
	Departamento string           `json:"departamento"`
}

type pagarRequest struct {
	FechaPago *time.Time `json:"fechaPago"`
}

type cuotaView struct {
	ID           int64           `json:"id"`
	Departamento string          `json:"departamento"`
	Mes          int             `json:"mes"`
	Anio         int             `json:"anio"`
	Periodo      string          `json:"periodo"`
	Tipo         TipoCuota       `json:"tipo"`
	Monto        decimal.Decimal `json:"monto"`
	Recargo      decimal.Decimal `json:"recargo"`
	Total        decimal.Decimal `json:"total"`
	Vencimiento  time.Time       `json:"vencimiento"`
	Estado       EstadoCuota     `json:"estado"`
	PagadaAt     *time.Time      `json:"pagadaAt,omitempty"`
}

func (h *Handler) generar(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	var req generarRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "cuerpo invalido")
		return
	}
	mes, err := shared.ParseMes(req.Mes.raw)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	tipo := TipoOrdinaria
	if req.Tipo != "" {
		tipo = TipoCuota(strings.ToUpper(req.Tipo))
	}
	generadas, err := h.service.GenerateBulk(r.Context(), GenerateInput{
		EdificioID:   id.EdificioID,
		Periodo:      shared.Periodo{Mes: mes, Anio: req.Anio},
		Tipo:         tipo,
		Monto:        req.Monto,
		Departamento: req.Departamento,
		ActorID:      id.UserID,
	})
	if err != nil {
		h.logger.Warn("generar cuotas", slog.Int64("edificio", id.EdificioID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	msg := h.printer.Sprintf("%d cuotas generadas", generadas)
	if generadas == 1 {
		msg = "1 cuota generada"
	}
	httpx.OK(w, http.StatusCreated, map[string]any{"generadas": generadas, "msg": msg})
}

func (h *Handler) pagar(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	cuotaID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "id invalido")
		return
	}
	var req pagarRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.Fail(w, http.StatusBadRequest, "cuerpo invalido")
			return
		}
	}
	cuota, err := h.service.MarkPaid(r.Context(), id.EdificioID, cuotaID, id.UserID, req.FechaPago)
	if err != nil {
		h.logger.Warn("pagar cuota", slog.Int64("cuota", cuotaID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	msg := h.printer.Sprintf("Cuota de %s registrada como pagada", cuota.Departamento)
	httpx.OK(w, http.StatusOK, map[string]any{"cuota": toCuotaView(cuota), "msg": msg})
}

func (h *Handler) verificarVencimientos(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	actualizadas, err := h.service.VerificarVencimientos(r.Context(), id.EdificioID)
	if err != nil {
		h.logger.Error("verificar vencimientos", slog.Int64("edificio", id.EdificioID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"actualizadas": actualizadas})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	filter, err := parseListFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	cuotas, err := h.service.List(r.Context(), id.EdificioID, filter)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	views := make([]cuotaView, 0, len(cuotas))
	for _, c := range cuotas {
		views = append(views, toCuotaView(c))
	}
	httpx.OK(w, http.StatusOK, map[string]any{"cuotas": views})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	cuotaID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "id invalido")
		return
	}
	cuota, err := h.service.Get(r.Context(), id.EdificioID, cuotaID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"cuota": toCuotaView(cuota)})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	id, _ := shared.IdentityFromContext(r.Context())
	stats, err := h.service.Stats(r.Context(), id.EdificioID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"stats": stats})
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()
	filter := ListFilter{
		Departamento: strings.TrimSpace(q.Get("departamento")),
		Estado:       EstadoCuota(strings.ToUpper(q.Get("estado"))),
	}
	if rawMes := q.Get("mes"); rawMes != "" {
		mes, err := shared.ParseMes(rawMes)
		if err != nil {
			return ListFilter{}, err
		}
		anio, err := strconv.Atoi(q.Get("anio"))
		if err != nil {
			return ListFilter{}, fmt.Errorf("cuotas: anio invalido: %w", shared.ErrValidation)
		}
		periodo, err := shared.NuevoPeriodo(mes, anio)
		if err != nil {
			return ListFilter{}, err
		}
		filter.Periodo = &periodo
	}
	return filter, nil
}

func toCuotaView(c Cuota) cuotaView {
	return cuotaView{
		ID:           c.ID,
		Departamento: c.Departamento,
		Mes:          c.Mes,
		Anio:         c.Anio,
		Periodo:      c.Periodo().String(),
		Tipo:         c.Tipo,
		Monto:        c.Monto,
		Recargo:      c.Recargo,
		Total:        c.TotalAPagar(),
		Vencimiento:  c.Vencimiento,
		Estado:       c.Estado,
		PagadaAt:     c.PagadaAt,
	}
}
