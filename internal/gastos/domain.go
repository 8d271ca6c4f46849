package gastos

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/consorcia/consorcia/internal/shared"
)

// FondoOperativo is the fund an expense debits when the request names none.
const FondoOperativo = "operativo"

// Gasto is one recorded expense, always backed by a fund debit.
type Gasto struct {
	ID          int64
	EdificioID  int64
	Categoria   string
	Descripcion string
	Proveedor   string
	Monto       decimal.Decimal
	Fondo       string
	Fecha       time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Periodo returns the billing period the expense falls into.
func (g Gasto) Periodo() shared.Periodo {
	return shared.Periodo{Mes: int(g.Fecha.Month()), Anio: g.Fecha.Year()}
}

// CreateInput drives expense registration. An empty Fondo falls back to
// FondoOperativo; Proveedor is optional.
type CreateInput struct {
	EdificioID  int64
	Categoria   string
	Descripcion string
	Proveedor   string
	Monto       decimal.Decimal
	Fondo       string
	Fecha       time.Time
	ActorID     int64
}

// Validate rejects malformed expenses before touching storage.
func (in CreateInput) Validate() error {
	if in.EdificioID == 0 {
		return fmt.Errorf("gastos: edificio requerido: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(in.Categoria) == "" {
		return fmt.Errorf("gastos: categoria requerida: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(in.Descripcion) == "" {
		return fmt.Errorf("gastos: descripcion requerida: %w", shared.ErrValidation)
	}
	if !in.Monto.IsPositive() {
		return ErrMontoInvalido
	}
	return nil
}

// FondoEfectivo resolves the fund the expense debits.
func (in CreateInput) FondoEfectivo() string {
	if fondo := strings.TrimSpace(in.Fondo); fondo != "" {
		return fondo
	}
	return FondoOperativo
}

// UpdateInput carries the mutable fields of an expense. A changed monto or
// fondo re-posts the fund legs.
type UpdateInput struct {
	EdificioID  int64
	GastoID     int64
	Categoria   string
	Descripcion string
	Proveedor   string
	Monto       decimal.Decimal
	Fondo       string
	ActorID     int64
}

// Validate rejects malformed updates.
func (in UpdateInput) Validate() error {
	return CreateInput{
		EdificioID:  in.EdificioID,
		Categoria:   in.Categoria,
		Descripcion: in.Descripcion,
		Monto:       in.Monto,
		Fondo:       in.Fondo,
	}.Validate()
}

// FondoEfectivo resolves the fund the updated expense debits.
func (in UpdateInput) FondoEfectivo() string {
	if fondo := strings.TrimSpace(in.Fondo); fondo != "" {
		return fondo
	}
	return FondoOperativo
}

// ListFilter narrows expense listings.
type ListFilter struct {
	Categoria string
	Periodo   *shared.Periodo
}

// Stats aggregates the expense ledger for one building.
type Stats struct {
	TotalMonto   decimal.Decimal            `json:"totalMonto"`
	PorCategoria map[string]decimal.Decimal `json:"porCategoria"`
}

// Sentinel errors for the expense ledger.
var (
	ErrMontoInvalido = fmt.Errorf("gastos: el monto debe ser mayor a cero: %w", shared.ErrValidation)
	ErrGastoNotFound = fmt.Errorf("gastos: gasto no encontrado: %w", shared.ErrNotFound)
	ErrGastoCerrado  = fmt.Errorf("gastos: el periodo del gasto ya fue cerrado: %w", shared.ErrConflict)
)
