package cuotas

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/consorcia/consorcia/internal/shared"
)

// DepartamentoTodos is the sentinel accepted by bulk generation; it expands
// to one cuota per occupied unit.
const DepartamentoTodos = "TODOS"

// EstadoCuota enumerates the fee lifecycle. Transitions only move forward:
// PENDIENTE -> {PAGADA, VENCIDA}; VENCIDA -> PAGADA; PAGADA is terminal.
type EstadoCuota string

const (
	EstadoPendiente EstadoCuota = "PENDIENTE"
	EstadoPagada    EstadoCuota = "PAGADA"
	EstadoVencida   EstadoCuota = "VENCIDA"
)

// TipoCuota distinguishes the regular monthly fee from extraordinary ones.
type TipoCuota string

const (
	TipoOrdinaria      TipoCuota = "ORDINARIA"
	TipoExtraordinaria TipoCuota = "EXTRAORDINARIA"
)

// Cuota is one unit's billing obligation for one period.
type Cuota struct {
	ID           int64
	EdificioID   int64
	Departamento string
	Mes          int
	Anio         int
	Tipo         TipoCuota
	Monto        decimal.Decimal
	Vencimiento  time.Time
	Estado       EstadoCuota
	PagadaAt     *time.Time
	Recargo      decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Periodo returns the billing period of the cuota.
func (c Cuota) Periodo() shared.Periodo {
	return shared.Periodo{Mes: c.Mes, Anio: c.Anio}
}

// TotalAPagar is the amount plus accrued late fee.
func (c Cuota) TotalAPagar() decimal.Decimal {
	return c.Monto.Add(c.Recargo)
}

// GenerateInput drives bulk fee generation for one period.
type GenerateInput struct {
	EdificioID   int64
	Periodo      shared.Periodo
	Tipo         TipoCuota
	Monto        *decimal.Decimal
	Departamento string
	ActorID      int64
}

// Validate rejects malformed generation requests before touching storage.
func (in GenerateInput) Validate() error {
	if in.EdificioID == 0 {
		return fmt.Errorf("cuotas: edificio requerido: %w", shared.ErrValidation)
	}
	if _, err := shared.NuevoPeriodo(in.Periodo.Mes, in.Periodo.Anio); err != nil {
		return err
	}
	if strings.TrimSpace(in.Departamento) == "" {
		return fmt.Errorf("cuotas: departamento requerido: %w", shared.ErrValidation)
	}
	if in.Monto != nil && !in.Monto.IsPositive() {
		return ErrMontoInvalido
	}
	switch in.Tipo {
	case TipoOrdinaria, TipoExtraordinaria:
		return nil
	default:
		return fmt.Errorf("cuotas: tipo %q no reconocido: %w", in.Tipo, shared.ErrValidation)
	}
}

// ListFilter narrows fee listings.
type ListFilter struct {
	Departamento string
	Estado       EstadoCuota
	Periodo      *shared.Periodo
}

// Stats aggregates the fee ledger for one building.
type Stats struct {
	Total          int             `json:"total"`
	Pagadas        int             `json:"pagadas"`
	Pendientes     int             `json:"pendientes"`
	Vencidas       int             `json:"vencidas"`
	TotalRecaudado decimal.Decimal `json:"totalRecaudado"`
}

// Recargo computes the late fee for a cuota that became due at vencido and is
// observed at asOf: monto * porc/100 per whole month overdue. The result is
// deterministic for a given asOf, which makes the sweep idempotent.
func Recargo(monto, porc decimal.Decimal, vencido, asOf time.Time) decimal.Decimal {
	meses := mesesVencidos(vencido, asOf)
	if meses <= 0 || !porc.IsPositive() {
		return decimal.Zero
	}
	return monto.Mul(porc).Div(decimal.NewFromInt(100)).Mul(decimal.NewFromInt(int64(meses))).Round(2)
}

// mesesVencidos counts whole months elapsed between vencido and asOf.
// Partial months do not count: five days overdue is zero months.
func mesesVencidos(vencido, asOf time.Time) int {
	if !asOf.After(vencido) {
		return 0
	}
	meses := 0
	for cursor := vencido.AddDate(0, 1, 0); !asOf.Before(cursor); cursor = cursor.AddDate(0, 1, 0) {
		meses++
	}
	return meses
}

// Sentinel errors for the fee engine.
var (
	ErrMontoInvalido    = fmt.Errorf("cuotas: el monto debe ser mayor a cero: %w", shared.ErrValidation)
	ErrCuotaNotFound    = fmt.Errorf("cuotas: cuota no encontrada: %w", shared.ErrNotFound)
	ErrCuotaPagada      = fmt.Errorf("cuotas: la cuota ya fue pagada: %w", shared.ErrConflict)
	ErrPeriodoDuplicado = fmt.Errorf("cuotas: ya existen cuotas para el periodo: %w", shared.ErrConflict)
	ErrUnidadNotFound   = fmt.Errorf("cuotas: departamento no encontrado: %w", shared.ErrNotFound)
	ErrSinUnidades      = fmt.Errorf("cuotas: el edificio no tiene unidades ocupadas: %w", shared.ErrValidation)
)
