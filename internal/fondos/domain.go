package fondos

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/consorcia/consorcia/internal/shared"
)

// Fondo is a named money pool scoped to one building. The sum of all fund
// balances is the building's patrimony and only moves through recorded
// postings: transfers, fee-payment credits, and expense debits.
type Fondo struct {
	ID         int64
	EdificioID int64
	Nombre     string
	Saldo      decimal.Decimal
	UpdatedAt  time.Time
}

// TipoMovimiento tags the posting that moved money.
type TipoMovimiento string

const (
	MovTransferencia TipoMovimiento = "TRANSFERENCIA"
	MovCreditoCuota  TipoMovimiento = "CREDITO_CUOTA"
	MovDebitoGasto   TipoMovimiento = "DEBITO_GASTO"
	MovReversoGasto  TipoMovimiento = "REVERSO_GASTO"
)

// Movimiento is the immutable audit record appended with every balance
// mutation. Rows are never updated or deleted.
type Movimiento struct {
	ID           uuid.UUID
	EdificioID   int64
	Tipo         TipoMovimiento
	FondoOrigen  string
	FondoDestino string
	Monto        decimal.Decimal
	Concepto     string
	CreatedAt    time.Time
}

// TransferInput describes a balanced two-leg transfer between funds.
type TransferInput struct {
	EdificioID int64
	Origen     string
	Destino    string
	Monto      decimal.Decimal
	Concepto   string
	ActorID    int64
}

// Validate rejects malformed transfers before any persistence call.
func (in TransferInput) Validate() error {
	if in.EdificioID == 0 {
		return fmt.Errorf("fondos: edificio requerido: %w", shared.ErrValidation)
	}
	origen := strings.TrimSpace(in.Origen)
	destino := strings.TrimSpace(in.Destino)
	if origen == "" || destino == "" {
		return fmt.Errorf("fondos: origen y destino requeridos: %w", shared.ErrValidation)
	}
	if strings.EqualFold(origen, destino) {
		return ErrMismoFondo
	}
	if !in.Monto.IsPositive() {
		return ErrMontoInvalido
	}
	return nil
}

// Sentinel errors for the fund ledger.
var (
	ErrMontoInvalido     = fmt.Errorf("fondos: el monto debe ser mayor a cero: %w", shared.ErrValidation)
	ErrMismoFondo        = fmt.Errorf("fondos: origen y destino deben ser distintos: %w", shared.ErrValidation)
	ErrFondoNotFound     = fmt.Errorf("fondos: fondo no encontrado: %w", shared.ErrNotFound)
	ErrSaldoInsuficiente = fmt.Errorf("fondos: saldo insuficiente: %w", shared.ErrValidation)
)
