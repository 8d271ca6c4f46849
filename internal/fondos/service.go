package fondos

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/consorcia/consorcia/internal/shared"
)

// RepositoryPort abstracts fund persistence.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, edificioID int64) ([]Fondo, error)
	PatrimonioTotal(ctx context.Context, edificioID int64) (decimal.Decimal, error)
	ListMovimientos(ctx context.Context, edificioID int64, limit int) ([]Movimiento, error)
}

// AuditPort records ledger events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns fund balances and the conservation invariant across transfers.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// List returns the funds of the building.
func (s *Service) List(ctx context.Context, edificioID int64) ([]Fondo, error) {
	return s.repo.List(ctx, edificioID)
}

// PatrimonioTotal returns the sum of every fund balance.
func (s *Service) PatrimonioTotal(ctx context.Context, edificioID int64) (decimal.Decimal, error) {
	return s.repo.PatrimonioTotal(ctx, edificioID)
}

// ListMovimientos returns the movement audit trail.
func (s *Service) ListMovimientos(ctx context.Context, edificioID int64, limit int) ([]Movimiento, error) {
	return s.repo.ListMovimientos(ctx, edificioID, limit)
}

// Transfer moves monto between two funds of the same building. Both legs and
// the movement record commit together or not at all, so the patrimony total
// is identical before and after.
func (s *Service) Transfer(ctx context.Context, in TransferInput) ([]Fondo, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	var updated []Fondo
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.Debit(ctx, in.EdificioID, in.Origen, in.Monto); err != nil {
			return err
		}
		if err := tx.Credit(ctx, in.EdificioID, in.Destino, in.Monto); err != nil {
			return err
		}
		if err := tx.AppendMovimiento(ctx, Movimiento{
			EdificioID:   in.EdificioID,
			Tipo:         MovTransferencia,
			FondoOrigen:  in.Origen,
			FondoDestino: in.Destino,
			Monto:        in.Monto,
			Concepto:     in.Concepto,
			CreatedAt:    s.now(),
		}); err != nil {
			return err
		}
		var err error
		updated, err = tx.List(ctx, in.EdificioID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			EdificioID: in.EdificioID,
			ActorID:    in.ActorID,
			Action:     "fondos.transferencia",
			Entity:     "fondo",
			EntityID:   in.Origen + "->" + in.Destino,
			Meta: map[string]any{
				"monto":    in.Monto.String(),
				"concepto": in.Concepto,
			},
			At: s.now(),
		})
	}
	return updated, nil
}

// CreditoCuota builds the movement record for a fee-payment credit. The
// cuotas repository appends it through AppendMovimientoTx in the same
// transaction as the status transition.
func CreditoCuota(edificioID int64, fondo string, monto decimal.Decimal, concepto string, at time.Time) Movimiento {
	return Movimiento{
		EdificioID:   edificioID,
		Tipo:         MovCreditoCuota,
		FondoDestino: fondo,
		Monto:        monto,
		Concepto:     concepto,
		CreatedAt:    at,
	}
}

// DebitoGasto builds the movement record for an expense debit.
func DebitoGasto(edificioID int64, fondo string, monto decimal.Decimal, concepto string, at time.Time) Movimiento {
	return Movimiento{
		EdificioID:  edificioID,
		Tipo:        MovDebitoGasto,
		FondoOrigen: fondo,
		Monto:       monto,
		Concepto:    concepto,
		CreatedAt:   at,
	}
}

// ReversoGasto builds the compensating movement appended when an expense is
// deleted and its debit is reversed.
func ReversoGasto(edificioID int64, fondo string, monto decimal.Decimal, concepto string, at time.Time) Movimiento {
	return Movimiento{
		EdificioID:   edificioID,
		Tipo:         MovReversoGasto,
		FondoDestino: fondo,
		Monto:        monto,
		Concepto:     concepto,
		CreatedAt:    at,
	}
}
