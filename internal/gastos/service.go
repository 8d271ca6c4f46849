package gastos

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/consorcia/consorcia/internal/fondos"
	"github.com/consorcia/consorcia/internal/shared"
)

// RepositoryPort abstracts expense persistence.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, edificioID int64, filter ListFilter) ([]Gasto, error)
	Get(ctx context.Context, edificioID, gastoID int64) (Gasto, error)
	Stats(ctx context.Context, edificioID int64, periodo *shared.Periodo) (Stats, error)
	EgresosPeriodo(ctx context.Context, edificioID int64, desde, hasta time.Time) (decimal.Decimal, error)
}

// AuditPort records ledger events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service owns expense registration and its coupling to fund balances.
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

// Create registers an expense and debits its fund in one transaction. An
// insufficient balance or a closed period aborts both.
func (s *Service) Create(ctx context.Context, in CreateInput) (Gasto, error) {
	if err := in.Validate(); err != nil {
		return Gasto{}, err
	}
	fecha := in.Fecha
	if fecha.IsZero() {
		fecha = s.now()
	}
	gasto := Gasto{
		EdificioID:  in.EdificioID,
		Categoria:   in.Categoria,
		Descripcion: in.Descripcion,
		Proveedor:   in.Proveedor,
		Monto:       in.Monto,
		Fondo:       in.FondoEfectivo(),
		Fecha:       fecha,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		cerrado, err := tx.PeriodoCerrado(ctx, in.EdificioID, fecha)
		if err != nil {
			return err
		}
		if cerrado {
			return ErrGastoCerrado
		}
		if err := tx.DebitFondo(ctx, fondos.DebitoGasto(in.EdificioID, gasto.Fondo, in.Monto, in.Descripcion, s.now())); err != nil {
			return err
		}
		id, err := tx.Insert(ctx, gasto)
		if err != nil {
			return err
		}
		gasto.ID = id
		return nil
	})
	if err != nil {
		return Gasto{}, err
	}
	s.recordAudit(ctx, in.EdificioID, in.ActorID, "gastos.crear", gasto)
	return gasto, nil
}

// Update edits an expense. A changed monto or fondo reverses the original
// debit and posts a fresh one, so fund balances track the edited amount.
// Expenses inside a closed period stay immutable.
func (s *Service) Update(ctx context.Context, in UpdateInput) (Gasto, error) {
	if err := in.Validate(); err != nil {
		return Gasto{}, err
	}
	var updated Gasto
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		actual, err := tx.GetForUpdate(ctx, in.EdificioID, in.GastoID)
		if err != nil {
			return err
		}
		cerrado, err := tx.PeriodoCerrado(ctx, in.EdificioID, actual.Fecha)
		if err != nil {
			return err
		}
		if cerrado {
			return ErrGastoCerrado
		}
		fondo := in.FondoEfectivo()
		if !actual.Monto.Equal(in.Monto) || actual.Fondo != fondo {
			reverso := fmt.Sprintf("Reverso gasto #%d: %s", actual.ID, actual.Descripcion)
			if err := tx.CreditFondo(ctx, fondos.ReversoGasto(in.EdificioID, actual.Fondo, actual.Monto, reverso, s.now())); err != nil {
				return err
			}
			if err := tx.DebitFondo(ctx, fondos.DebitoGasto(in.EdificioID, fondo, in.Monto, in.Descripcion, s.now())); err != nil {
				return err
			}
		}
		updated = actual
		updated.Categoria = in.Categoria
		updated.Descripcion = in.Descripcion
		updated.Proveedor = in.Proveedor
		updated.Monto = in.Monto
		updated.Fondo = fondo
		return tx.Update(ctx, updated)
	})
	if err != nil {
		return Gasto{}, err
	}
	s.recordAudit(ctx, in.EdificioID, in.ActorID, "gastos.editar", updated)
	return updated, nil
}

// Delete removes an expense and credits its amount back to the fund it came
// from, leaving a compensating movement in the trail. Expenses inside a
// closed period stay immutable.
func (s *Service) Delete(ctx context.Context, edificioID, gastoID, actorID int64) error {
	var borrado Gasto
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		gasto, err := tx.GetForUpdate(ctx, edificioID, gastoID)
		if err != nil {
			return err
		}
		cerrado, err := tx.PeriodoCerrado(ctx, edificioID, gasto.Fecha)
		if err != nil {
			return err
		}
		if cerrado {
			return ErrGastoCerrado
		}
		reverso := fmt.Sprintf("Reverso gasto #%d: %s", gasto.ID, gasto.Descripcion)
		if err := tx.CreditFondo(ctx, fondos.ReversoGasto(edificioID, gasto.Fondo, gasto.Monto, reverso, s.now())); err != nil {
			return err
		}
		borrado = gasto
		return tx.Delete(ctx, gasto.ID)
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, edificioID, actorID, "gastos.eliminar", borrado)
	return nil
}

// List returns gastos for the building, optionally filtered.
func (s *Service) List(ctx context.Context, edificioID int64, filter ListFilter) ([]Gasto, error) {
	return s.repo.List(ctx, edificioID, filter)
}

// Get loads one gasto scoped to the building.
func (s *Service) Get(ctx context.Context, edificioID, gastoID int64) (Gasto, error) {
	return s.repo.Get(ctx, edificioID, gastoID)
}

// Stats aggregates expenses per category.
func (s *Service) Stats(ctx context.Context, edificioID int64, periodo *shared.Periodo) (Stats, error) {
	return s.repo.Stats(ctx, edificioID, periodo)
}

// EgresosPeriodo exposes period outflows for the closure aggregator.
func (s *Service) EgresosPeriodo(ctx context.Context, edificioID int64, desde, hasta time.Time) (decimal.Decimal, error) {
	return s.repo.EgresosPeriodo(ctx, edificioID, desde, hasta)
}

func (s *Service) recordAudit(ctx context.Context, edificioID, actorID int64, action string, g Gasto) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		EdificioID: edificioID,
		ActorID:    actorID,
		Action:     action,
		Entity:     "gasto",
		EntityID:   fmt.Sprintf("%d", g.ID),
		Meta: map[string]any{
			"categoria": g.Categoria,
			"monto":     g.Monto.String(),
			"fondo":     g.Fondo,
		},
		At: s.now(),
	})
}
