package cierres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/consorcia/consorcia/internal/fondos"
	"github.com/consorcia/consorcia/internal/shared"
)

// RepositoryPort abstracts closure persistence.
type RepositoryPort interface {
	Insert(ctx context.Context, c Cierre) (Cierre, error)
	List(ctx context.Context, edificioID int64) ([]Cierre, error)
	Get(ctx context.Context, edificioID, cierreID int64) (Cierre, error)
}

// IngresosPort sums paid income inside an interval.
type IngresosPort interface {
	IngresosPeriodo(ctx context.Context, edificioID int64, desde, hasta time.Time) (decimal.Decimal, error)
}

// EgresosPort sums expenses inside an interval.
type EgresosPort interface {
	EgresosPeriodo(ctx context.Context, edificioID int64, desde, hasta time.Time) (decimal.Decimal, error)
}

// FondosPort reads the current fund balances for the snapshot.
type FondosPort interface {
	List(ctx context.Context, edificioID int64) ([]fondos.Fondo, error)
}

// AuditPort records ledger events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service aggregates a period into an immutable snapshot.
type Service struct {
	repo     RepositoryPort
	ingresos IngresosPort
	egresos  EgresosPort
	fondos   FondosPort
	audit    AuditPort
	now      func() time.Time
}

// NewService constructs the Service.
func NewService(repo RepositoryPort, ingresos IngresosPort, egresos EgresosPort, fondos FondosPort, audit AuditPort) *Service {
	return &Service{repo: repo, ingresos: ingresos, egresos: egresos, fondos: fondos, audit: audit, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create aggregates income, expenses, and fund balances for the period and
// persists them as one snapshot. The three reads fan out concurrently; the
// unique index makes a repeated close of the same period fail with
// ErrCierreExiste.
func (s *Service) Create(ctx context.Context, in CreateInput) (Cierre, error) {
	if err := in.Validate(); err != nil {
		return Cierre{}, err
	}
	desde, hasta := in.Rango()

	var (
		ingresos decimal.Decimal
		egresos  decimal.Decimal
		saldos   []fondos.Fondo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ingresos, err = s.ingresos.IngresosPeriodo(gctx, in.EdificioID, desde, hasta)
		return err
	})
	g.Go(func() error {
		var err error
		egresos, err = s.egresos.EgresosPeriodo(gctx, in.EdificioID, desde, hasta)
		return err
	})
	g.Go(func() error {
		var err error
		saldos, err = s.fondos.List(gctx, in.EdificioID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Cierre{}, err
	}

	snapshot := make([]FondoSaldo, 0, len(saldos))
	for _, f := range saldos {
		snapshot = append(snapshot, FondoSaldo{Nombre: f.Nombre, Saldo: f.Saldo})
	}
	mes := in.Mes
	if in.Tipo == TipoAnual {
		mes = 0
	}
	cierre, err := s.repo.Insert(ctx, Cierre{
		EdificioID:    in.EdificioID,
		Tipo:          in.Tipo,
		Mes:           mes,
		Anio:          in.Anio,
		TotalIngresos: ingresos,
		TotalEgresos:  egresos,
		Resultado:     ingresos.Sub(egresos),
		Fondos:        snapshot,
		CreatedBy:     in.ActorID,
	})
	if err != nil {
		return Cierre{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			EdificioID: in.EdificioID,
			ActorID:    in.ActorID,
			Action:     "cierres.crear",
			Entity:     "cierre",
			EntityID:   fmt.Sprintf("%d", cierre.ID),
			Meta: map[string]any{
				"periodo":   cierre.Periodo(),
				"resultado": cierre.Resultado.String(),
			},
			At: s.now(),
		})
	}
	return cierre, nil
}

// List returns the building's closures.
func (s *Service) List(ctx context.Context, edificioID int64) ([]Cierre, error) {
	return s.repo.List(ctx, edificioID)
}

// Get loads one cierre scoped to the building.
func (s *Service) Get(ctx context.Context, edificioID, cierreID int64) (Cierre, error) {
	return s.repo.Get(ctx, edificioID, cierreID)
}
