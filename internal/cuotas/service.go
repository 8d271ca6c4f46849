package cuotas

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/consorcia/consorcia/internal/edificios"
	"github.com/consorcia/consorcia/internal/fondos"
	"github.com/consorcia/consorcia/internal/shared"
)

// RepositoryPort abstracts fee persistence.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, edificioID int64, filter ListFilter) ([]Cuota, error)
	Get(ctx context.Context, edificioID, cuotaID int64) (Cuota, error)
	Stats(ctx context.Context, edificioID int64) (Stats, error)
	IngresosPeriodo(ctx context.Context, edificioID int64, desde, hasta time.Time) (decimal.Decimal, error)
}

// ConfigPort provides the building settings the engine needs: default
// amounts, cut-off day, grace days, late-fee percent, and the unit roster.
type ConfigPort interface {
	Get(ctx context.Context, edificioID int64) (edificios.Edificio, error)
	UnidadesOcupadas(ctx context.Context, edificioID int64) ([]string, error)
	ExisteUnidad(ctx context.Context, edificioID int64, codigo string) (bool, error)
}

// AuditPort records ledger events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements fee generation, payment, and the overdue sweep.
type Service struct {
	repo   RepositoryPort
	config ConfigPort
	audit  AuditPort
	cache  *Cache
	now    func() time.Time
}

// NewService constructs the Service. cache may be nil.
func NewService(repo RepositoryPort, config ConfigPort, audit AuditPort, cache *Cache) *Service {
	return &Service{repo: repo, config: config, audit: audit, cache: cache, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// GenerateBulk creates one PENDIENTE cuota per target unit for the period.
// The whole batch commits atomically: a duplicate for any unit rolls back
// every insert and surfaces ErrPeriodoDuplicado.
func (s *Service) GenerateBulk(ctx context.Context, in GenerateInput) (int, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	edificio, err := s.config.Get(ctx, in.EdificioID)
	if err != nil {
		return 0, err
	}

	departamento := strings.TrimSpace(in.Departamento)
	var unidades []string
	if strings.EqualFold(departamento, DepartamentoTodos) {
		unidades, err = s.config.UnidadesOcupadas(ctx, in.EdificioID)
		if err != nil {
			return 0, err
		}
		if len(unidades) == 0 {
			return 0, ErrSinUnidades
		}
	} else {
		exists, err := s.config.ExisteUnidad(ctx, in.EdificioID, departamento)
		if err != nil {
			return 0, err
		}
		if !exists {
			return 0, ErrUnidadNotFound
		}
		unidades = []string{departamento}
	}

	monto := s.montoPorDefecto(edificio, in.Tipo)
	if in.Monto != nil {
		monto = *in.Monto
	}
	if !monto.IsPositive() {
		return 0, ErrMontoInvalido
	}
	vencimiento := time.Date(in.Periodo.Anio, time.Month(in.Periodo.Mes), edificio.DiaCorte, 0, 0, 0, 0, time.UTC)

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for _, unidad := range unidades {
			_, err := tx.Insert(ctx, Cuota{
				EdificioID:   in.EdificioID,
				Departamento: unidad,
				Mes:          in.Periodo.Mes,
				Anio:         in.Periodo.Anio,
				Tipo:         in.Tipo,
				Monto:        monto,
				Vencimiento:  vencimiento,
				Estado:       EstadoPendiente,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.cache.Invalidate(ctx, in.EdificioID)
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			EdificioID: in.EdificioID,
			ActorID:    in.ActorID,
			Action:     "cuotas.generar",
			Entity:     "cuota",
			EntityID:   in.Periodo.String(),
			Meta: map[string]any{
				"cantidad":     len(unidades),
				"monto":        monto.String(),
				"departamento": departamento,
			},
			At: s.now(),
		})
	}
	return len(unidades), nil
}

// MarkPaid transitions the cuota to PAGADA and credits monto+recargo into the
// building's income fund. The transition and the credit are one transaction;
// a repeated call finds the cuota already paid and credits nothing.
func (s *Service) MarkPaid(ctx context.Context, edificioID, cuotaID int64, actorID int64, pagadaAt *time.Time) (Cuota, error) {
	edificio, err := s.config.Get(ctx, edificioID)
	if err != nil {
		return Cuota{}, err
	}
	efectiva := s.now()
	if pagadaAt != nil {
		efectiva = *pagadaAt
	}
	var pagada Cuota
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		cuota, err := tx.GetForUpdate(ctx, edificioID, cuotaID)
		if err != nil {
			return err
		}
		if cuota.Estado == EstadoPagada {
			return ErrCuotaPagada
		}
		if err := tx.MarkPagada(ctx, cuota.ID, efectiva); err != nil {
			return err
		}
		concepto := fmt.Sprintf("Pago cuota %s - %s", cuota.Departamento, cuota.Periodo())
		if err := tx.CreditFondo(ctx, fondos.CreditoCuota(edificioID, edificio.FondoIngresos, cuota.TotalAPagar(), concepto, efectiva)); err != nil {
			return err
		}
		pagada = cuota
		pagada.Estado = EstadoPagada
		pagada.PagadaAt = &efectiva
		return nil
	})
	if err != nil {
		return Cuota{}, err
	}
	s.cache.Invalidate(ctx, edificioID)
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			EdificioID: edificioID,
			ActorID:    actorID,
			Action:     "cuotas.pagar",
			Entity:     "cuota",
			EntityID:   fmt.Sprintf("%d", cuotaID),
			Meta: map[string]any{
				"monto":   pagada.TotalAPagar().String(),
				"periodo": pagada.Periodo().String(),
			},
			At: s.now(),
		})
	}
	return pagada, nil
}

// SweepOverdue marks unpaid cuotas past their grace window as VENCIDA and
// accrues the late fee. Running it twice with the same asOf changes nothing
// the second time.
func (s *Service) SweepOverdue(ctx context.Context, edificioID int64, asOf time.Time) (int, error) {
	edificio, err := s.config.Get(ctx, edificioID)
	if err != nil {
		return 0, err
	}
	corte := asOf.AddDate(0, 0, -edificio.DiasGracia)
	var actualizadas int
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		vencidas, err := tx.ListVencidas(ctx, edificioID, corte)
		if err != nil {
			return err
		}
		for _, cuota := range vencidas {
			vencidoDesde := cuota.Vencimiento.AddDate(0, 0, edificio.DiasGracia)
			recargo := Recargo(cuota.Monto, edificio.RecargoPorc, vencidoDesde, asOf)
			changed, err := tx.SetVencida(ctx, cuota.ID, recargo)
			if err != nil {
				return err
			}
			if changed {
				actualizadas++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if actualizadas > 0 {
		s.cache.Invalidate(ctx, edificioID)
	}
	return actualizadas, nil
}

// VerificarVencimientos runs the overdue sweep as of the service clock.
func (s *Service) VerificarVencimientos(ctx context.Context, edificioID int64) (int, error) {
	return s.SweepOverdue(ctx, edificioID, s.now())
}

// List returns cuotas for the building, optionally filtered.
func (s *Service) List(ctx context.Context, edificioID int64, filter ListFilter) ([]Cuota, error) {
	return s.repo.List(ctx, edificioID, filter)
}

// Get loads one cuota scoped to the building.
func (s *Service) Get(ctx context.Context, edificioID, cuotaID int64) (Cuota, error) {
	return s.repo.Get(ctx, edificioID, cuotaID)
}

// Stats aggregates the fee ledger, served from cache when warm.
func (s *Service) Stats(ctx context.Context, edificioID int64) (Stats, error) {
	return s.cache.FetchStats(ctx, edificioID, func(ctx context.Context) (Stats, error) {
		return s.repo.Stats(ctx, edificioID)
	})
}

// IngresosPeriodo exposes paid income for the closure aggregator.
func (s *Service) IngresosPeriodo(ctx context.Context, edificioID int64, desde, hasta time.Time) (decimal.Decimal, error) {
	return s.repo.IngresosPeriodo(ctx, edificioID, desde, hasta)
}

func (s *Service) montoPorDefecto(e edificios.Edificio, tipo TipoCuota) decimal.Decimal {
	if tipo == TipoExtraordinaria {
		return e.CuotaExtraordinaria
	}
	return e.CuotaMensual
}
