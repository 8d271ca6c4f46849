package cuotas

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/consorcia/consorcia/internal/fondos"
	"github.com/consorcia/consorcia/internal/platform/db"
)

// Repository persists cuotas.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional fee operations. The fund credit lives
// here too so a payment and its posting commit as one unit.
type TxRepository interface {
	Insert(ctx context.Context, c Cuota) (int64, error)
	GetForUpdate(ctx context.Context, edificioID, cuotaID int64) (Cuota, error)
	MarkPagada(ctx context.Context, cuotaID int64, pagadaAt time.Time) error
	CreditFondo(ctx context.Context, mov fondos.Movimiento) error
	ListVencidas(ctx context.Context, edificioID int64, corte time.Time) ([]Cuota, error)
	SetVencida(ctx context.Context, cuotaID int64, recargo decimal.Decimal) (bool, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil || r.pool == nil {
		return errors.New("cuotas: repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const cuotaColumns = `id, edificio_id, departamento, mes, anio, tipo, monto, vencimiento, estado, pagada_at, recargo, created_at, updated_at`

func (r *txRepository) Insert(ctx context.Context, c Cuota) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO cuotas (edificio_id, departamento, mes, anio, tipo, monto, vencimiento, estado, recargo)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,0) RETURNING id`,
		c.EdificioID, c.Departamento, c.Mes, c.Anio, c.Tipo, c.Monto, c.Vencimiento, c.Estado).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrPeriodoDuplicado
		}
		return 0, err
	}
	return id, nil
}

func (r *txRepository) GetForUpdate(ctx context.Context, edificioID, cuotaID int64) (Cuota, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+cuotaColumns+` FROM cuotas WHERE id=$1 AND edificio_id=$2 FOR UPDATE`, cuotaID, edificioID)
	c, err := scanCuota(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cuota{}, ErrCuotaNotFound
		}
		return Cuota{}, err
	}
	return c, nil
}

func (r *txRepository) MarkPagada(ctx context.Context, cuotaID int64, pagadaAt time.Time) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE cuotas SET estado=$2, pagada_at=$3, updated_at=NOW() WHERE id=$1 AND estado <> $2`,
		cuotaID, EstadoPagada, pagadaAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrCuotaPagada
	}
	return nil
}

func (r *txRepository) CreditFondo(ctx context.Context, mov fondos.Movimiento) error {
	if err := fondos.CreditTx(ctx, r.tx, mov.EdificioID, mov.FondoDestino, mov.Monto); err != nil {
		return err
	}
	return fondos.AppendMovimientoTx(ctx, r.tx, mov)
}

// ListVencidas returns, locked, every unpaid cuota whose grace window closed
// before corte.
func (r *txRepository) ListVencidas(ctx context.Context, edificioID int64, corte time.Time) ([]Cuota, error) {
	rows, err := r.tx.Query(ctx, `SELECT `+cuotaColumns+` FROM cuotas
WHERE edificio_id=$1 AND estado <> $2 AND vencimiento < $3 ORDER BY id FOR UPDATE`,
		edificioID, EstadoPagada, corte)
	if err != nil {
		return nil, err
	}
	return scanCuotas(rows)
}

// SetVencida transitions the cuota and stores the accrued late fee. The
// update is conditional on something actually changing, so a repeated sweep
// with the same asOf reports zero rows.
func (r *txRepository) SetVencida(ctx context.Context, cuotaID int64, recargo decimal.Decimal) (bool, error) {
	cmd, err := r.tx.Exec(ctx, `UPDATE cuotas SET estado=$2, recargo=$3, updated_at=NOW()
WHERE id=$1 AND estado=ANY($4) AND (estado <> $2 OR recargo <> $3)`,
		cuotaID, EstadoVencida, recargo, []string{string(EstadoPendiente), string(EstadoVencida)})
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// List returns the building's cuotas, optionally filtered.
func (r *Repository) List(ctx context.Context, edificioID int64, filter ListFilter) ([]Cuota, error) {
	query := `SELECT ` + cuotaColumns + ` FROM cuotas WHERE edificio_id=$1`
	args := []any{edificioID}
	if filter.Departamento != "" {
		args = append(args, filter.Departamento)
		query += fmt.Sprintf(" AND departamento=$%d", len(args))
	}
	if filter.Estado != "" {
		args = append(args, filter.Estado)
		query += fmt.Sprintf(" AND estado=$%d", len(args))
	}
	if filter.Periodo != nil {
		args = append(args, filter.Periodo.Mes, filter.Periodo.Anio)
		query += fmt.Sprintf(" AND mes=$%d AND anio=$%d", len(args)-1, len(args))
	}
	query += " ORDER BY anio DESC, mes DESC, departamento"
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanCuotas(rows)
}

// Get loads one cuota scoped to the building.
func (r *Repository) Get(ctx context.Context, edificioID, cuotaID int64) (Cuota, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+cuotaColumns+` FROM cuotas WHERE id=$1 AND edificio_id=$2`, cuotaID, edificioID)
	c, err := scanCuota(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cuota{}, ErrCuotaNotFound
		}
		return Cuota{}, err
	}
	return c, nil
}

// Stats aggregates counts and collected totals for the building.
func (r *Repository) Stats(ctx context.Context, edificioID int64) (Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `SELECT
COUNT(*),
COUNT(*) FILTER (WHERE estado=$2),
COUNT(*) FILTER (WHERE estado=$3),
COUNT(*) FILTER (WHERE estado=$4),
COALESCE(SUM(monto + recargo) FILTER (WHERE estado=$2), 0)
FROM cuotas WHERE edificio_id=$1`,
		edificioID, EstadoPagada, EstadoPendiente, EstadoVencida).
		Scan(&s.Total, &s.Pagadas, &s.Pendientes, &s.Vencidas, &s.TotalRecaudado)
	if err != nil {
		return Stats{}, err
	}
	return s, nil
}

// IngresosPeriodo sums monto+recargo of cuotas paid inside [desde, hasta).
// The closure aggregator is its only caller.
func (r *Repository) IngresosPeriodo(ctx context.Context, edificioID int64, desde, hasta time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(monto + recargo), 0) FROM cuotas
WHERE edificio_id=$1 AND estado=$2 AND pagada_at >= $3 AND pagada_at < $4`,
		edificioID, EstadoPagada, desde, hasta).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func scanCuota(row pgx.Row) (Cuota, error) {
	var c Cuota
	err := row.Scan(&c.ID, &c.EdificioID, &c.Departamento, &c.Mes, &c.Anio, &c.Tipo, &c.Monto, &c.Vencimiento, &c.Estado, &c.PagadaAt, &c.Recargo, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanCuotas(rows pgx.Rows) ([]Cuota, error) {
	defer rows.Close()
	var cuotas []Cuota
	for rows.Next() {
		c, err := scanCuota(rows)
		if err != nil {
			return nil, err
		}
		cuotas = append(cuotas, c)
	}
	return cuotas, rows.Err()
}
