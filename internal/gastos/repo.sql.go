package gastos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/consorcia/consorcia/internal/fondos"
	"github.com/consorcia/consorcia/internal/platform/db"
	"github.com/consorcia/consorcia/internal/shared"
)

// Repository persists gastos.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional expense operations. The fund legs live
// here so an expense and its debit commit as one unit, and the closure-lock
// check shares the same snapshot.
type TxRepository interface {
	Insert(ctx context.Context, g Gasto) (int64, error)
	GetForUpdate(ctx context.Context, edificioID, gastoID int64) (Gasto, error)
	Update(ctx context.Context, g Gasto) error
	Delete(ctx context.Context, gastoID int64) error
	DebitFondo(ctx context.Context, mov fondos.Movimiento) error
	CreditFondo(ctx context.Context, mov fondos.Movimiento) error
	PeriodoCerrado(ctx context.Context, edificioID int64, fecha time.Time) (bool, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil || r.pool == nil {
		return errors.New("gastos: repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const gastoColumns = `id, edificio_id, categoria, descripcion, COALESCE(proveedor, '') AS proveedor, monto, fondo, fecha, created_at, updated_at`

func (r *txRepository) Insert(ctx context.Context, g Gasto) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO gastos (edificio_id, categoria, descripcion, proveedor, monto, fondo, fecha)
VALUES ($1,$2,$3,NULLIF($4,''),$5,$6,$7) RETURNING id`,
		g.EdificioID, g.Categoria, g.Descripcion, g.Proveedor, g.Monto, g.Fondo, g.Fecha).Scan(&id)
	return id, err
}

func (r *txRepository) GetForUpdate(ctx context.Context, edificioID, gastoID int64) (Gasto, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+gastoColumns+` FROM gastos WHERE id=$1 AND edificio_id=$2 FOR UPDATE`, gastoID, edificioID)
	g, err := scanGasto(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Gasto{}, ErrGastoNotFound
		}
		return Gasto{}, err
	}
	return g, nil
}

func (r *txRepository) Update(ctx context.Context, g Gasto) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE gastos SET categoria=$2, descripcion=$3, proveedor=NULLIF($4,''), monto=$5, fondo=$6, updated_at=NOW() WHERE id=$1`,
		g.ID, g.Categoria, g.Descripcion, g.Proveedor, g.Monto, g.Fondo)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrGastoNotFound
	}
	return nil
}

func (r *txRepository) Delete(ctx context.Context, gastoID int64) error {
	cmd, err := r.tx.Exec(ctx, `DELETE FROM gastos WHERE id=$1`, gastoID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrGastoNotFound
	}
	return nil
}

func (r *txRepository) DebitFondo(ctx context.Context, mov fondos.Movimiento) error {
	if err := fondos.DebitTx(ctx, r.tx, mov.EdificioID, mov.FondoOrigen, mov.Monto); err != nil {
		return err
	}
	return fondos.AppendMovimientoTx(ctx, r.tx, mov)
}

func (r *txRepository) CreditFondo(ctx context.Context, mov fondos.Movimiento) error {
	if err := fondos.CreditTx(ctx, r.tx, mov.EdificioID, mov.FondoDestino, mov.Monto); err != nil {
		return err
	}
	return fondos.AppendMovimientoTx(ctx, r.tx, mov)
}

// PeriodoCerrado reports whether a closure already covers fecha. A monthly
// closure locks its month; an annual closure locks the whole year.
func (r *txRepository) PeriodoCerrado(ctx context.Context, edificioID int64, fecha time.Time) (bool, error) {
	var cerrado bool
	err := r.tx.QueryRow(ctx, `SELECT EXISTS (
SELECT 1 FROM cierres WHERE edificio_id=$1
AND ((tipo='MENSUAL' AND mes=$2 AND anio=$3) OR (tipo='ANUAL' AND anio=$3)))`,
		edificioID, int(fecha.Month()), fecha.Year()).Scan(&cerrado)
	return cerrado, err
}

// List returns the building's gastos, optionally filtered.
func (r *Repository) List(ctx context.Context, edificioID int64, filter ListFilter) ([]Gasto, error) {
	query := `SELECT ` + gastoColumns + ` FROM gastos WHERE edificio_id=$1`
	args := []any{edificioID}
	if filter.Categoria != "" {
		args = append(args, filter.Categoria)
		query += fmt.Sprintf(" AND categoria=$%d", len(args))
	}
	if filter.Periodo != nil {
		desde, hasta := filter.Periodo.Rango()
		args = append(args, desde, hasta)
		query += fmt.Sprintf(" AND fecha >= $%d AND fecha < $%d", len(args)-1, len(args))
	}
	query += " ORDER BY fecha DESC, id DESC"
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanGastos(rows)
}

// Get loads one gasto scoped to the building.
func (r *Repository) Get(ctx context.Context, edificioID, gastoID int64) (Gasto, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+gastoColumns+` FROM gastos WHERE id=$1 AND edificio_id=$2`, gastoID, edificioID)
	g, err := scanGasto(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Gasto{}, ErrGastoNotFound
		}
		return Gasto{}, err
	}
	return g, nil
}

// Stats aggregates totals per category, optionally bounded to a period.
func (r *Repository) Stats(ctx context.Context, edificioID int64, periodo *shared.Periodo) (Stats, error) {
	query := `SELECT categoria, COALESCE(SUM(monto), 0) FROM gastos WHERE edificio_id=$1`
	args := []any{edificioID}
	if periodo != nil {
		desde, hasta := periodo.Rango()
		args = append(args, desde, hasta)
		query += fmt.Sprintf(" AND fecha >= $%d AND fecha < $%d", len(args)-1, len(args))
	}
	query += " GROUP BY categoria ORDER BY categoria"
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return Stats{}, err
	}
	defer rows.Close()
	stats := Stats{TotalMonto: decimal.Zero, PorCategoria: map[string]decimal.Decimal{}}
	for rows.Next() {
		var categoria string
		var total decimal.Decimal
		if err := rows.Scan(&categoria, &total); err != nil {
			return Stats{}, err
		}
		stats.PorCategoria[categoria] = total
		stats.TotalMonto = stats.TotalMonto.Add(total)
	}
	return stats, rows.Err()
}

// EgresosPeriodo sums expenses dated inside [desde, hasta). The closure
// aggregator is its only caller.
func (r *Repository) EgresosPeriodo(ctx context.Context, edificioID int64, desde, hasta time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(monto), 0) FROM gastos
WHERE edificio_id=$1 AND fecha >= $2 AND fecha < $3`,
		edificioID, desde, hasta).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func scanGasto(row pgx.Row) (Gasto, error) {
	var g Gasto
	err := row.Scan(&g.ID, &g.EdificioID, &g.Categoria, &g.Descripcion, &g.Proveedor, &g.Monto, &g.Fondo, &g.Fecha, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

func scanGastos(rows pgx.Rows) ([]Gasto, error) {
	defer rows.Close()
	var gastos []Gasto
	for rows.Next() {
		g, err := scanGasto(rows)
		if err != nil {
			return nil, err
		}
		gastos = append(gastos, g)
	}
	return gastos, rows.Err()
}
