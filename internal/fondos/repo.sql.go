package fondos

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/consorcia/consorcia/internal/platform/db"
)

// Repository persists fund balances and movement records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the transactional operations of a transfer.
type TxRepository interface {
	Debit(ctx context.Context, edificioID int64, nombre string, monto decimal.Decimal) error
	Credit(ctx context.Context, edificioID int64, nombre string, monto decimal.Decimal) error
	AppendMovimiento(ctx context.Context, mov Movimiento) error
	List(ctx context.Context, edificioID int64) ([]Fondo, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil || r.pool == nil {
		return errors.New("fondos: repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *txRepository) Debit(ctx context.Context, edificioID int64, nombre string, monto decimal.Decimal) error {
	return DebitTx(ctx, r.tx, edificioID, nombre, monto)
}

func (r *txRepository) Credit(ctx context.Context, edificioID int64, nombre string, monto decimal.Decimal) error {
	return CreditTx(ctx, r.tx, edificioID, nombre, monto)
}

func (r *txRepository) AppendMovimiento(ctx context.Context, mov Movimiento) error {
	return AppendMovimientoTx(ctx, r.tx, mov)
}

func (r *txRepository) List(ctx context.Context, edificioID int64) ([]Fondo, error) {
	rows, err := r.tx.Query(ctx, listQuery, edificioID)
	if err != nil {
		return nil, err
	}
	return scanFondos(rows)
}

const listQuery = `SELECT id, edificio_id, nombre, saldo, updated_at FROM fondos WHERE edificio_id = $1 ORDER BY nombre`

// List returns every fund of the building.
func (r *Repository) List(ctx context.Context, edificioID int64) ([]Fondo, error) {
	rows, err := r.pool.Query(ctx, listQuery, edificioID)
	if err != nil {
		return nil, err
	}
	return scanFondos(rows)
}

// PatrimonioTotal sums the balances of every fund of the building.
func (r *Repository) PatrimonioTotal(ctx context.Context, edificioID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(saldo), 0) FROM fondos WHERE edificio_id = $1`, edificioID).Scan(&total)
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// ListMovimientos returns the newest movement records for the building.
func (r *Repository) ListMovimientos(ctx context.Context, edificioID int64, limit int) ([]Movimiento, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT id, edificio_id, tipo, COALESCE(fondo_origen, ''), COALESCE(fondo_destino, ''), monto, concepto, created_at
FROM movimientos_fondo WHERE edificio_id = $1 ORDER BY created_at DESC LIMIT $2`, edificioID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var movs []Movimiento
	for rows.Next() {
		var m Movimiento
		if err := rows.Scan(&m.ID, &m.EdificioID, &m.Tipo, &m.FondoOrigen, &m.FondoDestino, &m.Monto, &m.Concepto, &m.CreatedAt); err != nil {
			return nil, err
		}
		movs = append(movs, m)
	}
	return movs, rows.Err()
}

func scanFondos(rows pgx.Rows) ([]Fondo, error) {
	defer rows.Close()
	var fondos []Fondo
	for rows.Next() {
		var f Fondo
		if err := rows.Scan(&f.ID, &f.EdificioID, &f.Nombre, &f.Saldo, &f.UpdatedAt); err != nil {
			return nil, err
		}
		fondos = append(fondos, f)
	}
	return fondos, rows.Err()
}
