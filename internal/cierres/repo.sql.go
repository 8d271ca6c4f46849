package cierres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists cierres. There is no update or delete: closures are
// append-only.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const cierreColumns = `id, edificio_id, tipo, mes, anio, total_ingresos, total_egresos, resultado, fondos, created_by, created_at`

// Insert writes the snapshot. The unique index over
// (edificio_id, tipo, mes, anio) turns a concurrent duplicate into
// ErrCierreExiste instead of a second snapshot.
func (r *Repository) Insert(ctx context.Context, c Cierre) (Cierre, error) {
	fondos, err := json.Marshal(c.Fondos)
	if err != nil {
		return Cierre{}, err
	}
	err = r.pool.QueryRow(ctx, `INSERT INTO cierres (edificio_id, tipo, mes, anio, total_ingresos, total_egresos, resultado, fondos, created_by)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) RETURNING id, created_at`,
		c.EdificioID, c.Tipo, c.Mes, c.Anio, c.TotalIngresos, c.TotalEgresos, c.Resultado, fondos, c.CreatedBy).
		Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Cierre{}, ErrCierreExiste
		}
		return Cierre{}, err
	}
	return c, nil
}

// List returns the building's closures, newest period first.
func (r *Repository) List(ctx context.Context, edificioID int64) ([]Cierre, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+cierreColumns+` FROM cierres
WHERE edificio_id=$1 ORDER BY anio DESC, mes DESC, tipo`, edificioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var cierres []Cierre
	for rows.Next() {
		c, err := scanCierre(rows)
		if err != nil {
			return nil, err
		}
		cierres = append(cierres, c)
	}
	return cierres, rows.Err()
}

// Get loads one cierre scoped to the building.
func (r *Repository) Get(ctx context.Context, edificioID, cierreID int64) (Cierre, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+cierreColumns+` FROM cierres WHERE id=$1 AND edificio_id=$2`, cierreID, edificioID)
	c, err := scanCierre(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cierre{}, ErrCierreNotFound
		}
		return Cierre{}, err
	}
	return c, nil
}

func scanCierre(row pgx.Row) (Cierre, error) {
	var c Cierre
	var fondos []byte
	err := row.Scan(&c.ID, &c.EdificioID, &c.Tipo, &c.Mes, &c.Anio, &c.TotalIngresos, &c.TotalEgresos, &c.Resultado, &fondos, &c.CreatedBy, &c.CreatedAt)
	if err != nil {
		return Cierre{}, err
	}
	if len(fondos) > 0 {
		if err := json.Unmarshal(fondos, &c.Fondos); err != nil {
			return Cierre{}, err
		}
	}
	return c, nil
}
