package edificios

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists building configuration and units.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Get loads one active building.
func (r *Repository) Get(ctx context.Context, id int64) (Edificio, error) {
	var e Edificio
	err := r.pool.QueryRow(ctx, `SELECT id, nombre, total_unidades, cuota_mensual, cuota_extraordinaria, dia_corte, dias_gracia, recargo_porc, fondo_ingresos, activo, created_at, updated_at
FROM edificios WHERE id=$1 AND activo`, id).
		Scan(&e.ID, &e.Nombre, &e.TotalUnidades, &e.CuotaMensual, &e.CuotaExtraordinaria, &e.DiaCorte, &e.DiasGracia, &e.RecargoPorc, &e.FondoIngresos, &e.Activo, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Edificio{}, ErrEdificioNotFound
		}
		return Edificio{}, err
	}
	return e, nil
}

// UpdateConfig persists the admin-editable settings.
func (r *Repository) UpdateConfig(ctx context.Context, id int64, in ConfigInput) (Edificio, error) {
	cmd, err := r.pool.Exec(ctx, `UPDATE edificios SET nombre=$2, cuota_mensual=$3, cuota_extraordinaria=$4, dia_corte=$5, dias_gracia=$6, recargo_porc=$7, updated_at=NOW()
WHERE id=$1 AND activo`, id, in.Nombre, in.CuotaMensual, in.CuotaExtraordinaria, in.DiaCorte, in.DiasGracia, in.RecargoPorc)
	if err != nil {
		return Edificio{}, err
	}
	if cmd.RowsAffected() == 0 {
		return Edificio{}, ErrEdificioNotFound
	}
	return r.Get(ctx, id)
}

// UnidadesOcupadas returns the unit codes that receive generated cuotas.
func (r *Repository) UnidadesOcupadas(ctx context.Context, edificioID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT codigo FROM unidades WHERE edificio_id=$1 AND ocupada ORDER BY codigo`, edificioID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var codigos []string
	for rows.Next() {
		var codigo string
		if err := rows.Scan(&codigo); err != nil {
			return nil, err
		}
		codigos = append(codigos, codigo)
	}
	return codigos, rows.Err()
}

// ExisteUnidad reports whether the unit code belongs to the building.
func (r *Repository) ExisteUnidad(ctx context.Context, edificioID int64, codigo string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM unidades WHERE edificio_id=$1 AND codigo=$2)`, edificioID, codigo).Scan(&exists)
	return exists, err
}

// ListActivos returns the ids of every active building, used by the nightly
// overdue sweep.
func (r *Repository) ListActivos(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM edificios WHERE activo ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
