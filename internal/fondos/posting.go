package fondos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// The three functions below are the only code in the repository that mutates
// a fund balance. Every caller (transfers, fee payments, expense postings)
// goes through them inside its own transaction, so the conservation invariant
// cannot be bypassed and two concurrent mutations of the same fund cannot
// lose an update: the balance change and its precondition are a single
// conditional UPDATE.

// DebitTx subtracts monto from the fund, failing when the balance would go
// negative. Balances never go below zero; a deficit is not a valid state.
func DebitTx(ctx context.Context, tx pgx.Tx, edificioID int64, nombre string, monto decimal.Decimal) error {
	if !monto.IsPositive() {
		return ErrMontoInvalido
	}
	cmd, err := tx.Exec(ctx, `UPDATE fondos SET saldo = saldo - $3, updated_at = NOW()
WHERE edificio_id = $1 AND nombre = $2 AND saldo >= $3`, edificioID, nombre, monto)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}
	var saldo decimal.Decimal
	err = tx.QueryRow(ctx, `SELECT saldo FROM fondos WHERE edificio_id = $1 AND nombre = $2`, edificioID, nombre).Scan(&saldo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrFondoNotFound
		}
		return err
	}
	return ErrSaldoInsuficiente
}

// CreditTx adds monto to the fund.
func CreditTx(ctx context.Context, tx pgx.Tx, edificioID int64, nombre string, monto decimal.Decimal) error {
	if !monto.IsPositive() {
		return ErrMontoInvalido
	}
	cmd, err := tx.Exec(ctx, `UPDATE fondos SET saldo = saldo + $3, updated_at = NOW()
WHERE edificio_id = $1 AND nombre = $2`, edificioID, nombre, monto)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrFondoNotFound
	}
	return nil
}

// AppendMovimientoTx appends the immutable audit record for a posting.
func AppendMovimientoTx(ctx context.Context, tx pgx.Tx, mov Movimiento) error {
	if mov.ID == uuid.Nil {
		mov.ID = uuid.New()
	}
	if mov.CreatedAt.IsZero() {
		mov.CreatedAt = time.Now()
	}
	_, err := tx.Exec(ctx, `INSERT INTO movimientos_fondo (id, edificio_id, tipo, fondo_origen, fondo_destino, monto, concepto, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		mov.ID, mov.EdificioID, mov.Tipo, nullStr(mov.FondoOrigen), nullStr(mov.FondoDestino), mov.Monto, mov.Concepto, mov.CreatedAt)
	return err
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
