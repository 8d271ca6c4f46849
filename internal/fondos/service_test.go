package fondos

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consorcia/consorcia/internal/shared"
)

type memTx struct {
	saldos map[string]decimal.Decimal
	movs   []Movimiento
}

func (t *memTx) Debit(_ context.Context, _ int64, nombre string, monto decimal.Decimal) error {
	saldo, ok := t.saldos[nombre]
	if !ok {
		return ErrFondoNotFound
	}
	if saldo.LessThan(monto) {
		return ErrSaldoInsuficiente
	}
	t.saldos[nombre] = saldo.Sub(monto)
	return nil
}

func (t *memTx) Credit(_ context.Context, _ int64, nombre string, monto decimal.Decimal) error {
	saldo, ok := t.saldos[nombre]
	if !ok {
		return ErrFondoNotFound
	}
	t.saldos[nombre] = saldo.Add(monto)
	return nil
}

func (t *memTx) AppendMovimiento(_ context.Context, mov Movimiento) error {
	t.movs = append(t.movs, mov)
	return nil
}

func (t *memTx) List(_ context.Context, edificioID int64) ([]Fondo, error) {
	return fondosFromSaldos(edificioID, t.saldos), nil
}

type memRepo struct {
	saldos map[string]decimal.Decimal
	movs   []Movimiento
}

func (r *memRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	staged := make(map[string]decimal.Decimal, len(r.saldos))
	for k, v := range r.saldos {
		staged[k] = v
	}
	tx := &memTx{saldos: staged}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	r.saldos = tx.saldos
	r.movs = append(r.movs, tx.movs...)
	return nil
}

func (r *memRepo) List(_ context.Context, edificioID int64) ([]Fondo, error) {
	return fondosFromSaldos(edificioID, r.saldos), nil
}

func (r *memRepo) PatrimonioTotal(_ context.Context, _ int64) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, saldo := range r.saldos {
		total = total.Add(saldo)
	}
	return total, nil
}

func (r *memRepo) ListMovimientos(_ context.Context, _ int64, _ int) ([]Movimiento, error) {
	return r.movs, nil
}

func fondosFromSaldos(edificioID int64, saldos map[string]decimal.Decimal) []Fondo {
	fondos := make([]Fondo, 0, len(saldos))
	for nombre, saldo := range saldos {
		fondos = append(fondos, Fondo{EdificioID: edificioID, Nombre: nombre, Saldo: saldo})
	}
	return fondos
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func newTestRepo() *memRepo {
	return &memRepo{saldos: map[string]decimal.Decimal{
		"operativo": decimal.NewFromInt(50000),
		"reserva":   decimal.NewFromInt(25000),
	}}
}

func TestTransferMovesBetweenFunds(t *testing.T) {
	repo := newTestRepo()
	audit := &recordingAudit{}
	svc := NewService(repo, audit)
	svc.WithNow(func() time.Time { return time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC) })

	fondos, err := svc.Transfer(context.Background(), TransferInput{
		EdificioID: 1,
		Origen:     "operativo",
		Destino:    "reserva",
		Monto:      decimal.NewFromInt(10000),
		Concepto:   "refuerzo reserva",
		ActorID:    7,
	})
	require.NoError(t, err)

	assert.True(t, repo.saldos["operativo"].Equal(decimal.NewFromInt(40000)))
	assert.True(t, repo.saldos["reserva"].Equal(decimal.NewFromInt(35000)))
	assert.Len(t, fondos, 2)

	require.Len(t, repo.movs, 1)
	mov := repo.movs[0]
	assert.Equal(t, MovTransferencia, mov.Tipo)
	assert.Equal(t, "operativo", mov.FondoOrigen)
	assert.Equal(t, "reserva", mov.FondoDestino)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, "fondos.transferencia", audit.logs[0].Action)
}

func TestTransferPreservesPatrimony(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)

	antes, err := repo.PatrimonioTotal(context.Background(), 1)
	require.NoError(t, err)

	_, err = svc.Transfer(context.Background(), TransferInput{
		EdificioID: 1,
		Origen:     "reserva",
		Destino:    "operativo",
		Monto:      decimal.NewFromInt(25000),
	})
	require.NoError(t, err)

	despues, err := repo.PatrimonioTotal(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, antes.Equal(despues), "patrimonio cambio: %s -> %s", antes, despues)
}

func TestTransferInsufficientBalanceRollsBack(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)

	_, err := svc.Transfer(context.Background(), TransferInput{
		EdificioID: 1,
		Origen:     "reserva",
		Destino:    "operativo",
		Monto:      decimal.NewFromInt(25001),
	})
	require.ErrorIs(t, err, ErrSaldoInsuficiente)
	require.ErrorIs(t, err, shared.ErrValidation)

	assert.True(t, repo.saldos["reserva"].Equal(decimal.NewFromInt(25000)))
	assert.True(t, repo.saldos["operativo"].Equal(decimal.NewFromInt(50000)))
	assert.Empty(t, repo.movs)
}

func TestTransferValidation(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)

	cases := []struct {
		name string
		in   TransferInput
		want error
	}{
		{
			name: "same fund",
			in:   TransferInput{EdificioID: 1, Origen: "operativo", Destino: "Operativo", Monto: decimal.NewFromInt(10)},
			want: ErrMismoFondo,
		},
		{
			name: "zero amount",
			in:   TransferInput{EdificioID: 1, Origen: "operativo", Destino: "reserva", Monto: decimal.Zero},
			want: ErrMontoInvalido,
		},
		{
			name: "negative amount",
			in:   TransferInput{EdificioID: 1, Origen: "operativo", Destino: "reserva", Monto: decimal.NewFromInt(-5)},
			want: ErrMontoInvalido,
		},
		{
			name: "missing fund names",
			in:   TransferInput{EdificioID: 1, Origen: " ", Destino: "reserva", Monto: decimal.NewFromInt(10)},
			want: shared.ErrValidation,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Transfer(context.Background(), tc.in)
			require.ErrorIs(t, err, tc.want)
			assert.Empty(t, repo.movs)
		})
	}
}

func TestTransferUnknownFund(t *testing.T) {
	repo := newTestRepo()
	svc := NewService(repo, nil)

	_, err := svc.Transfer(context.Background(), TransferInput{
		EdificioID: 1,
		Origen:     "inexistente",
		Destino:    "reserva",
		Monto:      decimal.NewFromInt(10),
	})
	require.ErrorIs(t, err, ErrFondoNotFound)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
