package cierres

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consorcia/consorcia/internal/fondos"
	"github.com/consorcia/consorcia/internal/shared"
)

type memRepo struct {
	cierres []Cierre
	nextID  int64
}

func (r *memRepo) Insert(_ context.Context, c Cierre) (Cierre, error) {
	for _, existing := range r.cierres {
		if existing.EdificioID == c.EdificioID && existing.Tipo == c.Tipo &&
			existing.Mes == c.Mes && existing.Anio == c.Anio {
			return Cierre{}, ErrCierreExiste
		}
	}
	r.nextID++
	c.ID = r.nextID
	c.CreatedAt = time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	r.cierres = append(r.cierres, c)
	return c, nil
}

func (r *memRepo) List(_ context.Context, edificioID int64) ([]Cierre, error) {
	var out []Cierre
	for _, c := range r.cierres {
		if c.EdificioID == edificioID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memRepo) Get(_ context.Context, edificioID, cierreID int64) (Cierre, error) {
	for _, c := range r.cierres {
		if c.ID == cierreID && c.EdificioID == edificioID {
			return c, nil
		}
	}
	return Cierre{}, ErrCierreNotFound
}

type stubLedger struct {
	ingresos decimal.Decimal
	egresos  decimal.Decimal
	fondos   []fondos.Fondo

	ingresosRango [2]time.Time
}

func (s *stubLedger) IngresosPeriodo(_ context.Context, _ int64, desde, hasta time.Time) (decimal.Decimal, error) {
	s.ingresosRango = [2]time.Time{desde, hasta}
	return s.ingresos, nil
}

func (s *stubLedger) EgresosPeriodo(_ context.Context, _ int64, _, _ time.Time) (decimal.Decimal, error) {
	return s.egresos, nil
}

func (s *stubLedger) List(_ context.Context, edificioID int64) ([]fondos.Fondo, error) {
	return s.fondos, nil
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func newTestLedger() *stubLedger {
	return &stubLedger{
		ingresos: decimal.NewFromInt(250000),
		egresos:  decimal.NewFromInt(90000),
		fondos: []fondos.Fondo{
			{EdificioID: 1, Nombre: "operativo", Saldo: decimal.NewFromInt(160000)},
			{EdificioID: 1, Nombre: "reserva", Saldo: decimal.NewFromInt(500000)},
		},
	}
}

func TestCreateSnapshotsPeriod(t *testing.T) {
	repo := &memRepo{}
	ledger := newTestLedger()
	audit := &recordingAudit{}
	svc := NewService(repo, ledger, ledger, ledger, audit)
	svc.WithNow(func() time.Time { return time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC) })

	cierre, err := svc.Create(context.Background(), CreateInput{
		EdificioID: 1,
		Tipo:       TipoMensual,
		Mes:        12,
		Anio:       2025,
		ActorID:    7,
	})
	require.NoError(t, err)

	assert.True(t, cierre.TotalIngresos.Equal(decimal.NewFromInt(250000)))
	assert.True(t, cierre.TotalEgresos.Equal(decimal.NewFromInt(90000)))
	assert.True(t, cierre.Resultado.Equal(decimal.NewFromInt(160000)))
	require.Len(t, cierre.Fondos, 2)
	assert.Equal(t, "operativo", cierre.Fondos[0].Nombre)
	assert.True(t, cierre.Fondos[1].Saldo.Equal(decimal.NewFromInt(500000)))

	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), ledger.ingresosRango[0])
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), ledger.ingresosRango[1])

	require.Len(t, audit.logs, 1)
	assert.Equal(t, "cierres.crear", audit.logs[0].Action)
}

func TestCreateAnnualIgnoresMonth(t *testing.T) {
	repo := &memRepo{}
	ledger := newTestLedger()
	svc := NewService(repo, ledger, ledger, ledger, nil)

	cierre, err := svc.Create(context.Background(), CreateInput{
		EdificioID: 1,
		Tipo:       TipoAnual,
		Mes:        7,
		Anio:       2025,
	})
	require.NoError(t, err)
	assert.Zero(t, cierre.Mes)
	assert.Equal(t, "Anual 2025", cierre.Periodo())

	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), ledger.ingresosRango[0])
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), ledger.ingresosRango[1])
}

func TestCreateDuplicatePeriodConflicts(t *testing.T) {
	repo := &memRepo{}
	ledger := newTestLedger()
	svc := NewService(repo, ledger, ledger, ledger, nil)

	in := CreateInput{EdificioID: 1, Tipo: TipoMensual, Mes: 12, Anio: 2025}
	_, err := svc.Create(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), in)
	require.ErrorIs(t, err, ErrCierreExiste)
	require.ErrorIs(t, err, shared.ErrConflict)
	assert.Len(t, repo.cierres, 1)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(&memRepo{}, newTestLedger(), newTestLedger(), newTestLedger(), nil)

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"missing building", CreateInput{Tipo: TipoMensual, Mes: 12, Anio: 2025}},
		{"bad month", CreateInput{EdificioID: 1, Tipo: TipoMensual, Mes: 13, Anio: 2025}},
		{"bad type", CreateInput{EdificioID: 1, Tipo: "TRIMESTRAL", Mes: 3, Anio: 2025}},
		{"year out of range", CreateInput{EdificioID: 1, Tipo: TipoAnual, Anio: 1999}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.in)
			require.ErrorIs(t, err, shared.ErrValidation)
		})
	}
}

func TestGetUnknownCierre(t *testing.T) {
	svc := NewService(&memRepo{}, newTestLedger(), newTestLedger(), newTestLedger(), nil)

	_, err := svc.Get(context.Background(), 1, 99)
	require.ErrorIs(t, err, ErrCierreNotFound)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
