package cuotas

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consorcia/consorcia/internal/shared"
)

func TestRecargoAccruesPerMonth(t *testing.T) {
	monto := decimal.NewFromInt(50000)
	porc := decimal.NewFromInt(10)
	vencido := time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		asOf time.Time
		want decimal.Decimal
	}{
		{"before due", time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC), decimal.Zero},
		{"exactly due", vencido, decimal.Zero},
		{"five days overdue", time.Date(2025, 11, 20, 0, 0, 0, 0, time.UTC), decimal.Zero},
		{"one month boundary", time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(5000)},
		{"month and a half", time.Date(2025, 12, 30, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(5000)},
		{"two month boundary", time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(10000)},
		{"three months and change", time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(15000)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Recargo(monto, porc, vencido, tc.asOf)
			assert.True(t, tc.want.Equal(got), "want %s got %s", tc.want, got)
		})
	}
}

func TestRecargoZeroPercent(t *testing.T) {
	got := Recargo(decimal.NewFromInt(50000), decimal.Zero,
		time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, got.IsZero())
}

func TestRecargoRounds(t *testing.T) {
	// 33333 * 7.5% = 2499.975 -> 2499.98 after one whole month.
	got := Recargo(decimal.NewFromInt(33333), decimal.NewFromFloat(7.5),
		time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 15, 0, 0, 0, 0, time.UTC))
	assert.True(t, decimal.NewFromFloat(2499.98).Equal(got), "got %s", got)
}

func TestGenerateInputValidate(t *testing.T) {
	base := GenerateInput{
		EdificioID:   1,
		Periodo:      shared.Periodo{Mes: 12, Anio: 2025},
		Tipo:         TipoOrdinaria,
		Departamento: DepartamentoTodos,
	}
	require.NoError(t, base.Validate())

	bad := base
	bad.Periodo.Mes = 13
	require.ErrorIs(t, bad.Validate(), shared.ErrValidation)

	bad = base
	bad.Departamento = "  "
	require.ErrorIs(t, bad.Validate(), shared.ErrValidation)

	bad = base
	bad.Tipo = "MENSUAL"
	require.ErrorIs(t, bad.Validate(), shared.ErrValidation)

	bad = base
	negativo := decimal.NewFromInt(-1)
	bad.Monto = &negativo
	require.ErrorIs(t, bad.Validate(), ErrMontoInvalido)
}

func TestTotalAPagarIncludesRecargo(t *testing.T) {
	c := Cuota{Monto: decimal.NewFromInt(50000), Recargo: decimal.NewFromInt(5000)}
	assert.True(t, decimal.NewFromInt(55000).Equal(c.TotalAPagar()))
}
