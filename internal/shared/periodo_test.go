package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMes(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"1", 1},
		{"12", 12},
		{"enero", 1},
		{"Diciembre", 12},
		{"  SEPTIEMBRE  ", 9},
		{"setiembre", 9},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := ParseMes(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseMesRejectsInvalid(t *testing.T) {
	for _, raw := range []string{"", "0", "13", "-1", "sextilis", "dec"} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseMes(raw)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestNuevoPeriodo(t *testing.T) {
	p, err := NuevoPeriodo(12, 2025)
	require.NoError(t, err)
	assert.Equal(t, Periodo{Mes: 12, Anio: 2025}, p)

	_, err = NuevoPeriodo(13, 2025)
	require.ErrorIs(t, err, ErrValidation)
	_, err = NuevoPeriodo(1, 1999)
	require.ErrorIs(t, err, ErrValidation)
}

func TestPeriodoString(t *testing.T) {
	assert.Equal(t, "Diciembre 2025", Periodo{Mes: 12, Anio: 2025}.String())
	assert.Equal(t, "Enero 2026", Periodo{Mes: 1, Anio: 2026}.String())
}

func TestPeriodoRango(t *testing.T) {
	inicio, fin := Periodo{Mes: 12, Anio: 2025}.Rango()
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), inicio)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), fin)
}

func TestPeriodoRangoAnual(t *testing.T) {
	inicio, fin := Periodo{Mes: 1, Anio: 2025}.RangoAnual()
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), inicio)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), fin)
}

func TestPeriodoContiene(t *testing.T) {
	p := Periodo{Mes: 12, Anio: 2025}
	assert.True(t, p.Contiene(time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, p.Contiene(time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, p.Contiene(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contiene(time.Date(2025, 11, 30, 0, 0, 0, 0, time.UTC)))
}
