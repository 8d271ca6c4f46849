package shared

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Periodo identifies one billing month for a building.
type Periodo struct {
	Mes  int
	Anio int
}

var meses = []string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// ParseMes accepts either a month number ("12") or a Spanish month name
// ("Diciembre") and returns the month ordinal.
func ParseMes(raw string) (int, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return 0, fmt.Errorf("mes requerido: %w", ErrValidation)
	}
	if n, err := strconv.Atoi(trimmed); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("mes %d fuera de rango: %w", n, ErrValidation)
		}
		return n, nil
	}
	// "setiembre" is an accepted variant in several countries.
	if trimmed == "setiembre" {
		return 9, nil
	}
	for i, nombre := range meses {
		if nombre == trimmed {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("mes %q no reconocido: %w", raw, ErrValidation)
}

// NuevoPeriodo validates mes/anio and builds a Periodo.
func NuevoPeriodo(mes, anio int) (Periodo, error) {
	if mes < 1 || mes > 12 {
		return Periodo{}, fmt.Errorf("mes %d fuera de rango: %w", mes, ErrValidation)
	}
	if anio < 2000 || anio > 2100 {
		return Periodo{}, fmt.Errorf("anio %d fuera de rango: %w", anio, ErrValidation)
	}
	return Periodo{Mes: mes, Anio: anio}, nil
}

// Nombre returns the Spanish month name, capitalised.
func (p Periodo) Nombre() string {
	if p.Mes < 1 || p.Mes > 12 {
		return ""
	}
	nombre := meses[p.Mes-1]
	return strings.ToUpper(nombre[:1]) + nombre[1:]
}

// String renders "Diciembre 2025".
func (p Periodo) String() string {
	return fmt.Sprintf("%s %d", p.Nombre(), p.Anio)
}

// Rango returns the half-open [inicio, fin) interval covered by the period.
func (p Periodo) Rango() (time.Time, time.Time) {
	inicio := time.Date(p.Anio, time.Month(p.Mes), 1, 0, 0, 0, 0, time.UTC)
	return inicio, inicio.AddDate(0, 1, 0)
}

// RangoAnual returns the interval for the whole year, used by annual closures.
func (p Periodo) RangoAnual() (time.Time, time.Time) {
	inicio := time.Date(p.Anio, time.January, 1, 0, 0, 0, 0, time.UTC)
	return inicio, inicio.AddDate(1, 0, 0)
}

// Contiene reports whether t falls inside the monthly period.
func (p Periodo) Contiene(t time.Time) bool {
	inicio, fin := p.Rango()
	return !t.Before(inicio) && t.Before(fin)
}
