package cierres

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/consorcia/consorcia/internal/shared"
)

// TipoCierre distinguishes monthly from annual closures.
type TipoCierre string

const (
	TipoMensual TipoCierre = "MENSUAL"
	TipoAnual   TipoCierre = "ANUAL"
)

// FondoSaldo is one fund balance captured at closure time.
type FondoSaldo struct {
	Nombre string          `json:"nombre"`
	Saldo  decimal.Decimal `json:"saldo"`
}

// Cierre is an immutable snapshot of one period. Once written it is never
// updated or deleted; expenses dated inside it are locked.
type Cierre struct {
	ID            int64
	EdificioID    int64
	Tipo          TipoCierre
	Mes           int
	Anio          int
	TotalIngresos decimal.Decimal
	TotalEgresos  decimal.Decimal
	Resultado     decimal.Decimal
	Fondos        []FondoSaldo
	CreatedBy     int64
	CreatedAt     time.Time
}

// Periodo returns the closed period. Annual closures carry Mes zero.
func (c Cierre) Periodo() string {
	if c.Tipo == TipoAnual {
		return fmt.Sprintf("Anual %d", c.Anio)
	}
	return shared.Periodo{Mes: c.Mes, Anio: c.Anio}.String()
}

// CreateInput drives closure creation.
type CreateInput struct {
	EdificioID int64
	Tipo       TipoCierre
	Mes        int
	Anio       int
	ActorID    int64
}

// Validate rejects malformed closure requests. Annual closures ignore Mes.
func (in CreateInput) Validate() error {
	if in.EdificioID == 0 {
		return fmt.Errorf("cierres: edificio requerido: %w", shared.ErrValidation)
	}
	switch in.Tipo {
	case TipoMensual:
		_, err := shared.NuevoPeriodo(in.Mes, in.Anio)
		return err
	case TipoAnual:
		if in.Anio < 2000 || in.Anio > 2100 {
			return fmt.Errorf("cierres: anio %d fuera de rango: %w", in.Anio, shared.ErrValidation)
		}
		return nil
	default:
		return fmt.Errorf("cierres: tipo %q no reconocido: %w", in.Tipo, shared.ErrValidation)
	}
}

// Rango returns the half-open interval the closure aggregates over.
func (in CreateInput) Rango() (time.Time, time.Time) {
	if in.Tipo == TipoAnual {
		return shared.Periodo{Mes: 1, Anio: in.Anio}.RangoAnual()
	}
	return shared.Periodo{Mes: in.Mes, Anio: in.Anio}.Rango()
}

// Sentinel errors for the closure aggregator.
var (
	ErrCierreExiste   = fmt.Errorf("cierres: el periodo ya fue cerrado: %w", shared.ErrConflict)
	ErrCierreNotFound = fmt.Errorf("cierres: cierre no encontrado: %w", shared.ErrNotFound)
)
