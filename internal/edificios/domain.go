package edificios

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/consorcia/consorcia/internal/shared"
)

// Edificio is the tenant boundary. Every ledger row carries its id and no
// query may cross it.
type Edificio struct {
	ID                  int64
	Nombre              string
	TotalUnidades       int
	CuotaMensual        decimal.Decimal
	CuotaExtraordinaria decimal.Decimal
	DiaCorte            int
	DiasGracia          int
	RecargoPorc         decimal.Decimal
	FondoIngresos       string
	Activo              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Unidad is one department/unit of a building. Only occupied units receive
// generated cuotas.
type Unidad struct {
	ID         int64
	EdificioID int64
	Codigo     string
	Ocupada    bool
}

// ConfigInput captures the admin-editable building settings.
type ConfigInput struct {
	Nombre              string          `json:"nombre" validate:"required,min=2,max=120"`
	CuotaMensual        decimal.Decimal `json:"cuotaMensual"`
	CuotaExtraordinaria decimal.Decimal `json:"cuotaExtraordinaria"`
	DiaCorte            int             `json:"diaCorte" validate:"min=1,max=28"`
	DiasGracia          int             `json:"diasGracia" validate:"min=0,max=90"`
	RecargoPorc         decimal.Decimal `json:"recargoPorc"`
}

// Validate checks the amount fields the struct tags cannot express.
func (in ConfigInput) Validate() error {
	if strings.TrimSpace(in.Nombre) == "" {
		return fmt.Errorf("edificios: nombre requerido: %w", shared.ErrValidation)
	}
	if in.CuotaMensual.IsNegative() || in.CuotaExtraordinaria.IsNegative() {
		return fmt.Errorf("edificios: cuota negativa: %w", shared.ErrValidation)
	}
	if in.RecargoPorc.IsNegative() || in.RecargoPorc.GreaterThan(decimal.NewFromInt(100)) {
		return fmt.Errorf("edificios: recargo fuera de rango: %w", shared.ErrValidation)
	}
	if in.DiaCorte < 1 || in.DiaCorte > 28 {
		return fmt.Errorf("edificios: dia de corte fuera de rango: %w", shared.ErrValidation)
	}
	if in.DiasGracia < 0 {
		return fmt.Errorf("edificios: dias de gracia invalidos: %w", shared.ErrValidation)
	}
	return nil
}

// ErrEdificioNotFound indicates the building is missing or inactive.
var ErrEdificioNotFound = fmt.Errorf("edificios: edificio no encontrado: %w", shared.ErrNotFound)
