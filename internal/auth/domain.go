package auth

import (
	"time"

	"github.com/consorcia/consorcia/internal/shared"
)

// User is an account bound to exactly one building. The binding is what the
// tenancy guard enforces on every request.
type User struct {
	ID           int64
	EdificioID   int64
	Email        string
	Nombre       string
	PasswordHash string
	Rol          shared.Rol
	Activo       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
