package shared

// Rol enumerates the roles recognised per building.
type Rol string

const (
	RolAdmin     Rol = "ADMIN"
	RolComite    Rol = "COMITE"
	RolInquilino Rol = "INQUILINO"
)

// Valid reports whether the role is one of the recognised values.
func (r Rol) Valid() bool {
	switch r {
	case RolAdmin, RolComite, RolInquilino:
		return true
	default:
		return false
	}
}

// CanWrite reports whether the role may mutate ledger state.
// Inquilinos are read-only by policy.
func (r Rol) CanWrite() bool {
	return r == RolAdmin || r == RolComite
}

// Identity is the authenticated tenant context every ledger operation runs
// under. EdificioID is the isolation boundary; repositories must scope every
// query by it.
type Identity struct {
	UserID     int64
	EdificioID int64
	Rol        Rol
}
