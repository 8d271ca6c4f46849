package shared

import "errors"

// Error categories wrapped by domain sentinel errors. Handlers map them to
// HTTP statuses in platform/httpx without knowing each domain error.
var (
	// ErrNotFound indicates the resource is absent or belongs to another
	// building; callers cannot tell the two apart.
	ErrNotFound = errors.New("recurso no encontrado")
	// ErrValidation indicates bad input (missing field, non-positive amount).
	ErrValidation = errors.New("datos invalidos")
	// ErrConflict indicates duplicate generation, repeated payment, or an
	// immutable record being touched.
	ErrConflict = errors.New("conflicto")
	// ErrForbidden indicates the role lacks permission for the operation.
	ErrForbidden = errors.New("operacion no permitida")
	// ErrUnauthorized indicates a missing or invalid session.
	ErrUnauthorized = errors.New("no autenticado")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("credenciales invalidas")
)
