package types

import "errors"

// Error taxonomy shared by the coordinator, stores and handlers. Callers wrap
// these with fmt.Errorf("%w: ...") to attach detail and handlers translate
// them to HTTP statuses via utils.ErrorStatus.
var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrResourceUnavailable = errors.New("resource unavailable")
	ErrTransient           = errors.New("transient failure")
	ErrUnauthenticated     = errors.New("unauthenticated")
)
