package repository

import "errors"

var (
	// ErrNotFound indica que el recurso solicitado no existe.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica una violación de unicidad (email, username, slug, dominio, token).
	ErrConflict = errors.New("conflict")

	// ErrPreconditionFailed indica que una actualización condicional no encontró el valor esperado.
	ErrPreconditionFailed = errors.New("precondition failed")

	// ErrInvalidInput indica datos inválidos para el adapter.
	ErrInvalidInput = errors.New("invalid input")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }
