package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("permission denied")

	// pré-condições do BetPlacementService
	ErrInvalidQuota  = errors.New("invalid quota")
	ErrInvalidEvent  = errors.New("invalid event")
	ErrNoActiveQuota = errors.New("event has no active quota")
)

var (
	ErrInactiveQuota      = validation("quota must be active")
	ErrEventResolved      = validation("event already resolved")
	ErrEventClosed        = validation("resolved event cannot be reactivated")
	ErrInvalidAmount      = validation("amount must be zero or positive")
	ErrInvalidProbability = validation("probability must be between 0 and 1")
)

// validation cria um erro que satisfaz errors.Is(err, ErrValidation)
func validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// Validationf monta um erro de validação ad hoc (ex.: campo obrigatório)
func Validationf(format string, args ...any) error {
	return validation(fmt.Sprintf(format, args...))
}
