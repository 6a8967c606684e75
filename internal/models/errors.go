package models

import (
	"errors"
	"fmt"
)

// Custom errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key violation")
	ErrInvalidID    = errors.New("invalid ID format")

	// ErrInvalidInput covers missing jurisdictions and malformed filter parameters.
	// A scan that fails with it never reaches the provider.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoEligibleBookmakers is terminal for a scan: the jurisdiction intersection is empty.
	ErrNoEligibleBookmakers = errors.New("no eligible bookmakers for selected jurisdictions")

	ErrProviderUnavailable = errors.New("odds provider unavailable")
	ErrProviderTimeout     = errors.New("odds provider timeout")
	ErrAllSportsFailed     = errors.New("all sport fetches failed")
	ErrMissingProviderKey  = errors.New("odds provider api key not configured")

	ErrConfirmationRequired = fmt.Errorf("%w: paid scan requires explicit confirmation", ErrInvalidInput)
	ErrBudgetExhausted      = errors.New("request budget exhausted")

	ErrJobAlreadyRunning = errors.New("job is already running")
	ErrUnknownJob        = errors.New("unknown job")
)

// InvalidInputf wraps ErrInvalidInput with a formatted reason.
func InvalidInputf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
