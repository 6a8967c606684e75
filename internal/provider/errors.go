package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/yourusername/arb-hedger/internal/models"
)

// Error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
	ErrCodeTimeout              = "timeout"
	ErrCodeCircuitOpen          = "circuit_open"
)

// ProviderError describes a failed fetch for one sport. Err is always one of
// the models sentinels so callers can use errors.Is.
type ProviderError struct {
	Provider string
	Sport    string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", e.Provider, e.Code, e.Message)
	if e.Sport != "" {
		msg = fmt.Sprintf("%s [%s]: %s: %s", e.Provider, e.Sport, e.Code, e.Message)
	}
	if e.Err != nil {
		msg += " (" + e.Err.Error() + ")"
	}
	return msg
}

// Unwrap exposes the sentinel
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a provider error
func NewProviderError(provider, sport, code, message string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Sport: sport, Code: code, Message: message, Err: err}
}

// classifyTransportError maps a transport failure onto a ProviderError
func classifyTransportError(provider, sport string, err error) *ProviderError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		return NewProviderError(provider, sport, ErrCodeTimeout, err.Error(), models.ErrProviderTimeout)
	case errors.Is(err, errCircuitOpen):
		return NewProviderError(provider, sport, ErrCodeCircuitOpen, err.Error(), models.ErrProviderUnavailable)
	default:
		return NewProviderError(provider, sport, ErrCodeNetworkError, err.Error(), models.ErrProviderUnavailable)
	}
}

// classifyStatus maps a non-2xx response onto a ProviderError
func classifyStatus(provider, sport string, status int, body string) *ProviderError {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewProviderError(provider, sport, ErrCodeAuthenticationFailed, body, models.ErrMissingProviderKey)
	case status == http.StatusTooManyRequests:
		return NewProviderError(provider, sport, ErrCodeRateLimitExceeded, body, models.ErrProviderUnavailable)
	case status >= 500:
		return NewProviderError(provider, sport, ErrCodeServerError, body, models.ErrProviderUnavailable)
	default:
		return NewProviderError(provider, sport, ErrCodeInvalidData, fmt.Sprintf("status %d: %s", status, body), models.ErrProviderUnavailable)
	}
}
