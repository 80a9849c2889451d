package whatsapp

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when no usable credentials exist for the
// required provider. It is raised before any network I/O.
var ErrNotConfigured = errors.New("whatsapp provider credentials not configured")

// ProviderError wraps a transport or API failure from a provider call.
type ProviderError struct {
	Provider Provider
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider error: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
