package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotConnected is returned when a caller asks for a request or client to
// be built from a credential that has no usable token. Callers are expected
// to check Connected() before building requests.
var ErrNotConnected = errors.New("no usable credential available")

// ConfigurationError reports required static configuration that is missing
// at the point of use. It is fatal for the code path that needs it.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Missing, ", "))
}

func NewConfigurationError(missing ...string) *ConfigurationError {
	return &ConfigurationError{Missing: missing}
}

// DecryptionError means a stored blob could not be read back: wrong key,
// corruption, or tampering. Stores treat it as "credential absent".
type DecryptionError struct {
	Err error
}

func (e *DecryptionError) Error() string { return fmt.Sprintf("decryption failed: %v", e.Err) }
func (e *DecryptionError) Unwrap() error { return e.Err }

// ExchangeError means the authorization-code exchange with a provider
// failed. Reason is an opaque code safe to put in a redirect URL; the full
// detail stays in server logs.
type ExchangeError struct {
	Provider Provider
	Reason   string
	Err      error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("%s oauth exchange failed (%s): %v", e.Provider, e.Reason, e.Err)
}
func (e *ExchangeError) Unwrap() error { return e.Err }

// RefreshError means a stored refresh token failed to produce a new access
// token. Resolvers degrade rather than propagate it to callers.
type RefreshError struct {
	Provider Provider
	Err      error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("%s token refresh failed: %v", e.Provider, e.Err)
}
func (e *RefreshError) Unwrap() error { return e.Err }

// UpstreamAPIError reports a provider API call that failed after a
// credential was successfully obtained. Status and Body let the caller tell
// a bad credential apart from a rejected request.
type UpstreamAPIError struct {
	Provider Provider
	Status   int
	Body     string
}

func (e *UpstreamAPIError) Error() string {
	return fmt.Sprintf("%s API error: status %d: %s", e.Provider, e.Status, e.Body)
}
