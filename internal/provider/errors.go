// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package provider

import (
	"errors"
	"fmt"
	"net/url"
)

// MinCredentialLength is the shortest credential accepted for providers that
// require one.
const MinCredentialLength = 10

// =============================================================================
// ERROR TYPES
// =============================================================================

// ConfigurationError reports a problem detected before any network attempt:
// no provider selected, a missing or too short credential, or a provider
// without an endpoint.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// TransportError reports that the request could not be completed at all
// (DNS failure, connection refused, timeout, cancellation).
type TransportError struct {
	Provider string
	Endpoint string // scheme://host/path only, the query may hold a key
	Err      error
}

func (e *TransportError) Error() string {
	if e.Endpoint != "" {
		return fmt.Sprintf("could not reach %s at %s: %v", e.Provider, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("could not reach %s: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProviderError reports a completed HTTP exchange with a non-2xx status.
// Message is the vendor's own error text when the body carries one,
// otherwise a generic per-provider string.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// MalformedResponseError reports a 2xx response whose body lacks the reply
// field for the provider's schema.
type MalformedResponseError struct {
	Provider string
	Reason   string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s response: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed %s response: %s", e.Provider, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR CHECKING HELPERS
// =============================================================================

// IsConfiguration reports whether err is or wraps a *ConfigurationError.
func IsConfiguration(err error) bool {
	var target *ConfigurationError
	return errors.As(err, &target)
}

// IsTransport reports whether err is or wraps a *TransportError.
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsProvider reports whether err is or wraps a *ProviderError.
func IsProvider(err error) bool {
	var target *ProviderError
	return errors.As(err, &target)
}

// IsMalformed reports whether err is or wraps a *MalformedResponseError.
func IsMalformed(err error) bool {
	var target *MalformedResponseError
	return errors.As(err, &target)
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidateCredential checks a credential against what desc requires.
func ValidateCredential(desc Descriptor, credential string) error {
	if !desc.RequiresCredential() {
		return nil
	}
	if credential == "" {
		return &ConfigurationError{
			Field:   "credential",
			Message: fmt.Sprintf("no API key set for %s", desc.Name),
		}
	}
	if len(credential) < MinCredentialLength {
		return &ConfigurationError{
			Field:   "credential",
			Message: "API key seems too short. Please check.",
		}
	}
	return nil
}

// ErrNoProvider is returned when a turn is attempted without a provider.
var ErrNoProvider = &ConfigurationError{
	Field:   "provider",
	Message: "Please set up your AI provider and API key",
}

// scrubURL drops query and fragment so API keys passed as query parameters
// never reach logs or error messages.
func scrubURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil
	return u.String()
}

// transportCause strips the *url.Error wrapper the http client adds, since
// its message repeats the full request URL.
func transportCause(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
