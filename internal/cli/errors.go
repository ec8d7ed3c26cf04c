// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types, display and exit codes for protoforge commands.
//
// Command handlers always return errors; Run decides how to display them
// and which exit code to use.

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/jeranaias/protoforge/internal/config"
	"github.com/jeranaias/protoforge/internal/export"
	"github.com/jeranaias/protoforge/internal/provider"
	"github.com/jeranaias/protoforge/internal/session"
	"github.com/jeranaias/protoforge/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates a missing provider, key or bad config file
	ExitConfigError = 3
	// ExitAuthError indicates the provider rejected the credential
	ExitAuthError = 4
	// ExitNetworkError indicates the provider could not be reached
	ExitNetworkError = 5
	// ExitProviderError indicates the provider returned an error or a reply
	// that could not be read
	ExitProviderError = 6
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError represents a CLI command error with context.
type CommandError struct {
	Command string
	Action  string
	Reason  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s failed: %s: %v", e.Command, e.Action, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %s", e.Command, e.Action, e.Reason)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ValidationError represents a validation failure for user input.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewCommandError creates a new command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// NewNotFoundError creates a new not found error.
func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ErrMissingArgument creates an error for missing required arguments.
func ErrMissingArgument(argName, usage string) error {
	return &ValidationError{
		Field:   argName,
		Reason:  "required argument missing",
		Example: usage,
	}
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err to stderr, or as a JSON error response on stdout
// in JSON mode.
func DisplayError(err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		DisplayErrorJSON(err)
		return
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())
	if hint := errorHint(err); hint != "" {
		fmt.Fprintf(os.Stderr, "%s\n", DimStyle.Render(hint))
	}
}

// DisplayErrorJSON outputs an error as JSON.
func DisplayErrorJSON(err error) {
	output := map[string]interface{}{
		"error":      err.Error(),
		"success":    false,
		"error_type": errorType(err),
		"exit_code":  GetExitCode(err),
	}

	var perr *provider.ProviderError
	if errors.As(err, &perr) {
		output["provider"] = perr.Provider
		output["status"] = perr.Status
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		output["field"] = verr.Field
		if verr.Example != "" {
			output["example"] = verr.Example
		}
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	_ = encoder.Encode(output)
}

// errorType names the error category for JSON output.
func errorType(err error) string {
	var (
		verr *ValidationError
		nerr *NotFoundError
		cerr *CommandError
	)
	switch {
	case provider.IsConfiguration(err):
		return "configuration_error"
	case provider.IsTransport(err):
		return "transport_error"
	case provider.IsProvider(err):
		return "provider_error"
	case provider.IsMalformed(err):
		return "malformed_response"
	case errors.As(err, &verr):
		return "validation_error"
	case errors.As(err, &nerr):
		return "not_found_error"
	case errors.As(err, &cerr):
		return "command_error"
	default:
		return "generic_error"
	}
}

// errorHint suggests the next step for common failures.
func errorHint(err error) string {
	var cfgErr *provider.ConfigurationError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Field {
		case "provider":
			return "Run 'protoforge providers' then 'protoforge use <id>'."
		case "credential":
			return "Run 'protoforge key' to set your API key."
		}
	}
	var perr *provider.ProviderError
	if errors.As(err, &perr) && (perr.Status == http.StatusUnauthorized || perr.Status == http.StatusForbidden) {
		return "The provider rejected the API key. Run 'protoforge key' to replace it."
	}
	if errors.Is(err, storage.ErrCredentialUnreadable) {
		return "The stored key could not be decrypted. Run 'protoforge key' to set it again."
	}
	return ""
}

// =============================================================================
// EXIT CODES
// =============================================================================

// GetExitCode determines the appropriate exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		verr   *ValidationError
		nerr   *NotFoundError
		perr   *provider.ProviderError
		cfgErr config.ValidateErrors
	)

	switch {
	case errors.As(err, &verr), errors.Is(err, session.ErrEmptyMessage):
		return ExitUsageError
	case errors.As(err, &nerr):
		return ExitNotFoundError
	case provider.IsConfiguration(err), errors.As(err, &cfgErr), errors.Is(err, storage.ErrCredentialUnreadable):
		return ExitConfigError
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	case provider.IsTransport(err):
		return ExitNetworkError
	case errors.As(err, &perr):
		if perr.Status == http.StatusUnauthorized || perr.Status == http.StatusForbidden {
			return ExitAuthError
		}
		return ExitProviderError
	case provider.IsMalformed(err):
		return ExitProviderError
	case errors.Is(err, export.ErrNothingToExport):
		return ExitNotFoundError
	}

	// Fall back to message inspection for errors from outside the domain
	// packages (file system, terminal).
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "config"):
		return ExitConfigError
	case strings.Contains(msg, "timed out"), strings.Contains(msg, "deadline exceeded"):
		return ExitTimeoutError
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"):
		return ExitNetworkError
	}
	return ExitGeneralError
}

// WrapError wraps an error with additional context.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
