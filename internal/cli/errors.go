// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes for CLI commands.
//
// Handlers always return errors and never exit. Run displays the error
// once, in text or JSON, and maps it to an exit code with GetExitCode.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/qa-assistant/internal/api"
	"github.com/jeranaias/qa-assistant/internal/config"
	"github.com/jeranaias/qa-assistant/internal/storage"
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
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates the backend could not be reached
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates an operation timed out
	ExitTimeoutError = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// CommandError is a failed command action with context.
type CommandError struct {
	Command string // e.g. "cache"
	Action  string // e.g. "clear"
	Reason  string // human-readable reason
	Err     error  // underlying error, if any
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

// ValidationError is invalid user input.
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

// NotFoundError is a missing local resource.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ConfigError is a configuration file that could not be loaded or is
// invalid.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("config: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// =============================================================================
// CONSTRUCTORS
// =============================================================================

// NewCommandError creates a command error.
func NewCommandError(command, action, reason string, err error) error {
	return &CommandError{Command: command, Action: action, Reason: reason, Err: err}
}

// NewValidationError creates a validation error.
func NewValidationError(field, value, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// NewValidationErrorWithExample creates a validation error with an example.
func NewValidationErrorWithExample(field, value, reason, example string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Example: example}
}

// NewNotFoundError creates a not-found error.
func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// unknownSubcommand is the usage error for an unrecognised subcommand.
// silentError carries an exit code for a failure the command has already
// reported in its own output.
type silentError struct {
	err error
}

func (e *silentError) Error() string { return e.err.Error() }
func (e *silentError) Unwrap() error { return e.err }

func unknownSubcommand(command, sub string, valid string) error {
	return NewValidationErrorWithExample(command+" subcommand", sub,
		"must be one of: "+valid, "qa-assistant help "+command)
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode maps an error to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		valErr   *ValidationError
		notFound *NotFoundError
		cfgErr   *ConfigError
		cfgVal   config.ValidateErrors
		apiErr   *api.Error
	)
	switch {
	case errors.As(err, &valErr):
		return ExitUsageError
	case errors.As(err, &cfgErr), errors.As(err, &cfgVal):
		return ExitConfigError
	case errors.As(err, &notFound), errors.Is(err, storage.ErrTranscriptNotFound):
		return ExitNotFoundError
	case errors.Is(err, api.ErrEmptyQuestion), errors.Is(err, api.ErrEmptyDocument):
		return ExitUsageError
	case errors.As(err, &apiErr):
		switch apiErr.Kind {
		case api.KindUnavailable, api.KindOffline:
			return ExitNetworkError
		case api.KindNotFound:
			return ExitNotFoundError
		case api.KindTimeout:
			return ExitTimeoutError
		}
		return ExitGeneralError
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeoutError
	}
	return ExitGeneralError
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes err in a consistent format. In JSON mode the error
// envelope goes to out; otherwise a styled line goes to errOut.
func DisplayError(out, errOut io.Writer, command string, err error, jsonMode bool) {
	var silent *silentError
	if err == nil || errors.As(err, &silent) {
		return
	}
	if jsonMode {
		_ = NewJSONErrorResponse(command, err).Print(out)
		return
	}

	msg := err.Error()
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		msg = apiErr.UserMessage
		if apiErr.Status != 0 {
			msg += fmt.Sprintf(" (HTTP %d)", apiErr.Status)
		}
	}
	fmt.Fprintf(errOut, "%s %s\n", ErrorStyle.Render("[ERROR]"), msg)

	if apiErr != nil && apiErr.Kind == api.KindUnavailable {
		fmt.Fprintln(errOut, DimStyle.Render("Is the backend running? Check with: qa-assistant status"))
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) && valErr.Example == "" {
		fmt.Fprintln(errOut, DimStyle.Render("Run 'qa-assistant help' for usage."))
	}
}

// errorDetails describes err for the JSON envelope.
func errorDetails(err error) map[string]any {
	out := map[string]any{"exit_code": GetExitCode(err)}

	var (
		cmdErr   *CommandError
		valErr   *ValidationError
		notFound *NotFoundError
		apiErr   *api.Error
	)
	switch {
	case errors.As(err, &valErr):
		out["error_type"] = "validation_error"
		out["field"] = valErr.Field
		if valErr.Example != "" {
			out["example"] = valErr.Example
		}
	case errors.As(err, &notFound):
		out["error_type"] = "not_found_error"
		out["resource"] = notFound.Resource
		out["id"] = notFound.ID
	case errors.As(err, &apiErr):
		out["error_type"] = "api_error"
		out["kind"] = apiErr.Kind.String()
		if apiErr.Status != 0 {
			out["status"] = apiErr.Status
		}
	case errors.As(err, &cmdErr):
		out["error_type"] = "command_error"
		out["action"] = cmdErr.Action
	default:
		out["error_type"] = "generic_error"
	}
	return out
}
