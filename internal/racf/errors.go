package racf

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCategory represents different categories of RACF command errors.
type ErrorCategory string

const (
	ErrorCategoryValidation      ErrorCategory = "validation"
	ErrorCategoryNotFound        ErrorCategory = "not_found"
	ErrorCategoryAlreadyExists   ErrorCategory = "already_exists"
	ErrorCategoryCommandFailed   ErrorCategory = "command_failed"
	ErrorCategoryParse           ErrorCategory = "parse"
	ErrorCategoryTimeout         ErrorCategory = "timeout"
	ErrorCategoryEmbeddedCommand ErrorCategory = "embedded_command"
	ErrorCategoryConnection      ErrorCategory = "connection"
	ErrorCategoryUnknown         ErrorCategory = "unknown"
)

// RACFError provides enhanced error information for RACF operations.
type RACFError struct {
	Operation string        // The operation that failed
	Category  ErrorCategory // Error category
	Message   string        // Human-readable message
	Command   string        // Command verb involved (never the full command text)
	Target    string        // User or group the command addressed
	Output    string        // Raw terminal output kept for diagnosis
	Retryable bool          // Whether the error is retryable
	Cause     error         // Underlying error
}

func (e *RACFError) Error() string {
	parts := []string{fmt.Sprintf("RACF %s failed", e.Operation)}

	if e.Message != "" {
		parts = append(parts, e.Message)
	}

	if e.Command != "" {
		parts = append(parts, fmt.Sprintf("command: %s", e.Command))
	}

	if e.Target != "" {
		parts = append(parts, fmt.Sprintf("target: %s", e.Target))
	}

	if e.Output != "" {
		parts = append(parts, fmt.Sprintf("output: %s", firstLines(e.Output, 5)))
	}

	if e.Cause != nil && e.Message != e.Cause.Error() {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, " - ")
}

func (e *RACFError) IsRetryable() bool {
	return e.Retryable
}

func (e *RACFError) Unwrap() error {
	return e.Cause
}

// GetCategory returns the error category.
func (e *RACFError) GetCategory() ErrorCategory {
	return e.Category
}

// NewRACFError creates a new RACF error, categorising err by its message
// when it is not already a RACFError.
func NewRACFError(operation string, err error) *RACFError {
	if err == nil {
		return nil
	}

	var racfErr *RACFError
	if errors.As(err, &racfErr) {
		return &RACFError{
			Operation: operation,
			Category:  racfErr.Category,
			Message:   racfErr.Message,
			Command:   racfErr.Command,
			Target:    racfErr.Target,
			Output:    racfErr.Output,
			Retryable: racfErr.Retryable,
			Cause:     err,
		}
	}

	return &RACFError{
		Operation: operation,
		Category:  categorizeGenericError(err),
		Message:   err.Error(),
		Retryable: isGenericErrorRetryable(err),
		Cause:     err,
	}
}

// NewValidationError reports a pre-flight invariant violation. No command is sent.
func NewValidationError(operation, format string, args ...any) *RACFError {
	return &RACFError{
		Operation: operation,
		Category:  ErrorCategoryValidation,
		Message:   fmt.Sprintf(format, args...),
	}
}

// NewNotFoundError reports that the addressed entity does not exist.
func NewNotFoundError(operation, target, output string) *RACFError {
	return &RACFError{
		Operation: operation,
		Category:  ErrorCategoryNotFound,
		Message:   fmt.Sprintf("%s not found", target),
		Target:    target,
		Output:    output,
	}
}

// NewAlreadyExistsError reports that a pre-check found an existing entity.
func NewAlreadyExistsError(operation, target string) *RACFError {
	return &RACFError{
		Operation: operation,
		Category:  ErrorCategoryAlreadyExists,
		Message:   fmt.Sprintf("%s already exists", target),
		Target:    target,
	}
}

// NewCommandFailedError reports unrecognised residual output after a command.
func NewCommandFailedError(operation, command, target, output string) *RACFError {
	return &RACFError{
		Operation: operation,
		Category:  ErrorCategoryCommandFailed,
		Message:   "command returned unexpected output",
		Command:   command,
		Target:    target,
		Output:    output,
	}
}

// NewParseError reports output that did not have the required structure.
func NewParseError(operation, message, output string) *RACFError {
	return &RACFError{
		Operation: operation,
		Category:  ErrorCategoryParse,
		Message:   message,
		Output:    output,
	}
}

// NewTimeoutError reports a command cycle that exceeded its wait budget.
func NewTimeoutError(command, partial string) *RACFError {
	return &RACFError{
		Operation: "wait",
		Category:  ErrorCategoryTimeout,
		Message:   "timed out waiting for command completion",
		Command:   command,
		Output:    partial,
		Retryable: true,
	}
}

// NewEmbeddedCommandError reports an error message detected while the
// command was running and surfaced once the terminal was ready again.
func NewEmbeddedCommandError(command, output string) *RACFError {
	return &RACFError{
		Operation: "wait",
		Category:  ErrorCategoryEmbeddedCommand,
		Message:   "command reported an error",
		Command:   command,
		Output:    output,
	}
}

// NewConnectionError creates a new connection error.
func NewConnectionError(message string, retryable bool, cause error) *RACFError {
	return &RACFError{
		Operation: "connect",
		Category:  ErrorCategoryConnection,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// categorizeGenericError categorizes non-RACF errors.
func categorizeGenericError(err error) ErrorCategory {
	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "timed out") {
		return ErrorCategoryTimeout
	}

	if strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "broken pipe") ||
		strings.Contains(errStr, "eof") {
		return ErrorCategoryConnection
	}

	return ErrorCategoryUnknown
}

// isGenericErrorRetryable determines if a generic error is retryable.
func isGenericErrorRetryable(err error) bool {
	errStr := strings.ToLower(err.Error())

	retryablePatterns := []string{
		"connection",
		"timeout",
		"timed out",
		"network",
		"broken pipe",
		"connection reset",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// WrapError wraps an error with operation context.
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}

	if racfErr, ok := err.(*RACFError); ok {
		if racfErr.Operation == "" {
			racfErr.Operation = operation
		}
		return racfErr
	}

	return NewRACFError(operation, err)
}

// IsRetryableError checks if an error is retryable.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var racfErr *RACFError
	if errors.As(err, &racfErr) {
		return racfErr.IsRetryable()
	}

	return isGenericErrorRetryable(err)
}

// GetErrorCategory returns the category of an error.
func GetErrorCategory(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryUnknown
	}

	var racfErr *RACFError
	if errors.As(err, &racfErr) {
		return racfErr.GetCategory()
	}

	return categorizeGenericError(err)
}

// IsNotFoundError checks if an error indicates a "not found" condition.
func IsNotFoundError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryNotFound
}

// IsAlreadyExistsError checks if an error indicates an existing entity.
func IsAlreadyExistsError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryAlreadyExists
}

// IsValidationError checks if an error is a pre-flight validation failure.
func IsValidationError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryValidation
}

// IsTimeoutError checks if an error is a command timeout.
func IsTimeoutError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryTimeout
}

// IsParseError checks if an error is an output parse failure.
func IsParseError(err error) bool {
	return GetErrorCategory(err) == ErrorCategoryParse
}

// ErrorOutput returns the raw terminal output attached to err, if any.
func ErrorOutput(err error) string {
	var racfErr *RACFError
	if errors.As(err, &racfErr) {
		return racfErr.Output
	}
	return ""
}

func firstLines(text string, n int) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > n {
		lines = append(lines[:n], "...")
	}
	return strings.Join(lines, " | ")
}
