package common

import (
	"errors"
	"fmt"

	"github.com/joseph-ayodele/pdfpages/internal/fallback"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes
const (
	CodeConfig = "CONFIG_ERROR"
	CodeUsage  = "USAGE_ERROR"
	CodeIO     = "IO_ERROR"
)

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrValidation   = errors.New("validation failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Process exit codes
const (
	ExitOK     = 0
	ExitFailed = 1 // every backend failed, or an I/O error
	ExitUsage  = 2 // bad flags or input violating a capability contract
	ExitConfig = 3 // configuration or registration error
)

// ExitCode maps an error returned by a command to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var app *AppError
	if errors.As(err, &app) {
		switch app.Code {
		case CodeConfig:
			return ExitConfig
		case CodeUsage:
			return ExitUsage
		}
	}
	switch {
	case errors.Is(err, fallback.ErrInvalidInput), errors.Is(err, ErrInvalidInput):
		return ExitUsage
	case errors.Is(err, fallback.ErrUnknownCapability),
		errors.Is(err, fallback.ErrDuplicateCandidate),
		errors.Is(err, fallback.ErrNoCandidates),
		errors.Is(err, fallback.ErrRegistryFrozen),
		errors.Is(err, fallback.ErrCapabilityTypeMismatch):
		return ExitConfig
	}
	return ExitFailed
}

// FailureDetail returns the per-candidate breakdown of err when it wraps an
// AllCandidatesFailedError, or "" otherwise.
func FailureDetail(err error) string {
	var all *fallback.AllCandidatesFailedError
	if errors.As(err, &all) {
		return all.Detail()
	}
	return ""
}
