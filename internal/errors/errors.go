package errors

import (
	"errors"
	"fmt"
)

// TrovoError is the structured error type for trovo.
// It carries enough context for logging and for CLI presentation.
type TrovoError struct {
	// Code is the unique error code (e.g., "ERR_201_FILE_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	Category Category
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Suggestion is an actionable hint for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *TrovoError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *TrovoError) Unwrap() error {
	return e.Cause
}

// Is matches errors by code, so errors.Is(err, errors.New(code, "", nil))
// works regardless of message.
func (e *TrovoError) Is(target error) bool {
	if t, ok := target.(*TrovoError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *TrovoError) WithDetail(key, value string) *TrovoError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *TrovoError) WithSuggestion(suggestion string) *TrovoError {
	e.Suggestion = suggestion
	return e
}

// New creates a new TrovoError. Category and severity are derived from the code.
func New(code string, message string, cause error) *TrovoError {
	return &TrovoError{
		Code:     code,
		Message:  message,
		Category: categoryFromCode(code),
		Severity: severityFromCode(code),
		Cause:    cause,
	}
}

// Wrap creates a TrovoError from an existing error, reusing its message.
func Wrap(code string, err error) *TrovoError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *TrovoError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *TrovoError {
	return New(ErrCodeFileNotFound, message, cause)
}

// InvalidArgument creates a validation error for a bad caller-supplied value.
func InvalidArgument(message string) *TrovoError {
	return New(ErrCodeInvalidInput, message, nil)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *TrovoError {
	return New(ErrCodeInternal, message, cause)
}

// As returns the first TrovoError in err's chain.
func As(err error) (*TrovoError, bool) {
	var te *TrovoError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	te, ok := As(err)
	return ok && te.Severity == SeverityFatal
}

// HasCode reports whether any TrovoError in err's chain carries code.
func HasCode(err error, code string) bool {
	return errors.Is(err, &TrovoError{Code: code})
}

// GetCode extracts the error code from the first TrovoError in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	if te, ok := As(err); ok {
		return te.Code
	}
	return ""
}

// GetCategory extracts the category from the first TrovoError in the chain.
func GetCategory(err error) Category {
	if te, ok := As(err); ok {
		return te.Category
	}
	return ""
}
