package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrovoError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("original error")

	// When: wrapping with TrovoError
	te := New(ErrCodeFileNotFound, "root not found: /mnt/usb", originalErr)

	// Then: unwrapping returns original error
	require.NotNil(t, te)
	assert.Equal(t, originalErr, errors.Unwrap(te))
	assert.True(t, errors.Is(te, originalErr))
}

func TestTrovoError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{
			name:     "config error",
			code:     ErrCodeConfigNotFound,
			message:  "config file not found",
			expected: "[ERR_101_CONFIG_NOT_FOUND] config file not found",
		},
		{
			name:     "file error",
			code:     ErrCodeFileNotFound,
			message:  "/home missing",
			expected: "[ERR_201_FILE_NOT_FOUND] /home missing",
		},
		{
			name:     "shingle mismatch",
			code:     ErrCodeShingleMismatch,
			message:  "k=3 but index built with k=4",
			expected: "[ERR_402_SHINGLE_MISMATCH] k=3 but index built with k=4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, nil)
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestTrovoError_Is_MatchesByCode(t *testing.T) {
	// Given: two errors with same code
	err1 := New(ErrCodeInvalidInput, "k must be positive", nil)
	err2 := New(ErrCodeInvalidInput, "limit must not be negative", nil)

	// Then: they match by code
	assert.True(t, errors.Is(err1, err2))
	assert.False(t, errors.Is(err1, New(ErrCodeConfigNotFound, "", nil)))
}

func TestHasCode_FindsWrappedError(t *testing.T) {
	// Given: a TrovoError wrapped with fmt context
	err := fmt.Errorf("build index: %w", InvalidArgument("k must be positive"))

	// Then: code lookups see through the wrapping
	assert.True(t, HasCode(err, ErrCodeInvalidInput))
	assert.False(t, HasCode(err, ErrCodeShingleMismatch))
	assert.Equal(t, ErrCodeInvalidInput, GetCode(err))
	assert.Equal(t, CategoryValidation, GetCategory(err))
	assert.Empty(t, GetCode(errors.New("plain")))
}

func TestTrovoError_WithDetailAndSuggestion(t *testing.T) {
	// Given: a base error
	err := New(ErrCodeCatalog, "catalog write failed", nil)

	// When: adding details and a suggestion
	err = err.WithDetail("root", "/home").WithDetail("ext", "pdf").
		WithSuggestion("Run 'trovo cache clear'")

	// Then: both are available
	assert.Equal(t, "/home", err.Details["root"])
	assert.Equal(t, "pdf", err.Details["ext"])
	assert.Equal(t, "Run 'trovo cache clear'", err.Suggestion)
}

func TestTrovoError_CategoryFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantCategory Category
	}{
		{ErrCodeConfigNotFound, CategoryConfig},
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeFileNotFound, CategoryIO},
		{ErrCodeCorruptIndex, CategoryIO},
		{ErrCodeInvalidInput, CategoryValidation},
		{ErrCodeShingleMismatch, CategoryValidation},
		{ErrCodeInternal, CategoryInternal},
		{"BAD", CategoryInternal},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantCategory, err.Category)
		})
	}
}

func TestTrovoError_SeverityFromCode(t *testing.T) {
	tests := []struct {
		code         string
		wantSeverity Severity
	}{
		{ErrCodeCorruptIndex, SeverityFatal},
		{ErrCodeLockHeld, SeverityWarning},
		{ErrCodeFileNotFound, SeverityError},
		{ErrCodeInvalidInput, SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "test message", nil)
			assert.Equal(t, tt.wantSeverity, err.Severity)
		})
	}
}

func TestWrap_CreatesTrovoErrorFromError(t *testing.T) {
	// Given: a standard error
	originalErr := errors.New("something went wrong")

	// When: wrapping with a code
	te := Wrap(ErrCodeInternal, originalErr)

	// Then: creates proper TrovoError
	require.NotNil(t, te)
	assert.Equal(t, ErrCodeInternal, te.Code)
	assert.Equal(t, "something went wrong", te.Message)
	assert.Equal(t, originalErr, te.Cause)

	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestConstructors_SetCategory(t *testing.T) {
	assert.Equal(t, CategoryConfig, ConfigError("invalid yaml", nil).Category)
	assert.Equal(t, CategoryIO, IOError("cannot read", nil).Category)
	assert.Equal(t, CategoryValidation, InvalidArgument("k must be positive").Category)
	assert.Equal(t, CategoryInternal, InternalError("boom", nil).Category)
}

func TestIsFatal_ChecksFatalSeverity(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "corrupt snapshot",
			err:      New(ErrCodeCorruptIndex, "index corrupt", nil),
			expected: true,
		},
		{
			name:     "wrapped corrupt snapshot",
			err:      fmt.Errorf("load: %w", New(ErrCodeCorruptIndex, "index corrupt", nil)),
			expected: true,
		},
		{
			name:     "non-fatal error",
			err:      New(ErrCodeFileNotFound, "not found", nil),
			expected: false,
		},
		{
			name:     "standard error",
			err:      errors.New("standard error"),
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsFatal(tt.err))
		})
	}
}
