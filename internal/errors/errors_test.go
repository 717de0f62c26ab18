package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/scholarsrs/internal/errors"
)

func TestAppError_ErrorString(t *testing.T) {
	err := errors.NewValidationError("hours", "must be at least 0.5")
	assert.Equal(t, "VALIDATION_ERROR: validation failed for hours: must be at least 0.5", err.Error())
	assert.Equal(t, 400, err.Status)

	internal := errors.NewInternalError(fmt.Errorf("disk full"))
	assert.Contains(t, internal.Error(), "disk full")
	assert.Equal(t, 500, internal.Status)
}

func TestAs_FindsWrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("start session: %w", errors.NewValidationError("text", "no valid entries"))

	appErr, ok := errors.As(wrapped)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeValidation, appErr.Code)
	assert.True(t, errors.IsValidation(wrapped))
	assert.False(t, errors.IsValidation(stderrors.New("plain")))
}

func TestNewConflictError_Unwraps(t *testing.T) {
	base := stderrors.New("session is paused")
	err := errors.NewConflictError(base)

	assert.Equal(t, 409, err.Status)
	assert.Equal(t, "session is paused", err.Message)
	assert.ErrorIs(t, err, base)
}
