package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorIncludesCause(t *testing.T) {
	err := NewInternalError("failed to save example", stderrors.New("connection reset"))
	assert.Equal(t, "INTERNAL: failed to save example: connection reset", err.Error())

	assert.Equal(t, "VALIDATION: units must be positive", NewValidationError("units must be positive").Error())
}

func TestTypeOf_WalksWrappedChain(t *testing.T) {
	wrapped := fmt.Errorf("export transport_planning: %w", NewConflictError("export already running"))

	assert.Equal(t, ErrorTypeConflict, TypeOf(wrapped))
	assert.True(t, IsType(wrapped, ErrorTypeConflict))
	assert.False(t, IsType(wrapped, ErrorTypeInternal))
}

func TestTypeOf_PlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, ErrorTypeInternal, TypeOf(stderrors.New("boom")))
	assert.False(t, IsType(nil, ErrorTypeValidation))
}

func TestAppError_UnwrapReachesCause(t *testing.T) {
	cause := stderrors.New("dial tcp: refused")
	err := NewUnavailableError("model service unreachable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "VALIDATION: bad ratio 1.5", NewValidationErrorf("bad ratio %.1f", 1.5).Error())
}
