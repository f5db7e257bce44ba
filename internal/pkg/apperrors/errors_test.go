package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind(t *testing.T) {
	cases := []struct {
		err  error
		want error
	}{
		{NewValidationError("points must be non-zero"), ErrValidationFailed},
		{NewResourceNotFoundError("entry 4 not found"), ErrResourceNotFound},
		{NewForbiddenError("admins only"), ErrPermissionDenied},
		{NewInvalidStateError("entry is not pending"), ErrInvalidState},
		{fmt.Errorf("deciding entry: %w", NewConflictError("")), ErrConflict},
		{errors.New("boom"), nil},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Kind(tc.err), tc.err.Error())
	}
}

func TestConflictDefaultMessage(t *testing.T) {
	err := NewConflictError("")
	assert.Equal(t, ConflictMessage, err.Error())
	assert.Equal(t, "Appeal already pending", Message(NewConflictError("Appeal already pending")))
}

func TestMessageUnwrapsWrappedCustomError(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewInvalidStateError("entry already decided"))
	assert.Equal(t, "entry already decided", Message(err))
	assert.True(t, Is(err, ErrConflict, ErrInvalidState))
	assert.False(t, Is(err, ErrConflict))
}
