package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorString(t *testing.T) {
	plain := New(ErrKindNotFound, "table users")
	assert.Equal(t, "[not_found] table users", plain.Error())

	wrapped := Wrap(ErrKindQueryFailed, "catalog query", errors.New("syntax error"))
	assert.Equal(t, "[query_failed] catalog query: syntax error", wrapped.Error())
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("broken pipe")
	err := Wrap(ErrKindConnectionFailed, "lost connection", cause)

	assert.True(t, errors.Is(err, cause))

	var e *Error
	assert.True(t, errors.As(err, &e))
	assert.Equal(t, ErrKindConnectionFailed, e.Kind)
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		kind ErrKind
		pred func(error) bool
	}{
		{ErrKindNotFound, IsNotFound},
		{ErrKindTimeout, IsTimeout},
		{ErrKindConnectionFailed, IsConnectionFailed},
		{ErrKindQueryFailed, IsQueryFailed},
		{ErrKindConflict, IsConflict},
		{ErrKindInvalidInput, IsInvalidInput},
		{ErrKindPermissionDenied, IsPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			assert.True(t, tt.pred(New(tt.kind, "x")))
			assert.False(t, tt.pred(New(ErrKindUnknown, "x")))
			assert.False(t, tt.pred(errors.New("plain error")))
			assert.False(t, tt.pred(nil))
		})
	}
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	inner := New(ErrKindConflict, "duplicate version")
	outer := fmt.Errorf("applying migration: %w", inner)

	assert.True(t, IsConflict(outer))
	assert.False(t, IsNotFound(outer))
}
