package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorKeepsTypedErrors(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ErrNotFound)
	got := FromError(wrapped)
	assert.Equal(t, ErrNotFound.Code, got.Code)
	assert.Equal(t, http.StatusNotFound, got.Status)
}

func TestFromErrorDefaultsToInternal(t *testing.T) {
	got := FromError(errors.New("boom"))
	assert.Equal(t, ErrInternal.Code, got.Code)
	assert.Equal(t, "internal server error: boom", got.Error())
}

func TestCloneDoesNotMutateSentinel(t *testing.T) {
	clone := Clone(ErrValidation, "severity must be between 1 and 5")
	assert.Equal(t, "validation failed", ErrValidation.Message)
	assert.Equal(t, ErrValidation.Code, clone.Code)
	assert.Equal(t, "severity must be between 1 and 5", clone.Message)
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := Wrap(cause, ErrAIUnavailable.Code, ErrAIUnavailable.Status, "gemini call failed")
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, FromError(nil))
}

func TestWithKeepsSentinelIdentity(t *testing.T) {
	cause := errors.New("pq: duplicate key")
	err := ErrConflict.With(cause, "email already registered")

	assert.Equal(t, "email already registered: pq: duplicate key", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrConflict)
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Nil(t, ErrConflict.Err)

	kept := ErrInternal.With(cause, "")
	assert.Equal(t, ErrInternal.Message, kept.Message)
}

func TestIsMatchesClones(t *testing.T) {
	wrapped := fmt.Errorf("load: %w", Clone(ErrNotFound, "profile not found"))
	assert.ErrorIs(t, wrapped, ErrNotFound)
}
