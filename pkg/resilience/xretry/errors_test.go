package xretry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRetryError(t *testing.T) {
	last := errors.New("boom")

	t.Run("Failed", func(t *testing.T) {
		e := &RetryError{Operation: "op", Attempts: 2, LastErr: last}
		assert.Equal(t, "xretry: op failed after 2 attempt(s): boom", e.Error())
		assert.ErrorIs(t, e, last)
		assert.NotErrorIs(t, e, context.Canceled)
	})

	t.Run("Interrupted", func(t *testing.T) {
		e := &RetryError{Operation: "op", Attempts: 1, LastErr: last, Cause: context.Canceled}
		assert.Equal(t, "xretry: op interrupted after 1 attempt(s): context canceled: boom", e.Error())
		assert.ErrorIs(t, e, last)
		assert.ErrorIs(t, e, context.Canceled)
	})

	t.Run("InterruptedBeforeFirstAttempt", func(t *testing.T) {
		e := &RetryError{Operation: "op", Cause: context.DeadlineExceeded}
		assert.Equal(t, "xretry: op interrupted after 0 attempt(s): context deadline exceeded", e.Error())
		assert.ErrorIs(t, e, context.DeadlineExceeded)
	})
}
