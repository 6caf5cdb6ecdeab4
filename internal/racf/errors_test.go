package racf

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRACFErrorMessage(t *testing.T) {
	err := NewCommandFailedError("create_user", "ADDUSER", "JOE", "IKJ56702I INVALID OWNER\nREADY")
	msg := err.Error()

	assert.Contains(t, msg, "RACF create_user failed")
	assert.Contains(t, msg, "command: ADDUSER")
	assert.Contains(t, msg, "target: JOE")
	assert.Contains(t, msg, "IKJ56702I INVALID OWNER | READY")
}

func TestErrorCategories(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		category  ErrorCategory
		retryable bool
	}{
		{name: "validation", err: NewValidationError("create_user", "bad %s", "name"), category: ErrorCategoryValidation},
		{name: "not found", err: NewNotFoundError("read_user", "JOE", ""), category: ErrorCategoryNotFound},
		{name: "already exists", err: NewAlreadyExistsError("create_user", "JOE"), category: ErrorCategoryAlreadyExists},
		{name: "parse", err: NewParseError("parse", "missing USERID", "x"), category: ErrorCategoryParse},
		{name: "timeout", err: NewTimeoutError("LISTUSER", "partial"), category: ErrorCategoryTimeout, retryable: true},
		{name: "embedded", err: NewEmbeddedCommandError("ADDUSER", "IKJ56702I"), category: ErrorCategoryEmbeddedCommand},
		{name: "connection", err: NewConnectionError("dial failed", true, nil), category: ErrorCategoryConnection, retryable: true},
		{name: "generic deadline", err: context.DeadlineExceeded, category: ErrorCategoryTimeout},
		{name: "generic connection", err: errors.New("connection refused"), category: ErrorCategoryConnection, retryable: true},
		{name: "generic other", err: errors.New("boom"), category: ErrorCategoryUnknown},
		{name: "wrapped", err: fmt.Errorf("outer: %w", NewNotFoundError("read_group", "SYS1", "")), category: ErrorCategoryNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.category, GetErrorCategory(tt.err))
			assert.Equal(t, tt.retryable, IsRetryableError(tt.err))
		})
	}

	assert.Equal(t, ErrorCategoryUnknown, GetErrorCategory(nil))
	assert.False(t, IsRetryableError(nil))
}

func TestErrorPredicates(t *testing.T) {
	assert.True(t, IsNotFoundError(NewNotFoundError("read_user", "JOE", "")))
	assert.True(t, IsAlreadyExistsError(NewAlreadyExistsError("create_user", "JOE")))
	assert.True(t, IsValidationError(NewValidationError("create_user", "x")))
	assert.True(t, IsTimeoutError(NewTimeoutError("LISTUSER", "")))
	assert.True(t, IsParseError(NewParseError("parse", "x", "")))
	assert.False(t, IsNotFoundError(errors.New("boom")))
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, WrapError("op", nil))

	racfErr := NewParseError("", "x", "")
	wrapped := WrapError("read_user", racfErr)
	assert.Same(t, racfErr, wrapped)
	assert.Equal(t, "read_user", racfErr.Operation)

	generic := errors.New("connection reset by peer")
	wrapped = WrapError("create_session", generic)
	assert.ErrorIs(t, wrapped, generic)
	assert.True(t, IsRetryableError(wrapped))
	assert.Equal(t, ErrorCategoryConnection, GetErrorCategory(wrapped))
}

func TestNewRACFErrorKeepsCategory(t *testing.T) {
	inner := NewTimeoutError("LISTUSER", "partial output")
	outer := NewRACFError("read_user", inner)

	assert.Equal(t, "read_user", outer.Operation)
	assert.Equal(t, ErrorCategoryTimeout, outer.Category)
	assert.Equal(t, "partial output", outer.Output)
	assert.True(t, outer.Retryable)
	assert.ErrorIs(t, outer, inner)
	assert.Nil(t, NewRACFError("x", nil))
}

func TestErrorOutput(t *testing.T) {
	assert.Equal(t, "raw", ErrorOutput(fmt.Errorf("wrap: %w", NewEmbeddedCommandError("ALTUSER", "raw"))))
	assert.Empty(t, ErrorOutput(errors.New("plain")))
}
