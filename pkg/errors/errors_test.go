package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	verr := NewValidation("deviceId", "userId")

	assert.Equal(t, []string{"deviceId", "userId"}, verr.Fields)
	assert.Equal(t, "missing required fields: deviceId, userId", verr.Error())
}

func TestAsValidation(t *testing.T) {
	wrapped := Wrap(NewValidation("accountId"), "register device")

	verr, ok := AsValidation(wrapped)
	require.True(t, ok)
	assert.Equal(t, []string{"accountId"}, verr.Fields)

	_, ok = AsValidation(ErrRequestNotFound)
	assert.False(t, ok)
}

func TestWrapPreservesSentinel(t *testing.T) {
	assert.Nil(t, Wrap(nil, "noop"))

	err := Wrap(ErrAlreadyResolved, "resolve demo_abc")
	assert.True(t, Is(err, ErrAlreadyResolved))
	assert.Equal(t, fmt.Sprintf("resolve demo_abc: %s", ErrAlreadyResolved), err.Error())
}
