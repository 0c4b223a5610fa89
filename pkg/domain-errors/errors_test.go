package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeOf(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")

	t.Run("wrapped error keeps code and cause", func(t *testing.T) {
		err := Wrap(cause, CodeUnavailable, "fetch employees")
		assert.Equal(t, CodeUnavailable, CodeOf(err))
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "fetch employees: dial tcp: connection refused", err.Error())
	})

	t.Run("code survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", New(CodeNotFound, "employee not found"))
		assert.True(t, HasCode(err, CodeNotFound))
		assert.True(t, Is(err, CodeNotFound))
	})

	t.Run("plain errors are internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(cause))
	})

	t.Run("nil has no code", func(t *testing.T) {
		assert.False(t, HasCode(nil, CodeInternal))
	})
}
