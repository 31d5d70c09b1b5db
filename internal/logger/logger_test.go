package logger

import (
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestErrorWrapsCause(t *testing.T) {
	color.NoColor = true
	cause := errors.New("connection refused")

	err := New("TEST").Error("failed to reach %s", cause, "postgres")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to reach postgres: connection refused", err.Error())
}
