package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/toyc/toycc/pkg/logging"
)

func TestLogLevelFromString(t *testing.T) {
	tests := []struct {
		input    string
		expected logging.Level
	}{
		{"debug", logging.Debug},
		{"warn", logging.Warn},
		{"error", logging.Error},
		{"info", logging.Info},
		{"", logging.Info},
		{"bogus", logging.Info},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, logLevelFromString(tt.input))
		})
	}
}

func TestLogFormatFromString(t *testing.T) {
	assert.Equal(t, logging.JSONFormat, logFormatFromString("json"))
	assert.Equal(t, logging.TextFormat, logFormatFromString("text"))
	assert.Equal(t, logging.TextFormat, logFormatFromString(""))
}

func TestFatalfWrapsUnderlyingError(t *testing.T) {
	err := fatalf("reading %s: %w", "foo.tc", assert.AnError)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "foo.tc")
}
