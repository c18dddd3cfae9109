package log

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(level)
	t.Cleanup(func() {
		SetOutput(&bytes.Buffer{})
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"", LevelInfo},
		{" Error ", LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("verbose")
	assert.Error(t, err)
}

func TestInfoFormatsKeyValues(t *testing.T) {
	buf := capture(t, LevelInfo)

	Info("feed saved", "name", "2024-10-17.ics", "bytes", 42, "dangling")

	line := buf.String()
	assert.Contains(t, line, "[INFO] feed saved")
	assert.Contains(t, line, "name=2024-10-17.ics")
	assert.Contains(t, line, "bytes=42")
	assert.NotContains(t, line, "dangling")
}

func TestErrorPrependsErr(t *testing.T) {
	buf := capture(t, LevelInfo)

	Error("extract failed", errors.New("missing UID"), "day", "2024-10-17")

	assert.Contains(t, buf.String(), `[ERROR] extract failed err="missing UID" day=2024-10-17`)
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, LevelError)

	Debug("hidden")
	Info("hidden too")
	assert.Empty(t, buf.String())

	SetLevel(LevelDebug)
	Debug("visible")
	assert.Contains(t, buf.String(), "[DEBUG] visible")
}
