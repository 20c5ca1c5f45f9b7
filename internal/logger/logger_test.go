package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		expectError bool
	}{
		{"debug level", "debug", false},
		{"info level", "info", false},
		{"warn level", "warn", false},
		{"invalid level", "chatty", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Init(tt.level)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    true,
	})
	log.SetLevel(logrus.DebugLevel)
	return &buf
}

func TestLevelsAndFields(t *testing.T) {
	buf := captureLogs(t)

	Debug("[BOARD] gesture", map[string]interface{}{"state": "panning"})
	assert.Contains(t, buf.String(), "level=debug")
	assert.Contains(t, buf.String(), "state=panning")

	buf.Reset()
	Info("[STORE] loaded")
	assert.Contains(t, buf.String(), "level=info")

	buf.Reset()
	Warn("[SHARE] stale snapshot", nil)
	assert.Contains(t, buf.String(), "level=warning")
}

func TestError(t *testing.T) {
	buf := captureLogs(t)

	Error("[STORE] save failed", errors.New("disk full"), map[string]interface{}{"items": 3})
	out := buf.String()
	assert.Contains(t, out, "level=error")
	assert.Contains(t, out, "disk full")
	assert.Contains(t, out, "items=3")
}
