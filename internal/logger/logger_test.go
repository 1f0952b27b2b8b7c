package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func resetLogger() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func TestDebugRespectsVerbose(t *testing.T) {
	defer resetLogger()

	var buf bytes.Buffer
	SetOutput(&buf)

	Debug("hidden %d", 1)
	assert.Empty(t, buf.String())

	SetVerbose(true)
	Debug("visible %d", 2)
	assert.Contains(t, buf.String(), "[DEBUG] visible 2")
}

func TestInfoAndWarnRespectVerbose(t *testing.T) {
	defer resetLogger()

	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(true)

	Info("synced term %s", "202610")
	Warn("cooldown %s", "30s")

	out := buf.String()
	assert.Contains(t, out, "[INFO] synced term 202610")
	assert.Contains(t, out, "[WARN] cooldown 30s")
}

func TestErrorAlwaysPrints(t *testing.T) {
	defer resetLogger()

	var buf bytes.Buffer
	SetOutput(&buf)

	Error("job %s failed", "abc")
	assert.Contains(t, buf.String(), "[ERROR] job abc failed")
}

func TestIsVerbose(t *testing.T) {
	defer resetLogger()

	SetVerbose(true)
	assert.True(t, IsVerbose())
	SetVerbose(false)
	assert.False(t, IsVerbose())
}
