package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitWithWriter_JSONIncludesFields(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "info", "json")

	Info("user signed in", map[string]any{"provider": "github"})

	out := strings.TrimSpace(buf.String())
	assert.True(t, strings.HasPrefix(out, "{"), "expected json line, got %q", out)
	assert.Contains(t, out, `"message":"user signed in"`)
	assert.Contains(t, out, `"provider":"github"`)
	assert.Contains(t, out, `"level":"info"`)
}

func TestInitWithWriter_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "loud", "json")

	Debug("hidden", nil)
	Warn("shown", nil)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestInitWithWriter_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "debug", "")

	Error("boom", map[string]any{"k": "v"})

	out := strings.TrimSpace(buf.String())
	assert.False(t, strings.HasPrefix(out, "{"), "expected console output, got %q", out)
	assert.Contains(t, out, "boom")
}
