package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	output = buf
	mu.Unlock()
	reconfigure()

	cleanup := func() {
		mu.Lock()
		output = originalOutput
		mu.Unlock()
		reconfigure()
	}
	return buf, cleanup
}

func TestLevelFiltering(t *testing.T) {
	t.Run("DebugLevelShowsAllMessages", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("DEBUG")
		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		out := buf.String()
		assert.Contains(t, out, "debug message")
		assert.Contains(t, out, "info message")
		assert.Contains(t, out, "warn message")
		assert.Contains(t, out, "error message")
	})

	t.Run("WarnLevelHidesDebugAndInfo", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("WARN")
		Debug("debug message")
		Info("info message")
		Warn("warn message")

		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.NotContains(t, out, "info message")
		assert.Contains(t, out, "warn message")
	})

	t.Run("InvalidLevelIsIgnored", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetLevel("NOT_A_LEVEL")
		Info("still info")

		assert.Contains(t, buf.String(), "still info")
	})
}

func TestTextFormat(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetFormat("text")
	SetLevel("INFO")
	Info("hello world", "user_id", int64(7), "ok", true)

	out := buf.String()
	assert.Contains(t, out, "[INFO] hello world")
	assert.Contains(t, out, "user_id=7")
	assert.Contains(t, out, "ok=true")
	assert.Regexp(t, `^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] \[INFO\]`, strings.TrimSpace(out))
}

func TestJSONFormat(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetFormat("json")
	SetLevel("INFO")
	Info("hello json", "count", 3)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "hello json", parsed["msg"])
	assert.EqualValues(t, 3, parsed["count"])

	SetFormat("text")
}

func TestWithBindsAttributes(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetFormat("text")
	SetLevel("INFO")
	With("session_id", int64(42)).Info("bound message")

	assert.Contains(t, buf.String(), "session_id=42")
}

func TestInitOpensFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/server.log"
	defer func() { require.NoError(t, Init(Config{Level: "INFO", Format: "text", Output: "stdout"})) }()

	require.NoError(t, Init(Config{Level: "INFO", Format: "text", Output: path}))
	Info("file-backed message")
}
