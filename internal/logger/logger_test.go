package logger

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(" warning "))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestInitWritesAboveLevel(t *testing.T) {
	var out bytes.Buffer
	Init(Option{Level: "warn", JSON: true, Writers: []io.Writer{&out}})
	defer Init(Option{Level: "error", Writers: []io.Writer{io.Discard}})

	Infof("hidden %d", 1)
	Warnf("shown %s", "warning")
	Sync()

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "shown warning")
	assert.Contains(t, out.String(), `"level":"WARN"`)
}
