package log

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.TraceLevel, ParseLevel("trace"))
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zerolog.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("bogus"))
}

func TestLoggerFactory(t *testing.T) {
	var buf bytes.Buffer
	f := NewLoggerFactoryWithWriter(&buf, "info")
	l := f.NewLogger("ice")

	l.Debugf("hidden %d", 1)
	assert.Empty(t, buf.String())

	l.Infof("Setting new connection state: %s", "Checking")
	out := buf.String()
	assert.Contains(t, out, "Setting new connection state: Checking")
	assert.Contains(t, out, "ice")
	assert.Contains(t, out, "[INFO]")

	buf.Reset()
	l.Error("boom")
	assert.Contains(t, buf.String(), "boom")
}
