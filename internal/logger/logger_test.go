package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Production(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf})

	log.Debug("hidden")
	log.Info("figure created", "pk", "figure#001")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "figure created", rec["msg"])
	assert.Equal(t, "figure#001", rec["pk"])
}

func TestNew_Development(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Development: true, Output: &buf})

	log.Debug("attempt rejected", "attempt", 2)
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "attempt=2")
}

func TestNew_InvalidSentryDSN(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{SentryDSN: "not a dsn", Output: &buf})
	require.NotNil(t, log)
	assert.Contains(t, buf.String(), "sentry disabled")
}
