package config

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerTo_ProductionWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "production")

	logger.Debug("hidden")
	logger.Info("event resolved", "event_id", "000123")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "event resolved", line["msg"])
	assert.Equal(t, "000123", line["event_id"])
	assert.Equal(t, "chitralai", line["service"])
}

func TestNewLoggerTo_DevelopmentLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "development")

	logger.Debug("batch done")

	assert.Contains(t, buf.String(), "batch done")
	assert.Contains(t, buf.String(), "level=DEBUG")
}
