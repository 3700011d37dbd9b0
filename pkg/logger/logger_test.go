package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSON(t *testing.T) {
	t.Cleanup(func() { Setup("info", "console", nil) })

	var buf bytes.Buffer
	Setup("warn", "json", &buf)

	log.Info().Msg("dropped")
	log.Warn().Str("item", "milk").Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "milk", entry["item"])
	assert.Equal(t, "warn", entry["level"])
}

func TestSetupInvalidLevel(t *testing.T) {
	t.Cleanup(func() { Setup("info", "console", nil) })

	var buf bytes.Buffer
	Setup("loud", "json", &buf)

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	assert.Contains(t, buf.String(), "invalid log level")
}
