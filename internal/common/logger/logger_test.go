package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"DEBUG":   zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"verbose": zerolog.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLogLevel(in), "level %q", in)
	}
}

func TestLoggerWritesKeyValueFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf)

	log.Info("pairs built", "line", "12", "pairs", 4, "error", errors.New("boom"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "pairs built", entry["message"])
	assert.Equal(t, "12", entry["line"])
	assert.Equal(t, float64(4), entry["pairs"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLoggerAcceptsFieldMap(t *testing.T) {
	var buf bytes.Buffer
	New(&buf).Warn("skipped", map[string]interface{}{"reason": "empty"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "empty", entry["reason"])
}

type recordingSender struct {
	levels []string
}

func (r *recordingSender) SendLogMessage(level, message string, fields map[string]interface{}) error {
	r.levels = append(r.levels, level)
	return nil
}

func TestDiscordHookOnlyForwardsErrors(t *testing.T) {
	sender := &recordingSender{}
	hook := &DiscordHook{client: sender}
	var buf bytes.Buffer
	zl := zerolog.New(&buf).Hook(hook)

	zl.Info().Msg("fine")
	zl.Warn().Msg("meh")
	zl.Error().Msg("bad")

	assert.Equal(t, []string{"ERROR"}, sender.levels)
}
