package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologAdapterWritesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.DebugLevel)

	log.Info("Coordinator", "light estimated", map[string]interface{}{"x": 3})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "Coordinator", line["component"])
	assert.Equal(t, "light estimated", line["message"])
	assert.EqualValues(t, 3, line["x"])
}

func TestZerologAdapterHonoursLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.WarnLevel)

	log.Debug("Loader", "hidden", nil)
	log.Info("Loader", "hidden", nil)
	assert.Zero(t, buf.Len())

	log.Error("Loader", errors.New("boom"), nil)
	assert.Contains(t, buf.String(), `"error":"boom"`)
}

func TestWithScopesFieldsToChild(t *testing.T) {
	var buf bytes.Buffer
	parent := NewZerolog(&buf, zerolog.InfoLevel)
	child := parent.With(map[string]interface{}{"run": 7})

	child.Info("Coordinator", "run started", map[string]interface{}{"width": 4})
	parent.Info("Coordinator", "idle", nil)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)

	var scoped, plain map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &scoped))
	require.NoError(t, json.Unmarshal(lines[1], &plain))
	assert.EqualValues(t, 7, scoped["run"])
	assert.EqualValues(t, 4, scoped["width"])
	assert.NotContains(t, plain, "run")
}

func TestNonFiniteFieldsStayValidJSON(t *testing.T) {
	var buf bytes.Buffer
	NewZerolog(&buf, zerolog.InfoLevel).Info("Coordinator", "run completed", map[string]interface{}{"psnr": math.Inf(1)})

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "run completed", line["message"])
	assert.NotContains(t, buf.String(), "json: unsupported value")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"debug":   zerolog.DebugLevel,
		"WARNING": zerolog.WarnLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
	}
	for name, want := range tests {
		got, err := ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DEBUG", "1")
	assert.Equal(t, zerolog.DebugLevel, LevelFromEnv(zerolog.InfoLevel))

	t.Setenv("LOG_LEVEL", "error")
	assert.Equal(t, zerolog.ErrorLevel, LevelFromEnv(zerolog.InfoLevel))

	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DEBUG", "")
	assert.Equal(t, zerolog.WarnLevel, LevelFromEnv(zerolog.WarnLevel))
}
