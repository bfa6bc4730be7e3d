package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	for _, level := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal} {
		parsed, err := ParseLevel(level.String())
		require.NoError(t, err)
		assert.Equal(t, level, parsed)
	}

	parsed, err := ParseLevel("WARNING")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, parsed)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestLoggerWritesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewWithCore(core).With(String("component", "tree"))

	logger.Warn("entity update failed",
		String("name", "Player"),
		Uint32("local_id", 3),
		Strings("tags", []string{"a", "b"}),
		Error(errors.New("boom")),
	)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "entity update failed", entry.Message)

	ctx := entry.ContextMap()
	assert.Equal(t, "tree", ctx["component"])
	assert.Equal(t, "Player", ctx["name"])
	assert.EqualValues(t, 3, ctx["local_id"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestNewBuildsLogger(t *testing.T) {
	logger, err := New(Config{Level: LevelWarn, Encoding: "console", Outputs: []string{"stderr"}})
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, logger.GetLevel())

	logger.SetLevel(LevelDebug)
	assert.Equal(t, LevelDebug, logger.GetLevel())
}

func TestNewRejectsUnknownEncoding(t *testing.T) {
	_, err := New(Config{Encoding: "xml"})
	assert.Error(t, err)
}
