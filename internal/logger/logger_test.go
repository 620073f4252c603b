package logger

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesToFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "app.log")
	require.NoError(t, Init(Config{Level: "debug", Format: "json", File: logFile}))
	t.Cleanup(func() { _ = Init(Config{Level: "info"}) })

	Info().Str("submission_uuid", "abc").Msg("profile parsed")
	StdLogger("[Test] ").Println("from std logger")

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"submission_uuid":"abc"`)
	assert.Contains(t, string(data), "from std logger")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestInitInvalidLevelFallsBackToInfo(t *testing.T) {
	require.NoError(t, Init(Config{Level: "verbose"}))
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestHertzLevel(t *testing.T) {
	assert.Equal(t, hlog.LevelDebug, hertzLevel(zerolog.DebugLevel))
	assert.Equal(t, hlog.LevelWarn, hertzLevel(zerolog.WarnLevel))
	assert.Equal(t, hlog.LevelFatal, hertzLevel(zerolog.PanicLevel))
	assert.Equal(t, hlog.LevelInfo, hertzLevel(zerolog.NoLevel))
}

func TestCtxFallsBackToGlobal(t *testing.T) {
	assert.NotNil(t, Ctx(context.Background()))
	ctx := WithContext(context.Background())
	assert.Equal(t, Logger.GetLevel(), Ctx(ctx).GetLevel())
}
