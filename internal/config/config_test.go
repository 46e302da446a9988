package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "8090", cfg.Port)
	assert.Equal(t, 2*time.Second, cfg.MoveFailureDelay)
	assert.Equal(t, FormatTopics, cfg.Course.Format)
	assert.Equal(t, TOCTop, cfg.Course.TOCType)
	assert.False(t, cfg.Course.PartialRender)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SNAPEDIT_COURSE_FORMAT", "weeks")
	t.Setenv("SNAPEDIT_PARTIAL_RENDER", "true")
	t.Setenv("SNAPEDIT_MOVE_FAILURE_DELAY", "150ms")
	t.Setenv("SNAPEDIT_COURSE_ID", "7")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, FormatWeeks, cfg.Course.Format)
	assert.True(t, cfg.Course.PartialRender)
	assert.Equal(t, 150*time.Millisecond, cfg.MoveFailureDelay)
	assert.Equal(t, 7, cfg.Course.ID)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("SNAPEDIT_SESSKEY=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SNAPEDIT_SESSKEY") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.SessKey)
}

func TestValidate(t *testing.T) {
	cfg := Config{SessKey: "k", Course: Course{ID: 1, Format: FormatTopics, TOCType: TOCSide}}
	require.NoError(t, cfg.Validate())

	cfg.SessKey = ""
	assert.Error(t, cfg.Validate())

	cfg.SessKey = "k"
	cfg.Course.Format = "grid"
	assert.Error(t, cfg.Validate())
}

func TestCourse_Flags(t *testing.T) {
	c := Course{Format: FormatTopics, TOCType: TOCTop}
	assert.True(t, c.Navigable())
	assert.True(t, c.NumberedTitles())

	c.Format = FormatWeeks
	assert.True(t, c.Navigable())
	assert.False(t, c.NumberedTitles())

	c.Format = FormatOther
	assert.False(t, c.Navigable())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}
