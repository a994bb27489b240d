package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultStrategy, cfg.Strategy)
	assert.Equal(t, DefaultDisplay, cfg.Display)
	assert.True(t, cfg.ShellInjectYieldFunction)
	assert.False(t, cfg.StrictOutcomesRendering)
	assert.Zero(t, cfg.Workers)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("GRANA_LOG_LEVEL", "debug")
	t.Setenv("GRANA_STRATEGY_NAME", "strict")
	t.Setenv("GRANA_DISPLAY_NAME", "headers")
	t.Setenv("GRANA_SHELL_INJECT_YIELD_FUNCTION", "false")
	t.Setenv("GRANA_STRICT_OUTCOMES_RENDERING", "true")
	t.Setenv("GRANA_WORKERS", "4")
	t.Setenv("GRANA_ACTIONS_CLASS_DEFINITIONS_DIRECTORY", "/opt/defs,/srv/defs")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "strict", cfg.Strategy)
	assert.Equal(t, "headers", cfg.Display)
	assert.False(t, cfg.ShellInjectYieldFunction)
	assert.True(t, cfg.StrictOutcomesRendering)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, []string{"/opt/defs", "/srv/defs"}, cfg.DefinitionDirs)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"GRANA_TEST_PLAIN=hello\n"+
			"GRANA_TEST_HERE=$HERE/data\n"+
			"GRANA_TEST_PRESET=from-file\n",
	), 0o644))
	t.Setenv("GRANA_TEST_PRESET", "from-process")
	t.Cleanup(func() {
		os.Unsetenv("GRANA_TEST_PLAIN")
		os.Unsetenv("GRANA_TEST_HERE")
	})

	require.NoError(t, LoadEnvFile(context.Background(), path))

	assert.Equal(t, "hello", os.Getenv("GRANA_TEST_PLAIN"))
	assert.Equal(t, dir+"/data", os.Getenv("GRANA_TEST_HERE"),
		"HERE resolves to the dotenv directory")
	assert.Equal(t, "from-process", os.Getenv("GRANA_TEST_PRESET"),
		"process variables are never overridden")
	_, hereLeaked := os.LookupEnv("HERE")
	assert.False(t, hereLeaked, "HERE is withdrawn after interpretation")
}

func TestLoadEnvFile_MissingIsFine(t *testing.T) {
	err := LoadEnvFile(context.Background(), filepath.Join(t.TempDir(), "absent.env"))
	assert.NoError(t, err)
}

func TestLoadEnvFile_CrossReference(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte(
		"GRANA_TEST_BASE=/srv\nGRANA_TEST_FULL=$GRANA_TEST_BASE/app\n",
	), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("GRANA_TEST_BASE")
		os.Unsetenv("GRANA_TEST_FULL")
	})

	require.NoError(t, LoadEnvFile(context.Background(), path))
	assert.Equal(t, "/srv/app", os.Getenv("GRANA_TEST_FULL"))
}
