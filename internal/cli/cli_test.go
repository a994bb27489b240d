package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RunWithFlags(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	opts, exit, err := Parse([]string{
		"run", "-s", "strict", "--display", "headers", "-i",
		"--workers", "4", "--strict-outcomes", "workflow.yml",
	}, &out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "run", opts.Command)
	assert.Equal(t, "workflow.yml", opts.Workflow)
	assert.Equal(t, "strict", opts.Strategy)
	assert.Equal(t, "headers", opts.Display)
	assert.True(t, opts.Interactive)
	assert.Equal(t, 4, opts.Workers)
	assert.True(t, opts.StrictOutcomes)
}

func TestParse_ShorthandCountsAsExplicit(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	opts, _, err := Parse([]string{"run", "-s", "free"}, &out)
	require.NoError(t, err)

	assert.True(t, opts.Explicit("strategy"))
	assert.False(t, opts.Explicit("display"))
	assert.False(t, opts.Explicit("workers"))
}

func TestParse_Commands(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	for _, command := range []string{"run", "validate", "version"} {
		opts, exit, err := Parse([]string{command}, &out)
		require.NoError(t, err, command)
		require.False(t, exit)
		assert.Equal(t, command, opts.Command)
	}
}

func TestParse_HelpExitsCleanly(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{{}, {"help"}, {"--help"}, {"run", "-h"}} {
		var out bytes.Buffer
		_, exit, err := Parse(args, &out)
		require.NoError(t, err)
		assert.True(t, exit)
	}

	var out bytes.Buffer
	_, _, _ = Parse([]string{"help"}, &out)
	assert.Contains(t, out.String(), "declarative task runner")
	assert.Contains(t, out.String(), "Commands:")
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"launch"}},
		{"two workflow sources", []string{"run", "a.yml", "b.yml"}},
		{"invalid strategy", []string{"run", "-s", "eager"}},
		{"invalid display", []string{"run", "-d", "sparkles"}},
		{"invalid log level", []string{"run", "-l", "verbose"}},
		{"invalid log format", []string{"run", "--log-format", "xml"}},
		{"negative workers", []string{"run", "--workers", "-1"}},
		{"unknown flag", []string{"run", "--frobnicate"}},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			_, _, err := Parse(tc.args, &out)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}

func TestResolve_FlagsWinOverEnvironment(t *testing.T) {
	t.Setenv("GRANA_STRATEGY_NAME", "free")
	t.Setenv("GRANA_WORKERS", "8")
	t.Setenv("GRANA_ENV_FILE", "/nonexistent/.env")

	var out bytes.Buffer
	opts, _, err := Parse([]string{"run", "-s", "strict", "--workers", "2"}, &out)
	require.NoError(t, err)

	cfg, err := Resolve(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, "strict", cfg.Strategy)
	assert.Equal(t, 2, cfg.Workers)
}

func TestResolve_EnvironmentFillsGaps(t *testing.T) {
	t.Setenv("GRANA_STRATEGY_NAME", "sequential")
	t.Setenv("GRANA_WORKFLOW_FILE", "ci.yml")
	t.Setenv("GRANA_ENV_FILE", "/nonexistent/.env")

	var out bytes.Buffer
	opts, _, err := Parse([]string{"run"}, &out)
	require.NoError(t, err)

	cfg, err := Resolve(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, "sequential", cfg.Strategy)
	assert.Equal(t, "ci.yml", cfg.WorkflowSource)
	assert.Equal(t, "prefixes", cfg.Display, "defaults remain for the rest")
	assert.True(t, cfg.InjectYieldFunctions)
}

func TestResolve_PluginsDirComesFirst(t *testing.T) {
	t.Setenv("GRANA_ACTIONS_CLASS_DEFINITIONS_DIRECTORY", "/opt/defs")
	t.Setenv("GRANA_ENV_FILE", "/nonexistent/.env")

	var out bytes.Buffer
	opts, _, err := Parse([]string{"run", "--plugins-dir", "/local/defs"}, &out)
	require.NoError(t, err)

	cfg, err := Resolve(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"/local/defs", "/opt/defs"}, cfg.PluginDirs)
}
