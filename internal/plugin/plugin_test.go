package plugin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/grana/internal/action"
)

const upperDefinition = `package main

import (
	"context"
	"strings"
)

func Run(ctx context.Context, params map[string]string) (map[string]string, error) {
	return map[string]string{"echoed": strings.ToUpper(params["message"])}, nil
}
`

const failingDefinition = `package main

import (
	"context"
	"errors"
)

func Run(ctx context.Context, params map[string]string) (map[string]string, error) {
	return nil, errors.New("definition refused to work")
}
`

func writeDefinition(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDir_RegistersKinds(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDefinition(t, dir, "upper.go", upperDefinition)
	writeDefinition(t, dir, "notes.txt", "ignored")

	registry := action.NewRegistry()
	require.NoError(t, LoadDir(context.Background(), registry, dir))

	factory, ok := registry.Lookup("upper")
	require.True(t, ok, "the kind is named after the file stem")

	emit := action.NewEmission("upper-0", nil)
	err := factory().Run(context.Background(), &action.Invocation{
		Name:   "upper-0",
		Params: map[string]any{"message": "hello"},
		Emit:   emit,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"echoed": "HELLO"}, emit.Outcomes())
}

func TestLoadDir_ShadowsBundledKind(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDefinition(t, dir, "echo.go", upperDefinition)

	registry := action.NewRegistry()
	require.NoError(t, registry.Register("echo", func() action.Runner { return nil }))
	require.NoError(t, LoadDir(context.Background(), registry, dir))

	factory, _ := registry.Lookup("echo")
	assert.NotNil(t, factory(), "the interpreted definition wins")
}

func TestLoadDir_DefinitionError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDefinition(t, dir, "broken.go", failingDefinition)

	registry := action.NewRegistry()
	require.NoError(t, LoadDir(context.Background(), registry, dir))

	factory, _ := registry.Lookup("broken")
	err := factory().Run(context.Background(), &action.Invocation{
		Name: "broken-0",
		Emit: action.NewEmission("broken-0", nil),
	})
	var runErr *action.RunError
	require.ErrorAs(t, err, &runErr)
	assert.Contains(t, runErr.Cause, "refused to work")
}

func TestLoadDir_MissingDirIsFine(t *testing.T) {
	t.Parallel()

	registry := action.NewRegistry()
	assert.NoError(t, LoadDir(context.Background(), registry, filepath.Join(t.TempDir(), "absent")))
	assert.NoError(t, LoadDir(context.Background(), registry, ""))
}

func TestLoadDir_RejectsNonFunctionRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeDefinition(t, dir, "odd.go", "package main\n\nvar Run = 42\n")

	err := LoadDir(context.Background(), action.NewRegistry(), dir)
	assert.ErrorContains(t, err, "not a function")
}
