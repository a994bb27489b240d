package bundled

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/grana/internal/action"
)

// captureSink records forwarded output lines.
type captureSink struct {
	mu     sync.Mutex
	stdout []string
	stderr []string
}

func (c *captureSink) OnActionMessage(_, line string, stderr bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if stderr {
		c.stderr = append(c.stderr, line)
	} else {
		c.stdout = append(c.stdout, line)
	}
}

func invoke(sink *captureSink, params map[string]any) *action.Invocation {
	return &action.Invocation{
		Name:   "under-test",
		Params: params,
		Emit:   action.NewEmission("under-test", sink),
	}
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	if _, err := os.Stat(defaultShellExecutable); err != nil {
		t.Skipf("%s not available", defaultShellExecutable)
	}
}

func TestEcho(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	err := Echo{}.Run(context.Background(), invoke(sink, map[string]any{
		"message": "first\nsecond",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, sink.stdout)
}

func TestEcho_MissingMessage(t *testing.T) {
	t.Parallel()

	err := Echo{}.Run(context.Background(), invoke(&captureSink{}, nil))
	assert.ErrorContains(t, err, "message")
}

func TestShell_Command(t *testing.T) {
	t.Parallel()
	requireShell(t)

	sink := &captureSink{}
	inv := invoke(sink, map[string]any{
		"command": "echo out line; echo err line >&2",
	})
	err := Shell{}.Run(context.Background(), inv)
	require.NoError(t, err)

	assert.Equal(t, []string{"out line"}, sink.stdout)
	assert.Equal(t, []string{"err line"}, sink.stderr)
}

func TestShell_ExitCode(t *testing.T) {
	t.Parallel()
	requireShell(t)

	inv := invoke(&captureSink{}, map[string]any{"command": "exit 42"})
	err := Shell{}.Run(context.Background(), inv)

	var runErr *action.RunError
	require.ErrorAs(t, err, &runErr)
	assert.Equal(t, 42, runErr.ExitCode)
	assert.Equal(t, "exit code: 42", runErr.Cause)
}

func TestShell_RawServiceMessage(t *testing.T) {
	t.Parallel()
	requireShell(t)

	sink := &captureSink{}
	inv := invoke(sink, map[string]any{
		"command": `printf '##grana[yield-outcome-b64 a2V5 dmFsdWU=]##\n'`,
	})
	err := Shell{}.Run(context.Background(), inv)
	require.NoError(t, err)

	assert.Empty(t, sink.stdout)
	assert.Equal(t, map[string]string{"key": "value"}, inv.Emit.Outcomes())
}

func TestShell_InjectedYieldFunction(t *testing.T) {
	t.Parallel()
	requireShell(t)

	inv := invoke(&captureSink{}, map[string]any{
		"command": "yield_outcome greeting hello",
	})
	err := Shell{InjectServiceFunctions: true}.Run(context.Background(), inv)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"greeting": "hello"}, inv.Emit.Outcomes())
}

func TestShell_InjectedSkipFunction(t *testing.T) {
	t.Parallel()
	requireShell(t)

	inv := invoke(&captureSink{}, map[string]any{
		"command": "skip; echo unreachable",
	})
	err := Shell{InjectServiceFunctions: true}.Run(context.Background(), inv)
	require.NoError(t, err)

	assert.True(t, inv.Emit.SkipRequested())
}

func TestShell_ScriptFile(t *testing.T) {
	t.Parallel()
	requireShell(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "job.sh")
	require.NoError(t, os.WriteFile(path, []byte("echo from file\n"), 0o644))

	sink := &captureSink{}
	err := Shell{}.Run(context.Background(), invoke(sink, map[string]any{"file": path}))
	require.NoError(t, err)

	assert.Equal(t, []string{"from file"}, sink.stdout)
}

func TestShell_CwdAndEnvironment(t *testing.T) {
	t.Parallel()
	requireShell(t)

	dir := t.TempDir()
	sink := &captureSink{}
	err := Shell{}.Run(context.Background(), invoke(sink, map[string]any{
		"command":     `echo "$PWD|$GRANA_SHELL_TEST"`,
		"cwd":         dir,
		"environment": map[string]any{"GRANA_SHELL_TEST": "wired"},
	}))
	require.NoError(t, err)

	require.Len(t, sink.stdout, 1)
	assert.Contains(t, sink.stdout[0], "|wired")
}

func TestShell_CommandAndFileAreExclusive(t *testing.T) {
	t.Parallel()

	err := Shell{}.Run(context.Background(), invoke(&captureSink{}, map[string]any{
		"command": "true",
		"file":    "job.sh",
	}))
	assert.ErrorContains(t, err, "both")

	err = Shell{}.Run(context.Background(), invoke(&captureSink{}, map[string]any{}))
	assert.ErrorContains(t, err, "neither")
}

func TestDockerShell_RequiredParams(t *testing.T) {
	t.Parallel()

	err := DockerShell{}.Run(context.Background(), invoke(&captureSink{}, map[string]any{
		"image": "alpine",
	}))
	assert.ErrorContains(t, err, "command")

	err = DockerShell{}.Run(context.Background(), invoke(&captureSink{}, map[string]any{
		"command": "true",
	}))
	assert.ErrorContains(t, err, "image")
}

func TestDockerShell_BindArguments(t *testing.T) {
	t.Parallel()

	args, err := bindArguments([]any{
		map[string]any{"src": "/host/a", "dest": "/ctr/a"},
		map[string]any{"src": "/host/b", "dest": "/ctr/b", "mode": "ro"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"-v", "/host/a:/ctr/a:rw", "-v", "/host/b:/ctr/b:ro"}, args)

	args, err = bindArguments(nil)
	require.NoError(t, err)
	assert.Empty(t, args)

	_, err = bindArguments([]any{map[string]any{"src": "/host/a"}})
	assert.ErrorContains(t, err, "dest")

	_, err = bindArguments([]any{map[string]any{"src": "a", "dest": "b", "mode": "rx"}})
	assert.ErrorContains(t, err, "mode")

	_, err = bindArguments("not-a-list")
	assert.ErrorContains(t, err, "list of mappings")
}

func TestHTTP_SuccessYieldsOutcomes(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	inv := invoke(&captureSink{}, map[string]any{
		"url":     server.URL,
		"method":  "POST",
		"body":    `{"payload":1}`,
		"headers": map[string]any{"Content-Type": "application/json"},
	})
	err := HTTP{}.Run(context.Background(), inv)
	require.NoError(t, err)

	outcomes := inv.Emit.Outcomes()
	assert.Equal(t, "201", outcomes["status_code"])
	assert.Equal(t, `{"ok":true}`, outcomes["body"])
}

func TestHTTP_ServerErrorFails(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	inv := invoke(&captureSink{}, map[string]any{"url": server.URL})
	err := HTTP{}.Run(context.Background(), inv)

	assert.ErrorContains(t, err, "500")
	// Outcomes are still yielded so low-severity actions can expose them.
	assert.Equal(t, "500", inv.Emit.Outcomes()["status_code"])
}

func TestHTTP_MissingURL(t *testing.T) {
	t.Parallel()

	err := HTTP{}.Run(context.Background(), invoke(&captureSink{}, nil))
	assert.ErrorContains(t, err, "url")
}

func TestRegisterBundledKinds(t *testing.T) {
	t.Parallel()

	registry := action.NewRegistry()
	require.NoError(t, Register(registry, Options{}))

	for _, kind := range []string{"echo", "shell", "docker-shell", "http"} {
		_, ok := registry.Lookup(kind)
		assert.True(t, ok, kind)
	}
}
