package bundled

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/vk/grana/internal/action"
	"github.com/vk/grana/internal/ctxlog"
)

const defaultShellExecutable = "/bin/sh"

// serviceFunctionDefinitions is prepended to shell scripts so they can call
// yield_outcome and skip instead of hand-crafting service messages.
const serviceFunctionDefinitions = `yield_outcome(){
  [ "$1" = "" ] && echo "Missing key (first argument)" && return 1
  command -v base64 >/dev/null || ( echo "Missing command: base64" && return 2 )
  [ "$2" = "" ] && value="$(cat /dev/stdin)" || value="$2"
  echo "##grana[yield-outcome-b64 $(
    printf "$1" | base64 | tr -d '\n'
  ) $(
    printf "$value" | base64 | tr -d '\n'
  )]##"
  return 0
}
skip(){
  echo "##grana[skip]##"
  exit 0
}
`

// Shell runs a command or a script file through a shell interpreter. Stdout
// is scanned for service messages; stderr is forwarded as-is.
type Shell struct {
	// InjectServiceFunctions controls whether the yield_outcome and skip
	// helper functions are prepended to the script.
	InjectServiceFunctions bool
}

// Run implements action.Runner.
func (s Shell) Run(ctx context.Context, inv *action.Invocation) error {
	script, err := s.composeScript(inv)
	if err != nil {
		return err
	}
	executable, ok := inv.StringParam("executable")
	if !ok {
		executable = defaultShellExecutable
	}
	cmd := exec.CommandContext(ctx, executable, "-c", script)
	if cwd, ok := inv.StringParam("cwd"); ok {
		cmd.Dir = cwd
	}
	if environment, ok := inv.StringMapParam("environment"); ok {
		cmd.Env = os.Environ()
		for key, value := range environment {
			cmd.Env = append(cmd.Env, key+"="+value)
		}
	}
	return streamCommand(ctx, cmd, inv)
}

func (s Shell) composeScript(inv *action.Invocation) (string, error) {
	command, hasCommand := inv.StringParam("command")
	file, hasFile := inv.StringParam("file")
	switch {
	case !hasCommand && !hasFile:
		return "", action.Failf("shell: neither 'command' nor 'file' specified")
	case hasCommand && hasFile:
		return "", action.Failf("shell: both 'command' and 'file' specified")
	case hasFile:
		command = fmt.Sprintf(". '%s'", file)
	}
	if s.InjectServiceFunctions {
		command = serviceFunctionDefinitions + "\n" + command
	}
	return command, nil
}

// streamCommand starts the command, feeds both output streams through the
// service message scanner line by line, and maps a non-zero exit code to a
// runner failure.
func streamCommand(ctx context.Context, cmd *exec.Cmd, inv *action.Invocation) error {
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return action.Failf("shell: %v", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return action.Failf("shell: %v", err)
	}
	if err := cmd.Start(); err != nil {
		return action.Failf("shell: %v", err)
	}
	ctxlog.FromContext(ctx).Debug("process started", "action", inv.Name, "pid", cmd.Process.Pid)

	scanner := action.NewScanner(inv.Emit)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		feedLines(stdout, scanner.Feed)
	}()
	go func() {
		defer wg.Done()
		feedLines(stderr, scanner.FeedErr)
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			code := exitErr.ExitCode()
			return &action.RunError{Cause: fmt.Sprintf("exit code: %d", code), ExitCode: code}
		}
		return action.Failf("shell: %v", err)
	}
	return nil
}

func feedLines(r io.Reader, feed func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		feed(scanner.Text())
	}
}
