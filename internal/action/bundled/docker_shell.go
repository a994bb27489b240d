package bundled

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/google/uuid"

	"github.com/vk/grana/internal/action"
	"github.com/vk/grana/internal/ctxlog"
)

const containerEntryPath = "/tmp-grana/entry.sh"

// DockerShell runs a shell command inside a container via the docker CLI.
// The script is materialized into a temp file and bind-mounted as the
// container entrypoint script.
type DockerShell struct {
	InjectServiceFunctions bool
}

// Run implements action.Runner.
func (d DockerShell) Run(ctx context.Context, inv *action.Invocation) error {
	command, ok := inv.StringParam("command")
	if !ok {
		return action.Failf("docker-shell: 'command' parameter is required")
	}
	image, ok := inv.StringParam("image")
	if !ok {
		return action.Failf("docker-shell: 'image' parameter is required")
	}
	if d.InjectServiceFunctions {
		command = serviceFunctionDefinitions + "\n" + command
	}

	entryDir, err := os.MkdirTemp("", "grana-docker-shell-*")
	if err != nil {
		return action.Failf("docker-shell: %v", err)
	}
	defer os.RemoveAll(entryDir)
	entryFile := filepath.Join(entryDir, "entry.sh")
	if err := os.WriteFile(entryFile, []byte(command), 0o755); err != nil {
		return action.Failf("docker-shell: %v", err)
	}

	if pull, _ := inv.Params["pull"].(bool); pull {
		ctxlog.FromContext(ctx).Info("pulling image", "action", inv.Name, "image", image)
		pullCmd := exec.CommandContext(ctx, "docker", "pull", image)
		if out, err := pullCmd.CombinedOutput(); err != nil {
			return action.Failf("docker-shell: pull failed: %v: %s", err, out)
		}
	}

	executable, ok := inv.StringParam("executable")
	if !ok {
		executable = defaultShellExecutable
	}
	args := []string{
		"run", "--rm", "--init",
		"--name", "grana-docker-shell-" + uuid.NewString(),
		"-v", entryFile + ":" + containerEntryPath + ":ro",
	}
	if cwd, ok := inv.StringParam("cwd"); ok {
		args = append(args, "-w", cwd)
	}
	if environment, ok := inv.StringMapParam("environment"); ok {
		keys := make([]string, 0, len(environment))
		for key := range environment {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			args = append(args, "-e", key+"="+environment[key])
		}
	}
	if network, ok := inv.StringParam("network"); ok {
		args = append(args, "--network", network)
	}
	if privileged, _ := inv.Params["privileged"].(bool); privileged {
		args = append(args, "--privileged")
	}
	binds, err := bindArguments(inv.Params["bind"])
	if err != nil {
		return err
	}
	args = append(args, binds...)
	args = append(args, image, executable, containerEntryPath)

	ctxlog.FromContext(ctx).Debug("starting container", "action", inv.Name, "image", image)
	return streamCommand(ctx, exec.CommandContext(ctx, "docker", args...), inv)
}

// bindArguments turns the optional 'bind' parameter, a list of mappings with
// src, dest and an optional mode, into docker volume flags.
func bindArguments(raw any) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, action.Failf("docker-shell: 'bind' should be a list of mappings")
	}
	var args []string
	for _, item := range list {
		spec, ok := item.(map[string]any)
		if !ok {
			return nil, action.Failf("docker-shell: 'bind' should be a list of mappings")
		}
		src, _ := spec["src"].(string)
		dest, _ := spec["dest"].(string)
		if src == "" || dest == "" {
			return nil, action.Failf("docker-shell: bind entry requires 'src' and 'dest'")
		}
		mode, _ := spec["mode"].(string)
		if mode == "" {
			mode = "rw"
		}
		if mode != "ro" && mode != "rw" {
			return nil, action.Failf("docker-shell: invalid bind mode %q", mode)
		}
		args = append(args, "-v", fmt.Sprintf("%s:%s:%s", src, dest, mode))
	}
	return args, nil
}
