package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vk/grana/internal/app"
	"github.com/vk/grana/internal/cli"
	"github.com/vk/grana/internal/display"
	"github.com/vk/grana/internal/graph"
	"github.com/vk/grana/internal/loader"
)

const version = "1.0.0"

// Exit codes for intercepted error classes.
const (
	codeExecutionFailed = 1
	codeUnhandled       = 2
	codeLoadError       = 102
	codeIntegrityError  = 103
	codeSourceError     = 104
	codeInteraction     = 105
	codeCancelled       = 130
)

// main is the entrypoint for the grana binary.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Stdin, os.Args[1:])
	stop()
	if err != nil {
		code := exitCode(err)
		if code != codeExecutionFailed && code != codeCancelled {
			fmt.Fprintf(os.Stderr, "! %s\n", err)
		}
		os.Exit(code)
	}
}

// run encapsulates the main application logic for easier testing and error
// handling.
func run(ctx context.Context, outW io.Writer, stdin io.Reader, args []string) error {
	opts, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}
	if opts.Command == "version" {
		fmt.Fprintln(outW, version)
		return nil
	}

	appConfig, err := cli.Resolve(ctx, opts)
	if err != nil {
		return err
	}
	a, err := app.NewApp(ctx, outW, os.Stderr, appConfig)
	if err != nil {
		return err
	}
	defer a.Close()

	switch opts.Command {
	case "validate":
		return a.Validate(ctx, stdin)
	default:
		return a.Run(ctx, stdin)
	}
}

// exitCode maps intercepted error classes onto process exit codes.
func exitCode(err error) int {
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	var loadErr *loader.LoadError
	if errors.As(err, &loadErr) {
		return codeLoadError
	}
	var validationErr *graph.ValidationError
	if errors.As(err, &validationErr) {
		return codeIntegrityError
	}
	var sourceErr *loader.SourceError
	if errors.As(err, &sourceErr) {
		return codeSourceError
	}
	switch {
	case errors.Is(err, display.ErrNoInteraction), errors.Is(err, display.ErrSelectionAborted):
		return codeInteraction
	case errors.Is(err, app.ErrCancelled):
		return codeCancelled
	case errors.Is(err, app.ErrExecutionFailed):
		return codeExecutionFailed
	}
	return codeUnhandled
}
