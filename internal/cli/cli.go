package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/grana/internal/display"
	"github.com/vk/grana/internal/strategy"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Options carries the parsed command-line values. Flags that the user did
// not give keep their zero value; Explicit tells them apart from defaults.
type Options struct {
	Command     string
	Workflow    string
	Interactive bool

	Strategy   string
	Display    string
	LogLevel   string
	LogFormat  string
	LogFile    string
	EnvFile    string
	PluginsDir string
	Workers    int

	StrictOutcomes bool
	ForceColor     bool

	given map[string]bool
}

// Explicit reports whether the named flag was set on the command line.
func (o *Options) Explicit(name string) bool {
	return o.given[name]
}

const usageText = `grana - declarative task runner

Usage:
  grana <command> [options] [WORKFLOW]

Commands:
  run       Run the workflow immediately.
  validate  Check workflow validity and exit.
  version   Show the version.

Arguments:
  WORKFLOW
    Workflow source file. When not given, one of grana.yml/grana.yaml/grana.hcl
    is looked up in the current directory. Use '-' to read YAML from the
    standard input. Also configurable via the GRANA_WORKFLOW_FILE environment
    variable.

Options:
`

// Parse processes command-line arguments. It returns the populated options,
// a boolean indicating the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*Options, bool, error) {
	flagSet := flag.NewFlagSet("grana", flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		fmt.Fprint(output, usageText)
		flagSet.PrintDefaults()
	}

	opts := &Options{given: make(map[string]bool)}
	flagSet.StringVar(&opts.Strategy, "strategy", "", "Execution strategy. Defaults to loose. Also configurable via GRANA_STRATEGY_NAME.")
	flagSet.StringVar(&opts.Strategy, "s", "", "Execution strategy (shorthand).")
	flagSet.StringVar(&opts.Display, "display", "", "Display name. Defaults to prefixes. Also configurable via GRANA_DISPLAY_NAME.")
	flagSet.StringVar(&opts.Display, "d", "", "Display name (shorthand).")
	flagSet.StringVar(&opts.LogLevel, "log-level", "", "Logging level: 'debug', 'info', 'warn' or 'error'. Also configurable via GRANA_LOG_LEVEL.")
	flagSet.StringVar(&opts.LogLevel, "l", "", "Logging level (shorthand).")
	flagSet.StringVar(&opts.LogFormat, "log-format", "", "Log output format: 'text' or 'json'. Also configurable via GRANA_LOG_FORMAT.")
	flagSet.StringVar(&opts.LogFile, "log-file", "", "Write logs to a file instead of stderr. Also configurable via GRANA_LOG_FILE.")
	flagSet.StringVar(&opts.EnvFile, "env-file", "", "Dotenv file path. Defaults to .env. Also configurable via GRANA_ENV_FILE.")
	flagSet.StringVar(&opts.PluginsDir, "plugins-dir", "", "Directory with extra runner kind definitions. Also configurable via GRANA_ACTIONS_CLASS_DEFINITIONS_DIRECTORY.")
	flagSet.IntVar(&opts.Workers, "workers", 0, "Bound on concurrently running actions. 0 is unbounded. Also configurable via GRANA_WORKERS.")
	flagSet.BoolVar(&opts.StrictOutcomes, "strict-outcomes", false, "Fail on references to missing outcome keys. Also configurable via GRANA_STRICT_OUTCOMES_RENDERING.")
	flagSet.BoolVar(&opts.ForceColor, "force-color", false, "Emit ANSI colors even when stdout is not a terminal. Also configurable via GRANA_FORCE_COLOR.")
	flagSet.BoolVar(&opts.Interactive, "interactive", false, "Select the actions to run in a dialog before starting.")
	flagSet.BoolVar(&opts.Interactive, "i", false, "Run in dialog mode (shorthand).")

	if len(args) == 0 {
		flagSet.Usage()
		return nil, true, nil
	}
	opts.Command = args[0]
	switch opts.Command {
	case "run", "validate", "version":
	case "-h", "-help", "--help", "help":
		flagSet.Usage()
		return nil, true, nil
	default:
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q (expected run, validate or version)", opts.Command)}
	}

	if err := flagSet.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	flagSet.Visit(func(f *flag.Flag) {
		opts.given[canonicalFlagName(f.Name)] = true
	})

	if flagSet.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: "cannot apply more than one workflow source"}
	}
	opts.Workflow = flagSet.Arg(0)

	if err := validate(opts); err != nil {
		return nil, false, err
	}
	return opts, false, nil
}

// canonicalFlagName folds shorthand flags onto their long form.
func canonicalFlagName(name string) string {
	switch name {
	case "s":
		return "strategy"
	case "d":
		return "display"
	case "l":
		return "log-level"
	case "i":
		return "interactive"
	}
	return name
}

func validate(opts *Options) error {
	if opts.Strategy != "" {
		if !contains(strategy.Names(), opts.Strategy) {
			return &ExitError{Code: 2, Message: fmt.Sprintf("invalid strategy %q (known: %v)", opts.Strategy, strategy.Names())}
		}
	}
	if opts.Display != "" {
		if !contains(display.Names(), opts.Display) {
			return &ExitError{Code: 2, Message: fmt.Sprintf("invalid display %q (known: %v)", opts.Display, display.Names())}
		}
	}
	if opts.LogLevel != "" {
		switch strings.ToLower(opts.LogLevel) {
		case "debug", "info", "warn", "error":
		default:
			return &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
		}
	}
	if opts.LogFormat != "" {
		switch strings.ToLower(opts.LogFormat) {
		case "text", "json":
		default:
			return &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
		}
	}
	if opts.Workers < 0 {
		return &ExitError{Code: 2, Message: "invalid workers: must not be negative"}
	}
	return nil
}

func contains(haystack []string, needle string) bool {
	for _, item := range haystack {
		if item == needle {
			return true
		}
	}
	return false
}
