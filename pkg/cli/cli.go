// Package cli implements the nasal command line.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/funvibe/nasal/internal/config"
	"github.com/funvibe/nasal/internal/diagnostics"
	"github.com/funvibe/nasal/internal/pipeline"
	"github.com/funvibe/nasal/internal/utils"
)

// Streams are the standard streams a command talks to.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// exitError carries the process exit code for a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// exitCode maps a command error onto the process exit status.
func exitCode(err error) int {
	if err == nil {
		return config.ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	switch {
	case errors.Is(err, pipeline.ErrInvalidTree):
		return config.ExitInvalidTree
	case diagnostics.CodeOf(err) != 0:
		return config.ExitRuntime
	}
	return config.ExitUsage
}

// settings are the flag values shared by every command.
type settings struct {
	configPath string
	color      string
	logLevel   string
	history    string
	traceHeap  bool
}

// load reads the configuration file and applies flag overrides. The history
// path is resolved relative to the file that names it.
func (s *settings) load(cmd *cobra.Command) (*config.Config, error) {
	path := s.configPath
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if path, err = config.FindConfig(wd); err != nil {
			return nil, err
		}
	}
	cfg := config.Default()
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		if cfg.History != "" {
			cfg.History = utils.ResolveRelative(filepath.Dir(path), cfg.History)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("color") {
		cfg.Color = s.color
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = s.logLevel
	}
	if flags.Changed("history") {
		cfg.History = s.history
	}
	if flags.Changed("trace-heap") {
		cfg.TraceHeap = s.traceHeap
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: cfg.Level()}))
}

// NewRootCommand builds the nasal command tree.
func NewRootCommand(streams Streams) *cobra.Command {
	s := &settings{}
	root := &cobra.Command{
		Use:           "nasal",
		Short:         "Execute nasal syntax trees",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.Err)

	pf := root.PersistentFlags()
	pf.StringVar(&s.configPath, "config", "", "configuration file (default: nearest nasal.yaml)")
	pf.StringVar(&s.color, "color", "auto", "coloured diagnostics: auto, always or never")
	pf.StringVar(&s.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	pf.StringVar(&s.history, "history", "", "SQLite run history database")

	root.AddCommand(
		newRunCommand(s, streams),
		newCheckCommand(s, streams),
		newHistoryCommand(s, streams),
		newVersionCommand(streams),
	)
	return root
}

// Run executes the command line args and returns the process exit code.
func Run(args []string, streams Streams) int {
	root := NewRootCommand(streams)
	root.SetArgs(args)
	err := root.Execute()
	if err != nil && !diagnostics.Reported(err) {
		fmt.Fprintf(streams.Err, "Error: %s\n", err)
	}
	return exitCode(err)
}

// Execute runs the command line of the current process.
func Execute() int {
	return Run(os.Args[1:], Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr})
}
