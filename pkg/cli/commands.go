package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/funvibe/nasal/internal/backend"
	"github.com/funvibe/nasal/internal/config"
	"github.com/funvibe/nasal/internal/history"
	"github.com/funvibe/nasal/internal/pipeline"
)

func newRunCommand(s *settings, streams Streams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <tree>",
		Short: "Execute a serialized syntax tree (use - for standard input)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.load(cmd)
			if err != nil {
				return err
			}
			log := newLogger(streams.Err, cfg)
			exec := backend.NewTreeWalk(
				backend.WithOutput(streams.Out, streams.Err),
				backend.WithConfig(cfg),
				backend.WithLogger(log),
			)
			ctx := pipeline.New(
				&pipeline.DecodeProcessor{Stdin: streams.In},
				&pipeline.ValidateProcessor{},
				backend.NewExecutionProcessor(exec),
			).Run(pipeline.NewPipelineContext(args[0]))

			if ctx.Summary != nil && cfg.History != "" {
				if err := recordRun(cmd.Context(), cfg.History, ctx.Summary); err != nil {
					log.Warn("history not recorded", "error", err)
				}
			}
			return firstError(ctx)
		},
	}
	cmd.Flags().BoolVar(&s.traceHeap, "trace-heap", false, "log heap allocations at debug level")
	return cmd
}

func newCheckCommand(s *settings, streams Streams) *cobra.Command {
	return &cobra.Command{
		Use:   "check <tree>",
		Short: "Decode and validate a syntax tree without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := s.load(cmd); err != nil {
				return err
			}
			ctx := pipeline.New(
				&pipeline.DecodeProcessor{Stdin: streams.In},
				&pipeline.ValidateProcessor{},
			).Run(pipeline.NewPipelineContext(args[0]))
			if err := firstError(ctx); err != nil {
				return err
			}
			fmt.Fprintf(streams.Out, "%s: ok\n", args[0])
			return nil
		},
	}
}

func newHistoryCommand(s *settings, streams Streams) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := s.load(cmd)
			if err != nil {
				return err
			}
			if cfg.History == "" {
				return errors.New("no history database configured (set history in nasal.yaml or pass --history)")
			}
			store, err := history.Open(cfg.History)
			if err != nil {
				return err
			}
			defer store.Close()
			runs, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(streams.Out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tPROGRAM\tSTATE\tERRORS\tLEAKED\tELAPSED\tSTARTED")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
					r.RunID, r.Program, r.State, r.Errors, r.Leaked,
					r.Elapsed, r.StartedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list (0 lists all)")
	return cmd
}

func newVersionCommand(streams Streams) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(streams.Out, "nasal %s\n", config.Version)
		},
	}
}

// firstError folds the errors of ctx into one, keeping the exit code of the
// first.
func firstError(ctx *pipeline.PipelineContext) error {
	if !ctx.Failed() {
		return nil
	}
	if len(ctx.Errors) > 1 {
		return withCode(exitCode(ctx.Errors[0]), errors.Join(ctx.Errors...))
	}
	return ctx.Errors[0]
}

func recordRun(ctx context.Context, path string, s *pipeline.Summary) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Record(ctx, history.FromSummary(s))
}
