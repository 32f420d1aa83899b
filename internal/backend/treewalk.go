package backend

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/funvibe/nasal/internal/ast"
	"github.com/funvibe/nasal/internal/config"
	"github.com/funvibe/nasal/internal/diagnostics"
	"github.com/funvibe/nasal/internal/evaluator"
	"github.com/funvibe/nasal/internal/heap"
	"github.com/funvibe/nasal/internal/pipeline"
	"github.com/funvibe/nasal/internal/utils"
)

// TreeWalkBackend executes programs with the tree-walking evaluator.
type TreeWalkBackend struct {
	Out       io.Writer // program output
	ErrOut    io.Writer // error reports
	Color     string    // "auto", "always" or "never"
	MaxErrors int       // printed reports; 0 means unlimited
	TraceHeap bool      // log heap allocations at debug level
	Logger    *slog.Logger
}

// Option configures a TreeWalkBackend.
type Option func(*TreeWalkBackend)

func WithOutput(out, errOut io.Writer) Option {
	return func(b *TreeWalkBackend) {
		b.Out = out
		b.ErrOut = errOut
	}
}

func WithConfig(cfg *config.Config) Option {
	return func(b *TreeWalkBackend) {
		b.Color = cfg.Color
		b.MaxErrors = cfg.MaxErrors
		b.TraceHeap = cfg.TraceHeap
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(b *TreeWalkBackend) { b.Logger = l }
}

// NewTreeWalk creates a new tree-walk backend
func NewTreeWalk(opts ...Option) *TreeWalkBackend {
	b := &TreeWalkBackend{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
		Color:  "auto",
		Logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the backend name
func (b *TreeWalkBackend) Name() string {
	return "tree-walk"
}

// Run executes the program decoded into ctx and stores its summary there.
func (b *TreeWalkBackend) Run(ctx *pipeline.PipelineContext) (*Summary, error) {
	if ctx.AstRoot == nil {
		return nil, fmt.Errorf("no tree to execute")
	}
	if ctx.Failed() {
		return nil, ctx.Errors[0]
	}
	s := b.Execute(ctx.AstRoot, utils.ProgramName(ctx.FilePath))
	ctx.Summary = &s
	return &s, nil
}

// Execute runs program on a fresh heap. The heap is torn down before
// returning; values still allocated afterwards are counted as leaked. A
// malformed tree is not run and its summary carries an ErrInvalidTree error.
func (b *TreeWalkBackend) Execute(program *ast.Node, name string) Summary {
	s := Summary{
		RunID:     uuid.NewString(),
		Program:   name,
		StartedAt: time.Now(),
	}
	log := b.Logger.With(slog.String("run_id", s.RunID), slog.String("program", name))

	if err := pipeline.ValidateTree(program); err != nil {
		s.Elapsed = time.Since(s.StartedAt)
		s.State = config.StateError
		s.Errors = 1
		s.Err = err
		log.Warn("tree rejected", slog.Any("error", err))
		return s
	}

	var heapOpts []heap.Option
	if b.TraceHeap {
		heapOpts = append(heapOpts, heap.WithLogger(log))
	}
	h := heap.New(heapOpts...)

	reporter := diagnostics.NewReporter(b.ErrOut,
		diagnostics.WithColor(b.Color),
		diagnostics.WithMaxPrinted(b.MaxErrors),
		diagnostics.WithLogger(log),
	)
	ev := evaluator.New(h,
		evaluator.WithOutput(b.Out),
		evaluator.WithReporter(reporter),
		evaluator.WithLogger(log),
	)
	ev.RegisterBuiltins()

	log.Debug("run started")
	out := ev.Run(program)
	ev.Shutdown()
	reporter.PrintSummary()

	s.Elapsed = time.Since(s.StartedAt)
	s.Errors = reporter.Count()
	s.Leaked = h.Stats().Live
	s.State = config.StateCompleted
	if out.Signal == evaluator.SignalError {
		s.State = config.StateError
		s.Err = out.Err
	}
	log.Info("run finished",
		slog.String("state", s.State),
		slog.Int("errors", s.Errors),
		slog.Int("leaked", s.Leaked),
		slog.Duration("elapsed", s.Elapsed),
	)
	return s
}

// Run executes program with a default tree-walk backend.
func Run(program *ast.Node, opts ...Option) Summary {
	return NewTreeWalk(opts...).Execute(program, utils.StdinName)
}
