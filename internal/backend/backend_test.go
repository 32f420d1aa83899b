package backend

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/funvibe/nasal/internal/ast"
	"github.com/funvibe/nasal/internal/config"
	"github.com/funvibe/nasal/internal/diagnostics"
	"github.com/funvibe/nasal/internal/pipeline"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func printCall(args ...*ast.Node) *ast.Node {
	return ast.CallChain(ast.Ident("print"), ast.Args(args...))
}

func newBackend(out, errOut *bytes.Buffer) *TreeWalkBackend {
	return NewTreeWalk(WithOutput(out, errOut), WithLogger(quiet()), WithConfig(&config.Config{Color: "never"}))
}

func TestExecuteCompleted(t *testing.T) {
	var out, errOut bytes.Buffer
	program := ast.Program(
		ast.Def(ast.Ident("x"), ast.Num("40")),
		printCall(ast.Str("x = "), ast.Binary(ast.Add, ast.Ident("x"), ast.Num("2"))),
	)
	s := newBackend(&out, &errOut).Execute(program, "answer")

	if got := out.String(); got != "x = 42\n" {
		t.Errorf("output = %q", got)
	}
	if errOut.Len() != 0 {
		t.Errorf("unexpected reports: %q", errOut.String())
	}
	if s.State != config.StateCompleted || s.Errors != 0 || s.Err != nil {
		t.Errorf("summary = %+v", s)
	}
	if s.Leaked != 0 {
		t.Errorf("leaked = %d", s.Leaked)
	}
	if s.Program != "answer" {
		t.Errorf("program = %q", s.Program)
	}
	if _, err := uuid.Parse(s.RunID); err != nil {
		t.Errorf("run id %q: %v", s.RunID, err)
	}
	if s.StartedAt.IsZero() {
		t.Error("start time not recorded")
	}
}

func TestExecuteRuntimeError(t *testing.T) {
	var out, errOut bytes.Buffer
	program := ast.Program(
		printCall(ast.Str("before")),
		printCall(ast.Ident("missing")),
		printCall(ast.Str("after")),
	)
	s := newBackend(&out, &errOut).Execute(program, "broken")

	if got := out.String(); got != "before\n" {
		t.Errorf("output = %q; the program should halt at the error", got)
	}
	if s.State != config.StateError || s.Errors != 1 {
		t.Errorf("summary = %+v", s)
	}
	if !errors.Is(s.Err, diagnostics.ErrUndefinedIdentifier) {
		t.Errorf("err = %v", s.Err)
	}
	report := errOut.String()
	if strings.Count(report, "UndefinedIdentifier") != 1 {
		t.Errorf("error should be reported exactly once:\n%s", report)
	}
	if !strings.HasSuffix(report, "[runtime] 1 error(s).\n") {
		t.Errorf("missing summary line:\n%s", report)
	}
}

func TestExecuteCountsCycleLeaks(t *testing.T) {
	var out, errOut bytes.Buffer
	// var h = {}; h.self = h;
	program := ast.Program(
		ast.Def(ast.Ident("h"), ast.HashLit()),
		ast.Assignment(ast.Assign, ast.CallChain(ast.Ident("h"), ast.Dot("self")), ast.Ident("h")),
	)
	s := newBackend(&out, &errOut).Execute(program, "cycle")
	if s.State != config.StateCompleted {
		t.Fatalf("state = %s: %v", s.State, s.Err)
	}
	if s.Leaked != 1 {
		t.Errorf("leaked = %d, want 1", s.Leaked)
	}
}

func TestExecuteRejectsMalformedTree(t *testing.T) {
	var out, errOut bytes.Buffer
	program := ast.Program(
		printCall(ast.Str("never")),
		&ast.Node{Kind: ast.Call},
	)
	s := newBackend(&out, &errOut).Execute(program, "malformed")

	if !errors.Is(s.Err, pipeline.ErrInvalidTree) {
		t.Fatalf("err = %v, want invalid tree", s.Err)
	}
	if s.State != config.StateError {
		t.Errorf("state = %s", s.State)
	}
	if out.Len() != 0 {
		t.Errorf("malformed tree was executed: %q", out.String())
	}
	if s.Leaked != 0 {
		t.Errorf("leaked = %d", s.Leaked)
	}
}

func TestRunThroughPipeline(t *testing.T) {
	var out, errOut bytes.Buffer
	tree := "- kind: call\n  children:\n    - {id: print}\n    - kind: invoke\n      children: [{str: hi}]\n"
	p := pipeline.New(
		&pipeline.DecodeProcessor{},
		&pipeline.ValidateProcessor{},
		NewExecutionProcessor(newBackend(&out, &errOut)),
	)
	ctx := p.Run(&pipeline.PipelineContext{FilePath: "dir/greet.yaml", Source: []byte(tree)})
	if ctx.Failed() {
		t.Fatalf("errors: %v", ctx.Errors)
	}
	if out.String() != "hi\n" {
		t.Errorf("output = %q", out.String())
	}
	if ctx.Summary == nil || ctx.Summary.Program != "greet" {
		t.Errorf("summary = %+v", ctx.Summary)
	}
}

func TestExecutionSkippedForInvalidTree(t *testing.T) {
	var out, errOut bytes.Buffer
	p := pipeline.New(
		&pipeline.DecodeProcessor{},
		&pipeline.ValidateProcessor{},
		NewExecutionProcessor(newBackend(&out, &errOut)),
	)
	ctx := p.Run(&pipeline.PipelineContext{FilePath: "bad.yaml", Source: []byte("- kind: return\n  children: [{num: 1}, {num: 2}]\n")})
	if !ctx.Failed() || !errors.Is(ctx.Errors[0], pipeline.ErrInvalidTree) {
		t.Fatalf("errors = %v", ctx.Errors)
	}
	if ctx.Summary != nil {
		t.Error("invalid tree was executed")
	}
}

func TestExecutionProcessorKeepsRuntimeError(t *testing.T) {
	var out, errOut bytes.Buffer
	ctx := &pipeline.PipelineContext{FilePath: "-", AstRoot: ast.Program(ast.BreakStmt())}
	ctx = NewExecutionProcessor(newBackend(&out, &errOut)).Process(ctx)
	if len(ctx.Errors) != 1 || !errors.Is(ctx.Errors[0], diagnostics.ErrIllegalControlFlow) {
		t.Fatalf("errors = %v", ctx.Errors)
	}
	if !diagnostics.Reported(ctx.Errors[0]) {
		t.Error("runtime error should already be reported")
	}
	if ctx.Summary.Program != "<stdin>" {
		t.Errorf("program = %q", ctx.Summary.Program)
	}
}
