package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/funvibe/nasal/internal/ast"
)

const helloTree = `
- kind: call
  children:
    - {id: print}
    - kind: invoke
      children:
        - {str: hello}
`

func TestDecodeAndValidate(t *testing.T) {
	p := New(&DecodeProcessor{}, &ValidateProcessor{})
	ctx := p.Run(&PipelineContext{FilePath: "hello.yaml", Source: []byte(helloTree)})
	if ctx.Failed() {
		t.Fatalf("unexpected errors: %v", ctx.Errors)
	}
	want := ast.Program(ast.CallChain(ast.Ident("print"), ast.Args(ast.Str("hello"))))
	if ctx.AstRoot.String() != want.String() {
		t.Errorf("tree = %s, want %s", ctx.AstRoot, want)
	}
}

func TestDecodeFromFileAndStdin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hello.yaml")
	if err := os.WriteFile(path, []byte(helloTree), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx := New(&DecodeProcessor{}).Run(NewPipelineContext(path))
	if ctx.Failed() || ctx.AstRoot == nil {
		t.Fatalf("file: %v", ctx.Errors)
	}

	ctx = New(&DecodeProcessor{Stdin: strings.NewReader(helloTree)}).Run(NewPipelineContext("-"))
	if ctx.Failed() || ctx.AstRoot == nil {
		t.Fatalf("stdin: %v", ctx.Errors)
	}

	ctx = New(&DecodeProcessor{}).Run(NewPipelineContext(filepath.Join(t.TempDir(), "missing.yaml")))
	if !ctx.Failed() || errors.Is(ctx.Errors[0], ErrInvalidTree) {
		t.Errorf("missing file should fail without marking the tree invalid: %v", ctx.Errors)
	}
}

func TestInvalidTreeStopsLaterStages(t *testing.T) {
	ran := false
	watch := ProcessorFunc(func(ctx *PipelineContext) *PipelineContext {
		if !ctx.Failed() {
			ran = true
		}
		return ctx
	})
	bad := "- kind: break\n  children: [{num: 1}]\n"
	ctx := New(&DecodeProcessor{}, &ValidateProcessor{}, watch).Run(&PipelineContext{FilePath: "bad.yaml", Source: []byte(bad)})
	if !ctx.Failed() {
		t.Fatal("expected validation errors")
	}
	if !errors.Is(ctx.Errors[0], ErrInvalidTree) {
		t.Errorf("error not marked invalid: %v", ctx.Errors[0])
	}
	var verr *ast.ValidationError
	if !errors.As(ctx.Errors[0], &verr) {
		t.Errorf("validation detail lost: %v", ctx.Errors[0])
	}
	if ran {
		t.Error("later stage treated the context as healthy")
	}

	ctx = New(&DecodeProcessor{}).Run(&PipelineContext{FilePath: "bad.yaml", Source: []byte("- 1\n- [\n")})
	if !ctx.Failed() || !errors.Is(ctx.Errors[0], ErrInvalidTree) {
		t.Errorf("syntax error not marked invalid: %v", ctx.Errors)
	}
}

func TestValidateTree(t *testing.T) {
	if err := ValidateTree(ast.Program(ast.BreakStmt())); err != nil {
		t.Errorf("well-formed tree rejected: %v", err)
	}
	err := ValidateTree(ast.Program(&ast.Node{Kind: ast.Call}, &ast.Node{Kind: ast.Return, Children: []*ast.Node{ast.Num("1"), ast.Num("2")}}))
	if !errors.Is(err, ErrInvalidTree) {
		t.Fatalf("err = %v, want invalid tree", err)
	}
	var verr *ast.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("validation detail lost: %v", err)
	}
	if n := strings.Count(err.Error(), "\n") + 1; n != 2 {
		t.Errorf("got %d problems, want 2:\n%v", n, err)
	}
}
