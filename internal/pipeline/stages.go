package pipeline

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/funvibe/nasal/internal/ast"
)

// ErrInvalidTree marks errors caused by a tree that failed to decode or validate.
var ErrInvalidTree = errors.New("invalid tree")

// DecodeProcessor reads the serialized tree and decodes it into AstRoot.
type DecodeProcessor struct {
	Stdin io.Reader // used when FilePath is "-"
}

func (p *DecodeProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.Failed() {
		return ctx
	}
	if ctx.Source == nil {
		data, err := p.read(ctx.FilePath)
		if err != nil {
			ctx.Errors = append(ctx.Errors, err)
			return ctx
		}
		ctx.Source = data
	}
	root, err := ast.Decode(ctx.Source)
	if err != nil {
		ctx.Errors = append(ctx.Errors, fmt.Errorf("%w: decoding %s: %w", ErrInvalidTree, ctx.FilePath, err))
		return ctx
	}
	ctx.AstRoot = root
	return ctx
}

func (p *DecodeProcessor) read(path string) ([]byte, error) {
	if path == "-" {
		in := p.Stdin
		if in == nil {
			in = os.Stdin
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("reading standard input: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tree %s: %w", path, err)
	}
	return data, nil
}

// ValidateTree checks root and joins every problem found, each marked with
// ErrInvalidTree. It returns nil for a well-formed tree.
func ValidateTree(root *ast.Node) error {
	problems := ast.Validate(root)
	if len(problems) == 0 {
		return nil
	}
	errs := make([]error, len(problems))
	for i, problem := range problems {
		errs[i] = fmt.Errorf("%w: %w", ErrInvalidTree, problem)
	}
	return errors.Join(errs...)
}

// ValidateProcessor rejects structurally malformed trees before execution.
type ValidateProcessor struct{}

func (p *ValidateProcessor) Process(ctx *PipelineContext) *PipelineContext {
	if ctx.AstRoot == nil || ctx.Failed() {
		return ctx
	}
	for _, problem := range ast.Validate(ctx.AstRoot) {
		ctx.Errors = append(ctx.Errors, fmt.Errorf("%w: %w", ErrInvalidTree, problem))
	}
	return ctx
}
