package pipeline

import (
	"time"

	"github.com/funvibe/nasal/internal/ast"
)

// PipelineContext carries a program through the processing stages.
type PipelineContext struct {
	FilePath string
	Source   []byte // raw tree document; read from FilePath when nil
	AstRoot  *ast.Node
	Errors   []error
	Summary  *Summary
}

func NewPipelineContext(path string) *PipelineContext {
	return &PipelineContext{FilePath: path}
}

// Failed reports whether any stage recorded an error.
func (c *PipelineContext) Failed() bool {
	return len(c.Errors) > 0
}

// Summary describes one executed program.
type Summary struct {
	RunID     string
	Program   string
	StartedAt time.Time
	Elapsed   time.Duration
	State     string // config.StateCompleted or config.StateError
	Errors    int
	Leaked    int   // heap values still allocated after shutdown (reference cycles)
	Err       error // first runtime error, nil when completed
}
