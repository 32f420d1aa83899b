// Package backend runs validated programs and summarizes the result.
package backend

import (
	"github.com/funvibe/nasal/internal/pipeline"
)

// Summary is the outcome of one program run.
type Summary = pipeline.Summary

// Backend is the interface for execution backends
type Backend interface {
	// Run executes the program held by the pipeline context.
	Run(ctx *pipeline.PipelineContext) (*Summary, error)

	// Name returns the backend name for display
	Name() string
}
