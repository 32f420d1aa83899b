package utils

import (
	"path/filepath"

	"github.com/funvibe/nasal/internal/config"
)

// StdinName is the program name used for trees read from standard input.
const StdinName = "<stdin>"

// ResolveRelative resolves path against baseDir unless it is absolute.
func ResolveRelative(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if baseDir == "." || baseDir == "" {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ProgramName derives a program name from a tree file path.
// It takes the base filename and removes any recognized tree extension.
func ProgramName(path string) string {
	if path == "" || path == "-" {
		return StdinName
	}
	return config.TrimTreeExt(filepath.Base(path))
}
