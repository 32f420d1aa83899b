package utils

import (
	"path/filepath"
	"testing"
)

func TestProgramName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"examples/fib.yaml", "fib"},
		{"/tmp/prog.json", "prog"},
		{"noext", "noext"},
		{"-", StdinName},
		{"", StdinName},
	}
	for _, tt := range tests {
		if got := ProgramName(tt.path); got != tt.want {
			t.Errorf("ProgramName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestResolveRelative(t *testing.T) {
	if got := ResolveRelative("conf", "runs.db"); got != filepath.Join("conf", "runs.db") {
		t.Errorf("relative = %q", got)
	}
	abs := filepath.Join(string(filepath.Separator), "var", "runs.db")
	if got := ResolveRelative("conf", abs); got != abs {
		t.Errorf("absolute = %q", got)
	}
	if got := ResolveRelative(".", "runs.db"); got != "runs.db" {
		t.Errorf("dot base = %q", got)
	}
}
