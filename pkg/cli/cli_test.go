package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/funvibe/nasal/internal/config"
)

const greetTree = `
- kind: definition
  children:
    - {id: name}
    - {str: world}
- kind: call
  children:
    - {id: print}
    - kind: invoke
      children:
        - kind: link
          children: [{str: "hello "}, {id: name}]
`

const brokenTree = `
- kind: call
  children:
    - {id: print}
    - kind: invoke
      children: [{id: nobody}]
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := Run(args, Streams{In: strings.NewReader(stdin), Out: &out, Err: &errOut})
	return code, out.String(), errOut.String()
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "nasal.yaml", "color: never\n")
	greet := writeFile(t, dir, "greet.yaml", greetTree)
	broken := writeFile(t, dir, "broken.yaml", brokenTree)
	invalid := writeFile(t, dir, "invalid.yaml", "- kind: while\n  children: [{num: 1}]\n")

	tests := []struct {
		name     string
		args     []string
		stdin    string
		wantCode int
		wantOut  string
		wantErr  string
	}{
		{"completed", []string{"run", "--config", cfg, greet}, "", config.ExitOK, "hello world\n", ""},
		{"stdin", []string{"run", "--config", cfg, "-"}, greetTree, config.ExitOK, "hello world\n", ""},
		{"runtime error", []string{"run", "--config", cfg, broken}, "", config.ExitRuntime, "", "UndefinedIdentifier"},
		{"invalid tree", []string{"run", "--config", cfg, invalid}, "", config.ExitInvalidTree, "", "has 1 children"},
		{"missing file", []string{"run", "--config", cfg, filepath.Join(dir, "nope.yaml")}, "", config.ExitUsage, "", "reading tree"},
		{"no argument", []string{"run", "--config", cfg}, "", config.ExitUsage, "", "accepts 1 arg"},
		{"bad flag value", []string{"run", "--config", cfg, "--color", "pink", greet}, "", config.ExitUsage, "", "unknown mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := run(t, tt.stdin, tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d (stderr: %s)", code, tt.wantCode, errOut)
			}
			if out != tt.wantOut {
				t.Errorf("stdout = %q, want %q", out, tt.wantOut)
			}
			if tt.wantErr != "" && !strings.Contains(errOut, tt.wantErr) {
				t.Errorf("stderr = %q, want it to contain %q", errOut, tt.wantErr)
			}
		})
	}
}

func TestRuntimeErrorPrintedOnce(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, dir, "broken.yaml", brokenTree)
	_, _, errOut := run(t, "", "run", "--color", "never", "--config", writeFile(t, dir, "nasal.yaml", ""), broken)
	if n := strings.Count(errOut, "[runtime] UndefinedIdentifier: lookup: cannot find value named 'nobody'"); n != 1 {
		t.Errorf("error printed %d times:\n%s", n, errOut)
	}
	if strings.Contains(errOut, "Error:") {
		t.Errorf("runtime error printed again by the command:\n%s", errOut)
	}
}

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	greet := writeFile(t, dir, "greet.yaml", greetTree)
	code, out, _ := run(t, "", "check", greet)
	if code != config.ExitOK || out != greet+": ok\n" {
		t.Errorf("check = %d %q", code, out)
	}

	bad := writeFile(t, dir, "bad.yaml", "- {kind: nonsense}\n")
	code, _, errOut := run(t, "", "check", bad)
	if code != config.ExitInvalidTree {
		t.Errorf("exit code = %d, want %d", code, config.ExitInvalidTree)
	}
	if !strings.Contains(errOut, "unknown node kind") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestHistoryRecording(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "nasal.yaml", "color: never\nhistory: runs.db\n")
	cfg := filepath.Join(dir, "nasal.yaml")
	greet := writeFile(t, dir, "greet.yaml", greetTree)
	broken := writeFile(t, dir, "broken.yaml", brokenTree)

	run(t, "", "run", "--config", cfg, greet)
	run(t, "", "run", "--config", cfg, broken)
	if _, err := os.Stat(filepath.Join(dir, "runs.db")); err != nil {
		t.Fatalf("history database not created next to the config: %v", err)
	}

	code, out, errOut := run(t, "", "history", "--config", cfg)
	if code != config.ExitOK {
		t.Fatalf("history exit code = %d: %s", code, errOut)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("history output:\n%s", out)
	}
	if !strings.HasPrefix(lines[0], "RUN") {
		t.Errorf("missing header: %q", lines[0])
	}
	if !strings.Contains(out, "greet") || !strings.Contains(out, "broken") {
		t.Errorf("runs missing from history:\n%s", out)
	}

	code, out, _ = run(t, "", "history", "--config", cfg, "--limit", "1")
	if code != config.ExitOK || len(strings.Split(strings.TrimSpace(out), "\n")) != 2 {
		t.Errorf("limited history:\n%s", out)
	}
}

func TestHistoryWithoutDatabase(t *testing.T) {
	cfg := writeFile(t, t.TempDir(), "nasal.yaml", "")
	code, _, errOut := run(t, "", "history", "--config", cfg)
	if code != config.ExitUsage || !strings.Contains(errOut, "no history database") {
		t.Errorf("code = %d, stderr = %q", code, errOut)
	}
}

func TestVersionCommand(t *testing.T) {
	code, out, _ := run(t, "", "version")
	if code != config.ExitOK || out != "nasal "+config.Version+"\n" {
		t.Errorf("version = %d %q", code, out)
	}
}
