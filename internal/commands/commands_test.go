package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gerunddev/orgtree/internal/config"
	"github.com/gerunddev/orgtree/internal/state"
)

type testEnv struct {
	dir string
	src string
	out string
	log string
}

// newTestEnv points the config and state paths into a temp directory and
// writes a config for it.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir: dir,
		src: filepath.Join(dir, "org"),
		out: filepath.Join(dir, "public"),
		log: filepath.Join(dir, "orgtree.log"),
	}
	if err := os.MkdirAll(env.src, 0755); err != nil {
		t.Fatal(err)
	}

	origConfig, origState := config.ConfigPath, config.StateFilePath
	config.ConfigPath = func() string { return filepath.Join(dir, "config.json") }
	config.StateFilePath = func() string { return filepath.Join(dir, "state.json") }
	t.Cleanup(func() {
		config.ConfigPath = origConfig
		config.StateFilePath = origState
	})

	cfg := config.DefaultConfig()
	cfg.SourceDir = env.src
	cfg.OutputDir = env.out
	cfg.LogFile = env.log
	cfg.Highlight = false
	cfg.Standalone = false
	if err := cfg.Save(); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
	return env
}

func (e *testEnv) write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(e.src, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestParseArgs(t *testing.T) {
	valued := []string{"format", "out"}
	bools := []string{"dry-run", "strict"}

	tests := []struct {
		name       string
		argv       []string
		positional []string
		values     map[string]string
		bools      []string
		wantErr    bool
	}{
		{
			name:       "positional only",
			argv:       []string{"a.org", "b.org"},
			positional: []string{"a.org", "b.org"},
		},
		{
			name:       "separate value",
			argv:       []string{"a.org", "--format", "md"},
			positional: []string{"a.org"},
			values:     map[string]string{"format": "md"},
		},
		{
			name:   "inline value and bool",
			argv:   []string{"--out=x.html", "--dry-run", "-strict"},
			values: map[string]string{"out": "x.html"},
			bools:  []string{"dry-run", "strict"},
		},
		{
			name:       "double dash ends flags",
			argv:       []string{"--", "--format"},
			positional: []string{"--format"},
		},
		{
			name:       "lone dash is positional",
			argv:       []string{"-"},
			positional: []string{"-"},
		},
		{name: "unknown flag", argv: []string{"--nope"}, wantErr: true},
		{name: "missing value", argv: []string{"--format"}, wantErr: true},
		{name: "value on bool", argv: []string{"--strict=yes"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := parseArgs(tt.argv, valued, bools)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if strings.Join(a.positional, "|") != strings.Join(tt.positional, "|") {
				t.Errorf("positional = %v, want %v", a.positional, tt.positional)
			}
			for k, v := range tt.values {
				if a.value(k, "") != v {
					t.Errorf("value(%s) = %q, want %q", k, a.value(k, ""), v)
				}
			}
			for _, b := range tt.bools {
				if !a.bools[b] {
					t.Errorf("bool %s not set", b)
				}
			}
		})
	}
}

func TestLastBuild(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "orgtree.log")
	content := `2025-11-27 14:11:57 INFO build started source_dir=/notes
2025-11-27 14:12:00 INFO build completed rendered=3 skipped=1 errors=0
2025-11-27 14:13:00 INFO config loaded
`
	if err := os.WriteFile(logPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	at, rendered, ok := LastBuild(logPath, 100)
	if !ok {
		t.Fatal("Expected a build record")
	}
	if want := time.Date(2025, 11, 27, 14, 12, 0, 0, time.Local); !at.Equal(want) {
		t.Errorf("time = %v, want %v", at, want)
	}
	if rendered != 3 {
		t.Errorf("rendered = %d, want 3", rendered)
	}

	if _, _, ok := LastBuild(logPath, 1); ok {
		t.Error("Record outside the scanned tail should not be found")
	}
	if _, _, ok := LastBuild(filepath.Join(dir, "missing.log"), 100); ok {
		t.Error("Missing log should report no build")
	}
}

func TestRunDump(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "a.org", "* TODO Task\nSome *bold* text.\n")

	for _, color := range []bool{false, true} {
		var buf bytes.Buffer
		if err := runDump([]string{path}, &buf, color); err != nil {
			t.Fatalf("runDump failed: %v", err)
		}
		out := buf.String()
		for _, want := range []string{"Document", "Heading", `"Task" TODO`, "Bold"} {
			if !strings.Contains(out, want) {
				t.Errorf("Expected %q in dump (color=%v):\n%s", want, color, out)
			}
		}
	}

	if err := runDump(nil, &bytes.Buffer{}, false); err == nil {
		t.Error("runDump should require a file")
	}
	if err := runDump([]string{filepath.Join(env.src, "missing.org")}, &bytes.Buffer{}, false); err == nil {
		t.Error("runDump should fail for a missing file")
	}
}

func TestRunRender(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "a.org", "#+title: Notes\n* Heading\nSome *bold* text.\n")

	t.Run("stdout markdown", func(t *testing.T) {
		var buf bytes.Buffer
		if err := runRender([]string{path, "--format", "md"}, &buf); err != nil {
			t.Fatalf("runRender failed: %v", err)
		}
		if !strings.Contains(buf.String(), "**bold**") {
			t.Errorf("Unexpected markdown:\n%s", buf.String())
		}
	})

	t.Run("configured format to file", func(t *testing.T) {
		dest := filepath.Join(env.dir, "out", "a.html")
		var buf bytes.Buffer
		if err := runRender([]string{path, "--out", dest}, &buf); err != nil {
			t.Fatalf("runRender failed: %v", err)
		}
		html, err := os.ReadFile(dest)
		if err != nil {
			t.Fatalf("Output not written: %v", err)
		}
		if !strings.Contains(string(html), "<strong>bold</strong>") {
			t.Errorf("Unexpected html:\n%s", html)
		}
		if !strings.Contains(buf.String(), "Wrote") {
			t.Errorf("Expected confirmation, got %q", buf.String())
		}

		logData, _ := os.ReadFile(env.log)
		if !strings.Contains(string(logData), "file rendered") {
			t.Errorf("Expected 'file rendered' log message, got: %s", logData)
		}
	})

	t.Run("bad format", func(t *testing.T) {
		if err := runRender([]string{path, "--format", "pdf"}, &bytes.Buffer{}); err == nil {
			t.Error("runRender should reject an unknown format")
		}
	})
}

func TestRunView(t *testing.T) {
	env := newTestEnv(t)
	path := env.write(t, "a.org", "* Heading\nBody text here.\n")

	var buf bytes.Buffer
	if err := runView([]string{path}, &buf, false); err != nil {
		t.Fatalf("runView failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Body text here.") {
		t.Errorf("Unexpected preview:\n%s", buf.String())
	}
}

func TestRunCheck(t *testing.T) {
	env := newTestEnv(t)
	canonical := env.write(t, "clean.org", "* Heading\n\nBody.\n")
	messy := env.write(t, "messy.org", "- a\n   - b\n")

	var buf bytes.Buffer
	clean, err := runCheck([]string{canonical}, &buf)
	if err != nil {
		t.Fatalf("runCheck failed: %v", err)
	}
	if !clean {
		t.Errorf("Canonical file reported unclean:\n%s", buf.String())
	}

	buf.Reset()
	clean, err = runCheck([]string{canonical, messy}, &buf)
	if err != nil {
		t.Fatalf("runCheck failed: %v", err)
	}
	if clean {
		t.Error("Messy file reported clean")
	}
	if !strings.Contains(buf.String(), "not in canonical form") {
		t.Errorf("Expected a diff report:\n%s", buf.String())
	}

	buf.Reset()
	if _, err := runCheck([]string{messy, "--fix"}, &buf); err != nil {
		t.Fatalf("runCheck --fix failed: %v", err)
	}
	data, err := os.ReadFile(messy)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "- a\n  - b\n" {
		t.Errorf("Fixed file = %q", data)
	}

	clean, err = runCheck([]string{messy}, &bytes.Buffer{})
	if err != nil || !clean {
		t.Errorf("Fixed file should be clean (err %v)", err)
	}

	if _, err := runCheck(nil, &buf); err == nil {
		t.Error("runCheck should require a file")
	}
}

func TestRunBuildAndStatus(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "a.org", "* TODO First\n")
	env.write(t, "b.org", "* Second\n** DONE Sub\n")

	var buf bytes.Buffer
	if err := runBuild(nil, &buf, false); err != nil {
		t.Fatalf("runBuild failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Rendered 2 file(s)") {
		t.Errorf("Unexpected summary:\n%s", buf.String())
	}
	if _, err := os.Stat(filepath.Join(env.out, "b.html")); err != nil {
		t.Errorf("Output not written: %v", err)
	}

	st, err := state.Load(config.StateFilePath())
	if err != nil {
		t.Fatalf("Failed to load state: %v", err)
	}
	if len(st.Files) != 2 {
		t.Errorf("State tracks %d files, want 2", len(st.Files))
	}

	buf.Reset()
	if err := runStatus(&buf); err != nil {
		t.Fatalf("runStatus failed: %v", err)
	}
	if !strings.Contains(buf.String(), "All outputs current") {
		t.Errorf("Expected everything current:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "Last build") {
		t.Errorf("Expected last build line:\n%s", buf.String())
	}

	env.write(t, "c.org", "* Third\n")
	buf.Reset()
	if err := runStatus(&buf); err != nil {
		t.Fatalf("runStatus failed: %v", err)
	}
	if !strings.Contains(buf.String(), "c.org (new)") {
		t.Errorf("Expected c.org pending:\n%s", buf.String())
	}

	buf.Reset()
	if err := runBuild([]string{"--dry-run", "--format", "md"}, &buf, false); err != nil {
		t.Fatalf("runBuild --dry-run failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Would render 3 file(s)") {
		t.Errorf("Unexpected dry run summary:\n%s", buf.String())
	}
	if _, err := os.Stat(filepath.Join(env.out, "a.md")); !os.IsNotExist(err) {
		t.Error("Dry run should not write output")
	}
}

func TestRunBuildErrors(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "bad.org", "#+BEGIN_SRC\nunterminated\n")

	var buf bytes.Buffer
	err := runBuild(nil, &buf, false)
	if err == nil || !strings.Contains(err.Error(), "1 file(s) failed") {
		t.Errorf("Expected a failure count, got %v", err)
	}

	if err := runBuild([]string{"stray"}, &buf, false); err == nil {
		t.Error("runBuild should reject positional arguments")
	}
	if err := runBuild([]string{"--format", "pdf"}, &buf, false); err == nil {
		t.Error("runBuild should reject an unknown format")
	}
}

func TestRunConfig(t *testing.T) {
	env := newTestEnv(t)
	if err := os.Remove(config.ConfigPath()); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := runConfig([]string{"init"}, &buf); err != nil {
		t.Fatalf("config init failed: %v", err)
	}
	if _, err := os.Stat(config.ConfigPath()); err != nil {
		t.Fatalf("Config not written: %v", err)
	}

	if err := runConfig([]string{"init"}, &buf); err == nil {
		t.Error("config init should not overwrite without --force")
	}
	if err := runConfig([]string{"init", "--force"}, &buf); err != nil {
		t.Errorf("config init --force failed: %v", err)
	}

	buf.Reset()
	if err := runConfig(nil, &buf); err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"source_dir"`) {
		t.Errorf("Unexpected config output:\n%s", buf.String())
	}

	buf.Reset()
	if err := runConfig([]string{"path"}, &buf); err != nil || strings.TrimSpace(buf.String()) != filepath.Join(env.dir, "config.json") {
		t.Errorf("config path = %q (err %v)", buf.String(), err)
	}

	if err := runConfig([]string{"bogus"}, &buf); err == nil {
		t.Error("Unknown subcommand should fail")
	}
}
