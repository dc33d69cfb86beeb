package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gerunddev/orgtree/internal/build"
	"github.com/gerunddev/orgtree/internal/config"
	"github.com/gerunddev/orgtree/internal/diff"
	"github.com/gerunddev/orgtree/internal/logger"
	"github.com/gerunddev/orgtree/internal/state"
	"github.com/gerunddev/orgtree/internal/styles"
	"github.com/gerunddev/orgtree/internal/tui"
	"github.com/gerunddev/orgtree/parser"
	"github.com/gerunddev/orgtree/render"
)

const termWidth = 100

// Dump prints the parsed tree of a file
func Dump(argv []string) {
	exitOnError(runDump(argv, os.Stdout, isTerminal(os.Stdout)))
}

// Render converts a file to html, md or org
func Render(argv []string) {
	exitOnError(runRender(argv, os.Stdout))
}

// View previews a file in the terminal
func View(argv []string) {
	exitOnError(runView(argv, os.Stdout, isTerminal(os.Stdout)))
}

// Check verifies that files round-trip through the org renderer
func Check(argv []string) {
	clean, err := runCheck(argv, os.Stdout)
	exitOnError(err)
	if !clean {
		os.Exit(1)
	}
}

func newParser(cfg *config.Config, l *logger.Logger, strict bool) (*parser.Parser, error) {
	opts := cfg.ParserOptions(l.Logger)
	if strict {
		opts.Strict = true
	}
	p, err := parser.New(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to configure parser: %w", err)
	}
	return p, nil
}

// parseOne loads the config and compiles a parser for the single file
// argument of a
func parseOne(a *args, usage string) (*config.Config, *logger.Logger, func(), *parser.Parser, string, error) {
	if len(a.positional) != 1 {
		return nil, nil, nil, nil, "", fmt.Errorf("usage: %s", usage)
	}

	cfg, l, cleanup, err := setup(a.bools["verbose"])
	if err != nil {
		return nil, nil, nil, nil, "", err
	}

	p, err := newParser(cfg, l, a.bools["strict"])
	if err != nil {
		cleanup()
		return nil, nil, nil, nil, "", err
	}

	return cfg, l, cleanup, p, a.positional[0], nil
}

func runDump(argv []string, w io.Writer, color bool) error {
	a, err := parseArgs(argv, nil, []string{"strict", "verbose", "no-color"})
	if err != nil {
		return err
	}

	_, l, cleanup, p, path, err := parseOne(a, "orgtree dump <file>")
	if err != nil {
		return err
	}
	defer cleanup()

	doc, err := build.ParseFile(p, path)
	if err != nil {
		l.ParseFailed(path, err)
		return err
	}

	return writeTree(w, doc, color && !a.bools["no-color"])
}

func runRender(argv []string, w io.Writer) error {
	a, err := parseArgs(argv, []string{"format", "out"}, []string{"strict", "verbose"})
	if err != nil {
		return err
	}

	cfg, l, cleanup, p, path, err := parseOne(a, "orgtree render <file> [--format html|md|org] [--out path]")
	if err != nil {
		return err
	}
	defer cleanup()

	format := cfg.OutputFormat()
	if v, ok := a.values["format"]; ok {
		if format, err = render.ParseFormat(v); err != nil {
			return err
		}
	}

	doc, err := build.ParseFile(p, path)
	if err != nil {
		l.ParseFailed(path, err)
		return err
	}

	out, err := render.New(format, cfg.RenderOptions(loadIDMap(l))).Render(doc)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}

	dest := a.value("out", "")
	if dest == "" {
		_, err = io.WriteString(w, out)
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(dest, []byte(out), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}
	l.FileRendered(path, dest, len(out))
	fmt.Fprintln(w, styles.Success(fmt.Sprintf("Wrote %s", dest)))
	return nil
}

// loadIDMap returns the ID map recorded by the last build
func loadIDMap(l *logger.Logger) map[string]string {
	st, err := state.Load(config.StateFilePath())
	if err != nil {
		l.StateError("load", err)
		return nil
	}
	return st.IDMap
}

// previewFile renders the file at path as markdown for the terminal
func previewFile(p *parser.Parser, idMap map[string]string, path string, width int) (string, error) {
	doc, err := build.ParseFile(p, path)
	if err != nil {
		return "", err
	}
	md, err := render.NewMarkdown(render.MarkdownOptions{IDMap: idMap}).Render(doc)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", path, err)
	}
	return tui.RenderMarkdown(md, width), nil
}

func runView(argv []string, w io.Writer, interactive bool) error {
	a, err := parseArgs(argv, nil, []string{"strict", "verbose", "plain"})
	if err != nil {
		return err
	}

	_, l, cleanup, p, path, err := parseOne(a, "orgtree view <file>")
	if err != nil {
		return err
	}
	defer cleanup()

	content, err := previewFile(p, loadIDMap(l), path, termWidth)
	if err != nil {
		l.FileError(path, err)
		return err
	}

	if interactive && !a.bools["plain"] {
		return tui.RunPager(filepath.Base(path), content)
	}
	_, err = io.WriteString(w, content)
	return err
}

func runCheck(argv []string, w io.Writer) (bool, error) {
	a, err := parseArgs(argv, nil, []string{"strict", "verbose", "fix"})
	if err != nil {
		return false, err
	}
	if len(a.positional) == 0 {
		return false, fmt.Errorf("usage: orgtree check <file>... [--fix]")
	}

	cfg, l, cleanup, err := setup(a.bools["verbose"])
	if err != nil {
		return false, err
	}
	defer cleanup()

	p, err := newParser(cfg, l, a.bools["strict"])
	if err != nil {
		return false, err
	}

	clean := true
	for _, path := range a.positional {
		report, err := diff.CheckFile(p, path)
		if err != nil {
			l.FileError(path, err)
			fmt.Fprintln(w, styles.Failure(err.Error()))
			clean = false
			continue
		}

		if !report.TreeEqual {
			l.RoundTripMismatch(path, report.ChangedLines)
			fmt.Fprintln(w, styles.Failure(fmt.Sprintf("%s: rendering does not parse back to the same tree", path)))
			clean = false
			continue
		}

		if report.Clean() {
			fmt.Fprintln(w, styles.Success(path))
			continue
		}

		if a.bools["fix"] {
			if err := os.WriteFile(path, []byte(report.Rendered), 0644); err != nil {
				return false, fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintln(w, styles.Success(fmt.Sprintf("%s: rewrote %d line(s)", path, report.ChangedLines)))
			continue
		}

		fmt.Fprintln(w, styles.Warning(fmt.Sprintf("%s: %d line(s) not in canonical form", path, report.ChangedLines)))
		fmt.Fprint(w, diff.Render(report, termWidth))
		clean = false
	}

	return clean, nil
}
