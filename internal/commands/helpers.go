// Package commands implements the orgtree subcommands.
package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"

	"github.com/gerunddev/orgtree/ast"
	"github.com/gerunddev/orgtree/internal/config"
	"github.com/gerunddev/orgtree/internal/logger"
	"github.com/gerunddev/orgtree/internal/styles"
)

// args is the result of scanning a command line
type args struct {
	positional []string
	values     map[string]string
	bools      map[string]bool
}

func (a *args) value(name, fallback string) string {
	if v, ok := a.values[name]; ok {
		return v
	}
	return fallback
}

// parseArgs splits argv into positional arguments and --flags. Flags in
// valued take the next argument (or --flag=value); flags in bools take
// none. Any other flag is an error.
func parseArgs(argv []string, valued, bools []string) (*args, error) {
	a := &args{
		values: make(map[string]string),
		bools:  make(map[string]bool),
	}
	isValued := make(map[string]bool, len(valued))
	for _, v := range valued {
		isValued[v] = true
	}
	isBool := make(map[string]bool, len(bools))
	for _, b := range bools {
		isBool[b] = true
	}

	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		if arg == "--" {
			a.positional = append(a.positional, argv[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			a.positional = append(a.positional, arg)
			continue
		}

		name := strings.TrimLeft(arg, "-")
		value, hasValue := "", false
		if j := strings.IndexByte(name, '='); j >= 0 {
			name, value, hasValue = name[:j], name[j+1:], true
		}

		switch {
		case isValued[name]:
			if !hasValue {
				if i+1 >= len(argv) {
					return nil, fmt.Errorf("flag --%s needs a value", name)
				}
				i++
				value = argv[i]
			}
			a.values[name] = value
		case isBool[name]:
			if hasValue {
				return nil, fmt.Errorf("flag --%s takes no value", name)
			}
			a.bools[name] = true
		default:
			return nil, fmt.Errorf("unknown flag: %s", arg)
		}
	}

	return a, nil
}

// isTerminal reports whether f is an interactive terminal
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// setup loads the configuration and opens the log file. The returned
// cleanup closes the log.
func setup(verbose bool) (*config.Config, *logger.Logger, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := log.InfoLevel
	var also []io.Writer
	if verbose {
		level = log.DebugLevel
		also = append(also, os.Stderr)
	}

	l, cleanup, err := logger.NewFileLogger(cfg.LogFile, level, also...)
	if err != nil {
		l, cleanup = logger.NewMultiLogger(level, append(also, io.Discard)...), func() {}
	}

	l.ConfigLoaded(cfg.SourceDir, cfg.OutputDir, cfg.Format)
	return cfg, l, cleanup, nil
}

// exitOnError prints err and exits with status 1
func exitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, styles.Failure("Error: "+err.Error()))
	os.Exit(1)
}

// LastBuild scans the last maxLines lines of the log for the most recent
// "build completed" record and returns its time and rendered count.
func LastBuild(logPath string, maxLines int) (time.Time, int, bool) {
	content, err := os.ReadFile(logPath)
	if err != nil {
		return time.Time{}, 0, false
	}

	lines := strings.Split(string(content), "\n")
	if len(lines) > maxLines {
		lines = lines[len(lines)-maxLines:]
	}

	for i := len(lines) - 1; i >= 0; i-- {
		line := lines[i]
		if !strings.Contains(line, "build completed") {
			continue
		}

		// Format: 2025-11-27 14:11:57 INFO build completed rendered=3 ...
		var at time.Time
		if len(line) > 19 {
			if t, err := time.ParseInLocation(time.DateTime, line[:19], time.Local); err == nil {
				at = t
			}
		}

		rendered := 0
		if idx := strings.Index(line, "rendered="); idx != -1 {
			_, _ = fmt.Sscanf(line[idx:], "rendered=%d", &rendered) //nolint:errcheck // best effort parsing
		}
		return at, rendered, true
	}

	return time.Time{}, 0, false
}

// writeTree dumps doc like ast.Node.String, coloring kind names when
// color is set.
func writeTree(w io.Writer, doc *ast.Node, color bool) error {
	dump := doc.String()
	if !color {
		_, err := io.WriteString(w, dump)
		return err
	}

	var b strings.Builder
	for _, line := range strings.SplitAfter(dump, "\n") {
		if line == "" {
			continue
		}
		body := strings.TrimLeft(line, "\t")
		b.WriteString(line[:len(line)-len(body)])
		if strings.HasPrefix(body, "~") {
			b.WriteString(styles.DimStyle.Render("~"))
			body = body[1:]
		}
		end := strings.IndexFunc(body, func(r rune) bool {
			return !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z')
		})
		if end < 0 {
			end = len(body)
		}
		if k, ok := kindByName[body[:end]]; ok {
			b.WriteString(styles.KindStyle(k).Render(body[:end]))
			body = body[end:]
		}
		b.WriteString(body)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

var kindByName = func() map[string]ast.Kind {
	m := make(map[string]ast.Kind)
	for k := ast.Document; k <= ast.Timestamp; k++ {
		m[k.String()] = k
	}
	return m
}()
