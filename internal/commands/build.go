package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/gerunddev/orgtree/ast"
	"github.com/gerunddev/orgtree/internal/build"
	"github.com/gerunddev/orgtree/internal/config"
	"github.com/gerunddev/orgtree/internal/logger"
	"github.com/gerunddev/orgtree/internal/state"
	"github.com/gerunddev/orgtree/internal/styles"
	"github.com/gerunddev/orgtree/internal/tui"
	"github.com/gerunddev/orgtree/parser"
)

// Build renders the source directory into the output directory
func Build(argv []string) {
	exitOnError(runBuild(argv, os.Stdout, isTerminal(os.Stdout)))
}

// Status prints the configuration and what the next build would do
func Status() {
	exitOnError(runStatus(os.Stdout))
}

// Browse opens the interactive source browser
func Browse() {
	exitOnError(runBrowse())
}

// buildConfig applies the directory flags of a to cfg
func buildConfig(cfg *config.Config, a *args) error {
	cfg.SourceDir = a.value("dir", cfg.SourceDir)
	cfg.OutputDir = a.value("out", cfg.OutputDir)
	cfg.Format = a.value("format", cfg.Format)
	if a.bools["strict"] {
		cfg.Strict = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return cfg.ExpandPaths()
}

func runBuild(argv []string, w io.Writer, interactive bool) error {
	a, err := parseArgs(argv, []string{"dir", "out", "format"}, []string{"dry-run", "force", "strict", "verbose"})
	if err != nil {
		return err
	}
	if len(a.positional) > 0 {
		return fmt.Errorf("usage: orgtree build [--dir d] [--out o] [--format f] [--dry-run] [--force]")
	}

	cfg, l, cleanup, err := setup(a.bools["verbose"])
	if err != nil {
		return err
	}
	defer cleanup()

	if err := buildConfig(cfg, a); err != nil {
		return err
	}

	st, err := state.Load(config.StateFilePath())
	if err != nil {
		l.StateError("load", err)
		return fmt.Errorf("failed to load state: %w", err)
	}

	b, err := build.NewBuilder(cfg, st, l)
	if err != nil {
		return err
	}
	b.DryRun = a.bools["dry-run"]
	b.Force = a.bools["force"]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var result *build.Result
	if interactive && !a.bools["verbose"] {
		result, err = buildWithSpinner(ctx, b)
	} else {
		result, err = b.Build(ctx)
		fmt.Fprint(w, tui.Summary(result, err))
	}
	if err != nil {
		return err
	}

	if !b.DryRun {
		if err := st.Save(config.StateFilePath()); err != nil {
			l.StateError("save", err)
			return fmt.Errorf("failed to save state: %w", err)
		}
	}

	if len(result.Errors) > 0 {
		return fmt.Errorf("%d file(s) failed", len(result.Errors))
	}
	return nil
}

// buildWithSpinner runs the build while a spinner shows progress.
// Quitting the display cancels the build.
func buildWithSpinner(ctx context.Context, b *build.Builder) (*build.Result, error) {
	status := "Rendering sources..."
	if b.DryRun {
		status = "Checking sources (dry run)..."
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(tui.InitBuildModel(status))
	done := make(chan tui.BuildMsg, 1)

	go func() {
		result, err := b.Build(ctx)
		msg := tui.BuildMsg{Result: result, Err: err}
		done <- msg
		p.Send(msg)
	}()

	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("failed to run progress display: %w", err)
	}

	select {
	case msg := <-done:
		return msg.Result, msg.Err
	default:
		cancel()
		<-done
		return nil, fmt.Errorf("build interrupted")
	}
}

// scanSources parses every source and compares it with the state
func scanSources(cfg *config.Config, st *state.State, p *parser.Parser, l *logger.Logger) (*tui.BrowseData, error) {
	paths, err := build.Sources(cfg)
	if err != nil {
		return nil, err
	}

	format := cfg.OutputFormat()
	data := &tui.BrowseData{
		SourceDir: cfg.SourceDir,
		OutputDir: cfg.OutputDir,
		Format:    string(format),
	}

	for _, path := range paths {
		rel, err := filepath.Rel(cfg.SourceDir, path)
		if err != nil {
			rel = path
		}
		info := tui.FileInfo{Rel: rel, Path: path}

		doc, err := build.ParseFile(p, path)
		if err != nil {
			l.ParseFailed(path, err)
			info.Status = tui.StatusError
			data.Files = append(data.Files, info)
			continue
		}

		for _, h := range doc.Collect(ast.Heading) {
			info.Headings++
			if h.TodoKeyword != "" {
				info.Todos++
			}
		}

		switch needed, err := st.NeedsRender(path, build.OutputPath(cfg.OutputDir, rel, format), string(format)); {
		case err != nil:
			l.FileError(path, err)
			info.Status = tui.StatusError
		case st.Files[path] == nil:
			info.Status = tui.StatusNew
		case needed:
			info.Status = tui.StatusStale
		default:
			info.Status = tui.StatusCurrent
		}

		data.Files = append(data.Files, info)
	}

	return data, nil
}

func runStatus(w io.Writer) error {
	cfg, l, cleanup, err := setup(false)
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := state.Load(config.StateFilePath())
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	p, err := newParser(cfg, l, false)
	if err != nil {
		return err
	}

	data, err := scanSources(cfg, st, p, l)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, styles.TitleStyle.Render("orgtree status"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, styles.LabelStyle.Render("Configuration"))
	fmt.Fprintf(w, "  Source directory: %s\n", styles.ValueStyle.Render(cfg.SourceDir))
	fmt.Fprintf(w, "  Output directory: %s\n", styles.ValueStyle.Render(cfg.OutputDir))
	fmt.Fprintf(w, "  Format:           %s\n", styles.ValueStyle.Render(data.Format))
	fmt.Fprintln(w)

	fmt.Fprintln(w, styles.LabelStyle.Render("Sources"))
	fmt.Fprintf(w, "  Org files:   %s\n", styles.ValueStyle.Render(fmt.Sprintf("%d", len(data.Files))))
	fmt.Fprintf(w, "  Tracked:     %s\n", styles.ValueStyle.Render(fmt.Sprintf("%d", len(st.Files))))
	fmt.Fprintf(w, "  Linked IDs:  %s\n", styles.ValueStyle.Render(fmt.Sprintf("%d", len(st.IDMap))))
	if at, rendered, ok := LastBuild(cfg.LogFile, 500); ok && !at.IsZero() {
		fmt.Fprintf(w, "  Last build:  %s\n", styles.ValueStyle.Render(
			fmt.Sprintf("%s, %d rendered", humanize.RelTime(at, time.Now(), "ago", "from now"), rendered)))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, styles.LabelStyle.Render("Pending"))
	pending := 0
	for _, f := range data.Files {
		switch f.Status {
		case tui.StatusNew, tui.StatusStale:
			pending++
			fmt.Fprintf(w, "  %s\n", styles.HighlightStyle.Render(fmt.Sprintf("%s %s (%s)", f.Status.Icon(), f.Rel, f.Status)))
		case tui.StatusError:
			fmt.Fprintf(w, "  %s\n", styles.Failure(f.Rel+" does not parse"))
		}
	}
	if pending == 0 {
		fmt.Fprintf(w, "  %s\n", styles.Success("All outputs current"))
	}

	return nil
}

func runBrowse() error {
	cfg, l, cleanup, err := setup(false)
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := state.Load(config.StateFilePath())
	if err != nil {
		return fmt.Errorf("failed to load state: %w", err)
	}
	p, err := newParser(cfg, l, false)
	if err != nil {
		return err
	}

	preview := func(path string, width int) (string, error) {
		return previewFile(p, st.IDMap, path, width)
	}

	prog := tea.NewProgram(tui.InitBrowseModel(preview), tea.WithAltScreen())
	go func() {
		data, err := scanSources(cfg, st, p, l)
		prog.Send(tui.BrowseMsg{Data: data, Err: err})
	}()

	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("failed to run browser: %w", err)
	}
	return nil
}
