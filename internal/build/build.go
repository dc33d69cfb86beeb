// Package build renders a directory of org files into an output tree,
// skipping sources whose last rendering is still current.
package build

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/gerunddev/orgtree/ast"
	"github.com/gerunddev/orgtree/internal/config"
	"github.com/gerunddev/orgtree/internal/logger"
	"github.com/gerunddev/orgtree/internal/state"
	"github.com/gerunddev/orgtree/parser"
	"github.com/gerunddev/orgtree/render"
)

// SourceExt is the extension of files picked up by a build.
const SourceExt = ".org"

// Builder renders every source under the configured directory.
type Builder struct {
	config *config.Config
	state  *state.State
	parser *parser.Parser
	log    *logger.Logger
	format render.Format

	// DryRun reports what would be rendered without writing files or
	// touching the state.
	DryRun bool
	// Force renders every source regardless of the state.
	Force bool
}

// Result summarizes one build.
type Result struct {
	Rendered  []string
	Skipped   int
	Removed   []string
	Errors    []error
	Bytes     int64
	DryRun    bool
	StartTime time.Time
	EndTime   time.Time
}

// NewBuilder compiles the parser configuration of cfg.
func NewBuilder(cfg *config.Config, st *state.State, log *logger.Logger) (*Builder, error) {
	if log == nil {
		log = logger.Discard()
	}

	p, err := parser.New(cfg.ParserOptions(log.Logger))
	if err != nil {
		return nil, fmt.Errorf("failed to configure parser: %w", err)
	}

	return &Builder{
		config: cfg,
		state:  st,
		parser: p,
		log:    log,
		format: cfg.OutputFormat(),
	}, nil
}

// SetFormat overrides the configured output format.
func (b *Builder) SetFormat(f render.Format) {
	b.format = f
}

type source struct {
	path   string
	rel    string
	output string
	doc    *ast.Node
}

// Build parses every source, refreshes the ID map and renders the
// sources that changed since the last build. Per-file failures are
// collected in the result; only scanning failures abort the build.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	result := &Result{StartTime: time.Now(), DryRun: b.DryRun}
	b.log.BuildStarted(b.config.SourceDir, b.config.OutputDir, string(b.format))

	paths, err := Sources(b.config)
	if err != nil {
		return nil, err
	}

	var sources []*source
	present := make(map[string]bool, len(paths))
	idMap := make(map[string]string)

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		present[path] = true

		rel, err := filepath.Rel(b.config.SourceDir, path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("%s: %w", path, err))
			continue
		}

		doc, err := ParseFile(b.parser, path)
		if err != nil {
			b.log.ParseFailed(path, err)
			result.Errors = append(result.Errors, err)
			continue
		}

		if id := FileID(doc); id != "" {
			idMap[id] = NoteName(rel)
		}

		sources = append(sources, &source{
			path:   path,
			rel:    rel,
			output: OutputPath(b.config.OutputDir, rel, b.format),
			doc:    doc,
		})
	}

	renderer := render.New(b.format, b.config.RenderOptions(idMap))

	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if !b.Force {
			needed, err := b.state.NeedsRender(src.path, src.output, string(b.format))
			if err != nil {
				b.log.FileError(src.path, err)
				result.Errors = append(result.Errors, err)
				continue
			}
			if !needed {
				b.log.Skipped(src.path, "unchanged")
				result.Skipped++
				continue
			}
		}

		out, err := renderer.Render(src.doc)
		if err != nil {
			b.log.FileError(src.path, err)
			result.Errors = append(result.Errors, fmt.Errorf("failed to render %s: %w", src.rel, err))
			continue
		}

		result.Rendered = append(result.Rendered, src.rel)
		result.Bytes += int64(len(out))

		if b.DryRun {
			continue
		}

		if err := writeFile(src.output, out); err != nil {
			b.log.FileError(src.output, err)
			result.Errors = append(result.Errors, err)
			continue
		}
		b.log.FileRendered(src.path, src.output, len(out))

		if err := b.state.Update(src.path, src.output, string(b.format)); err != nil {
			b.log.StateError("update", err)
			result.Errors = append(result.Errors, err)
		}
	}

	if !b.DryRun {
		result.Removed = b.state.Prune(present)
		sort.Strings(result.Removed)
		for id := range b.state.IDMap {
			delete(b.state.IDMap, id)
		}
		for id, name := range idMap {
			b.state.IDMap[id] = name
		}
	}

	result.EndTime = time.Now()
	b.log.BuildCompleted(len(result.Rendered), result.Skipped, len(result.Errors),
		result.Bytes, result.EndTime.Sub(result.StartTime))

	return result, nil
}

// String returns a human-readable summary of the build result
func (r *Result) String() string {
	verb := "rendered"
	if r.DryRun {
		verb = "would render"
	}
	return fmt.Sprintf(
		"Build complete: %d file(s) %s (%s), %d unchanged, %d error(s) (took %v)",
		len(r.Rendered),
		verb,
		humanize.Bytes(uint64(r.Bytes)),
		r.Skipped,
		len(r.Errors),
		r.EndTime.Sub(r.StartTime).Round(time.Millisecond),
	)
}

// ParseFile reads and parses one source file.
func ParseFile(p *parser.Parser, path string) (*ast.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	doc, err := p.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

// Sources lists the org files of cfg.SourceDir, leaving out excluded
// files and anything under the output directory.
func Sources(cfg *config.Config) ([]string, error) {
	paths, err := ScanDirectory(cfg.SourceDir, SourceExt, cfg.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", cfg.SourceDir, err)
	}

	sources := paths[:0]
	for _, path := range paths {
		if !within(path, cfg.OutputDir) {
			sources = append(sources, path)
		}
	}
	return sources, nil
}

// ScanDirectory returns the files under dir with extension ext, sorted.
// Files or directories whose relative path or base name matches one of
// exclude are skipped, as are hidden directories.
func ScanDirectory(dir, ext string, exclude []string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if rel != "." && excluded(rel, exclude) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if rel != "." && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if filepath.Ext(path) == ext {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func excluded(rel string, patterns []string) bool {
	rel = filepath.ToSlash(rel)
	base := filepath.Base(rel)
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// OutputPath maps a source path relative to the source directory onto
// the output directory with the extension of f.
func OutputPath(outputDir, rel string, f render.Format) string {
	return filepath.Join(outputDir, strings.TrimSuffix(rel, filepath.Ext(rel))+f.Ext())
}

// NoteName is the link target other notes use for rel: its slash
// separated path without extension.
func NoteName(rel string) string {
	return filepath.ToSlash(strings.TrimSuffix(rel, filepath.Ext(rel)))
}

// FileID returns the ID property of the file-level PROPERTIES drawer.
func FileID(doc *ast.Node) string {
	for _, c := range doc.Children {
		if c.Kind == ast.Heading {
			return ""
		}
		if c.Kind != ast.Drawer || !strings.EqualFold(c.Name, "PROPERTIES") {
			continue
		}
		for _, e := range c.Entries {
			if strings.EqualFold(e.Key, "ID") {
				return strings.TrimSpace(e.Value)
			}
		}
	}
	return ""
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
