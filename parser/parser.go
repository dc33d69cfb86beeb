// Package parser turns org-style plain text into an ast tree.
//
// Parsing runs in fixed stages: the structural grammar splits the source
// into block nodes and leaves each title, paragraph, item line and table
// cell as one opaque Text; list items are collected as flat indented
// records and rebuilt into nested lists; the inline segmenter then
// rewrites every such Text into links, emphasis and code spans; finally
// the assembler links parents, merges #+KEY: properties and runs plugin
// processors.
//
// Emphasis passes run one kind at a time (bold, italic, underline,
// strikethrough, code, verbatim) over the Text nodes left by the previous
// pass, so markup of one kind never nests inside another.
package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gerunddev/orgtree/ast"
)

// Parser holds a compiled configuration. It is safe to reuse for many
// Parse calls; calls do not share state.
type Parser struct {
	opts       Options
	keywords   map[string]bool
	tokenizers []Tokenizer
	processors []Processor
	log        *log.Logger
}

// New validates opts and compiles them into a Parser.
func New(opts Options) (*Parser, error) {
	p := &Parser{
		opts:     opts,
		keywords: make(map[string]bool),
		log:      opts.Logger,
	}
	if p.log == nil {
		p.log = discardLogger()
	}

	for _, kw := range opts.TodoKeywords {
		if kw == "" || strings.IndexFunc(kw, unicode.IsSpace) >= 0 {
			return nil, &GrammarError{Msg: fmt.Sprintf("invalid TODO keyword %q", kw)}
		}
		p.keywords[kw] = true
	}

	for _, pl := range opts.Plugins {
		for i, tk := range pl.Tokenizers {
			if tk.Pattern == nil || tk.Process == nil {
				return nil, &GrammarError{Msg: fmt.Sprintf("plugin %q: tokenizer %d is incomplete", pl.Name, i)}
			}
			p.tokenizers = append(p.tokenizers, tk)
		}
		for i, pr := range pl.Processors {
			if pr.Process == nil {
				return nil, &GrammarError{Msg: fmt.Sprintf("plugin %q: processor %d has no Process func", pl.Name, i)}
			}
			p.processors = append(p.processors, pr)
		}
	}

	return p, nil
}

// Parse parses source with the default options.
func Parse(source string) (*ast.Node, error) {
	return ParseWith(source, DefaultOptions())
}

// ParseWith parses source with opts.
func ParseWith(source string, opts Options) (*ast.Node, error) {
	p, err := New(opts)
	if err != nil {
		return nil, err
	}
	return p.Parse(source)
}

// Parse converts source into a Document node. On error no tree is
// returned.
func (p *Parser) Parse(source string) (*ast.Node, error) {
	if !utf8.ValidString(source) {
		return nil, &GrammarError{Line: invalidLine(source), Msg: "source is not valid UTF-8"}
	}

	ctx := &Context{
		ParseID: uuid.NewString(),
		Options: p.opts,
	}
	ctx.Logger = p.log.With("parse_id", ctx.ParseID)
	ctx.Logger.Debug("parse started", "bytes", len(source))

	lines := splitLines(source)
	bp := &blockParser{
		p:        p,
		log:      ctx.Logger,
		lines:    lines,
		keywords: p.documentKeywords(lines),
		props:    make(map[string]string),
	}

	doc, err := bp.parseDocument()
	if err != nil {
		ctx.Logger.Debug("parse failed", "error", err)
		return nil, err
	}
	ctx.Document = doc

	p.assemble(doc, bp.props, ctx)

	ctx.Logger.Debug("parse finished", "nodes", countNodes(doc))
	return doc, nil
}

// documentKeywords returns the configured TODO keywords plus those
// declared by #+TODO: style lines of the document.
func (p *Parser) documentKeywords(lines []line) map[string]bool {
	kw := make(map[string]bool, len(p.keywords))
	for k := range p.keywords {
		kw[k] = true
	}
	for _, l := range lines {
		m := keywordRe.FindStringSubmatch(l.text)
		if m == nil {
			continue
		}
		switch strings.ToUpper(m[1]) {
		case "TODO", "SEQ_TODO", "TYP_TODO":
			for _, f := range strings.Fields(m[2]) {
				if f == "|" {
					continue
				}
				// WAIT(w@/!) declares WAIT with a fast access key.
				if i := strings.IndexByte(f, '('); i > 0 {
					f = f[:i]
				}
				kw[f] = true
			}
		}
	}
	return kw
}

type line struct {
	text   string
	num    int // 1-based
	offset int // byte offset of the first character
}

func splitLines(source string) []line {
	source = strings.ReplaceAll(source, "\r\n", "\n")
	var lines []line
	offset := 0
	for i, t := range strings.Split(source, "\n") {
		lines = append(lines, line{text: t, num: i + 1, offset: offset})
		offset += len(t) + 1
	}
	return lines
}

func invalidLine(source string) int {
	n := 1
	for i := 0; i < len(source); {
		r, size := utf8.DecodeRuneInString(source[i:])
		if r == utf8.RuneError && size <= 1 {
			return n
		}
		if r == '\n' {
			n++
		}
		i += size
	}
	return n
}

func countNodes(n *ast.Node) int {
	count := 0
	n.Walk(func(*ast.Node, bool) ast.WalkStatus {
		count++
		return ast.GoToNext
	})
	return count / 2
}
