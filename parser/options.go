package parser

import (
	"io"
	"regexp"

	"github.com/charmbracelet/log"

	"github.com/gerunddev/orgtree/ast"
)

// Options configures a Parser. Use DefaultOptions and adjust the fields
// you need; the zero value disables every optional feature.
type Options struct {
	// Strict splits lists whose item markers change between ordered and
	// unordered, and reads the [-] checkbox as no checkbox at all.
	Strict bool

	// TodoKeywords are recognized in front of heading titles. #+TODO:
	// lines in the document add to this set for that parse only.
	TodoKeywords []string

	// Plugins are consulted in order.
	Plugins []Plugin

	ParseInlineFormatting bool
	ParseLinks            bool
	ParseTables           bool
	ParseCodeBlocks       bool
	ParseLists            bool

	// Logger receives debug records for locally recovered input
	// irregularities. Nil discards them.
	Logger *log.Logger
}

// DefaultOptions returns the default parser configuration.
func DefaultOptions() Options {
	return Options{
		TodoKeywords:          []string{"TODO", "DONE"},
		ParseInlineFormatting: true,
		ParseLinks:            true,
		ParseTables:           true,
		ParseCodeBlocks:       true,
		ParseLists:            true,
	}
}

// Plugin bundles the two extension seams of the parser.
type Plugin struct {
	Name string

	// Tokenizers run on inline text before the built-in link and
	// emphasis passes. A match for which Process returns nil stays text.
	Tokenizers []Tokenizer

	// Processors run once per matching node after the tree is assembled.
	// Returning nil removes the node, returning another node replaces it.
	Processors []Processor
}

// Tokenizer claims inline spans matching Pattern.
type Tokenizer struct {
	Pattern *regexp.Regexp
	Process func(text string, ctx *Context) *ast.Node
}

// Processor rewrites nodes of one kind.
type Processor struct {
	Kind    ast.Kind
	Process func(node *ast.Node, ctx *Context) *ast.Node
}

// Context is handed to plugin callbacks for the duration of one parse.
type Context struct {
	ParseID  string
	Document *ast.Node
	Options  Options
	Logger   *log.Logger
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}
