package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrGrammar matches every *GrammarError.
	ErrGrammar = errors.New("grammar error")
	// ErrUnterminatedBlock matches every *UnterminatedBlockError.
	ErrUnterminatedBlock = errors.New("unterminated block")
)

// GrammarError reports configuration that cannot be compiled into the
// grammar, or source text that cannot be read at all.
type GrammarError struct {
	Line int // 1-based, zero when not tied to the source
	Msg  string
}

func (e *GrammarError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("grammar error at line %d: %s", e.Line, e.Msg)
	}
	return "grammar error: " + e.Msg
}

func (e *GrammarError) Is(target error) bool {
	return target == ErrGrammar
}

// UnterminatedBlockError reports a #+BEGIN_ line without its #+END_ line.
type UnterminatedBlockError struct {
	Block string // e.g. "SRC"
	Line  int    // line of the #+BEGIN_ marker
}

func (e *UnterminatedBlockError) Error() string {
	return fmt.Sprintf("unterminated #+BEGIN_%s block starting at line %d", e.Block, e.Line)
}

func (e *UnterminatedBlockError) Is(target error) bool {
	return target == ErrUnterminatedBlock
}
