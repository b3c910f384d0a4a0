package compiler

import "fmt"

// CompileError reports a single parse-time failure: the offending token's
// lexeme and line plus a short diagnostic.
type CompileError struct {
	Line   int
	Lexeme string
	Reason string
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("💥 CompileError: line %d at %q: %s", e.Line, e.Lexeme, e.Reason)
}

// LexError wraps a soft error produced by the lexer so the compiler can
// refuse to proceed when any are present.
type LexError struct {
	Err error
}

func (e *LexError) Error() string {
	return fmt.Sprintf("💥 LexError: %s", e.Err)
}
