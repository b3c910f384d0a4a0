// Package compiler implements lumen's single-pass Pratt compiler: tokens go
// in, a bytecode Chunk comes out, with no persistent AST in between.
package compiler

import (
	"math"

	"github.com/hashicorp/go-multierror"
	"github.com/josharian/intern"

	"lumen/token"
	"lumen/value"
)

// Precedence tiers, ascending.
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecCall
	PrecPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence Precedence
}

// rules is the static dispatch table keyed by token kind, populated in
// init() below.
var rules map[token.Kind]parseRule

func init() {
	rules = map[token.Kind]parseRule{
		token.LeftParen:     {prefix: (*Compiler).grouping},
		token.Minus:         {prefix: (*Compiler).unary, infix: (*Compiler).binary, precedence: PrecTerm},
		token.Plus:          {infix: (*Compiler).binary, precedence: PrecTerm},
		token.Slash:         {infix: (*Compiler).binary, precedence: PrecFactor},
		token.Star:          {infix: (*Compiler).binary, precedence: PrecFactor},
		token.Bang:          {prefix: (*Compiler).unary},
		token.BangEqual:     {infix: (*Compiler).binary, precedence: PrecEquality},
		token.EqualEqual:    {infix: (*Compiler).binary, precedence: PrecEquality},
		token.Greater:       {infix: (*Compiler).binary, precedence: PrecComparison},
		token.GreaterEqual:  {infix: (*Compiler).binary, precedence: PrecComparison},
		token.Less:          {infix: (*Compiler).binary, precedence: PrecComparison},
		token.LessEqual:     {infix: (*Compiler).binary, precedence: PrecComparison},
		token.Ident:         {prefix: (*Compiler).variable},
		token.String:        {prefix: (*Compiler).string},
		token.Number:        {prefix: (*Compiler).number},
		token.True:          {prefix: (*Compiler).literal},
		token.False:         {prefix: (*Compiler).literal},
		token.Nil:           {prefix: (*Compiler).literal},
	}
}

func (c *Compiler) rule(kind token.Kind) parseRule {
	return rules[kind]
}

// Local is a name bound inside a block; its slot equals its index in the
// Compiler's locals stack, which shadows the VM's operand stack one-for-one.
type Local struct {
	name  string
	depth int
}

// Uninitialized marks a local whose initializer is still being compiled, so
// its own name can't resolve inside that initializer.
const Uninitialized = -1

// Compiler holds all state for one compile call: the token stream, a cursor,
// the chunk under construction, and the locals/scope-depth bookkeeping that
// replaces a persistent AST.
type Compiler struct {
	tokens []token.Token
	cursor int

	chunk *Chunk

	locals     []Local
	scopeDepth int

	errors    *multierror.Error
	panicking bool
}

// Compile runs the single-pass compiler over tokens and returns the
// resulting Chunk. Compilation refuses to proceed (returns a nil Chunk) if
// lexErrs is non-empty, returning the first lex error wrapped in a LexError.
// On a compile error, the first one encountered is returned; the later ones
// are collected during the pass but not returned.
func Compile(tokens []token.Token, lexErrs []error) (*Chunk, error) {
	if len(lexErrs) > 0 {
		return nil, &LexError{Err: lexErrs[0]}
	}
	c := &Compiler{tokens: tokens, chunk: &Chunk{}}
	for !c.check(token.Eof) {
		c.declaration()
	}
	c.emitOp(OpReturn)
	if err := c.errors.ErrorOrNil(); err != nil {
		if merr, ok := err.(*multierror.Error); ok && len(merr.Errors) > 0 {
			return nil, merr.Errors[0]
		}
		return nil, err
	}
	return c.chunk, nil
}

// --- token cursor -----------------------------------------------------

func (c *Compiler) peek() token.Token {
	return c.tokens[c.cursor]
}

func (c *Compiler) previous() token.Token {
	return c.tokens[c.cursor-1]
}

func (c *Compiler) advance() token.Token {
	tok := c.tokens[c.cursor]
	if tok.Kind != token.Eof {
		c.cursor++
	}
	return tok
}

func (c *Compiler) check(kind token.Kind) bool {
	return c.peek().Kind == kind
}

func (c *Compiler) match(kind token.Kind) bool {
	if !c.check(kind) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(kind token.Kind, message string) token.Token {
	if c.check(kind) {
		return c.advance()
	}
	c.errorAtCurrent(message)
	return c.peek()
}

// --- emission -----------------------------------------------------------

func (c *Compiler) line() int {
	if c.cursor == 0 {
		return c.tokens[0].Line
	}
	return c.previous().Line
}

func (c *Compiler) emitOp(op Opcode) int {
	return c.chunk.WriteOp(op, c.line())
}

func (c *Compiler) emitOperand(op Opcode, operand byte) int {
	c.chunk.WriteOp(op, c.line())
	return c.chunk.WriteByte(operand, c.line())
}

func (c *Compiler) makeConstant(v value.Value) byte {
	if len(c.chunk.Constants) >= math.MaxUint8+1 {
		c.error("too many constants in one chunk")
		return 0
	}
	return c.chunk.AddConstant(v)
}

// --- declarations and statements -----------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.match(token.Let):
		c.letDeclaration()
	default:
		c.statement()
	}
	if c.panicking {
		c.synchronize()
	}
}

func (c *Compiler) letDeclaration() {
	global := c.parseVariable("expect variable name")

	if c.match(token.Equal) {
		c.expression()
	} else {
		c.emitOp(OpNil)
	}
	c.consume(token.Semicolon, "expect ';' after variable declaration")
	c.defineVariable(global)
}

// parseVariable consumes the identifier and, for a local, declares it
// immediately; the returned byte is only meaningful for a global (the
// constant index).
func (c *Compiler) parseVariable(message string) byte {
	name := c.consume(token.Ident, message)
	c.declareLocal(name)
	if c.scopeDepth > 0 {
		return 0
	}
	return c.identifierConstant(name)
}

func (c *Compiler) identifierConstant(name token.Token) byte {
	return c.makeConstant(value.String(intern.String(name.Lexeme)))
}

func (c *Compiler) declareLocal(name token.Token) {
	if c.scopeDepth == 0 {
		return
	}
	for i := len(c.locals) - 1; i >= 0; i-- {
		local := c.locals[i]
		if local.depth != Uninitialized && local.depth < c.scopeDepth {
			break
		}
		if local.name == name.Lexeme {
			c.error("already a variable with this name in this scope")
		}
	}
	c.locals = append(c.locals, Local{name: name.Lexeme, depth: Uninitialized})
}

// defineVariable binds the just-declared variable: for a global it emits
// DefineGlobal; for a local it simply marks the local initialized, since its
// value is already resident on the operand stack.
func (c *Compiler) defineVariable(global byte) {
	if c.scopeDepth > 0 {
		c.locals[len(c.locals)-1].depth = c.scopeDepth
		return
	}
	c.emitOperand(OpDefineGlobal, global)
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.Print):
		c.printStatement()
	case c.match(token.LeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.Semicolon, "expect ';' after value")
	c.emitOp(OpPrint)
}

func (c *Compiler) block() {
	for !c.check(token.RightBrace) && !c.check(token.Eof) {
		c.declaration()
	}
	c.consume(token.RightBrace, "expect '}' after block")
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.Semicolon, "expect ';' after expression")
	c.emitOp(OpPop)
}

func (c *Compiler) beginScope() {
	c.scopeDepth++
}

// endScope pops one runtime slot per local going out of scope, exactly
// mirroring the number of locals removed.
func (c *Compiler) endScope() {
	c.scopeDepth--
	for len(c.locals) > 0 && c.locals[len(c.locals)-1].depth > c.scopeDepth {
		c.emitOp(OpPop)
		c.locals = c.locals[:len(c.locals)-1]
	}
}

// --- expressions ----------------------------------------------------------

func (c *Compiler) expression() {
	c.parsePrecedence(PrecAssignment)
}

func (c *Compiler) parsePrecedence(prec Precedence) {
	c.advance()
	prefix := c.rule(c.previous().Kind).prefix
	if prefix == nil {
		c.error("expect expression")
		return
	}
	canAssign := prec <= PrecAssignment
	prefix(c, canAssign)

	for prec <= c.rule(c.peek().Kind).precedence {
		c.advance()
		infix := c.rule(c.previous().Kind).infix
		infix(c, canAssign)
	}

	if canAssign && c.match(token.Equal) {
		c.error("invalid assignment target")
	}
}

func (c *Compiler) number(_ bool) {
	c.emitConstant(value.Number(c.previous().Literal.(float64)))
}

func (c *Compiler) string(_ bool) {
	c.emitConstant(value.String(c.previous().Literal.(string)))
}

func (c *Compiler) emitConstant(v value.Value) {
	c.emitOperand(OpConstant, c.makeConstant(v))
}

func (c *Compiler) literal(_ bool) {
	switch c.previous().Kind {
	case token.False:
		c.emitOp(OpFalse)
	case token.True:
		c.emitOp(OpTrue)
	case token.Nil:
		c.emitOp(OpNil)
	}
}

func (c *Compiler) grouping(_ bool) {
	c.expression()
	c.consume(token.RightParen, "expect ')' after expression")
}

func (c *Compiler) unary(_ bool) {
	op := c.previous().Kind
	c.parsePrecedence(PrecUnary)
	switch op {
	case token.Bang:
		c.emitOp(OpNot)
	case token.Minus:
		c.emitOp(OpNegate)
	}
}

// binary emits each comparison/equality/arithmetic operator; a variant that
// has no dedicated opcode is synthesized from its opposite plus Not.
func (c *Compiler) binary(_ bool) {
	op := c.previous().Kind
	rule := c.rule(op)
	c.parsePrecedence(rule.precedence + 1)

	switch op {
	case token.BangEqual:
		c.emitOp(OpEqual)
		c.emitOp(OpNot)
	case token.EqualEqual:
		c.emitOp(OpEqual)
	case token.Greater:
		c.emitOp(OpGreaterThan)
	case token.GreaterEqual:
		c.emitOp(OpLessThan)
		c.emitOp(OpNot)
	case token.Less:
		c.emitOp(OpLessThan)
	case token.LessEqual:
		c.emitOp(OpGreaterThan)
		c.emitOp(OpNot)
	case token.Plus:
		c.emitOp(OpAdd)
	case token.Minus:
		c.emitOp(OpSubtract)
	case token.Star:
		c.emitOp(OpMult)
	case token.Slash:
		c.emitOp(OpDiv)
	}
}

func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous(), canAssign)
}

// namedVariable resolves name to a local slot or a global constant index and
// emits the matching Get/Set opcode, honoring canAssign.
func (c *Compiler) namedVariable(name token.Token, canAssign bool) {
	slot := c.resolveLocal(name)

	var getOp, setOp Opcode
	var arg byte
	if slot != Uninitialized {
		arg = byte(slot)
		getOp, setOp = OpGetLocal, OpSetLocal
	} else {
		arg = c.identifierConstant(name)
		getOp, setOp = OpGetGlobal, OpSetGlobal
	}

	if canAssign && c.match(token.Equal) {
		c.expression()
		c.emitOperand(setOp, arg)
		return
	}
	c.emitOperand(getOp, arg)
}

// resolveLocal scans locals from innermost to outermost, returning
// Uninitialized (-1) when name is not locally bound — the caller then
// treats it as a global.
func (c *Compiler) resolveLocal(name token.Token) int {
	for i := len(c.locals) - 1; i >= 0; i-- {
		local := c.locals[i]
		if local.name == name.Lexeme {
			if local.depth == Uninitialized {
				c.error("can't read local variable in its own initializer")
			}
			return i
		}
	}
	return Uninitialized
}

// --- error handling ---------------------------------------------------------

func (c *Compiler) error(message string) {
	c.errorAt(c.previous(), message)
}

func (c *Compiler) errorAtCurrent(message string) {
	c.errorAt(c.peek(), message)
}

func (c *Compiler) errorAt(tok token.Token, message string) {
	if c.panicking {
		return
	}
	c.panicking = true
	c.errors = multierror.Append(c.errors, &CompileError{Line: tok.Line, Lexeme: tok.Lexeme, Reason: message})
}

// synchronize skips tokens until a plausible statement boundary: just past
// a ';', or at a token that starts a new declaration/statement.
func (c *Compiler) synchronize() {
	c.panicking = false
	for !c.check(token.Eof) {
		if c.previous().Kind == token.Semicolon {
			return
		}
		switch c.peek().Kind {
		case token.Struct, token.Fn, token.Let, token.For, token.If, token.While, token.Print, token.Return:
			return
		}
		c.advance()
	}
}
