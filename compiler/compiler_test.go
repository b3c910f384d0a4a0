package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"

	"lumen/lexer"
	"lumen/value"
)

func compileSource(t *testing.T, source string) *Chunk {
	t.Helper()
	tokens, lexErrs := lexer.New(source).Scan()
	chunk, err := Compile(tokens, lexErrs)
	require.NoError(t, err)
	return chunk
}

func TestCompilePrecedence(t *testing.T) {
	chunk := compileSource(t, "print 1 + 2 * 3;")
	require.Equal(t, []Opcode{
		OpConstant, OpConstant, OpConstant, OpMult, OpAdd, OpPrint, OpReturn,
	}, instructionOps(chunk))
}

func instructionOps(chunk *Chunk) []Opcode {
	var ops []Opcode
	ins := chunk.Instructions
	for offset := 0; offset < len(ins); {
		op := Opcode(ins[offset])
		ops = append(ops, op)
		def := definitions[op]
		offset += 1 + len(def.operandWidths)
	}
	return ops
}

func TestCompileGroupingOverridesPrecedence(t *testing.T) {
	chunk := compileSource(t, "print (1 + 2) * 3;")
	require.Equal(t, []Opcode{
		OpConstant, OpConstant, OpAdd, OpConstant, OpMult, OpPrint, OpReturn,
	}, instructionOps(chunk))
}

func TestCompileStringConcatenation(t *testing.T) {
	chunk := compileSource(t, `print "foo" + "bar";`)
	require.Equal(t, []Opcode{OpConstant, OpConstant, OpAdd, OpPrint, OpReturn}, instructionOps(chunk))
	require.Equal(t, value.String("foo"), chunk.Constants[0])
	require.Equal(t, value.String("bar"), chunk.Constants[1])
}

func TestCompileGlobalDefineAndGet(t *testing.T) {
	chunk := compileSource(t, "let a = 10; let b = 20; print a + b;")
	require.Equal(t, []Opcode{
		OpConstant, OpDefineGlobal,
		OpConstant, OpDefineGlobal,
		OpGetGlobal, OpGetGlobal, OpAdd, OpPrint,
		OpReturn,
	}, instructionOps(chunk))
}

func TestCompileBlockScopeUsesLocalsAndPopsOnExit(t *testing.T) {
	chunk := compileSource(t, "let a = 1; { let a = 2; print a; } print a;")
	require.Equal(t, []Opcode{
		OpConstant, OpDefineGlobal, // let a = 1 (global)
		OpConstant,   // let a = 2 (local, stays on stack)
		OpGetLocal,   // print a (inner)
		OpPrint,
		OpPop,        // end of block scope
		OpGetGlobal,  // print a (outer)
		OpPrint,
		OpReturn,
	}, instructionOps(chunk))
}

func TestCompileGlobalAssignmentDoesNotPop(t *testing.T) {
	chunk := compileSource(t, "let a = 1; a = a + 5; print a;")
	require.Equal(t, []Opcode{
		OpConstant, OpDefineGlobal,
		OpGetGlobal, OpConstant, OpAdd, OpSetGlobal, OpPop,
		OpGetGlobal, OpPrint,
		OpReturn,
	}, instructionOps(chunk))
}

func TestCompileInvalidAssignmentTargetIsCompileError(t *testing.T) {
	tokens, lexErrs := lexer.New("a + b = 1;").Scan()
	_, err := Compile(tokens, lexErrs)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid assignment target")
}

func TestCompileComparisonDesugaring(t *testing.T) {
	chunk := compileSource(t, "print 1 >= 2;")
	require.Equal(t, []Opcode{
		OpConstant, OpConstant, OpLessThan, OpNot, OpPrint, OpReturn,
	}, instructionOps(chunk))
}
