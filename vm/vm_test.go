package vm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"lumen/compiler"
	"lumen/lexer"
	"lumen/value"
)

func run(t *testing.T, source string) (string, error) {
	t.Helper()
	tokens, lexErrs := lexer.New(source).Scan()
	chunk, err := compiler.Compile(tokens, lexErrs)
	require.NoError(t, err)

	var out bytes.Buffer
	machine := New()
	machine.out = &out
	runErr := machine.Run(chunk)
	return out.String(), runErr
}

func TestRunArithmeticPrecedence(t *testing.T) {
	out, err := run(t, "print 1 + 2 * 3;")
	require.NoError(t, err)
	require.Equal(t, "7\n", out)
}

func TestRunGroupingOverridesPrecedence(t *testing.T) {
	out, err := run(t, "print (1 + 2) * 3;")
	require.NoError(t, err)
	require.Equal(t, "9\n", out)
}

func TestRunStringConcatenation(t *testing.T) {
	out, err := run(t, `print "foo" + "bar";`)
	require.NoError(t, err)
	require.Equal(t, "foobar\n", out)
}

func TestRunGlobalsPersistWithinOneRun(t *testing.T) {
	out, err := run(t, "let a = 10; let b = 20; print a + b;")
	require.NoError(t, err)
	require.Equal(t, "30\n", out)
}

func TestRunBlockScopeShadowsThenRestores(t *testing.T) {
	out, err := run(t, "let a = 1; { let a = 2; print a; } print a;")
	require.NoError(t, err)
	require.Equal(t, "2\n1\n", out)
}

func TestRunGlobalAssignmentExpressionValue(t *testing.T) {
	out, err := run(t, "let a = 1; a = a + 5; print a;")
	require.NoError(t, err)
	require.Equal(t, "6\n", out)
}

func TestRunAddTypeMismatchIsRuntimeError(t *testing.T) {
	_, err := run(t, `print 1 + "x";`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "operands must be two numbers or two strings")
}

func TestRunUndefinedGlobalIsRuntimeError(t *testing.T) {
	_, err := run(t, "print unknown;")
	require.Error(t, err)
	require.Contains(t, err.Error(), "undefined variable")
}

func TestRunReassignUndefinedGlobalIsRuntimeError(t *testing.T) {
	_, err := run(t, "x = 1;")
	require.Error(t, err)
	require.Contains(t, err.Error(), "undefined variable")
}

func TestRunDivisionByZeroYieldsInfNoTrap(t *testing.T) {
	out, err := run(t, "print 1 / 0;")
	require.NoError(t, err)
	require.Equal(t, "+Inf\n", out)
}

func TestResetKeepsGlobalsDropsStack(t *testing.T) {
	tokens, lexErrs := lexer.New("let a = 1;").Scan()
	chunk, err := compiler.Compile(tokens, lexErrs)
	require.NoError(t, err)

	machine := New()
	var out bytes.Buffer
	machine.out = &out
	require.NoError(t, machine.Run(chunk))
	require.Equal(t, value.Number(1), machine.globals["a"])

	machine.Reset()
	require.Equal(t, 0, machine.stack.len())
	require.Equal(t, value.Number(1), machine.globals["a"])
}

func TestEqualityIsTypedAndStructural(t *testing.T) {
	out, err := run(t, "print 1 == 1; print 0 == false;")
	require.NoError(t, err)
	require.Equal(t, "true\nfalse\n", out)
}

func TestComparisonLessThanIsNotSwapped(t *testing.T) {
	out, err := run(t, "print 1 < 2; print 2 < 1;")
	require.NoError(t, err)
	require.Equal(t, "true\nfalse\n", out)
}
