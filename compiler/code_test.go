package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDisassembleNoOperand(t *testing.T) {
	text, next := Disassemble([]byte{byte(OpReturn)}, 0)
	require.Equal(t, "Return", text)
	require.Equal(t, 1, next)
}

func TestDisassembleOneByteOperand(t *testing.T) {
	text, next := Disassemble([]byte{byte(OpConstant), 7}, 0)
	require.Equal(t, "Constant 7", text)
	require.Equal(t, 2, next)
}

func TestDisassembleWalksWholeChunk(t *testing.T) {
	instructions := []byte{
		byte(OpConstant), 0,
		byte(OpConstant), 1,
		byte(OpAdd),
		byte(OpReturn),
	}
	var texts []string
	for offset := 0; offset < len(instructions); {
		var text string
		text, offset = Disassemble(instructions, offset)
		texts = append(texts, text)
	}
	require.Equal(t, []string{"Constant 0", "Constant 1", "Add", "Return"}, texts)
}
