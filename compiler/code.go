package compiler

import "fmt"

// Opcode is a single instruction tag. The ordering and numeric values are
// part of the bytecode format, not an implementation detail.
type Opcode byte

const (
	OpReturn Opcode = iota
	OpConstant
	OpNegate
	OpAdd
	OpSubtract
	OpMult
	OpDiv
	OpNil
	OpTrue
	OpFalse
	OpNot
	OpEqual
	OpGreaterThan
	OpLessThan
	OpPrint
	OpPop
	OpDefineGlobal
	OpGetGlobal
	OpSetGlobal
	OpGetLocal
	OpSetLocal
)

// definition describes one opcode's disassembly shape: its mnemonic and how
// many one-byte operand words follow it. An operand-taking opcode carries
// exactly one word (a constant index or a stack slot), so every operand
// here is a single byte — capping constants and locals per chunk at 256,
// which this language's programs never approach.
type definition struct {
	name      string
	operandWidths []int
}

var definitions = map[Opcode]*definition{
	OpReturn:       {"Return", nil},
	OpConstant:     {"Constant", []int{1}},
	OpNegate:       {"Negate", nil},
	OpAdd:          {"Add", nil},
	OpSubtract:     {"Subtract", nil},
	OpMult:         {"Mult", nil},
	OpDiv:          {"Div", nil},
	OpNil:          {"Nil", nil},
	OpTrue:         {"True", nil},
	OpFalse:        {"False", nil},
	OpNot:          {"Not", nil},
	OpEqual:        {"Equal", nil},
	OpGreaterThan:  {"GreaterThan", nil},
	OpLessThan:     {"LessThan", nil},
	OpPrint:        {"Print", nil},
	OpPop:          {"Pop", nil},
	OpDefineGlobal: {"DefineGlobal", []int{1}},
	OpGetGlobal:    {"GetGlobal", []int{1}},
	OpSetGlobal:    {"SetGlobal", []int{1}},
	OpGetLocal:     {"GetLocal", []int{1}},
	OpSetLocal:     {"SetLocal", []int{1}},
}

func lookup(op Opcode) (*definition, error) {
	def, ok := definitions[op]
	if !ok {
		return nil, fmt.Errorf("opcode %d undefined", op)
	}
	return def, nil
}

// Disassemble renders one instruction at offset, returning its text form and
// the offset of the next instruction. It walks operand widths so it never
// misreads an operand byte as an opcode.
func Disassemble(instructions []byte, offset int) (string, int) {
	op := Opcode(instructions[offset])
	def, err := lookup(op)
	if err != nil {
		return err.Error(), offset + 1
	}
	if len(def.operandWidths) == 0 {
		return def.name, offset + 1
	}
	operand := int(instructions[offset+1])
	return fmt.Sprintf("%s %d", def.name, operand), offset + 2
}
