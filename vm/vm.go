// Package vm implements the stack-based bytecode interpreter that executes
// a compiler.Chunk.
package vm

import (
	"fmt"
	"io"
	"os"

	"lumen/compiler"
	"lumen/value"
)

// VM is the runtime environment a Chunk executes against: an instruction
// pointer, a bounded operand stack, and a globals table. Globals survive a
// Reset between REPL inputs; the stack and pc do not.
type VM struct {
	chunk   *compiler.Chunk
	pc      int
	stack   Stack
	globals map[string]value.Value
	out     io.Writer
}

func New() *VM {
	return &VM{globals: make(map[string]value.Value), out: os.Stdout}
}

// Reset prepares the VM for a new chunk while keeping globals — this lets a
// REPL reuse one VM across inputs so `let` bindings persist between lines.
func (vm *VM) Reset() {
	vm.pc = 0
	vm.stack.reset()
}

func (vm *VM) readByte() byte {
	b := vm.chunk.Instructions[vm.pc]
	vm.pc++
	return b
}

// Run executes bytecode to completion (an OpReturn) or until a runtime
// error halts it. The Chunk and globals are left intact on error so a REPL
// host can inspect them.
func (vm *VM) Run(chunk *compiler.Chunk) error {
	vm.chunk = chunk
	vm.pc = 0
	vm.stack.reset()

	for {
		op := compiler.Opcode(vm.readByte())

		switch op {
		case compiler.OpReturn:
			return nil

		case compiler.OpConstant:
			index := vm.readByte()
			if err := vm.stack.push(chunk.Constants[index]); err != nil {
				return err
			}

		case compiler.OpNil:
			if err := vm.stack.push(value.Nil{}); err != nil {
				return err
			}
		case compiler.OpTrue:
			if err := vm.stack.push(value.Boolean(true)); err != nil {
				return err
			}
		case compiler.OpFalse:
			if err := vm.stack.push(value.Boolean(false)); err != nil {
				return err
			}

		case compiler.OpPop:
			if _, err := vm.stack.pop(); err != nil {
				return err
			}

		case compiler.OpNegate:
			v, err := vm.stack.pop()
			if err != nil {
				return err
			}
			n, ok := v.(value.Number)
			if !ok {
				return &RuntimeError{Message: fmt.Sprintf("operand must be a number, got %s", v.TypeName())}
			}
			if err := vm.stack.push(-n); err != nil {
				return err
			}

		case compiler.OpNot:
			v, err := vm.stack.pop()
			if err != nil {
				return err
			}
			if err := vm.stack.push(value.Boolean(!value.IsTruthy(v))); err != nil {
				return err
			}

		case compiler.OpAdd:
			if err := vm.binaryAdd(); err != nil {
				return err
			}
		case compiler.OpSubtract:
			if err := vm.binaryNumeric(op); err != nil {
				return err
			}
		case compiler.OpMult:
			if err := vm.binaryNumeric(op); err != nil {
				return err
			}
		case compiler.OpDiv:
			if err := vm.binaryNumeric(op); err != nil {
				return err
			}

		case compiler.OpEqual:
			b, err := vm.stack.pop()
			if err != nil {
				return err
			}
			a, err := vm.stack.pop()
			if err != nil {
				return err
			}
			if err := vm.stack.push(value.Boolean(value.Equal(a, b))); err != nil {
				return err
			}

		case compiler.OpGreaterThan, compiler.OpLessThan:
			if err := vm.binaryComparison(op); err != nil {
				return err
			}

		case compiler.OpPrint:
			v, err := vm.stack.pop()
			if err != nil {
				return err
			}
			fmt.Fprintln(vm.out, value.Display(v))

		case compiler.OpDefineGlobal:
			name, err := vm.globalName(vm.readByte())
			if err != nil {
				return err
			}
			v, err := vm.stack.pop()
			if err != nil {
				return err
			}
			vm.globals[name] = v

		case compiler.OpGetGlobal:
			name, err := vm.globalName(vm.readByte())
			if err != nil {
				return err
			}
			v, ok := vm.globals[name]
			if !ok {
				return &RuntimeError{Message: fmt.Sprintf("undefined variable %q", name)}
			}
			if err := vm.stack.push(v); err != nil {
				return err
			}

		case compiler.OpSetGlobal:
			name, err := vm.globalName(vm.readByte())
			if err != nil {
				return err
			}
			if _, ok := vm.globals[name]; !ok {
				return &RuntimeError{Message: fmt.Sprintf("undefined variable %q", name)}
			}
			v, err := vm.stack.peek(0)
			if err != nil {
				return err
			}
			vm.globals[name] = v

		case compiler.OpGetLocal:
			slot := int(vm.readByte())
			v, err := vm.stack.get(slot)
			if err != nil {
				return err
			}
			if err := vm.stack.push(v); err != nil {
				return err
			}

		case compiler.OpSetLocal:
			slot := int(vm.readByte())
			v, err := vm.stack.peek(0)
			if err != nil {
				return err
			}
			if err := vm.stack.set(slot, v); err != nil {
				return err
			}

		default:
			return &RuntimeError{Message: fmt.Sprintf("unknown opcode %v at pc %d", op, vm.pc-1)}
		}
	}
}

func (vm *VM) globalName(constIndex byte) (string, error) {
	v := vm.chunk.Constants[constIndex]
	s, ok := v.(value.String)
	if !ok {
		return "", &RuntimeError{Message: "global name constant is not a string"}
	}
	return string(s), nil
}

// binaryAdd implements Add's dual semantics: Number+Number or
// String+String; any other combination is a runtime error.
func (vm *VM) binaryAdd() error {
	b, err := vm.stack.pop()
	if err != nil {
		return err
	}
	a, err := vm.stack.pop()
	if err != nil {
		return err
	}
	switch av := a.(type) {
	case value.Number:
		bv, ok := b.(value.Number)
		if !ok {
			return &RuntimeError{Message: "operands must be two numbers or two strings"}
		}
		return vm.stack.push(av + bv)
	case value.String:
		bv, ok := b.(value.String)
		if !ok {
			return &RuntimeError{Message: "operands must be two numbers or two strings"}
		}
		return vm.stack.push(av + bv)
	default:
		return &RuntimeError{Message: "operands must be two numbers or two strings"}
	}
}

// binaryNumeric implements Subtract/Mult/Div, each requiring two Numbers.
// Division by zero follows IEEE-754 semantics (inf/nan); there is no trap.
func (vm *VM) binaryNumeric(op compiler.Opcode) error {
	b, err := vm.stack.pop()
	if err != nil {
		return err
	}
	a, err := vm.stack.pop()
	if err != nil {
		return err
	}
	an, ok := a.(value.Number)
	if !ok {
		return &RuntimeError{Message: fmt.Sprintf("operand must be a number, got %s", a.TypeName())}
	}
	bn, ok := b.(value.Number)
	if !ok {
		return &RuntimeError{Message: fmt.Sprintf("operand must be a number, got %s", b.TypeName())}
	}
	var result value.Number
	switch op {
	case compiler.OpSubtract:
		result = an - bn
	case compiler.OpMult:
		result = an * bn
	case compiler.OpDiv:
		result = an / bn
	}
	return vm.stack.push(result)
}

func (vm *VM) binaryComparison(op compiler.Opcode) error {
	b, err := vm.stack.pop()
	if err != nil {
		return err
	}
	a, err := vm.stack.pop()
	if err != nil {
		return err
	}
	an, ok := a.(value.Number)
	if !ok {
		return &RuntimeError{Message: fmt.Sprintf("operand must be a number, got %s", a.TypeName())}
	}
	bn, ok := b.(value.Number)
	if !ok {
		return &RuntimeError{Message: fmt.Sprintf("operand must be a number, got %s", b.TypeName())}
	}
	var result bool
	if op == compiler.OpGreaterThan {
		result = an > bn
	} else {
		result = an < bn
	}
	return vm.stack.push(value.Boolean(result))
}
