// Package irvm is a reference interpreter over pkg/ir programs. It exists
// only to let tests assert end-to-end exit-code behavior (spec.md §8)
// without needing a real RISC-V target to run the emitted assembly on.
package irvm

import (
	"fmt"

	"github.com/toyc/toycc/pkg/ir"
)

// Run interprets prog starting at "main" and returns the value main
// returns, or an error if the program is malformed in a way the static
// passes should have already ruled out (an unresolved call, an
// unresolved label). A panic anywhere below this point is this
// package's own bug, not the input program's.
func Run(prog *ir.Program) (result int32, err error) {
	funcs := make(map[string]ir.Func, len(prog.Funcs))
	for _, fn := range prog.Funcs {
		funcs[fn.Name] = fn
	}
	main, ok := funcs["main"]
	if !ok {
		return 0, fmt.Errorf("irvm: program has no main function")
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("irvm: %v", r)
		}
	}()

	v := call(funcs, main, nil)
	return v, nil
}

// call executes fn with args already bound to its parameters, in order,
// and returns its return value (0 if it returns void or falls through
// without a Return, as the IR of an int function whose body can end
// without a return statement does).
func call(funcs map[string]ir.Func, fn ir.Func, args []int32) int32 {
	f := &frame{
		funcs: funcs,
		temps: make(map[int]int32),
		vars:  make(map[string]int32),
	}
	for i, p := range fn.Params {
		f.vars[p.Qualified] = args[i]
	}

	labels := make(map[string]int, len(fn.Instrs))
	for i, instr := range fn.Instrs {
		if l, ok := instr.(ir.Label); ok {
			labels[l.Name] = i
		}
	}

	pc := 0
	for pc < len(fn.Instrs) {
		switch instr := fn.Instrs[pc].(type) {
		case ir.Label:
			// no-op marker

		case ir.Move:
			f.set(instr.Dest, f.get(instr.Src))

		case ir.UnOp:
			f.set(instr.Dest, evalUnOp(instr.Op, f.get(instr.Src)))

		case ir.BinOp:
			f.set(instr.Dest, evalBinOp(instr.Op, f.get(instr.Src1), f.get(instr.Src2)))

		case ir.Jump:
			pc = jumpTo(labels, instr.Target)
			continue

		case ir.CJump:
			if f.get(instr.Cond) != 0 {
				pc = jumpTo(labels, instr.IfTrue)
			} else {
				pc = jumpTo(labels, instr.IfFalse)
			}
			continue

		case ir.Call:
			callee, ok := funcs[instr.Func]
			if !ok {
				panic(fmt.Sprintf("call to unresolved function %q", instr.Func))
			}
			argv := make([]int32, len(instr.Args))
			for i, a := range instr.Args {
				argv[i] = f.get(a)
			}
			result := call(funcs, callee, argv)
			if instr.Dest != nil {
				f.set(instr.Dest, result)
			}

		case ir.Return:
			if instr.Value == nil {
				return 0
			}
			return f.get(instr.Value)

		default:
			panic(fmt.Sprintf("unknown instruction %T", instr))
		}
		pc++
	}
	return 0
}

func jumpTo(labels map[string]int, name string) int {
	i, ok := labels[name]
	if !ok {
		panic(fmt.Sprintf("jump to unresolved label %q", name))
	}
	return i
}

// frame holds one function activation's temporaries and named variables.
type frame struct {
	funcs map[string]ir.Func
	temps map[int]int32
	vars  map[string]int32
}

func (f *frame) get(op ir.Operand) int32 {
	switch v := op.(type) {
	case ir.Const:
		return v.Value
	case ir.Temp:
		return f.temps[v.Index]
	case ir.Name:
		return f.vars[v.Qualified]
	default:
		panic(fmt.Sprintf("unknown operand %#v", op))
	}
}

func (f *frame) set(op ir.Operand, val int32) {
	switch v := op.(type) {
	case ir.Temp:
		f.temps[v.Index] = val
	case ir.Name:
		f.vars[v.Qualified] = val
	default:
		panic(fmt.Sprintf("cannot store into operand %#v", op))
	}
}

// evalBinOp matches the emitter's instruction semantics (pkg/asm), not
// Go's: division and modulo by zero follow RISC-V div/rem's
// implementation-defined results (spec.md §9) rather than panicking.
func evalBinOp(op ir.BinOpKind, a, b int32) int32 {
	switch op {
	case ir.Add:
		return a + b
	case ir.Sub:
		return a - b
	case ir.Mul:
		return a * b
	case ir.Div:
		if b == 0 {
			return -1 // RISC-V div by zero: all bits set
		}
		return a / b
	case ir.Mod:
		if b == 0 {
			return a // RISC-V rem by zero: dividend unchanged
		}
		return a % b
	case ir.Lt:
		return boolToInt(a < b)
	case ir.Le:
		return boolToInt(a <= b)
	case ir.Gt:
		return boolToInt(a > b)
	case ir.Ge:
		return boolToInt(a >= b)
	case ir.Eq:
		return boolToInt(a == b)
	case ir.Ne:
		return boolToInt(a != b)
	case ir.And:
		return a & b
	case ir.Or:
		return a | b
	default:
		panic(fmt.Sprintf("unknown binary operator %v", op))
	}
}

func evalUnOp(op ir.UnOpKind, a int32) int32 {
	switch op {
	case ir.Neg:
		return -a
	case ir.Not:
		return boolToInt(a == 0)
	case ir.Pos:
		return a
	default:
		panic(fmt.Sprintf("unknown unary operator %v", op))
	}
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
