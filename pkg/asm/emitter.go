// Package asm implements the single-pass RISC-V assembly emitter: the
// last stage of the pipeline, turning an ir.Program into RISC-V 32-bit
// integer-subset assembly text. See spec.md §4.E.
package asm

import (
	"fmt"
	"strings"

	"github.com/toyc/toycc/pkg/ir"
)

// frameSize is the fixed activation-record size every function reserves
// on entry, per spec.md §4.E. It is naive by design: no function ever
// needs anywhere near 1600 bytes of locals and temporaries, but sizing
// the frame from actual usage would require a pre-pass the reference
// emitter skips.
const frameSize = 1600

// Emit lowers an entire IR program to RISC-V assembly text.
func Emit(prog *ir.Program) string {
	e := &emitter{}
	e.line(".text")
	e.line(".global main")
	for _, fn := range prog.Funcs {
		e.emitFunc(fn)
	}
	return e.out.String()
}

// emitter walks one IR program. Its per-function frame map is reset by
// emitFunc before every function, per spec.md §7: "the per-function
// frame map in the emitter — reset between functions."
type emitter struct {
	out strings.Builder

	frame      map[string]int // operand key ("x@1", "t3", "ra") -> offset from sp
	nextOffset int
}

func (e *emitter) line(format string, args ...any) {
	fmt.Fprintf(&e.out, format+"\n", args...)
}

func (e *emitter) comment(format string, args ...any) {
	e.line("  # "+format, args...)
}

// slot returns the frame offset for key, allocating a fresh one on first
// use (spec.md §4.E: "Allocate slots at positive offsets from sp on
// first use").
func (e *emitter) slot(key string) int {
	if off, ok := e.frame[key]; ok {
		return off
	}
	off := e.nextOffset
	e.frame[key] = off
	e.nextOffset += 4
	return off
}

// operandKey turns an ir.Operand into the string that keys its frame
// slot. Const has no slot: it is materialized directly with li.
func operandKey(op ir.Operand) string {
	switch v := op.(type) {
	case ir.Name:
		return v.Qualified
	case ir.Temp:
		return fmt.Sprintf("t%d", v.Index)
	default:
		panic(fmt.Sprintf("internal error: operand %#v has no frame slot", op))
	}
}

// load materializes op into reg: `li` for a constant, `lw` from its
// frame slot otherwise.
func (e *emitter) load(op ir.Operand, reg string) {
	if c, ok := op.(ir.Const); ok {
		e.line("  li %s, %d", reg, c.Value)
		return
	}
	off := e.slot(operandKey(op))
	e.line("  lw %s, %d(sp)", reg, off)
}

// store spills reg into dest's frame slot. dest must not be a Const
// (spec.md §4.E: "a Move with a constant destination" is the canonical
// invariant breach, a programmer error rather than a runtime failure).
func (e *emitter) store(dest ir.Operand, reg string) {
	if _, ok := dest.(ir.Const); ok {
		panic("internal error: cannot store into a constant operand")
	}
	off := e.slot(operandKey(dest))
	e.line("  sw %s, %d(sp)", reg, off)
}

func (e *emitter) emitFunc(fn ir.Func) {
	e.frame = make(map[string]int)
	e.nextOffset = 0

	e.line("%s:", fn.Name)
	e.line("  addi sp, sp, -%d", frameSize)

	raOff := e.slot("ra")
	e.line("  sw ra, %d(sp)", raOff)

	for i, p := range fn.Params {
		key := operandKey(p)
		if i < 8 {
			e.line("  sw a%d, %d(sp)", i, e.slot(key))
			continue
		}
		// Parameters nine and beyond were stored by the caller at
		// -frameSize-4*(i-8) relative to its own sp; the callee reads the
		// same offset relative to its own sp after the prologue (both
		// frames share frameSize, per spec.md §9).
		e.comment("param %d passed on stack", i)
		e.line("  lw t0, %d(sp)", -frameSize-4*(i-8))
		e.store(p, "t0")
	}

	for _, instr := range fn.Instrs {
		e.emitInstr(instr, raOff)
	}

	// If the IR doesn't end with a Return, append the same epilogue.
	// pkg/ir's generator appends a Return to every void function, but
	// pkg/sema does not check that a non-void function returns on every
	// path, so an int function's IR can end without one.
	if _, ok := lastInstr(fn.Instrs).(ir.Return); !ok {
		e.emitEpilogue(raOff)
	}
}

func lastInstr(instrs []ir.Instr) ir.Instr {
	if len(instrs) == 0 {
		return nil
	}
	return instrs[len(instrs)-1]
}

func (e *emitter) emitEpilogue(raOff int) {
	e.line("  lw ra, %d(sp)", raOff)
	e.line("  addi sp, sp, %d", frameSize)
	e.line("  ret")
}

func (e *emitter) emitInstr(instr ir.Instr, raOff int) {
	switch v := instr.(type) {
	case ir.Label:
		e.line("%s:", v.Name)

	case ir.Jump:
		e.line("  j %s", v.Target)

	case ir.CJump:
		e.load(v.Cond, "t0")
		e.line("  bne t0, zero, %s", v.IfTrue)
		e.line("  j %s", v.IfFalse)

	case ir.Move:
		e.load(v.Src, "t0")
		e.store(v.Dest, "t0")

	case ir.UnOp:
		e.load(v.Src, "t1")
		switch v.Op {
		case ir.Neg:
			e.line("  neg t0, t1")
		case ir.Not:
			e.line("  seqz t0, t1")
		case ir.Pos:
			e.line("  mv t0, t1")
		}
		e.store(v.Dest, "t0")

	case ir.BinOp:
		e.load(v.Src1, "t1")
		e.load(v.Src2, "t2")
		e.emitBinOp(v.Op)
		e.store(v.Dest, "t0")

	case ir.Call:
		e.emitCall(v)

	case ir.Return:
		if v.Value != nil {
			e.load(v.Value, "a0")
		}
		e.emitEpilogue(raOff)

	default:
		panic(fmt.Sprintf("internal error: unknown IR instruction %T", instr))
	}
}

func (e *emitter) emitBinOp(op ir.BinOpKind) {
	switch op {
	case ir.Add:
		e.line("  add t0, t1, t2")
	case ir.Sub:
		e.line("  sub t0, t1, t2")
	case ir.Mul:
		e.line("  mul t0, t1, t2")
	case ir.Div:
		e.line("  div t0, t1, t2")
	case ir.Mod:
		e.line("  rem t0, t1, t2")
	case ir.Lt:
		e.line("  slt t0, t1, t2")
	case ir.Gt:
		e.line("  sgt t0, t1, t2")
	case ir.Le:
		e.line("  sgt t0, t1, t2")
		e.line("  xori t0, t0, 1")
	case ir.Ge:
		e.line("  slt t0, t1, t2")
		e.line("  xori t0, t0, 1")
	case ir.Eq:
		e.line("  sub t0, t1, t2")
		e.line("  seqz t0, t0")
	case ir.Ne:
		e.line("  sub t0, t1, t2")
		e.line("  snez t0, t0")
	case ir.And:
		e.line("  and t0, t1, t2")
	case ir.Or:
		e.line("  or t0, t1, t2")
	}
}

func (e *emitter) emitCall(v ir.Call) {
	for i, arg := range v.Args {
		if i < 8 {
			e.load(arg, fmt.Sprintf("a%d", i))
			continue
		}
		e.load(arg, "t0")
		e.line("  sw t0, %d(sp)", -frameSize-4*(i-8))
	}
	e.line("  call %s", v.Func)
	if v.Dest != nil {
		e.store(v.Dest, "a0")
	}
}
