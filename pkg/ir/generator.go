package ir

import (
	"fmt"

	"github.com/toyc/toycc/pkg/ast"
)

// Generate lowers a semantically valid compilation unit to IR, per
// spec.md §4.D. The caller is responsible for having already run
// pkg/sema.Analyze successfully; Generate does not re-validate and will
// panic on malformed input rather than return an error, matching the
// assumption the rest of this pipeline stage makes about its input.
func Generate(unit *ast.Unit) *Program {
	g := &generator{}
	prog := &Program{}
	for _, fn := range unit.Funcs {
		prog.Funcs = append(prog.Funcs, g.genFunc(fn))
	}
	return prog
}

// generator holds the one piece of state the source repository keeps
// process-global: the label counter. Here it is a field on a
// generator value created fresh by each call to Generate, so compiling
// two units concurrently never shares it (spec.md §7).
type generator struct {
	nextLabel int
}

func (g *generator) newLabel(prefix string) string {
	l := fmt.Sprintf("%s%d", prefix, g.nextLabel)
	g.nextLabel++
	return l
}

// funcGen lowers a single function body. Its temp counter and scope
// stack are local to the function, per spec.md §4.D; its label
// allocation is delegated to the shared *generator so labels stay
// globally unique across the whole program.
type funcGen struct {
	*generator
	fn ast.FuncDef

	scopes   []map[string]string // source name -> qualified name, per depth
	nextTemp int

	// breakLabels/continueLabels are threaded per spec.md §4.D: entering a
	// loop pushes its break/continue targets, and break/continue consult
	// only the innermost entry.
	breakLabels    []string
	continueLabels []string

	instrs []Instr
}

func (g *generator) genFunc(fn ast.FuncDef) Func {
	fg := &funcGen{generator: g, fn: fn}

	fg.pushScope()
	params := make([]Name, len(fn.Params))
	for i, p := range fn.Params {
		q := fg.declare(p.Name)
		params[i] = Name{Qualified: q}
	}
	// The function's top-level body statements share the parameter scope
	// (matching pkg/sema.checkFunc's own param/body scoping, and spec.md
	// §8's "a@1"/"b@1" qualified names for main's top-level locals), so
	// they're walked directly here rather than through genBlock, which
	// would push a second, redundant scope. Nested blocks still go
	// through genBlock and get their own scope as usual.
	for _, s := range fn.Body.Stmts {
		fg.genStmt(s)
	}
	fg.popScope()

	// A void function may fall off the end of its body without an
	// explicit `return;`; ToyC's grammar permits this (pkg/sema only
	// rejects a *missing value* on a non-void return, not a missing final
	// statement), so the generator appends one to keep the emitter's
	// every-path-ends-in-return invariant.
	if fn.ReturnType == ast.Void {
		fg.emit(Return{})
	}

	return Func{
		Name:     fn.Name,
		Params:   params,
		NumTemps: fg.nextTemp,
		Instrs:   fg.instrs,
	}
}

func (g *funcGen) emit(i Instr) { g.instrs = append(g.instrs, i) }

func (g *funcGen) newTemp() Temp {
	t := Temp{Index: g.nextTemp}
	g.nextTemp++
	return t
}

func (g *funcGen) pushScope() {
	g.scopes = append(g.scopes, make(map[string]string))
}

func (g *funcGen) popScope() {
	g.scopes = g.scopes[:len(g.scopes)-1]
}

// declare binds name in the current scope to a fresh qualified name
// "name@depth" and returns it. Depth matches pkg/sema's scopeStack.Depth
// exactly: both start counting at 1 for the function's outermost scope.
func (g *funcGen) declare(name string) string {
	depth := len(g.scopes)
	qualified := fmt.Sprintf("%s@%d", name, depth)
	g.scopes[len(g.scopes)-1][name] = qualified
	return qualified
}

func (g *funcGen) resolve(name string) string {
	for i := len(g.scopes) - 1; i >= 0; i-- {
		if q, ok := g.scopes[i][name]; ok {
			return q
		}
	}
	panic(fmt.Sprintf("internal error: unresolved variable %q reached the IR generator", name))
}

func (g *funcGen) genBlock(b ast.Block) {
	g.pushScope()
	for _, s := range b.Stmts {
		g.genStmt(s)
	}
	g.popScope()
}

// genStmt lowers a single statement. It has no return value: every
// statement either falls through to the next emitted instruction or
// diverts control via Jump/CJump, and the caller never needs to know
// which.
func (g *funcGen) genStmt(s ast.Stmt) {
	switch v := s.(type) {
	case ast.Block:
		g.genBlock(v)

	case *ast.Block:
		g.genBlock(*v)

	case ast.EmptyStmt:
		// no instructions

	case ast.ExprStmt:
		g.genExprDiscard(v.Expr)

	case ast.VarDecl:
		// No instruction is emitted for the declaration itself; the slot
		// comes into being only when the emitter assigns it a frame offset
		// on first use.
		qualified := g.declare(v.Name)
		if v.Init != nil {
			src := g.genExpr(v.Init)
			g.emit(Move{Dest: Name{Qualified: qualified}, Src: src})
		}

	case ast.Assign:
		src := g.genExpr(v.Expr)
		g.emit(Move{Dest: Name{Qualified: g.resolve(v.Name)}, Src: src})

	case ast.If:
		g.genIf(v)

	case ast.While:
		g.genWhile(v)

	case ast.Break:
		g.emit(Jump{Target: g.breakLabels[len(g.breakLabels)-1]})

	case ast.Continue:
		g.emit(Jump{Target: g.continueLabels[len(g.continueLabels)-1]})

	case ast.Return:
		if v.Expr == nil {
			g.emit(Return{})
			return
		}
		g.emit(Return{Value: g.genExpr(v.Expr)})

	default:
		panic(fmt.Sprintf("internal error: unknown statement type %T", s))
	}
}

// genIf follows the shape fixed by spec.md §4.D exactly: when there is no
// else branch, L_f itself terminates the statement instead of an empty
// else arm plus a redundant end label.
func (g *funcGen) genIf(v ast.If) {
	lThen := g.newLabel("Lt")
	lFalse := g.newLabel("Lf")

	cond := g.genExpr(v.Cond)
	g.emit(CJump{Cond: cond, IfTrue: lThen, IfFalse: lFalse})

	g.emit(Label{Name: lThen})
	g.genStmt(v.Then)

	if v.Else == nil {
		g.emit(Label{Name: lFalse})
		return
	}

	lEnd := g.newLabel("Lend")
	g.emit(Jump{Target: lEnd})
	g.emit(Label{Name: lFalse})
	g.genStmt(v.Else)
	g.emit(Label{Name: lEnd})
}

func (g *funcGen) genWhile(v ast.While) {
	lStart := g.newLabel("Lstart")
	lBody := g.newLabel("Lbody")
	lEnd := g.newLabel("Lend")

	g.continueLabels = append(g.continueLabels, lStart)
	g.breakLabels = append(g.breakLabels, lEnd)

	g.emit(Label{Name: lStart})
	cond := g.genExpr(v.Cond)
	g.emit(CJump{Cond: cond, IfTrue: lBody, IfFalse: lEnd})
	g.emit(Label{Name: lBody})
	g.genStmt(v.Body)
	g.emit(Jump{Target: lStart})
	g.emit(Label{Name: lEnd})

	g.continueLabels = g.continueLabels[:len(g.continueLabels)-1]
	g.breakLabels = g.breakLabels[:len(g.breakLabels)-1]
}

// genExprDiscard lowers an expression used as a statement. A call (to a
// void or an int function) is lowered with no Dest so the emitter never
// has to materialize an unused result register; any other expression is
// lowered as usual and its result operand dropped.
func (g *funcGen) genExprDiscard(e ast.Expr) {
	if call, ok := e.(ast.CallExpr); ok {
		args := make([]Operand, len(call.Args))
		for i, a := range call.Args {
			args[i] = g.genExpr(a)
		}
		g.emit(Call{Func: call.Name, Args: args})
		return
	}
	g.genExpr(e)
}

var binOpKind = map[ast.BinOp]BinOpKind{
	ast.Add: Add,
	ast.Sub: Sub,
	ast.Mul: Mul,
	ast.Div: Div,
	ast.Mod: Mod,
	ast.Lt:  Lt,
	ast.Le:  Le,
	ast.Gt:  Gt,
	ast.Ge:  Ge,
	ast.Eq:  Eq,
	ast.Ne:  Ne,
	ast.And: And,
	ast.Or:  Or,
}

var unOpKind = map[ast.UnOp]UnOpKind{
	ast.Neg: Neg,
	ast.Not: Not,
	ast.Pos: Pos,
}

// genExpr lowers a value-producing expression and returns the operand
// holding its result. Binary operators, including && and ||, lower
// uniformly to BinOp: both operands are always evaluated, left before
// right, with no short-circuiting (spec.md §9's open design question,
// preserved here for fidelity with the reference behavior).
func (g *funcGen) genExpr(e ast.Expr) Operand {
	switch v := e.(type) {
	case ast.IntLit:
		return Const{Value: v.Value}

	case ast.Var:
		return Name{Qualified: g.resolve(v.Name)}

	case ast.UnaryExpr:
		src := g.genExpr(v.Expr)
		if v.Op == ast.Pos {
			return src // unary plus is the identity; no instruction needed
		}
		dest := g.newTemp()
		g.emit(UnOp{Dest: dest, Op: unOpKind[v.Op], Src: src})
		return dest

	case ast.BinaryExpr:
		lhs := g.genExpr(v.Left)
		rhs := g.genExpr(v.Right)
		dest := g.newTemp()
		g.emit(BinOp{Dest: dest, Op: binOpKind[v.Op], Src1: lhs, Src2: rhs})
		return dest

	case ast.CallExpr:
		args := make([]Operand, len(v.Args))
		for i, a := range v.Args {
			args[i] = g.genExpr(a)
		}
		dest := g.newTemp()
		g.emit(Call{Dest: dest, Func: v.Name, Args: args})
		return dest

	default:
		panic(fmt.Sprintf("internal error: unknown expression type %T", e))
	}
}
