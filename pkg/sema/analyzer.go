// Package sema implements the ToyC semantic analyzer: scope management,
// name resolution, type checking, and control-flow context validation, per
// spec.md §4.C. The analyzer never mutates or annotates the AST; the IR
// generator re-derives whatever it needs.
package sema

import (
	"fmt"

	"github.com/toyc/toycc/pkg/ast"
	"github.com/toyc/toycc/pkg/errors"
)

// FuncInfo is a function's signature, as recorded during pass 1.
type FuncInfo struct {
	ReturnType ast.Type
	ParamTypes []ast.Type
}

// Analyzer performs the two-pass semantic check described in spec.md §4.C.
type Analyzer struct {
	funcs map[string]FuncInfo

	scopes      *scopeStack
	returnType  ast.Type
	inLoop      bool
}

// New creates an Analyzer.
func New() *Analyzer {
	return &Analyzer{funcs: make(map[string]FuncInfo)}
}

// Analyze runs both passes over a compilation unit. It returns the first
// error encountered (spec.md §7: "no error is recovered locally").
func Analyze(unit *ast.Unit) error {
	return New().analyzeUnit(unit)
}

func (a *Analyzer) analyzeUnit(unit *ast.Unit) error {
	if err := a.collectSignatures(unit); err != nil {
		return err
	}
	for _, fn := range unit.Funcs {
		if err := a.checkFunc(fn); err != nil {
			return err
		}
	}
	return nil
}

// collectSignatures is pass 1: gather function signatures and verify the
// required `main` entry point exists.
func (a *Analyzer) collectSignatures(unit *ast.Unit) error {
	for _, fn := range unit.Funcs {
		if _, exists := a.funcs[fn.Name]; exists {
			return fmt.Errorf("duplicate function '%s'", fn.Name)
		}
		paramTypes := make([]ast.Type, len(fn.Params))
		for i, p := range fn.Params {
			paramTypes[i] = p.Type
		}
		a.funcs[fn.Name] = FuncInfo{ReturnType: fn.ReturnType, ParamTypes: paramTypes}
	}

	main, ok := a.funcs["main"]
	if !ok {
		return fmt.Errorf("missing 'main' function")
	}
	if main.ReturnType != ast.Int {
		return fmt.Errorf("'main' must return int")
	}
	if len(main.ParamTypes) != 0 {
		return fmt.Errorf("'main' must take no parameters")
	}
	return nil
}

// checkFunc is pass 2 for a single function: push a fresh scope, bind
// parameters, and recursively check the body.
func (a *Analyzer) checkFunc(fn ast.FuncDef) error {
	a.scopes = newScopeStack()
	a.scopes.push()
	a.returnType = fn.ReturnType
	a.inLoop = false

	seen := make(map[string]bool)
	for _, p := range fn.Params {
		if seen[p.Name] {
			return fmt.Errorf("duplicate parameter '%s' in function '%s'", p.Name, fn.Name)
		}
		seen[p.Name] = true
		if p.Type == ast.Void {
			return fmt.Errorf("parameter '%s' in function '%s' cannot have type void", p.Name, fn.Name)
		}
		a.scopes.declare(p.Name, VarInfo{Type: p.Type})
	}

	// The function's top-level body statements share the parameter scope
	// (C's own param/body scoping: a local can't redeclare a parameter
	// name at this level), so fn.Body's statements are checked directly
	// here rather than through checkBlock, which would push a second,
	// redundant scope. Nested blocks (if/while bodies, explicit `{ }`)
	// still go through checkBlock and get their own scope as usual.
	for _, s := range fn.Body.Stmts {
		if err := a.checkStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) checkBlock(b ast.Block) error {
	a.scopes.push()
	defer a.scopes.pop()
	for _, s := range b.Stmts {
		if err := a.checkStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyzer) checkStmt(s ast.Stmt) error {
	switch v := s.(type) {
	case ast.Block:
		return a.checkBlock(v)

	case *ast.Block:
		return a.checkBlock(*v)

	case ast.EmptyStmt:
		return nil

	case ast.ExprStmt:
		_, err := a.checkExpr(v.Expr)
		return err

	case ast.VarDecl:
		if v.Type == ast.Void {
			return fmt.Errorf("variable '%s' cannot have type void", v.Name)
		}
		if v.Init != nil {
			// Check the initializer before the name enters scope, so
			// `int x = x;` resolves the right-hand x to an outer scope
			// (or fails as undeclared), never to the not-yet-declared x.
			initType, err := a.checkExpr(v.Init)
			if err != nil {
				return err
			}
			if initType != v.Type {
				return fmt.Errorf("cannot initialize variable '%s' of type %s with value of type %s", v.Name, v.Type, initType)
			}
		}
		if !a.scopes.declare(v.Name, VarInfo{Type: v.Type}) {
			return fmt.Errorf("variable '%s' already declared in this scope", v.Name)
		}
		return nil

	case ast.Assign:
		info, ok := a.scopes.resolve(v.Name)
		if !ok {
			return fmt.Errorf("assignment to undeclared variable '%s'%s", v.Name, a.didYouMean(v.Name))
		}
		exprType, err := a.checkExpr(v.Expr)
		if err != nil {
			return err
		}
		if exprType != info.Type {
			return fmt.Errorf("cannot assign value of type %s to variable '%s' of type %s", exprType, v.Name, info.Type)
		}
		return nil

	case ast.If:
		condType, err := a.checkExpr(v.Cond)
		if err != nil {
			return err
		}
		if condType != ast.Int {
			return fmt.Errorf("if condition must be int, got %s", condType)
		}
		if err := a.checkStmt(v.Then); err != nil {
			return err
		}
		if v.Else != nil {
			return a.checkStmt(v.Else)
		}
		return nil

	case ast.While:
		condType, err := a.checkExpr(v.Cond)
		if err != nil {
			return err
		}
		if condType != ast.Int {
			return fmt.Errorf("while condition must be int, got %s", condType)
		}
		wasInLoop := a.inLoop
		a.inLoop = true
		err = a.checkStmt(v.Body)
		a.inLoop = wasInLoop
		return err

	case ast.Break:
		if !a.inLoop {
			return fmt.Errorf("'break' outside of loop")
		}
		return nil

	case ast.Continue:
		if !a.inLoop {
			return fmt.Errorf("'continue' outside of loop")
		}
		return nil

	case ast.Return:
		if a.returnType == ast.Void {
			if v.Expr != nil {
				return fmt.Errorf("void function cannot have a return value")
			}
			return nil
		}
		if v.Expr == nil {
			return fmt.Errorf("non-void function must return a value")
		}
		exprType, err := a.checkExpr(v.Expr)
		if err != nil {
			return err
		}
		if exprType != a.returnType {
			return fmt.Errorf("return type mismatch: expected %s, got %s", a.returnType, exprType)
		}
		return nil

	default:
		return fmt.Errorf("internal error: unknown statement type %T", s)
	}
}

// checkExpr type-checks an expression and returns its type. Every
// expression in ToyC has type int except a call to a void function, which
// may only legally appear as a top-level ExprStmt (enforced by requiring
// every operand and argument position to be int, which excludes void
// results everywhere else).
func (a *Analyzer) checkExpr(e ast.Expr) (ast.Type, error) {
	switch v := e.(type) {
	case ast.IntLit:
		return ast.Int, nil

	case ast.Var:
		info, ok := a.scopes.resolve(v.Name)
		if !ok {
			if _, isFunc := a.funcs[v.Name]; isFunc {
				return 0, fmt.Errorf("'%s' is a function, not a variable", v.Name)
			}
			return 0, fmt.Errorf("undeclared variable '%s'%s", v.Name, a.didYouMean(v.Name))
		}
		return info.Type, nil

	case ast.UnaryExpr:
		t, err := a.checkExpr(v.Expr)
		if err != nil {
			return 0, err
		}
		if t != ast.Int {
			return 0, fmt.Errorf("unary operator '%s' requires int operand, got %s", v.Op, t)
		}
		return ast.Int, nil

	case ast.BinaryExpr:
		lt, err := a.checkExpr(v.Left)
		if err != nil {
			return 0, err
		}
		rt, err := a.checkExpr(v.Right)
		if err != nil {
			return 0, err
		}
		if lt != ast.Int || rt != ast.Int {
			return 0, fmt.Errorf("binary operator '%s' requires int operands, got %s and %s", v.Op, lt, rt)
		}
		return ast.Int, nil

	case ast.CallExpr:
		info, ok := a.funcs[v.Name]
		if !ok {
			return 0, fmt.Errorf("call to undeclared function '%s'%s", v.Name, a.didYouMeanFunc(v.Name))
		}
		if len(v.Args) != len(info.ParamTypes) {
			return 0, fmt.Errorf("function '%s' expects %d argument(s), got %d", v.Name, len(info.ParamTypes), len(v.Args))
		}
		for i, arg := range v.Args {
			argType, err := a.checkExpr(arg)
			if err != nil {
				return 0, err
			}
			if argType != info.ParamTypes[i] {
				return 0, fmt.Errorf("argument %d to '%s': expected %s, got %s", i+1, v.Name, info.ParamTypes[i], argType)
			}
		}
		return info.ReturnType, nil

	default:
		return 0, fmt.Errorf("internal error: unknown expression type %T", e)
	}
}

// didYouMean appends a parenthesized spelling suggestion drawn from every
// variable currently in scope, or "" if nothing is close enough.
func (a *Analyzer) didYouMean(name string) string {
	var candidates []string
	for _, scope := range a.scopes.scopes {
		for n := range scope {
			candidates = append(candidates, n)
		}
	}
	if s := errors.SuggestIdentifier(name, candidates); s != "" {
		return " (" + s + ")"
	}
	return ""
}

// didYouMeanFunc is didYouMean over declared function names.
func (a *Analyzer) didYouMeanFunc(name string) string {
	var candidates []string
	for n := range a.funcs {
		candidates = append(candidates, n)
	}
	if s := errors.SuggestIdentifier(name, candidates); s != "" {
		return " (" + s + ")"
	}
	return ""
}
