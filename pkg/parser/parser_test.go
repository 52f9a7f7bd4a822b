package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyc/toycc/pkg/ast"
	"github.com/toyc/toycc/pkg/lexer"
)

func mustParse(t *testing.T, src string) *ast.Unit {
	t.Helper()
	toks, err := lexer.New(src).Tokenize()
	require.NoError(t, err)
	unit, err := New(toks).Parse()
	require.NoError(t, err)
	return unit
}

func TestParse_EmptyMain(t *testing.T) {
	unit := mustParse(t, `int main() { return 0; }`)
	require.Len(t, unit.Funcs, 1)
	fn := unit.Funcs[0]
	assert.Equal(t, ast.Int, fn.ReturnType)
	assert.Equal(t, "main", fn.Name)
	assert.Empty(t, fn.Params)
	require.Len(t, fn.Body.Stmts, 1)
	ret, ok := fn.Body.Stmts[0].(ast.Return)
	require.True(t, ok)
	lit, ok := ret.Expr.(ast.IntLit)
	require.True(t, ok)
	assert.EqualValues(t, 0, lit.Value)
}

func TestParse_Params(t *testing.T) {
	unit := mustParse(t, `int add(int a, int b) { return a + b; }`)
	fn := unit.Funcs[0]
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name)
	assert.Equal(t, "b", fn.Params[1].Name)
	assert.Equal(t, ast.Int, fn.Params[0].Type)
}

func TestParse_VarDeclAndAssign(t *testing.T) {
	unit := mustParse(t, `int main() { int a = 3; a = a + 1; return a; }`)
	stmts := unit.Funcs[0].Body.Stmts
	require.Len(t, stmts, 3)

	decl, ok := stmts[0].(ast.VarDecl)
	require.True(t, ok)
	assert.Equal(t, "a", decl.Name)
	require.NotNil(t, decl.Init)

	assign, ok := stmts[1].(ast.Assign)
	require.True(t, ok)
	assert.Equal(t, "a", assign.Name)
}

func TestParse_IfElseDanglingBindsNearest(t *testing.T) {
	unit := mustParse(t, `
		int main() {
			if (1)
				if (0)
					return 1;
				else
					return 2;
			return 3;
		}
	`)
	stmts := unit.Funcs[0].Body.Stmts
	outer, ok := stmts[0].(ast.If)
	require.True(t, ok)
	inner, ok := outer.Then.(ast.If)
	require.True(t, ok)
	require.NotNil(t, inner.Else, "dangling else must bind to the nearest if")
	assert.Nil(t, outer.Else)
}

func TestParse_While(t *testing.T) {
	unit := mustParse(t, `int main() { while (1) { break; continue; } return 0; }`)
	w, ok := unit.Funcs[0].Body.Stmts[0].(ast.While)
	require.True(t, ok)
	block, ok := w.Body.(*ast.Block)
	require.True(t, ok)
	require.Len(t, block.Stmts, 2)
	_, isBreak := block.Stmts[0].(ast.Break)
	_, isContinue := block.Stmts[1].(ast.Continue)
	assert.True(t, isBreak)
	assert.True(t, isContinue)
}

func TestParse_OperatorPrecedence(t *testing.T) {
	unit := mustParse(t, `int main() { return 1 + 2 * 3 || 4 && 5 == 6; }`)
	ret := unit.Funcs[0].Body.Stmts[0].(ast.Return)
	top, ok := ret.Expr.(ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.Or, top.Op, "|| must bind loosest")
}

func TestParse_CallExpr(t *testing.T) {
	unit := mustParse(t, `int main() { return f(1, 2, g(3)); }`)
	ret := unit.Funcs[0].Body.Stmts[0].(ast.Return)
	call, ok := ret.Expr.(ast.CallExpr)
	require.True(t, ok)
	assert.Equal(t, "f", call.Name)
	require.Len(t, call.Args, 3)
	_, ok = call.Args[2].(ast.CallExpr)
	assert.True(t, ok)
}

func TestParse_UnaryOperators(t *testing.T) {
	unit := mustParse(t, `int main() { return !-+1; }`)
	ret := unit.Funcs[0].Body.Stmts[0].(ast.Return)
	not, ok := ret.Expr.(ast.UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.Not, not.Op)
	neg, ok := not.Expr.(ast.UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.Neg, neg.Op)
	pos, ok := neg.Expr.(ast.UnaryExpr)
	require.True(t, ok)
	assert.Equal(t, ast.Pos, pos.Op)
}

func TestParse_SyntaxErrorHasPosition(t *testing.T) {
	toks, err := lexer.New(`int main() { return }`).Tokenize()
	require.NoError(t, err)
	_, err = New(toks).Parse()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}
