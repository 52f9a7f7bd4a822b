package irvm

import (
	"testing"

	"github.com/toyc/toycc/pkg/ir"
	"github.com/toyc/toycc/pkg/lexer"
	"github.com/toyc/toycc/pkg/parser"
	"github.com/toyc/toycc/pkg/sema"
)

func compileAndRun(t *testing.T, src string) int32 {
	t.Helper()
	toks, err := lexer.New(src).Tokenize()
	if err != nil {
		t.Fatalf("lex: %v", err)
	}
	unit, err := parser.New(toks).Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := sema.Analyze(unit); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	result, err := Run(ir.Generate(unit))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return result
}

func TestEndToEnd_EmptyMain(t *testing.T) {
	if got := compileAndRun(t, `int main() { return 0; }`); got != 0 {
		t.Fatalf("want exit status 0, got %d", got)
	}
}

func TestEndToEnd_Arithmetic(t *testing.T) {
	src := `int main() { int a = 3; int b = 4; return a*a + b*b; }`
	if got := compileAndRun(t, src); got != 25 {
		t.Fatalf("want exit status 25, got %d", got)
	}
}

func TestEndToEnd_Shadowing(t *testing.T) {
	src := `int main() { int x = 1; { int x = 2; } return x; }`
	if got := compileAndRun(t, src); got != 1 {
		t.Fatalf("want exit status 1, got %d", got)
	}

	toks, _ := lexer.New(src).Tokenize()
	unit, _ := parser.New(toks).Parse()
	if err := sema.Analyze(unit); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	prog := ir.Generate(unit)
	seen := map[string]bool{}
	for _, fn := range prog.Funcs {
		for _, instr := range fn.Instrs {
			if m, ok := instr.(ir.Move); ok {
				if n, ok := m.Dest.(ir.Name); ok {
					seen[n.Qualified] = true
				}
			}
		}
	}
	if !seen["x@1"] || !seen["x@2"] {
		t.Fatalf("want distinct qualified names x@1 and x@2, saw %v", seen)
	}
}

func TestEndToEnd_ControlFlowAndCalls(t *testing.T) {
	src := `int add(int a, int b) { return a + b; }
		int main() {
			int s = 0; int i = 0;
			while (i < 10) { s = add(s, i); i = i + 1; }
			return s;
		}`
	if got := compileAndRun(t, src); got != 45 {
		t.Fatalf("want exit status 45, got %d", got)
	}

	toks, _ := lexer.New(src).Tokenize()
	unit, _ := parser.New(toks).Parse()
	prog := ir.Generate(unit)
	var calls int
	for _, fn := range prog.Funcs {
		if fn.Name != "main" {
			continue
		}
		for _, instr := range fn.Instrs {
			if _, ok := instr.(ir.Call); ok {
				calls++
			}
		}
	}
	if calls != 2 {
		t.Fatalf("want exactly 2 Call instructions in main (the add call and none from i+1), got %d", calls)
	}
}

func TestEndToEnd_NineArgumentCall(t *testing.T) {
	src := `int f(int a, int b, int c, int d, int e, int g, int h, int i, int j) { return j; }
		int main() { return f(0,0,0,0,0,0,0,0,7); }`
	if got := compileAndRun(t, src); got != 7 {
		t.Fatalf("want exit status 7, got %d", got)
	}
}

func TestEndToEnd_VoidCall(t *testing.T) {
	src := `void log(int x) { return; }
		int main() { log(1); return 0; }`
	if got := compileAndRun(t, src); got != 0 {
		t.Fatalf("want exit status 0, got %d", got)
	}
}
