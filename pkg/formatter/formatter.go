// Package formatter canonicalizes ToyC source for the `toycc fmt`
// subcommand: parse, then print the AST back out through pkg/ast's
// Printer so every file ends up with identical spacing and brace style.
package formatter

import (
	"fmt"

	"github.com/toyc/toycc/pkg/ast"
	"github.com/toyc/toycc/pkg/lexer"
	"github.com/toyc/toycc/pkg/parser"
)

// Format parses source and reprints it in canonical form. Grounded on
// the teacher's pkg/formatter.Formatter (a thin Format(module) entry
// point wrapping per-node printing), narrowed here to a single function
// since pkg/ast.Printer already does the per-node work and ToyC has no
// compact/expanded dual syntax to convert between, unlike the teacher's
// bidirectional glyph<->keyword formatter.
func Format(source string) (string, error) {
	tokens, err := lexer.New(source).Tokenize()
	if err != nil {
		return "", fmt.Errorf("formatter: %w", err)
	}
	unit, err := parser.New(tokens).Parse()
	if err != nil {
		return "", fmt.Errorf("formatter: %w", err)
	}
	return ast.NewPrinter().Print(unit), nil
}
