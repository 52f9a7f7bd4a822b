// Package pipeline drives one compile end to end — lex, parse, analyze,
// generate IR, emit assembly — instrumenting each stage with logging,
// tracing, and metrics so `toycc compile` and `toycc serve` share a
// single, observable entry point into the core compiler.
package pipeline

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/toyc/toycc/pkg/asm"
	"github.com/toyc/toycc/pkg/ast"
	"github.com/toyc/toycc/pkg/errors"
	"github.com/toyc/toycc/pkg/ir"
	"github.com/toyc/toycc/pkg/lexer"
	"github.com/toyc/toycc/pkg/logging"
	"github.com/toyc/toycc/pkg/metrics"
	"github.com/toyc/toycc/pkg/parser"
	"github.com/toyc/toycc/pkg/sema"
	"github.com/toyc/toycc/pkg/tracing"
)

// locationPattern pulls the line/column spec.md §7 requires lexer and
// parser errors to carry out of their formatted message, so pkg/errors
// can render a source snippet and caret under the diagnostic.
var locationPattern = regexp.MustCompile(`at line (\d+), column (\d+): (.*)`)

// Result is everything a successful compile produces.
type Result struct {
	Unit *ast.Unit
	IR   *ir.Program
	Asm  string
}

// Pipeline bundles the observability dependencies each compile reports
// through. A zero-value Pipeline works: every field is optional.
type Pipeline struct {
	Logger  *logging.Logger
	Metrics *metrics.Metrics
}

// New builds a Pipeline. Either argument may be nil.
func New(logger *logging.Logger, m *metrics.Metrics) *Pipeline {
	if logger == nil {
		logger = logging.Default()
	}
	return &Pipeline{Logger: logger, Metrics: m}
}

// Compile runs the full pipeline over source, returning the first stage
// that fails as a *errors.CompileError.
func (p *Pipeline) Compile(ctx context.Context, compileID, source string) (*Result, error) {
	ctx, rootSpan := tracing.StartCompile(ctx, compileID)
	defer rootSpan.End()
	logger := p.Logger
	if logger == nil {
		logger = logging.Default()
	}
	log := logger.With(map[string]any{"compile_id": compileID})

	tokens, err := runStage(ctx, p, log, tracing.StageLex, func() ([]lexer.Token, error) {
		toks, err := lexer.New(source).Tokenize()
		if err != nil {
			return nil, wrap(errors.PhaseLexer, err)
		}
		return toks, nil
	})
	if err != nil {
		p.record("error")
		return nil, err
	}

	unit, err := runStage(ctx, p, log, tracing.StageParse, func() (*ast.Unit, error) {
		u, err := parser.New(tokens).Parse()
		if err != nil {
			return nil, wrap(errors.PhaseParser, err)
		}
		return u, nil
	})
	if err != nil {
		p.record("error")
		return nil, err
	}

	if _, err := runStage(ctx, p, log, tracing.StageAnalyze, func() (struct{}, error) {
		if err := sema.Analyze(unit); err != nil {
			return struct{}{}, wrap(errors.PhaseSema, err)
		}
		return struct{}{}, nil
	}); err != nil {
		p.record("error")
		return nil, err
	}

	prog, err := runStage(ctx, p, log, tracing.StageIRGen, func() (*ir.Program, error) {
		return ir.Generate(unit), nil
	})
	if err != nil {
		p.record("error")
		return nil, err
	}
	if p.Metrics != nil {
		p.Metrics.AddFunctionsCompiled(len(prog.Funcs))
	}

	text, err := runStage(ctx, p, log, tracing.StageEmit, func() (string, error) {
		return asm.Emit(prog), nil
	})
	if err != nil {
		p.record("error")
		return nil, err
	}

	p.record("ok")
	log.Info("compile succeeded", map[string]any{"functions": len(prog.Funcs)})
	return &Result{Unit: unit, IR: prog, Asm: text}, nil
}

// runStage is generic over fn's return type; Go's lack of method type
// parameters pushes this out to a free function.
func runStage[T any](ctx context.Context, p *Pipeline, log *logging.Logger, name string, fn func() (T, error)) (T, error) {
	_, span := tracing.StartStage(ctx, name)
	defer span.End()

	start := time.Now()
	result, err := fn()
	elapsed := time.Since(start).Seconds()

	if p.Metrics != nil {
		p.Metrics.ObserveStageDuration(name, elapsed)
	}
	if err != nil {
		tracing.FailStage(span, err)
		log.Warn("stage failed", map[string]any{"stage": name, "error": err.Error()})
	}
	return result, err
}

func (p *Pipeline) record(result string) {
	if p.Metrics != nil {
		p.Metrics.RecordCompile(result)
	}
}

// wrap turns a plain "<phase> error at line L, column C: detail" error
// from the lexer/parser, or a free-form sema error, into a structured
// *errors.CompileError the CLI can render with a source snippet.
func wrap(phase errors.Phase, err error) *errors.CompileError {
	msg := err.Error()
	if m := locationPattern.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		col, _ := strconv.Atoi(m[2])
		return &errors.CompileError{Phase: phase, Message: m[3], Line: line, Column: col}
	}
	return &errors.CompileError{Phase: phase, Message: msg}
}
