package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/toyc/toycc/pkg/ast"
	"github.com/toyc/toycc/pkg/config"
	"github.com/toyc/toycc/pkg/errors"
	"github.com/toyc/toycc/pkg/logging"
	"github.com/toyc/toycc/pkg/metrics"
	"github.com/toyc/toycc/pkg/pipeline"
	"github.com/toyc/toycc/pkg/tracing"
)

func newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <file>",
		Short: "Compile a ToyC source file to RISC-V assembly",
		Args:  cobra.ExactArgs(1),
		RunE:  runCompile,
	}
	cmd.Flags().StringP("output", "o", "", "write assembly to this file instead of stdout")
	cmd.Flags().Bool("emit-ast", false, "print the canonicalized AST instead of compiling further")
	cmd.Flags().Bool("emit-ir", false, "print the three-address IR instead of emitting assembly")
	cmd.Flags().Bool("emit-asm", true, "emit RISC-V assembly (default)")
	return cmd
}

func runCompile(cmd *cobra.Command, args []string) error {
	path := args[0]
	output, _ := cmd.Flags().GetString("output")
	emitAST, _ := cmd.Flags().GetBool("emit-ast")
	emitIR, _ := cmd.Flags().GetBool("emit-ir")

	cfg, err := config.Load(configPath(cmd))
	if err != nil {
		return fatalf("loading config: %w", err)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return fatalf("reading %s: %w", path, err)
	}

	logLevel := logLevelFromString(cfg.LogLevel)
	logFormat := logFormatFromString(cfg.LogFormat)
	logger := logging.NewCompile(os.Stderr, logLevel, logFormat)

	tp, err := tracing.Init(tracing.Config{Exporter: "stdout"})
	if err == nil {
		defer tp.Shutdown(context.Background())
	}

	m := metrics.New()
	p := pipeline.New(logger, m)

	compileID := uuid.NewString()
	result, err := p.Compile(context.Background(), compileID, string(source))
	if err != nil {
		if ce, ok := err.(*errors.CompileError); ok {
			ce.Source = string(source)
			ce.FileName = path
			fmt.Fprint(os.Stderr, errors.Format(ce))
		} else {
			printError(err)
		}
		return fmt.Errorf("compilation failed")
	}

	var out string
	switch {
	case emitAST:
		out = ast.NewPrinter().Print(result.Unit)
	case emitIR:
		out = result.IR.String()
	default:
		out = result.Asm
	}

	if output == "" {
		fmt.Println(out)
		return nil
	}
	if err := os.WriteFile(output, []byte(out), 0o644); err != nil {
		return fatalf("writing %s: %w", output, err)
	}
	printSuccess(fmt.Sprintf("wrote %s", output))
	return nil
}

func logLevelFromString(s string) logging.Level {
	switch s {
	case "debug":
		return logging.Debug
	case "warn":
		return logging.Warn
	case "error":
		return logging.Error
	default:
		return logging.Info
	}
}

func logFormatFromString(s string) logging.Format {
	if s == "json" {
		return logging.JSONFormat
	}
	return logging.TextFormat
}
