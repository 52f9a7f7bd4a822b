package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/toyc/toycc/pkg/formatter"
)

func newFmtCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt <file>",
		Short: "Reformat a ToyC source file in canonical style",
		Args:  cobra.ExactArgs(1),
		RunE:  runFmt,
	}
	cmd.Flags().BoolP("write", "w", false, "write the result back to the file instead of printing it")
	return cmd
}

func runFmt(cmd *cobra.Command, args []string) error {
	path := args[0]
	write, _ := cmd.Flags().GetBool("write")

	source, err := os.ReadFile(path)
	if err != nil {
		return fatalf("reading %s: %w", path, err)
	}

	formatted, err := formatter.Format(string(source))
	if err != nil {
		printError(err)
		return fmt.Errorf("format failed")
	}

	if !write {
		fmt.Print(formatted)
		return nil
	}
	if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
		return fatalf("writing %s: %w", path, err)
	}
	printSuccess(fmt.Sprintf("formatted %s", path))
	return nil
}
