package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

var (
	infoColor    = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
)

func printInfo(msg string)    { infoColor.Fprintf(os.Stderr, "[INFO] %s\n", msg) }
func printSuccess(msg string) { successColor.Fprintf(os.Stderr, "[OK] %s\n", msg) }
func printError(err error)    { errorColor.Fprintf(os.Stderr, "[ERROR] %s\n", err) }

func main() {
	rootCmd := &cobra.Command{
		Use:     "toycc",
		Short:   "ToyC — a compiler for a small C subset, targeting RISC-V",
		Version: version,
	}
	rootCmd.PersistentFlags().String("config", "", "path to a toycc.yaml config file")

	rootCmd.AddCommand(newCompileCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newFmtCmd())
	rootCmd.AddCommand(newHistoryCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func configPath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = "toycc.yaml"
	}
	return path
}

func fatalf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
