package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toyc/toycc/pkg/config"
	"github.com/toyc/toycc/pkg/store"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent compile requests from the audit log",
		RunE:  runHistory,
	}
	cmd.Flags().Int("limit", 20, "maximum number of records to show")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	cfg, err := config.Load(configPath(cmd))
	if err != nil {
		return fatalf("loading config: %w", err)
	}

	ctx := context.Background()
	s, err := store.Open(ctx, cfg.StorePath)
	if err != nil {
		return fatalf("opening audit log: %w", err)
	}
	defer s.Close()

	recs, err := s.History(ctx, limit)
	if err != nil {
		return fatalf("reading history: %w", err)
	}
	if len(recs) == 0 {
		printInfo("no compile history yet")
		return nil
	}

	for _, r := range recs {
		line := fmt.Sprintf("%s  %-5s  %s  %d asm lines", r.StartedAt.Format("2006-01-02 15:04:05"), r.Result, r.CompileID, r.AsmLines)
		if r.Error != "" {
			line += "  " + r.Error
		}
		fmt.Println(line)
	}
	return nil
}
