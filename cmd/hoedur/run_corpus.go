package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hoedur-go/hoedur/internal/corpusimport"
	"github.com/hoedur-go/hoedur/internal/replay"
	"github.com/hoedur-go/hoedur/pkg/emulator"
)

func newRunCorpusCmd() *cobra.Command {
	var (
		workers int
		rps     int
	)

	cmd := &cobra.Command{
		Use:   "run-corpus <dir>",
		Short: "Replay every input in a directory and summarize stop reasons",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCorpus(args[0], workers, rps)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 8, "Number of concurrent emulator workers")
	cmd.Flags().IntVar(&rps, "rps", 0, "Replay rate limit, executions per second (0 = unlimited)")

	return cmd
}

func runCorpus(dir string, workers, rps int) error {
	files, err := corpusimport.LoadDir(dir, 0)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	opts := replay.DefaultOptions()
	opts.Workers = workers
	opts.RPS = rps
	opts.Logger = slog.Default()

	pool, err := replay.NewPool(opts, func() (emulator.Emulator, error) {
		return emulator.NewReference(64, 8), nil
	})
	if err != nil {
		return fmt.Errorf("start replay pool: %w", err)
	}

	outcomes, err := pool.Run(context.Background(), files)
	if err != nil {
		return fmt.Errorf("replay corpus: %w", err)
	}

	byCategory := map[string]int{}
	for _, o := range outcomes {
		if o.Err != nil {
			byCategory["error"]++
			continue
		}
		byCategory[o.Category.String()]++
	}

	fmt.Printf("replayed %d inputs from %s\n", len(outcomes), dir)
	for category, count := range byCategory {
		fmt.Printf("  %-10s %d\n", category, count)
	}
	return nil
}
