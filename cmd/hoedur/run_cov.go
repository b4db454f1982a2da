package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hoedur-go/hoedur/internal/corpusimport"
	"github.com/hoedur-go/hoedur/internal/covreport"
	"github.com/hoedur-go/hoedur/internal/replay"
	"github.com/hoedur-go/hoedur/pkg/emulator"
)

func newRunCovCmd() *cobra.Command {
	var (
		workers int
		outPath string
	)

	cmd := &cobra.Command{
		Use:   "run-cov <dir>",
		Short: "Replay every input in a directory and report aggregate edge coverage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCov(args[0], workers, outPath)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 8, "Number of concurrent emulator workers")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write the JSON report here instead of stdout")

	return cmd
}

func runCov(dir string, workers int, outPath string) error {
	files, err := corpusimport.LoadDir(dir, 0)
	if err != nil {
		return fmt.Errorf("load corpus: %w", err)
	}

	opts := replay.DefaultOptions()
	opts.Workers = workers
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

	builder := covreport.NewBuilder()
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		builder.Add(o.File.ID, o.StopReason, o.Coverage)
	}
	report := builder.Build()

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}

	return covreport.WriteJSON(out, report)
}
