package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hoedur-go/hoedur/pkg/emulator"
	"github.com/hoedur-go/hoedur/pkg/inputfile"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <input-file>",
		Short: "Replay a single stored input and print its stop reason",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSingle(args[0])
		},
	}
	return cmd
}

func runSingle(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	in, err := inputfile.ReadFrom(f)
	if err != nil {
		return fmt.Errorf("decode input: %w", err)
	}

	emu := emulator.NewReference(64, 8)
	res, err := emu.Run(in)
	if err != nil {
		return fmt.Errorf("run input: %w", err)
	}

	fmt.Printf("stop reason: %s\n", res.StopReason)
	fmt.Printf("basic blocks: %d\n", res.Counts.BasicBlocks)
	fmt.Printf("execution time: %s\n", time.Duration(res.ExecutionTime))
	if res.Coverage != nil {
		fmt.Printf("edges covered: %d\n", len(res.Coverage.Edges()))
	}
	return nil
}
