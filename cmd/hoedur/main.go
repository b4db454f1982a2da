// hoedur is a coverage-guided, feedback-driven fuzzer for embedded firmware.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "hoedur",
		Short: "hoedur - coverage-guided fuzzer for embedded firmware",
		Long: `hoedur drives an instrumented CPU emulator with structured,
mutated MMIO input streams, scheduling inputs by entropic, feature-frequency
weighted energy and admitting new-coverage and shorter-input results into a
persistent, archived corpus.`,
	}

	rootCmd.AddCommand(
		newFuzzCmd(),
		newRunCmd(),
		newRunCorpusCmd(),
		newRunCovCmd(),
		newVersionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hoedur version %s\n", version)
		},
	}
}
