package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hoedur-go/hoedur/internal/archive"
	"github.com/hoedur-go/hoedur/internal/config"
	"github.com/hoedur-go/hoedur/internal/corpusimport"
	"github.com/hoedur-go/hoedur/internal/tui"
	"github.com/hoedur-go/hoedur/pkg/chrono"
	"github.com/hoedur-go/hoedur/pkg/corpus"
	"github.com/hoedur-go/hoedur/pkg/emulator"
	"github.com/hoedur-go/hoedur/pkg/fuzzer"
	"github.com/hoedur-go/hoedur/pkg/inputfile"
	"github.com/hoedur-go/hoedur/pkg/stopreason"
)

func newFuzzCmd() *cobra.Command {
	var (
		configFile string
		archiveOut string
		importDir  string
		seed       uint64
		enableTUI  bool
	)

	cmd := &cobra.Command{
		Use:   "fuzz",
		Short: "Run the coverage-guided fuzzing loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if configFile != "" {
				loaded, err := config.Load(configFile)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if seed != 0 {
				cfg.Mutation.Seed = seed
			}
			if archiveOut != "" {
				cfg.Archive.Dir = archiveOut
			}
			if importDir != "" {
				cfg.Corpus.ImportDir = importDir
			}

			return runFuzz(cfg, enableTUI)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to config file (YAML)")
	cmd.Flags().StringVarP(&archiveOut, "archive", "a", "", "Output archive path (overrides config)")
	cmd.Flags().StringVar(&importDir, "import", "", "Directory of seed inputs to import")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Fuzzer PRNG seed (0 picks the config default)")
	cmd.Flags().BoolVar(&enableTUI, "tui", true, "Show the live fuzzing dashboard")

	return cmd
}

func runFuzz(cfg *config.Config, enableTUI bool) error {
	arc, err := archive.Create(cfg.Archive.Dir + ".tar.gz")
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer arc.Close()

	if err := arc.WriteSeed(cfg.Mutation.Seed); err != nil {
		return fmt.Errorf("record seed: %w", err)
	}

	emu := emulator.NewReference(64, 8)
	c := corpus.New()

	if cfg.Corpus.ImportDir != "" {
		imported, err := corpusimport.LoadDir(cfg.Corpus.ImportDir, 0)
		if err != nil {
			return fmt.Errorf("import corpus: %w", err)
		}
		for _, f := range imported {
			if err := seedFromFile(c, emu, f); err != nil {
				return fmt.Errorf("seed input %d: %w", f.ID, err)
			}
		}
	}

	stats := tui.NewStats()
	sink := &statsSink{archive: arc, stats: stats, corpus: c}

	fcfg := fuzzer.DefaultConfig(cfg.Mutation.Seed)
	fcfg.Snapshots = cfg.Target.Snapshots
	fcfg.RandomChanceInput = cfg.Mutation.RandomChanceInput

	fz := fuzzer.New(fcfg, emu, c, sink)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fz.RequestExit()
	}()

	if enableTUI && cfg.Output.EnableTUI {
		dashboard := tui.NewDashboard(cfg.Target.Name, stats, fz.RequestExit)
		runErr := make(chan error, 1)
		go func() { runErr <- fz.Run() }()
		if err := tui.Run(dashboard); err != nil {
			fz.RequestExit()
		}
		return <-runErr
	}

	return fz.Run()
}

// statsSink forwards accepted inputs to the archive and keeps the live
// dashboard counters current.
type statsSink struct {
	archive *archive.Archive
	stats   *tui.Stats
	corpus  *corpus.Corpus
}

func (s *statsSink) WriteInput(category stopreason.Category, f *inputfile.File) error {
	s.stats.IncExecutions()
	s.stats.SetCorpusSize(s.corpus.Len())
	switch category {
	case stopreason.CategoryCrash:
		s.stats.IncCrashes()
	case stopreason.CategoryTimeout:
		s.stats.IncTimeouts()
	}
	return s.archive.WriteInput(category, f)
}

// seedFromFile admits an imported corpus file as a scheduling baseline,
// replaying it once to recover its coverage bitmap.
func seedFromFile(c *corpus.Corpus, emu emulator.Emulator, f *inputfile.File) error {
	res, err := emu.Run(f)
	if err != nil {
		return err
	}
	c.ProcessResult(nil, corpus.Result{
		File:       f,
		Chrono:     chrono.Build(res.Hardware.AccessLog),
		Bitmap:     res.Coverage,
		StopReason: res.StopReason,
	}, false)
	return nil
}
