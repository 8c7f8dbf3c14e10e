package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"chemca/ca"
	"chemca/sim"
	"chemca/storage"
)

var (
	runOutputCSV string
	runSave      bool
)

var runCmd = &cobra.Command{
	Use:   "run <spec.json>",
	Short: "Run a simulation to completion from a spec file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().StringVar(&runOutputCSV, "csv", "", "write the molar-fraction table to this CSV path instead of stdout")
	runCmd.Flags().BoolVar(&runSave, "save", false, "persist the spec and results to the configured database")
}

func runRun(cmd *cobra.Command, args []string) error {
	spec, err := loadSpecFile(args[0])
	if err != nil {
		return err
	}
	if err := sim.Validate(spec); err != nil {
		return fmt.Errorf("chemca: invalid spec: %w", err)
	}

	seed := spec.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	engine, err := ca.New(spec, rng, log.WithField("simulation", spec.Name))
	if err != nil {
		return err
	}

	result, err := engine.Run(func(p ca.ProgressEvent) {
		log.Infof("progress: %d/%d (%.0f%%)", p.Iteration, p.Total, p.Fraction*100)
	})
	if err != nil {
		return fmt.Errorf("chemca: run failed: %w", err)
	}
	log.Infof("run completed in %s", result.Elapsed)

	if err := writeMolarFractions(result.MolarFractions, runOutputCSV); err != nil {
		return err
	}

	if runSave {
		return saveRun(spec, result)
	}
	return nil
}

func writeMolarFractions(table ca.MolarFractionsTable, path string) error {
	out := os.Stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("chemca: create %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}
	w := csv.NewWriter(out)
	defer w.Flush()
	if err := w.Write(table.Header); err != nil {
		return err
	}
	for _, row := range table.Rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = strconv.FormatFloat(v, 'f', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func saveRun(spec sim.Spec, result *ca.Result) error {
	cfg := loadDBConfig()
	repo, err := storage.OpenSQLite(cfg.Path)
	if err != nil {
		return fmt.Errorf("chemca: open storage at %s: %w", cfg.Path, err)
	}
	defer repo.Close()

	ctx := context.Background()
	id, err := repo.Create(ctx, spec)
	if err != nil {
		return fmt.Errorf("chemca: save spec: %w", err)
	}
	if err := repo.SaveResults(ctx, id, result.History, result.MolarFractions); err != nil {
		return fmt.Errorf("chemca: save results: %w", err)
	}
	log.Infof("saved simulation %s as %s (db=%s)", spec.Name, id, cfg.dsn())
	return nil
}
