package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/fintrack/internal/config"
	"github.com/pigeonworks-llc/fintrack/internal/ledger"
	"github.com/pigeonworks-llc/fintrack/internal/models"
	"github.com/pigeonworks-llc/fintrack/internal/store"
)

var (
	importIn   string
	importMode string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Restore the entity graph from a backup document",
	Run: func(cmd *cobra.Command, args []string) {
		runImport()
	},
}

func init() {
	importCmd.Flags().StringVar(&importIn, "in", "", "Backup file to import (required)")
	importCmd.Flags().StringVar(&importMode, "mode", "replace", "Import mode: replace or merge")
	_ = importCmd.MarkFlagRequired("in")
}

func runImport() {
	cfg, err := config.Load(envFile)
	exitOnError(err, "Failed to load configuration")

	raw, err := os.ReadFile(importIn)
	exitOnError(err, "Failed to read backup file")

	st, err := store.New(cfg.DBPath, models.Collections())
	exitOnError(err, "Failed to open entity database")
	defer st.Close()

	l, err := ledger.Open(st, config.Version)
	exitOnError(err, "Failed to load ledger")

	report, err := l.Import(raw, ledger.ImportMode(importMode))
	exitOnError(err, "Import failed")

	for _, warning := range report.Warnings {
		fmt.Printf("warning: %s\n", warning)
	}
	total := 0
	for _, n := range report.Imported {
		total += n
	}
	skipped := 0
	for _, n := range report.Skipped {
		skipped += n
	}
	fmt.Printf("Imported %d records (mode=%s, skipped=%d)\n", total, report.Mode, skipped)
}
