package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/fintrack/internal/config"
	"github.com/pigeonworks-llc/fintrack/internal/ledger"
	"github.com/pigeonworks-llc/fintrack/internal/models"
	"github.com/pigeonworks-llc/fintrack/internal/store"
)

var orphansCleanup bool

var orphansCmd = &cobra.Command{
	Use:   "orphans",
	Short: "Report records whose references no longer resolve",
	Run: func(cmd *cobra.Command, args []string) {
		runOrphans()
	},
}

func init() {
	orphansCmd.Flags().BoolVar(&orphansCleanup, "cleanup", false, "Delete the orphaned records")
}

func runOrphans() {
	cfg, err := config.Load(envFile)
	exitOnError(err, "Failed to load configuration")

	st, err := store.New(cfg.DBPath, models.Collections())
	exitOnError(err, "Failed to open entity database")
	defer st.Close()

	l, err := ledger.Open(st, config.Version)
	exitOnError(err, "Failed to load ledger")

	report := l.FindOrphans()
	if report.Total() == 0 {
		fmt.Println("No orphaned records found")
		return
	}
	for collection, ids := range report {
		for _, id := range ids {
			fmt.Printf("%s: %s\n", collection, id)
		}
	}
	fmt.Printf("%d orphaned records\n", report.Total())

	if orphansCleanup {
		result := l.CleanupOrphans()
		fmt.Printf("Removed %d orphaned records\n", result.Removed)
		for _, e := range result.Errors {
			fmt.Printf("error: %s\n", e)
		}
	}
}
