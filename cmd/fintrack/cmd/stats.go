package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/fintrack/internal/audit"
	"github.com/pigeonworks-llc/fintrack/internal/config"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show generation run history statistics",
	Run: func(cmd *cobra.Command, args []string) {
		runStats()
	},
}

func runStats() {
	cfg, err := config.Load(envFile)
	exitOnError(err, "Failed to load configuration")

	auditLog, err := audit.Open(cfg.AuditDBPath)
	exitOnError(err, "Failed to open audit database")
	defer auditLog.Close()

	stats, err := auditLog.Stats()
	exitOnError(err, "Failed to read stats")

	fmt.Println("=== Generation Run Statistics ===")
	fmt.Printf("Runs:            %d\n", stats.Runs)
	fmt.Printf("Generated:       %d\n", stats.TotalGenerated)
	fmt.Printf("Completed:       %d\n", stats.TotalCompleted)
	if stats.Runs > 0 {
		fmt.Printf("First run (UTC): %s\n", stats.FirstRunAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Last run (UTC):  %s\n", stats.LastRunAt.Format("2006-01-02 15:04:05"))
	}

	last, err := auditLog.LastRun()
	exitOnError(err, "Failed to read last run")
	if last != nil {
		fmt.Printf("Last trigger:    %s (generated=%d skipped=%d completed=%d)\n",
			last.Trigger, last.Generated, last.Skipped, last.Completed)
	}
}
