package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/fintrack/internal/config"
	"github.com/pigeonworks-llc/fintrack/internal/ledger"
	"github.com/pigeonworks-llc/fintrack/internal/models"
	"github.com/pigeonworks-llc/fintrack/internal/store"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a backup document of the whole entity graph",
	Run: func(cmd *cobra.Command, args []string) {
		runExport()
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output file (default: stdout)")
}

func runExport() {
	cfg, err := config.Load(envFile)
	exitOnError(err, "Failed to load configuration")

	st, err := store.New(cfg.DBPath, models.Collections())
	exitOnError(err, "Failed to open entity database")
	defer st.Close()

	l, err := ledger.Open(st, config.Version)
	exitOnError(err, "Failed to load ledger")

	data, err := json.MarshalIndent(l.Export(), "", "  ")
	exitOnError(err, "Failed to encode backup")
	data = append(data, '\n')

	if exportOut == "" {
		fmt.Print(string(data))
		return
	}
	exitOnError(os.WriteFile(exportOut, data, 0o644), "Failed to write backup file")
	fmt.Printf("Backup written to %s\n", exportOut)
}
