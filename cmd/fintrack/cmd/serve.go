package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/pigeonworks-llc/fintrack/internal/api"
	"github.com/pigeonworks-llc/fintrack/internal/audit"
	"github.com/pigeonworks-llc/fintrack/internal/category"
	"github.com/pigeonworks-llc/fintrack/internal/config"
	"github.com/pigeonworks-llc/fintrack/internal/ledger"
	"github.com/pigeonworks-llc/fintrack/internal/models"
	"github.com/pigeonworks-llc/fintrack/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ledger HTTP server with the generation timer",
	Run: func(cmd *cobra.Command, args []string) {
		runServe()
	},
}

func runServe() {
	cfg, err := config.Load(envFile)
	exitOnError(err, "Failed to load configuration")

	st, err := store.New(cfg.DBPath, models.Collections())
	exitOnError(err, "Failed to open entity database")
	defer st.Close()

	outbox := store.NewOutbox(st)
	defer outbox.Close()

	l, err := ledger.Open(outbox, config.Version)
	exitOnError(err, "Failed to load ledger")

	auditLog, err := audit.Open(cfg.AuditDBPath)
	exitOnError(err, "Failed to open audit database")
	defer auditLog.Close()

	var taxonomy *category.Taxonomy
	if cfg.CategoriesPath != "" {
		taxonomy, err = category.Load(cfg.CategoriesPath)
		exitOnError(err, "Failed to load category taxonomy")
		slog.Info("Loaded category taxonomy", "path", cfg.CategoriesPath)
	}

	// Catch up schedules that came due while the server was down.
	report := l.GenerateDue()
	if err := auditLog.RecordRun("startup", report.Generated, report.Skipped, report.Completed); err != nil {
		slog.Warn("Failed to record generation run", "error", err)
	}

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.GenerationSchedule, func() {
		r := l.GenerateDue()
		if err := auditLog.RecordRun("timer", r.Generated, r.Skipped, r.Completed); err != nil {
			slog.Warn("Failed to record generation run", "error", err)
		}
	})
	exitOnError(err, "Invalid generation schedule")
	scheduler.Start()
	defer scheduler.Stop()

	history := ledger.NewHistory(cfg.HistoryCapacity)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: api.NewRouter(l, history, taxonomy),
	}

	go func() {
		slog.Info("Starting fintrack server",
			"port", cfg.Port,
			"db", cfg.DBPath,
			"schedule", cfg.GenerationSchedule,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Forced shutdown", "error", err)
	}
	if err := outbox.Flush(); err != nil {
		slog.Error("Failed to flush pending writes", "error", err)
	}
}
