package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pigeonworks-llc/fintrack/internal/category"
	"github.com/pigeonworks-llc/fintrack/internal/ledger"
)

// NewRouter wires every handler under /api/1. taxonomy may be nil.
func NewRouter(l *ledger.Ledger, history *ledger.History, taxonomy *category.Taxonomy) chi.Router {
	banks := NewBanksHandler(l)
	accounts := NewAccountsHandler(l)
	transactions := NewTransactionsHandler(l, history, taxonomy)
	schedules := NewSchedulesHandler(l)
	system := NewSystemHandler(l, history)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/1", func(r chi.Router) {
		r.Route("/banks", func(r chi.Router) {
			r.Get("/", banks.List)
			r.Post("/", banks.Create)
			r.Get("/{id}", banks.Get)
			r.Put("/{id}", banks.Update)
			r.Delete("/{id}", banks.Delete)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", accounts.List)
			r.Post("/", accounts.Create)
			r.Get("/{id}", accounts.Get)
			r.Put("/{id}", accounts.Update)
			r.Delete("/{id}", accounts.Delete)
			r.Get("/{id}/transactions", accounts.Transactions)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", transactions.List)
			r.Post("/", transactions.Create)
			r.Get("/summary", transactions.Summary)
			r.Get("/{id}", transactions.Get)
			r.Put("/{id}", transactions.Update)
			r.Delete("/{id}", transactions.Delete)
		})

		r.Route("/plans", func(r chi.Router) {
			r.Get("/", schedules.ListPlans)
			r.Post("/", schedules.CreatePlan)
			r.Get("/{id}", schedules.GetPlan)
			r.Put("/{id}", schedules.UpdatePlan)
			r.Delete("/{id}", schedules.DeletePlan)
			r.Post("/{id}/convert", schedules.ConvertPlan)
		})

		r.Route("/recurrings", func(r chi.Router) {
			r.Get("/", schedules.ListRecurrings)
			r.Post("/", schedules.CreateRecurring)
			r.Get("/{id}", schedules.GetRecurring)
			r.Put("/{id}", schedules.UpdateRecurring)
			r.Delete("/{id}", schedules.DeleteRecurring)
		})

		r.Get("/backup", system.Export)
		r.Post("/backup", system.Import)
		r.Get("/orphans", system.Orphans)
		r.Post("/orphans/cleanup", system.CleanupOrphans)
		r.Post("/generate", system.Generate)
		r.Post("/undo", system.Undo)
		r.Post("/redo", system.Redo)
	})

	return r
}
