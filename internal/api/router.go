// Package api assembles the HTTP handlers and middleware into one handler.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-dashboard/internal/advisor"
	"github.com/dvloznov/finance-dashboard/internal/api/handlers"
	"github.com/dvloznov/finance-dashboard/internal/api/middleware"
	"github.com/dvloznov/finance-dashboard/internal/jobs"
)

// Options configures NewRouter.
type Options struct {
	Service       handlers.Service
	JobStore      jobs.JobStore
	Advisor       advisor.Advisor
	AllowedOrigin string
}

// routes maps HTTP methods to handlers for one path.
type routes map[string]http.HandlerFunc

func (rt routes) serve(w http.ResponseWriter, r *http.Request) {
	if h, ok := rt[r.Method]; ok {
		h(w, r)
		return
	}
	middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

// withID strips prefix from the path and passes the remaining id on.
func withID(prefix string, h func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, prefix)
		if id == "" || strings.Contains(id, "/") {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		h(w, r, id)
	}
}

// NewRouter returns the full API handler with middleware applied.
func NewRouter(opts Options, log zerolog.Logger) http.Handler {
	ledgerHandler := handlers.NewLedgerHandler(opts.Service)
	configHandler := handlers.NewConfigHandler(opts.Service)
	adviceHandler := handlers.NewAdviceHandler(opts.Service, opts.Advisor)
	jobsHandler := handlers.NewJobsHandler(opts.Service, opts.JobStore)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/snapshot", routes{http.MethodGet: ledgerHandler.GetSnapshot}.serve)

	// Transactions endpoints
	mux.HandleFunc("/api/transactions", routes{
		http.MethodGet:  ledgerHandler.ListTransactions,
		http.MethodPost: ledgerHandler.CreateTransaction,
	}.serve)
	mux.HandleFunc("/api/transactions/", routes{
		http.MethodPut:    withID("/api/transactions/", ledgerHandler.UpdateTransaction),
		http.MethodDelete: withID("/api/transactions/", ledgerHandler.DeleteTransaction),
	}.serve)

	mux.HandleFunc("/api/bnpl", routes{http.MethodPost: ledgerHandler.CreateBNPLPurchase}.serve)
	mux.HandleFunc("/api/installments", routes{http.MethodGet: ledgerHandler.ListInstallmentPlans}.serve)
	mux.HandleFunc("/api/installments/", func(w http.ResponseWriter, r *http.Request) {
		// /api/installments/{id}/payments
		rest := strings.TrimPrefix(r.URL.Path, "/api/installments/")
		planID, tail, _ := strings.Cut(rest, "/")
		if planID == "" || tail != "payments" {
			middleware.WriteError(w, http.StatusNotFound, "Not found")
			return
		}
		routes{http.MethodPost: func(w http.ResponseWriter, r *http.Request) {
			ledgerHandler.CreateInstallmentPayment(w, r, planID)
		}}.serve(w, r)
	})
	mux.HandleFunc("/api/transfers", routes{http.MethodPost: ledgerHandler.CreateTransfer}.serve)

	// Configuration endpoints
	mux.HandleFunc("/api/cards", routes{
		http.MethodGet:  configHandler.ListCards,
		http.MethodPost: configHandler.UpsertCard,
	}.serve)
	mux.HandleFunc("/api/accounts", routes{
		http.MethodGet:  configHandler.ListBankAccounts,
		http.MethodPost: configHandler.UpsertBankAccount,
	}.serve)
	mux.HandleFunc("/api/categories", routes{
		http.MethodGet:  configHandler.ListCategories,
		http.MethodPost: configHandler.UpsertCategory,
	}.serve)
	mux.HandleFunc("/api/categories/", routes{
		http.MethodDelete: withID("/api/categories/", configHandler.DeleteCategory),
	}.serve)
	mux.HandleFunc("/api/loans", routes{
		http.MethodGet:  configHandler.ListLoans,
		http.MethodPost: configHandler.CreateLoan,
	}.serve)

	mux.HandleFunc("/api/advice", routes{http.MethodPost: adviceHandler.GetAdvice}.serve)

	// Backup and jobs endpoints
	mux.HandleFunc("/api/backups", routes{http.MethodPost: jobsHandler.CreateBackup}.serve)
	mux.HandleFunc("/api/jobs", routes{http.MethodGet: jobsHandler.ListJobs}.serve)
	mux.HandleFunc("/api/jobs/", routes{
		http.MethodGet: withID("/api/jobs/", jobsHandler.GetJob),
	}.serve)

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	origin := opts.AllowedOrigin
	if origin == "" {
		origin = "*"
	}

	return middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.CORS(origin)(
					middleware.Auth("/health")(mux),
				),
			),
		),
	)
}
