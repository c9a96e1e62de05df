// Package handlers implements the HTTP endpoints over the dashboard service.
// Every handler works on the state of the user set by middleware.Auth.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-dashboard/internal/api/middleware"
	"github.com/dvloznov/finance-dashboard/internal/dashboard"
	"github.com/dvloznov/finance-dashboard/internal/domain"
	"github.com/dvloznov/finance-dashboard/internal/engine"
	"github.com/dvloznov/finance-dashboard/internal/jobs"
	"github.com/dvloznov/finance-dashboard/internal/ledger"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Service is the part of dashboard.Service the handlers use.
type Service interface {
	State(ctx context.Context, userID string) (*ledger.State, error)
	Snapshot(ctx context.Context, userID string, period domain.Period) (*engine.Snapshot, error)
	Overview(ctx context.Context, userID string, period domain.Period) (*dashboard.Overview, error)
	ListTransactions(ctx context.Context, userID string, period domain.Period) ([]domain.Transaction, error)
	InstallmentPlans(ctx context.Context, userID string) ([]domain.InstallmentPlan, error)

	AddTransaction(ctx context.Context, userID string, tx domain.Transaction) (domain.Transaction, error)
	UpdateTransaction(ctx context.Context, userID string, tx domain.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id string) (domain.Transaction, error)
	RecordBNPLPurchase(ctx context.Context, userID string, p ledger.BNPLPurchase) (domain.InstallmentPlan, domain.Transaction, error)
	RecordInstallmentPayment(ctx context.Context, userID, planID string, p ledger.InstallmentPayment) (domain.InstallmentPlan, domain.Transaction, error)
	RecordTransfer(ctx context.Context, userID string, t ledger.Transfer) (domain.Transaction, domain.Transaction, error)

	UpsertCard(ctx context.Context, userID string, card domain.CardConfig) (domain.CardConfig, error)
	UpsertBankAccount(ctx context.Context, userID string, account domain.BankAccountConfig) (domain.BankAccountConfig, error)
	UpsertCategory(ctx context.Context, userID string, c domain.Category) (domain.Category, error)
	DeleteCategory(ctx context.Context, userID, id string) error
	AddLoan(ctx context.Context, userID string, l domain.Loan) (domain.Loan, error)

	RequestBackup(ctx context.Context, userID string) (*jobs.BackupJob, error)
}

var _ Service = (*dashboard.Service)(nil)

// writeServiceError maps sentinel errors to status codes and logs the rest.
func writeServiceError(w http.ResponseWriter, log zerolog.Logger, err error, what string) {
	switch {
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, jobs.ErrJobNotFound):
		middleware.WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrInvalidTransaction), errors.Is(err, ledger.ErrInvalidConfig):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ledger.ErrCategoryInUse), errors.Is(err, ledger.ErrPlanComplete):
		middleware.WriteError(w, http.StatusConflict, err.Error())
	case errors.Is(err, dashboard.ErrMissingUser):
		middleware.WriteError(w, http.StatusUnauthorized, err.Error())
	default:
		log.Error().Err(err).Msg("Failed to " + what)
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to "+what)
	}
}

// decodeJSON reads a JSON body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// periodFromQuery reads ?year=&month=; both default to the current year, all months.
func periodFromQuery(w http.ResponseWriter, r *http.Request, now time.Time) (domain.Period, bool) {
	q := r.URL.Query()
	period, err := domain.ParsePeriod(q.Get("year"), q.Get("month"), now)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return domain.Period{}, false
	}
	return period, true
}
