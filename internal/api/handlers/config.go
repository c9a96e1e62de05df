package handlers

import (
	"net/http"
	"sort"

	"github.com/dvloznov/finance-dashboard/internal/api/middleware"
	"github.com/dvloznov/finance-dashboard/internal/domain"
	"github.com/dvloznov/finance-dashboard/internal/ledger"
	"github.com/dvloznov/finance-dashboard/internal/logger"
)

// ConfigHandler handles cards, bank accounts, categories and loans.
type ConfigHandler struct {
	svc Service
}

// NewConfigHandler creates a new configuration handler.
func NewConfigHandler(svc Service) *ConfigHandler {
	return &ConfigHandler{svc: svc}
}

func sortedValues[V any](m map[string]V) []V {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]V, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

// list writes one collection of the user's state.
func (h *ConfigHandler) list(w http.ResponseWriter, r *http.Request, key string, pick func(st *ledger.State) interface{}) {
	ctx := r.Context()
	st, err := h.svc.State(ctx, middleware.UserIDFromContext(ctx))
	if err != nil {
		writeServiceError(w, logger.FromContext(ctx), err, "load "+key)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{key: pick(st)})
}

// ListCards handles GET /api/cards
func (h *ConfigHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "cards", func(st *ledger.State) interface{} { return sortedValues(st.Cards) })
}

// UpsertCard handles POST /api/cards
func (h *ConfigHandler) UpsertCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var card domain.CardConfig
	if !decodeJSON(w, r, &card) {
		return
	}
	saved, err := h.svc.UpsertCard(ctx, middleware.UserIDFromContext(ctx), card)
	if err != nil {
		writeServiceError(w, logger.FromContext(ctx), err, "save card")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, saved)
}

// ListBankAccounts handles GET /api/accounts
func (h *ConfigHandler) ListBankAccounts(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "accounts", func(st *ledger.State) interface{} { return sortedValues(st.BankAccounts) })
}

// UpsertBankAccount handles POST /api/accounts
func (h *ConfigHandler) UpsertBankAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var account domain.BankAccountConfig
	if !decodeJSON(w, r, &account) {
		return
	}
	saved, err := h.svc.UpsertBankAccount(ctx, middleware.UserIDFromContext(ctx), account)
	if err != nil {
		writeServiceError(w, logger.FromContext(ctx), err, "save bank account")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, saved)
}

// ListCategories handles GET /api/categories
func (h *ConfigHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "categories", func(st *ledger.State) interface{} { return sortedValues(st.Categories) })
}

// UpsertCategory handles POST /api/categories
func (h *ConfigHandler) UpsertCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var c domain.Category
	if !decodeJSON(w, r, &c) {
		return
	}
	saved, err := h.svc.UpsertCategory(ctx, middleware.UserIDFromContext(ctx), c)
	if err != nil {
		writeServiceError(w, logger.FromContext(ctx), err, "save category")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, saved)
}

// DeleteCategory handles DELETE /api/categories/{id}
func (h *ConfigHandler) DeleteCategory(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	if err := h.svc.DeleteCategory(ctx, middleware.UserIDFromContext(ctx), id); err != nil {
		writeServiceError(w, logger.FromContext(ctx), err, "delete category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListLoans handles GET /api/loans
func (h *ConfigHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, "loans", func(st *ledger.State) interface{} { return st.LoanList() })
}

// CreateLoan handles POST /api/loans
func (h *ConfigHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var l domain.Loan
	if !decodeJSON(w, r, &l) {
		return
	}
	saved, err := h.svc.AddLoan(ctx, middleware.UserIDFromContext(ctx), l)
	if err != nil {
		writeServiceError(w, logger.FromContext(ctx), err, "add loan")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, saved)
}
