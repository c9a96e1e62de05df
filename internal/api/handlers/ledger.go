package handlers

import (
	"net/http"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/api/middleware"
	"github.com/dvloznov/finance-dashboard/internal/domain"
	"github.com/dvloznov/finance-dashboard/internal/ledger"
	"github.com/dvloznov/finance-dashboard/internal/logger"
)

// LedgerHandler handles the snapshot and every transaction-producing endpoint.
type LedgerHandler struct {
	svc Service
	now func() time.Time
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(svc Service) *LedgerHandler {
	return &LedgerHandler{svc: svc, now: time.Now}
}

// GetSnapshot handles GET /api/snapshot?year=&month=
func (h *LedgerHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	period, ok := periodFromQuery(w, r, h.now())
	if !ok {
		return
	}

	overview, err := h.svc.Overview(ctx, middleware.UserIDFromContext(ctx), period)
	if err != nil {
		writeServiceError(w, logger.FromContext(ctx), err, "compute snapshot")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, overview)
}

// ListTransactions handles GET /api/transactions?year=&month=
func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	period, ok := periodFromQuery(w, r, h.now())
	if !ok {
		return
	}

	txs, err := h.svc.ListTransactions(ctx, middleware.UserIDFromContext(ctx), period)
	if err != nil {
		writeServiceError(w, logger.FromContext(ctx), err, "list transactions")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"count":        len(txs),
	})
}

// CreateTransaction handles POST /api/transactions
func (h *LedgerHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var tx domain.Transaction
	if !decodeJSON(w, r, &tx) {
		return
	}

	added, err := h.svc.AddTransaction(ctx, middleware.UserIDFromContext(ctx), tx)
	if err != nil {
		writeServiceError(w, logger.FromContext(ctx), err, "add transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, added)
}

// UpdateTransaction handles PUT /api/transactions/{id}
func (h *LedgerHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	var tx domain.Transaction
	if !decodeJSON(w, r, &tx) {
		return
	}
	if tx.ID != "" && tx.ID != id {
		middleware.WriteError(w, http.StatusBadRequest, "Transaction id in body does not match the path")
		return
	}
	tx.ID = id

	if err := h.svc.UpdateTransaction(ctx, middleware.UserIDFromContext(ctx), tx); err != nil {
		writeServiceError(w, logger.FromContext(ctx), err, "update transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, tx)
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *LedgerHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	ctx := r.Context()
	deleted, err := h.svc.DeleteTransaction(ctx, middleware.UserIDFromContext(ctx), id)
	if err != nil {
		writeServiceError(w, logger.FromContext(ctx), err, "delete transaction")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, deleted)
}

// ListInstallmentPlans handles GET /api/installments
func (h *LedgerHandler) ListInstallmentPlans(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	plans, err := h.svc.InstallmentPlans(ctx, middleware.UserIDFromContext(ctx))
	if err != nil {
		writeServiceError(w, logger.FromContext(ctx), err, "list installment plans")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"plans": plans,
		"count": len(plans),
	})
}

// CreateBNPLPurchase handles POST /api/bnpl
func (h *LedgerHandler) CreateBNPLPurchase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ledger.BNPLPurchase
	if !decodeJSON(w, r, &req) {
		return
	}

	plan, tx, err := h.svc.RecordBNPLPurchase(ctx, middleware.UserIDFromContext(ctx), req)
	if err != nil {
		writeServiceError(w, logger.FromContext(ctx), err, "record purchase")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"plan":        plan,
		"transaction": tx,
	})
}

// CreateInstallmentPayment handles POST /api/installments/{id}/payments
func (h *LedgerHandler) CreateInstallmentPayment(w http.ResponseWriter, r *http.Request, planID string) {
	ctx := r.Context()
	var req ledger.InstallmentPayment
	if !decodeJSON(w, r, &req) {
		return
	}

	plan, tx, err := h.svc.RecordInstallmentPayment(ctx, middleware.UserIDFromContext(ctx), planID, req)
	if err != nil {
		writeServiceError(w, logger.FromContext(ctx), err, "record installment payment")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"plan":        plan,
		"transaction": tx,
	})
}

// CreateTransfer handles POST /api/transfers
func (h *LedgerHandler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ledger.Transfer
	if !decodeJSON(w, r, &req) {
		return
	}

	source, destination, err := h.svc.RecordTransfer(ctx, middleware.UserIDFromContext(ctx), req)
	if err != nil {
		writeServiceError(w, logger.FromContext(ctx), err, "record transfer")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"source":      source,
		"destination": destination,
	})
}
