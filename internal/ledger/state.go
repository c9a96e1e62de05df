// Package ledger owns the authoritative application state (transaction log,
// configuration, installment plans and loans) and the compound writes over it.
// Balances are never stored here; they are derived by the engine package.
package ledger

import (
	"errors"
	"sort"

	"github.com/dvloznov/finance-dashboard/internal/domain"
	"github.com/dvloznov/finance-dashboard/internal/engine"
)

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransaction is returned when a transaction violates a stored invariant.
	ErrInvalidTransaction = errors.New("invalid transaction")

	// ErrInvalidConfig is returned for malformed card, account, category, plan or loan input.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrCategoryInUse is returned when deleting a category still referenced by a transaction.
	ErrCategoryInUse = errors.New("category in use")

	// ErrPlanComplete is returned when paying an installment plan that is already fully paid.
	ErrPlanComplete = errors.New("installment plan already complete")
)

// State is everything persisted for one user.
type State struct {
	Transactions     []domain.Transaction                `json:"transactions"`
	Cards            map[string]domain.CardConfig        `json:"cards"`
	BankAccounts     map[string]domain.BankAccountConfig `json:"bankAccounts"`
	Categories       map[string]domain.Category          `json:"categories"`
	InstallmentPlans map[string]domain.InstallmentPlan   `json:"installmentPlans"`
	Loans            map[string]domain.Loan              `json:"loans"`
}

// NewState returns an empty state with every collection initialised.
func NewState() *State {
	return &State{
		Transactions:     []domain.Transaction{},
		Cards:            make(map[string]domain.CardConfig),
		BankAccounts:     make(map[string]domain.BankAccountConfig),
		Categories:       make(map[string]domain.Category),
		InstallmentPlans: make(map[string]domain.InstallmentPlan),
		Loans:            make(map[string]domain.Loan),
	}
}

// Normalize replaces nil collections with empty ones, e.g. after decoding.
func (s *State) Normalize() {
	if s.Transactions == nil {
		s.Transactions = []domain.Transaction{}
	}
	if s.Cards == nil {
		s.Cards = make(map[string]domain.CardConfig)
	}
	if s.BankAccounts == nil {
		s.BankAccounts = make(map[string]domain.BankAccountConfig)
	}
	if s.Categories == nil {
		s.Categories = make(map[string]domain.Category)
	}
	if s.InstallmentPlans == nil {
		s.InstallmentPlans = make(map[string]domain.InstallmentPlan)
	}
	if s.Loans == nil {
		s.Loans = make(map[string]domain.Loan)
	}
}

// Clone returns a deep copy. Operations run against a clone so that a failed
// write leaves the caller's state untouched.
func (s *State) Clone() *State {
	c := &State{
		Transactions:     make([]domain.Transaction, len(s.Transactions)),
		Cards:            make(map[string]domain.CardConfig, len(s.Cards)),
		BankAccounts:     make(map[string]domain.BankAccountConfig, len(s.BankAccounts)),
		Categories:       make(map[string]domain.Category, len(s.Categories)),
		InstallmentPlans: make(map[string]domain.InstallmentPlan, len(s.InstallmentPlans)),
		Loans:            make(map[string]domain.Loan, len(s.Loans)),
	}
	copy(c.Transactions, s.Transactions)
	for k, v := range s.Cards {
		c.Cards[k] = v
	}
	for k, v := range s.BankAccounts {
		c.BankAccounts[k] = v
	}
	for k, v := range s.Categories {
		c.Categories[k] = v
	}
	for k, v := range s.InstallmentPlans {
		c.InstallmentPlans[k] = v
	}
	for k, v := range s.Loans {
		c.Loans[k] = v
	}
	return c
}

// Snapshot derives the financial snapshot for period.
func (s *State) Snapshot(period domain.Period) *engine.Snapshot {
	return engine.ComputeSnapshot(s.Transactions, s.Cards, s.BankAccounts, period)
}

// SortedTransactions returns the log in listing order (newest first).
func (s *State) SortedTransactions() []domain.Transaction {
	return engine.SortTransactions(s.Transactions)
}

// Plans returns the installment plans ordered by creation time, newest first.
func (s *State) Plans() []domain.InstallmentPlan {
	out := make([]domain.InstallmentPlan, 0, len(s.InstallmentPlans))
	for _, p := range s.InstallmentPlans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// LoanList returns the loans ordered by id.
func (s *State) LoanList() []domain.Loan {
	out := make([]domain.Loan, 0, len(s.Loans))
	for _, l := range s.Loans {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Transaction returns the transaction with id.
func (s *State) Transaction(id string) (domain.Transaction, bool) {
	if i := s.indexOf(id); i >= 0 {
		return s.Transactions[i], true
	}
	return domain.Transaction{}, false
}

func (s *State) indexOf(id string) int {
	for i := range s.Transactions {
		if s.Transactions[i].ID == id {
			return i
		}
	}
	return -1
}
