package dashboard

import (
	"context"

	"github.com/dvloznov/finance-dashboard/internal/domain"
	"github.com/dvloznov/finance-dashboard/internal/ledger"
)

func (s *Service) AddTransaction(ctx context.Context, userID string, tx domain.Transaction) (domain.Transaction, error) {
	var added domain.Transaction
	err := s.mutate(ctx, "AddTransaction", userID, func(st *ledger.State) error {
		var err error
		added, err = st.AddTransaction(tx, s.now())
		return err
	})
	return added, err
}

func (s *Service) UpdateTransaction(ctx context.Context, userID string, tx domain.Transaction) error {
	return s.mutate(ctx, "UpdateTransaction", userID, func(st *ledger.State) error {
		return st.UpdateTransaction(tx)
	})
}

func (s *Service) DeleteTransaction(ctx context.Context, userID, id string) (domain.Transaction, error) {
	var deleted domain.Transaction
	err := s.mutate(ctx, "DeleteTransaction", userID, func(st *ledger.State) error {
		var err error
		deleted, err = st.DeleteTransaction(id)
		return err
	})
	return deleted, err
}

// RecordBNPLPurchase creates a plan and its first installment atomically.
func (s *Service) RecordBNPLPurchase(ctx context.Context, userID string, p ledger.BNPLPurchase) (domain.InstallmentPlan, domain.Transaction, error) {
	var (
		plan domain.InstallmentPlan
		tx   domain.Transaction
	)
	err := s.mutate(ctx, "RecordBNPLPurchase", userID, func(st *ledger.State) error {
		var err error
		plan, tx, err = st.RecordBNPLPurchase(p, s.now())
		return err
	})
	return plan, tx, err
}

func (s *Service) RecordInstallmentPayment(ctx context.Context, userID, planID string, p ledger.InstallmentPayment) (domain.InstallmentPlan, domain.Transaction, error) {
	var (
		plan domain.InstallmentPlan
		tx   domain.Transaction
	)
	err := s.mutate(ctx, "RecordInstallmentPayment", userID, func(st *ledger.State) error {
		var err error
		plan, tx, err = st.RecordInstallmentPayment(planID, p, s.now())
		return err
	})
	return plan, tx, err
}

// RecordTransfer appends both legs of a transfer or neither.
func (s *Service) RecordTransfer(ctx context.Context, userID string, t ledger.Transfer) (source, destination domain.Transaction, err error) {
	err = s.mutate(ctx, "RecordTransfer", userID, func(st *ledger.State) error {
		var err error
		source, destination, err = st.RecordTransfer(t, s.now())
		return err
	})
	return source, destination, err
}

func (s *Service) UpsertCard(ctx context.Context, userID string, card domain.CardConfig) (domain.CardConfig, error) {
	var saved domain.CardConfig
	err := s.mutate(ctx, "UpsertCard", userID, func(st *ledger.State) error {
		var err error
		saved, err = st.UpsertCard(card)
		return err
	})
	return saved, err
}

func (s *Service) UpsertBankAccount(ctx context.Context, userID string, account domain.BankAccountConfig) (domain.BankAccountConfig, error) {
	var saved domain.BankAccountConfig
	err := s.mutate(ctx, "UpsertBankAccount", userID, func(st *ledger.State) error {
		var err error
		saved, err = st.UpsertBankAccount(account)
		return err
	})
	return saved, err
}

func (s *Service) UpsertCategory(ctx context.Context, userID string, c domain.Category) (domain.Category, error) {
	var saved domain.Category
	err := s.mutate(ctx, "UpsertCategory", userID, func(st *ledger.State) error {
		var err error
		saved, err = st.UpsertCategory(c)
		return err
	})
	return saved, err
}

func (s *Service) DeleteCategory(ctx context.Context, userID, id string) error {
	return s.mutate(ctx, "DeleteCategory", userID, func(st *ledger.State) error {
		return st.DeleteCategory(id)
	})
}

func (s *Service) AddLoan(ctx context.Context, userID string, l domain.Loan) (domain.Loan, error) {
	var saved domain.Loan
	err := s.mutate(ctx, "AddLoan", userID, func(st *ledger.State) error {
		var err error
		saved, err = st.AddLoan(l)
		return err
	})
	return saved, err
}
