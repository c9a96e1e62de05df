package ledger

import (
	"fmt"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/domain"
)

// AddTransaction appends tx to the log, assigning an id when it has none.
// A transaction linked to an installment plan also advances that plan's paid
// counter (never beyond Total), so deleting and re-adding it is a round trip.
func (s *State) AddTransaction(tx domain.Transaction, now time.Time) (domain.Transaction, error) {
	if tx.ID == "" {
		tx.ID = domain.NewTransactionID(now)
	}
	if err := tx.Validate(); err != nil {
		return domain.Transaction{}, fmt.Errorf("AddTransaction: %w: %v", ErrInvalidTransaction, err)
	}
	if s.indexOf(tx.ID) >= 0 {
		return domain.Transaction{}, fmt.Errorf("AddTransaction: %w: duplicate id %s", ErrInvalidTransaction, tx.ID)
	}

	if tx.IsInstallmentPayment {
		plan, ok := s.InstallmentPlans[tx.InstallmentID]
		if !ok {
			return domain.Transaction{}, fmt.Errorf("AddTransaction: installment plan %s: %w", tx.InstallmentID, ErrNotFound)
		}
		if plan.Paid < plan.Total {
			plan.Paid++
		}
		s.InstallmentPlans[plan.ID] = plan
	}

	s.Transactions = append(s.Transactions, tx)
	return tx, nil
}

// UpdateTransaction replaces the stored transaction with the same id. The
// installment link cannot be changed by an edit.
func (s *State) UpdateTransaction(tx domain.Transaction) error {
	i := s.indexOf(tx.ID)
	if i < 0 {
		return fmt.Errorf("UpdateTransaction: transaction %s: %w", tx.ID, ErrNotFound)
	}
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("UpdateTransaction: %w: %v", ErrInvalidTransaction, err)
	}

	prev := s.Transactions[i]
	if prev.IsInstallmentPayment != tx.IsInstallmentPayment || prev.InstallmentID != tx.InstallmentID {
		return fmt.Errorf("UpdateTransaction: %w: installment link is immutable", ErrInvalidTransaction)
	}

	s.Transactions[i] = tx
	return nil
}

// DeleteTransaction removes the transaction with id. Deleting an installment
// payment steps its plan's paid counter back by one, floored at zero.
func (s *State) DeleteTransaction(id string) (domain.Transaction, error) {
	i := s.indexOf(id)
	if i < 0 {
		return domain.Transaction{}, fmt.Errorf("DeleteTransaction: transaction %s: %w", id, ErrNotFound)
	}
	removed := s.Transactions[i]

	if removed.IsInstallmentPayment && removed.InstallmentID != "" {
		if plan, ok := s.InstallmentPlans[removed.InstallmentID]; ok {
			if plan.Paid > 0 {
				plan.Paid--
			}
			s.InstallmentPlans[plan.ID] = plan
		}
	}

	s.Transactions = append(s.Transactions[:i:i], s.Transactions[i+1:]...)
	return removed, nil
}
