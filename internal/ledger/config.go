package ledger

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dvloznov/finance-dashboard/internal/domain"
)

// UpsertCard creates or replaces a card. An empty id is derived from the name.
func (s *State) UpsertCard(card domain.CardConfig) (domain.CardConfig, error) {
	if card.Name == "" {
		return domain.CardConfig{}, fmt.Errorf("UpsertCard: %w: name is required", ErrInvalidConfig)
	}
	if card.Limit < 0 {
		return domain.CardConfig{}, fmt.Errorf("UpsertCard: %w: limit must not be negative", ErrInvalidConfig)
	}
	if card.DueDay < 0 || card.DueDay > 31 || card.StatementDay < 0 || card.StatementDay > 31 {
		return domain.CardConfig{}, fmt.Errorf("UpsertCard: %w: day out of range", ErrInvalidConfig)
	}
	if card.ID == "" {
		card.ID = slug(card.Name)
	}
	if _, ok := s.BankAccounts[card.ID]; ok {
		return domain.CardConfig{}, fmt.Errorf("UpsertCard: %w: id %s is a bank account", ErrInvalidConfig, card.ID)
	}
	s.Cards[card.ID] = card
	return card, nil
}

// UpsertBankAccount creates or replaces a bank account.
func (s *State) UpsertBankAccount(account domain.BankAccountConfig) (domain.BankAccountConfig, error) {
	if account.Name == "" {
		return domain.BankAccountConfig{}, fmt.Errorf("UpsertBankAccount: %w: name is required", ErrInvalidConfig)
	}
	if account.ID == "" {
		account.ID = slug(account.Name)
	}
	if account.ID == domain.CashPaymentMethod {
		return domain.BankAccountConfig{}, fmt.Errorf("UpsertBankAccount: %w: id %q is reserved", ErrInvalidConfig, account.ID)
	}
	if _, ok := s.Cards[account.ID]; ok {
		return domain.BankAccountConfig{}, fmt.Errorf("UpsertBankAccount: %w: id %s is a card", ErrInvalidConfig, account.ID)
	}
	s.BankAccounts[account.ID] = account
	return account, nil
}

// UpsertCategory creates or replaces a category.
func (s *State) UpsertCategory(c domain.Category) (domain.Category, error) {
	if c.Name == "" {
		return domain.Category{}, fmt.Errorf("UpsertCategory: %w: name is required", ErrInvalidConfig)
	}
	if c.ID == "" {
		c.ID = slug(c.Name)
	}
	s.Categories[c.ID] = c
	return c, nil
}

// DeleteCategory removes a category that no transaction references.
func (s *State) DeleteCategory(id string) error {
	if _, ok := s.Categories[id]; !ok {
		return fmt.Errorf("DeleteCategory: category %s: %w", id, ErrNotFound)
	}
	for i := range s.Transactions {
		if s.Transactions[i].CategoryID == id {
			return fmt.Errorf("DeleteCategory: category %s: %w", id, ErrCategoryInUse)
		}
	}
	delete(s.Categories, id)
	return nil
}

// AddLoan stores a new loan.
func (s *State) AddLoan(l domain.Loan) (domain.Loan, error) {
	if l.Lender == "" || l.Principal <= 0 || l.Months <= 0 {
		return domain.Loan{}, fmt.Errorf("AddLoan: %w: lender, principal and months are required", ErrInvalidConfig)
	}
	if l.PaidMonths < 0 || l.PaidMonths > l.Months {
		return domain.Loan{}, fmt.Errorf("AddLoan: %w: paid months out of range", ErrInvalidConfig)
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	s.Loans[l.ID] = l
	return l, nil
}

func slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
