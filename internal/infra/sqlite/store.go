// Package sqlite persists user state in a local SQLite file through gorm.
package sqlite

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dvloznov/finance-dashboard/internal/domain"
	"github.com/dvloznov/finance-dashboard/internal/ledger"
)

const batchSize = 200

// Store is a StateRepository backed by SQLite.
type Store struct {
	db *gorm.DB
}

// NewStore opens (creating if needed) the database at path and migrates the schema.
func NewStore(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("NewStore: opening %s: %w", path, err)
	}
	if err := db.AutoMigrate(allModels()...); err != nil {
		return nil, fmt.Errorf("NewStore: migrating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// LoadState reads every table for userID. Unknown users get an empty state.
func (s *Store) LoadState(ctx context.Context, userID string) (*ledger.State, error) {
	if userID == "" {
		return nil, fmt.Errorf("LoadState: user id is required")
	}
	db := s.db.WithContext(ctx)
	st := ledger.NewState()

	var txs []transactionModel
	if err := db.Where("user_id = ?", userID).Find(&txs).Error; err != nil {
		return nil, fmt.Errorf("LoadState: reading transactions: %w", err)
	}
	for _, m := range txs {
		t, err := m.toDomain()
		if err != nil {
			return nil, fmt.Errorf("LoadState: %w", err)
		}
		st.Transactions = append(st.Transactions, t)
	}

	var cards []cardModel
	if err := db.Where("user_id = ?", userID).Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("LoadState: reading cards: %w", err)
	}
	for _, m := range cards {
		st.Cards[m.ID] = domain.CardConfig{ID: m.ID, Name: m.Name, Limit: m.Limit, DueDay: m.DueDay, StatementDay: m.StatementDay}
	}

	var accounts []bankAccountModel
	if err := db.Where("user_id = ?", userID).Find(&accounts).Error; err != nil {
		return nil, fmt.Errorf("LoadState: reading bank accounts: %w", err)
	}
	for _, m := range accounts {
		st.BankAccounts[m.ID] = domain.BankAccountConfig{ID: m.ID, Name: m.Name, Balance: m.Balance, Currency: m.Currency}
	}

	var categories []categoryModel
	if err := db.Where("user_id = ?", userID).Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("LoadState: reading categories: %w", err)
	}
	for _, m := range categories {
		st.Categories[m.ID] = domain.Category{ID: m.ID, Name: m.Name, Icon: m.Icon}
	}

	var plans []installmentPlanModel
	if err := db.Where("user_id = ?", userID).Find(&plans).Error; err != nil {
		return nil, fmt.Errorf("LoadState: reading installment plans: %w", err)
	}
	for _, m := range plans {
		st.InstallmentPlans[m.ID] = domain.InstallmentPlan{
			ID:                m.ID,
			Provider:          m.Provider,
			TotalAmount:       m.TotalAmount,
			InstallmentAmount: m.InstallmentAmount,
			Total:             m.Total,
			Paid:              m.Paid,
			CreatedAt:         m.CreatedAt.UTC(),
			Description:       m.Description,
		}
	}

	var loans []loanModel
	if err := db.Where("user_id = ?", userID).Find(&loans).Error; err != nil {
		return nil, fmt.Errorf("LoadState: reading loans: %w", err)
	}
	for _, m := range loans {
		l, err := m.toDomain()
		if err != nil {
			return nil, fmt.Errorf("LoadState: %w", err)
		}
		st.Loans[l.ID] = l
	}

	return st, nil
}

// SaveState replaces every row of userID in a single database transaction.
func (s *Store) SaveState(ctx context.Context, userID string, state *ledger.State) error {
	if userID == "" {
		return fmt.Errorf("SaveState: user id is required")
	}
	if state == nil {
		return fmt.Errorf("SaveState: state is nil")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range allModels() {
			if err := tx.Where("user_id = ?", userID).Delete(model).Error; err != nil {
				return fmt.Errorf("clearing %T: %w", model, err)
			}
		}

		txs := make([]transactionModel, 0, len(state.Transactions))
		for _, t := range state.Transactions {
			txs = append(txs, toTransactionModel(userID, t))
		}
		if err := insert(tx, txs); err != nil {
			return fmt.Errorf("writing transactions: %w", err)
		}

		cards := make([]cardModel, 0, len(state.Cards))
		for _, c := range state.Cards {
			cards = append(cards, cardModel{UserID: userID, ID: c.ID, Name: c.Name, Limit: c.Limit, DueDay: c.DueDay, StatementDay: c.StatementDay})
		}
		if err := insert(tx, cards); err != nil {
			return fmt.Errorf("writing cards: %w", err)
		}

		accounts := make([]bankAccountModel, 0, len(state.BankAccounts))
		for _, a := range state.BankAccounts {
			accounts = append(accounts, bankAccountModel{UserID: userID, ID: a.ID, Name: a.Name, Balance: a.Balance, Currency: a.Currency})
		}
		if err := insert(tx, accounts); err != nil {
			return fmt.Errorf("writing bank accounts: %w", err)
		}

		categories := make([]categoryModel, 0, len(state.Categories))
		for _, c := range state.Categories {
			categories = append(categories, categoryModel{UserID: userID, ID: c.ID, Name: c.Name, Icon: c.Icon})
		}
		if err := insert(tx, categories); err != nil {
			return fmt.Errorf("writing categories: %w", err)
		}

		plans := make([]installmentPlanModel, 0, len(state.InstallmentPlans))
		for _, p := range state.InstallmentPlans {
			plans = append(plans, installmentPlanModel{
				UserID:            userID,
				ID:                p.ID,
				Provider:          p.Provider,
				TotalAmount:       p.TotalAmount,
				InstallmentAmount: p.InstallmentAmount,
				Total:             p.Total,
				Paid:              p.Paid,
				CreatedAt:         p.CreatedAt,
				Description:       p.Description,
			})
		}
		if err := insert(tx, plans); err != nil {
			return fmt.Errorf("writing installment plans: %w", err)
		}

		loans := make([]loanModel, 0, len(state.Loans))
		for _, l := range state.Loans {
			loans = append(loans, toLoanModel(userID, l))
		}
		if err := insert(tx, loans); err != nil {
			return fmt.Errorf("writing loans: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("SaveState: %w", err)
	}
	return nil
}

func insert[T any](tx *gorm.DB, rows []T) error {
	if len(rows) == 0 {
		return nil
	}
	return tx.CreateInBatches(rows, batchSize).Error
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("Close: %w", err)
	}
	return sqlDB.Close()
}
