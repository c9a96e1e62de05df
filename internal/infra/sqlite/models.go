package sqlite

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/finance-dashboard/internal/domain"
)

// Every table is keyed by (user_id, id); one database holds many users.

type transactionModel struct {
	UserID               string `gorm:"primaryKey;type:varchar(128)"`
	ID                   string `gorm:"primaryKey;type:varchar(64)"`
	Amount               float64
	Date                 string `gorm:"type:varchar(10);index"`
	Type                 string `gorm:"type:varchar(128);not null"`
	PaymentMethod        string `gorm:"type:varchar(128);not null"`
	CategoryID           string `gorm:"type:varchar(128)"`
	Description          string
	IsInstallmentPayment bool
	InstallmentID        string `gorm:"type:varchar(64)"`
	Settlement           string `gorm:"type:varchar(16)"`
}

func (transactionModel) TableName() string { return "transactions" }

type cardModel struct {
	UserID       string `gorm:"primaryKey;type:varchar(128)"`
	ID           string `gorm:"primaryKey;type:varchar(128)"`
	Name         string
	Limit        float64 `gorm:"column:credit_limit"`
	DueDay       int
	StatementDay int
}

func (cardModel) TableName() string { return "cards" }

type bankAccountModel struct {
	UserID   string `gorm:"primaryKey;type:varchar(128)"`
	ID       string `gorm:"primaryKey;type:varchar(128)"`
	Name     string
	Balance  float64
	Currency string `gorm:"type:varchar(8)"`
}

func (bankAccountModel) TableName() string { return "bank_accounts" }

type categoryModel struct {
	UserID string `gorm:"primaryKey;type:varchar(128)"`
	ID     string `gorm:"primaryKey;type:varchar(128)"`
	Name   string
	Icon   string
}

func (categoryModel) TableName() string { return "categories" }

type installmentPlanModel struct {
	UserID            string `gorm:"primaryKey;type:varchar(128)"`
	ID                string `gorm:"primaryKey;type:varchar(64)"`
	Provider          string
	TotalAmount       float64
	InstallmentAmount float64
	Total             int
	Paid              int
	CreatedAt         time.Time
	Description       string
}

func (installmentPlanModel) TableName() string { return "installment_plans" }

type loanModel struct {
	UserID         string `gorm:"primaryKey;type:varchar(128)"`
	ID             string `gorm:"primaryKey;type:varchar(64)"`
	Lender         string
	Principal      float64
	MonthlyPayment float64
	Months         int
	PaidMonths     int
	StartDate      string `gorm:"type:varchar(10)"`
}

func (loanModel) TableName() string { return "loans" }

func allModels() []interface{} {
	return []interface{}{
		&transactionModel{},
		&cardModel{},
		&bankAccountModel{},
		&categoryModel{},
		&installmentPlanModel{},
		&loanModel{},
	}
}

func toTransactionModel(userID string, t domain.Transaction) transactionModel {
	return transactionModel{
		UserID:               userID,
		ID:                   t.ID,
		Amount:               t.Amount,
		Date:                 t.Date.String(),
		Type:                 string(t.Type),
		PaymentMethod:        t.PaymentMethod,
		CategoryID:           t.CategoryID,
		Description:          t.Description,
		IsInstallmentPayment: t.IsInstallmentPayment,
		InstallmentID:        t.InstallmentID,
		Settlement:           string(t.Settlement),
	}
}

func (m transactionModel) toDomain() (domain.Transaction, error) {
	d, err := civil.ParseDate(m.Date)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s: parsing date: %w", m.ID, err)
	}
	return domain.Transaction{
		ID:                   m.ID,
		Amount:               m.Amount,
		Date:                 d,
		Type:                 domain.TransactionType(m.Type),
		PaymentMethod:        m.PaymentMethod,
		CategoryID:           m.CategoryID,
		Description:          m.Description,
		IsInstallmentPayment: m.IsInstallmentPayment,
		InstallmentID:        m.InstallmentID,
		Settlement:           domain.SettlementDirection(m.Settlement),
	}, nil
}

func toLoanModel(userID string, l domain.Loan) loanModel {
	m := loanModel{
		UserID:         userID,
		ID:             l.ID,
		Lender:         l.Lender,
		Principal:      l.Principal,
		MonthlyPayment: l.MonthlyPayment,
		Months:         l.Months,
		PaidMonths:     l.PaidMonths,
	}
	if !l.StartDate.IsZero() {
		m.StartDate = l.StartDate.String()
	}
	return m
}

func (m loanModel) toDomain() (domain.Loan, error) {
	l := domain.Loan{
		ID:             m.ID,
		Lender:         m.Lender,
		Principal:      m.Principal,
		MonthlyPayment: m.MonthlyPayment,
		Months:         m.Months,
		PaidMonths:     m.PaidMonths,
	}
	if m.StartDate != "" {
		d, err := civil.ParseDate(m.StartDate)
		if err != nil {
			return domain.Loan{}, fmt.Errorf("loan %s: parsing start date: %w", m.ID, err)
		}
		l.StartDate = d
	}
	return l, nil
}
