package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/finance-dashboard/internal/domain"
)

type TransactionRow struct {
	UserID        string `bigquery:"user_id" json:"user_id"`               // REQUIRED
	TransactionID string `bigquery:"transaction_id" json:"transaction_id"` // REQUIRED

	Amount          float64    `bigquery:"amount" json:"amount"`                     // REQUIRED FLOAT64
	TransactionDate civil.Date `bigquery:"transaction_date" json:"transaction_date"` // REQUIRED
	Type            string     `bigquery:"type" json:"type"`                         // REQUIRED
	PaymentMethod   string     `bigquery:"payment_method" json:"payment_method"`     // REQUIRED

	CategoryID  bigquery.NullString `bigquery:"category_id" json:"category_id"` // NULLABLE
	Description bigquery.NullString `bigquery:"description" json:"description"` // NULLABLE

	IsInstallmentPayment bigquery.NullBool   `bigquery:"is_installment_payment" json:"is_installment_payment"` // NULLABLE
	InstallmentID        bigquery.NullString `bigquery:"installment_id" json:"installment_id"`                 // NULLABLE

	SettlementDirection bigquery.NullString `bigquery:"settlement_direction" json:"settlement_direction"` // NULLABLE
}

type CardRow struct {
	UserID       string  `bigquery:"user_id" json:"user_id"`
	CardID       string  `bigquery:"card_id" json:"card_id"`
	Name         string  `bigquery:"name" json:"name"`
	CreditLimit  float64 `bigquery:"credit_limit" json:"credit_limit"`
	DueDay       int64   `bigquery:"due_day" json:"due_day"`
	StatementDay int64   `bigquery:"statement_day" json:"statement_day"`
}

type BankAccountRow struct {
	UserID         string              `bigquery:"user_id" json:"user_id"`
	AccountID      string              `bigquery:"account_id" json:"account_id"`
	Name           string              `bigquery:"name" json:"name"`
	OpeningBalance float64             `bigquery:"opening_balance" json:"opening_balance"`
	Currency       bigquery.NullString `bigquery:"currency" json:"currency"`
}

type CategoryRow struct {
	UserID     string              `bigquery:"user_id" json:"user_id"`
	CategoryID string              `bigquery:"category_id" json:"category_id"`
	Name       string              `bigquery:"name" json:"name"`
	Icon       bigquery.NullString `bigquery:"icon" json:"icon"`
}

type InstallmentPlanRow struct {
	UserID            string              `bigquery:"user_id" json:"user_id"`
	PlanID            string              `bigquery:"plan_id" json:"plan_id"`
	Provider          string              `bigquery:"provider" json:"provider"`
	TotalAmount       float64             `bigquery:"total_amount" json:"total_amount"`
	InstallmentAmount float64             `bigquery:"installment_amount" json:"installment_amount"`
	TotalCount        int64               `bigquery:"total_count" json:"total_count"`
	PaidCount         int64               `bigquery:"paid_count" json:"paid_count"`
	CreatedTS         time.Time           `bigquery:"created_ts" json:"created_ts"`
	Description       bigquery.NullString `bigquery:"description" json:"description"`
}

type LoanRow struct {
	UserID         string            `bigquery:"user_id" json:"user_id"`
	LoanID         string            `bigquery:"loan_id" json:"loan_id"`
	Lender         string            `bigquery:"lender" json:"lender"`
	Principal      float64           `bigquery:"principal" json:"principal"`
	MonthlyPayment float64           `bigquery:"monthly_payment" json:"monthly_payment"`
	Months         int64             `bigquery:"months" json:"months"`
	PaidMonths     int64             `bigquery:"paid_months" json:"paid_months"`
	StartDate      bigquery.NullDate `bigquery:"start_date" json:"start_date"`
}

func nullString(s string) bigquery.NullString {
	return bigquery.NullString{StringVal: s, Valid: s != ""}
}

func NewTransactionRow(userID string, t domain.Transaction) *TransactionRow {
	return &TransactionRow{
		UserID:               userID,
		TransactionID:        t.ID,
		Amount:               t.Amount,
		TransactionDate:      t.Date,
		Type:                 string(t.Type),
		PaymentMethod:        t.PaymentMethod,
		CategoryID:           nullString(t.CategoryID),
		Description:          nullString(t.Description),
		IsInstallmentPayment: bigquery.NullBool{Bool: t.IsInstallmentPayment, Valid: t.IsInstallmentPayment},
		InstallmentID:        nullString(t.InstallmentID),
		SettlementDirection:  nullString(string(t.Settlement)),
	}
}

func (r *TransactionRow) Domain() domain.Transaction {
	return domain.Transaction{
		ID:                   r.TransactionID,
		Amount:               r.Amount,
		Date:                 r.TransactionDate,
		Type:                 domain.TransactionType(r.Type),
		PaymentMethod:        r.PaymentMethod,
		CategoryID:           r.CategoryID.StringVal,
		Description:          r.Description.StringVal,
		IsInstallmentPayment: r.IsInstallmentPayment.Valid && r.IsInstallmentPayment.Bool,
		InstallmentID:        r.InstallmentID.StringVal,
		Settlement:           domain.SettlementDirection(r.SettlementDirection.StringVal),
	}
}

func NewCardRow(userID string, c domain.CardConfig) *CardRow {
	return &CardRow{
		UserID:       userID,
		CardID:       c.ID,
		Name:         c.Name,
		CreditLimit:  c.Limit,
		DueDay:       int64(c.DueDay),
		StatementDay: int64(c.StatementDay),
	}
}

func (r *CardRow) Domain() domain.CardConfig {
	return domain.CardConfig{
		ID:           r.CardID,
		Name:         r.Name,
		Limit:        r.CreditLimit,
		DueDay:       int(r.DueDay),
		StatementDay: int(r.StatementDay),
	}
}

func NewBankAccountRow(userID string, a domain.BankAccountConfig) *BankAccountRow {
	return &BankAccountRow{
		UserID:         userID,
		AccountID:      a.ID,
		Name:           a.Name,
		OpeningBalance: a.Balance,
		Currency:       nullString(a.Currency),
	}
}

func (r *BankAccountRow) Domain() domain.BankAccountConfig {
	return domain.BankAccountConfig{
		ID:       r.AccountID,
		Name:     r.Name,
		Balance:  r.OpeningBalance,
		Currency: r.Currency.StringVal,
	}
}

func NewCategoryRow(userID string, c domain.Category) *CategoryRow {
	return &CategoryRow{UserID: userID, CategoryID: c.ID, Name: c.Name, Icon: nullString(c.Icon)}
}

func (r *CategoryRow) Domain() domain.Category {
	return domain.Category{ID: r.CategoryID, Name: r.Name, Icon: r.Icon.StringVal}
}

func NewInstallmentPlanRow(userID string, p domain.InstallmentPlan) *InstallmentPlanRow {
	return &InstallmentPlanRow{
		UserID:            userID,
		PlanID:            p.ID,
		Provider:          p.Provider,
		TotalAmount:       p.TotalAmount,
		InstallmentAmount: p.InstallmentAmount,
		TotalCount:        int64(p.Total),
		PaidCount:         int64(p.Paid),
		CreatedTS:         p.CreatedAt,
		Description:       nullString(p.Description),
	}
}

func (r *InstallmentPlanRow) Domain() domain.InstallmentPlan {
	return domain.InstallmentPlan{
		ID:                r.PlanID,
		Provider:          r.Provider,
		TotalAmount:       r.TotalAmount,
		InstallmentAmount: r.InstallmentAmount,
		Total:             int(r.TotalCount),
		Paid:              int(r.PaidCount),
		CreatedAt:         r.CreatedTS.UTC(),
		Description:       r.Description.StringVal,
	}
}

func NewLoanRow(userID string, l domain.Loan) *LoanRow {
	return &LoanRow{
		UserID:         userID,
		LoanID:         l.ID,
		Lender:         l.Lender,
		Principal:      l.Principal,
		MonthlyPayment: l.MonthlyPayment,
		Months:         int64(l.Months),
		PaidMonths:     int64(l.PaidMonths),
		StartDate:      bigquery.NullDate{Date: l.StartDate, Valid: !l.StartDate.IsZero()},
	}
}

func (r *LoanRow) Domain() domain.Loan {
	l := domain.Loan{
		ID:             r.LoanID,
		Lender:         r.Lender,
		Principal:      r.Principal,
		MonthlyPayment: r.MonthlyPayment,
		Months:         int(r.Months),
		PaidMonths:     int(r.PaidMonths),
	}
	if r.StartDate.Valid {
		l.StartDate = r.StartDate.Date
	}
	return l
}
