package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// CardConfig describes a credit card. Its balance is never stored; the engine
// derives it from the transaction log.
type CardConfig struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Limit        float64 `json:"limit"`
	DueDay       int     `json:"dueDay"`
	StatementDay int     `json:"statementDay"`
}

// BankAccountConfig describes a bank account. Balance is the opening balance.
type BankAccountConfig struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Balance  float64 `json:"balance"`
	Currency string  `json:"currency"`
}

// Category is a reporting bucket referenced by transactions.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// InstallmentPlan is a buy-now-pay-later purchase split into Total installments.
// Invariant: 0 <= Paid <= Total.
type InstallmentPlan struct {
	ID                string    `json:"id"`
	Provider          string    `json:"provider"`
	TotalAmount       float64   `json:"totalAmount"`
	InstallmentAmount float64   `json:"installmentAmount"`
	Total             int       `json:"total"`
	Paid              int       `json:"paid"`
	CreatedAt         time.Time `json:"createdAt"`
	Description       string    `json:"description,omitempty"`
}

// Remaining returns the number of installments still due.
func (p *InstallmentPlan) Remaining() int {
	if p.Paid >= p.Total {
		return 0
	}
	return p.Total - p.Paid
}

// RemainingAmount returns the amount still due on the plan.
func (p *InstallmentPlan) RemainingAmount() float64 {
	return float64(p.Remaining()) * p.InstallmentAmount
}

// IsComplete reports whether every installment has been paid.
func (p *InstallmentPlan) IsComplete() bool {
	return p.Paid >= p.Total
}

// Loan is a fixed-schedule borrowing tracked next to cards and plans.
type Loan struct {
	ID             string     `json:"id"`
	Lender         string     `json:"lender"`
	Principal      float64    `json:"principal"`
	MonthlyPayment float64    `json:"monthlyPayment"`
	Months         int        `json:"months"`
	PaidMonths     int        `json:"paidMonths"`
	StartDate      civil.Date `json:"startDate"`
}

// RemainingAmount returns the scheduled payments still outstanding.
func (l *Loan) RemainingAmount() float64 {
	left := l.Months - l.PaidMonths
	if left <= 0 {
		return 0
	}
	return float64(left) * l.MonthlyPayment
}

type loanJSON struct {
	ID             string  `json:"id"`
	Lender         string  `json:"lender"`
	Principal      float64 `json:"principal"`
	MonthlyPayment float64 `json:"monthlyPayment"`
	Months         int     `json:"months"`
	PaidMonths     int     `json:"paidMonths"`
	StartDate      string  `json:"startDate,omitempty"`
}

// MarshalJSON omits an unset start date; civil.Date would render it as "0000-00-00",
// which does not parse back.
func (l Loan) MarshalJSON() ([]byte, error) {
	out := loanJSON{
		ID:             l.ID,
		Lender:         l.Lender,
		Principal:      l.Principal,
		MonthlyPayment: l.MonthlyPayment,
		Months:         l.Months,
		PaidMonths:     l.PaidMonths,
	}
	if !l.StartDate.IsZero() {
		out.StartDate = l.StartDate.String()
	}
	return json.Marshal(out)
}

func (l *Loan) UnmarshalJSON(data []byte) error {
	var in loanJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*l = Loan{
		ID:             in.ID,
		Lender:         in.Lender,
		Principal:      in.Principal,
		MonthlyPayment: in.MonthlyPayment,
		Months:         in.Months,
		PaidMonths:     in.PaidMonths,
	}
	if in.StartDate != "" {
		d, err := civil.ParseDate(in.StartDate)
		if err != nil {
			return fmt.Errorf("loan start date: %w", err)
		}
		l.StartDate = d
	}
	return nil
}
