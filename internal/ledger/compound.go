package ledger

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/finance-dashboard/internal/domain"
)

// BNPLPurchase is the input for recording a buy-now-pay-later purchase.
type BNPLPurchase struct {
	Provider          string     `json:"provider"`
	TotalAmount       float64    `json:"totalAmount"`
	InstallmentAmount float64    `json:"installmentAmount"`
	Installments      int        `json:"installments"`
	Date              civil.Date `json:"date"`
	PaymentMethod     string     `json:"paymentMethod"`
	CategoryID        string     `json:"categoryId,omitempty"`
	Description       string     `json:"description,omitempty"`
}

// InstallmentPayment is one further payment against an existing plan.
type InstallmentPayment struct {
	Date          civil.Date `json:"date"`
	PaymentMethod string     `json:"paymentMethod"`
	CategoryID    string     `json:"categoryId,omitempty"`
	Description   string     `json:"description,omitempty"`
}

// Transfer moves Amount out of From and Amount*ExchangeRate into To. Either
// side may be a bank account or a card.
type Transfer struct {
	From         string     `json:"from"`
	To           string     `json:"to"`
	Amount       float64    `json:"amount"`
	ExchangeRate float64    `json:"exchangeRate,omitempty"`
	Date         civil.Date `json:"date"`
	Description  string     `json:"description,omitempty"`
}

// RecordBNPLPurchase creates the installment plan with its first installment
// already paid and the single expense transaction for that installment.
// The full purchase amount is carried only by the plan.
func (s *State) RecordBNPLPurchase(p BNPLPurchase, now time.Time) (domain.InstallmentPlan, domain.Transaction, error) {
	if p.Installments < 1 {
		return domain.InstallmentPlan{}, domain.Transaction{}, fmt.Errorf("RecordBNPLPurchase: %w: installments must be at least 1", ErrInvalidConfig)
	}
	if p.TotalAmount <= 0 {
		return domain.InstallmentPlan{}, domain.Transaction{}, fmt.Errorf("RecordBNPLPurchase: %w: total amount must be positive", ErrInvalidConfig)
	}
	if p.InstallmentAmount <= 0 {
		p.InstallmentAmount = decimal.NewFromFloat(p.TotalAmount).
			DivRound(decimal.NewFromInt(int64(p.Installments)), 2).
			InexactFloat64()
	}
	if p.PaymentMethod == "" {
		p.PaymentMethod = p.Provider
	}

	plan := domain.InstallmentPlan{
		ID:                uuid.NewString(),
		Provider:          p.Provider,
		TotalAmount:       p.TotalAmount,
		InstallmentAmount: p.InstallmentAmount,
		Total:             p.Installments,
		Paid:              1,
		CreatedAt:         now.UTC(),
		Description:       p.Description,
	}

	tx := domain.Transaction{
		ID:                   domain.NewTransactionID(now),
		Amount:               p.InstallmentAmount,
		Date:                 p.Date,
		Type:                 domain.TypeExpense,
		PaymentMethod:        p.PaymentMethod,
		CategoryID:           p.CategoryID,
		Description:          p.Description,
		IsInstallmentPayment: true,
		InstallmentID:        plan.ID,
	}
	if err := tx.Validate(); err != nil {
		return domain.InstallmentPlan{}, domain.Transaction{}, fmt.Errorf("RecordBNPLPurchase: %w: %v", ErrInvalidTransaction, err)
	}

	s.InstallmentPlans[plan.ID] = plan
	s.Transactions = append(s.Transactions, tx)
	return plan, tx, nil
}

// RecordInstallmentPayment appends a bnpl-payment transaction for planID and
// advances the plan's paid counter.
func (s *State) RecordInstallmentPayment(planID string, p InstallmentPayment, now time.Time) (domain.InstallmentPlan, domain.Transaction, error) {
	plan, ok := s.InstallmentPlans[planID]
	if !ok {
		return domain.InstallmentPlan{}, domain.Transaction{}, fmt.Errorf("RecordInstallmentPayment: installment plan %s: %w", planID, ErrNotFound)
	}
	if plan.IsComplete() {
		return domain.InstallmentPlan{}, domain.Transaction{}, fmt.Errorf("RecordInstallmentPayment: plan %s: %w", planID, ErrPlanComplete)
	}
	if p.PaymentMethod == "" {
		p.PaymentMethod = plan.Provider
	}
	if p.Description == "" {
		p.Description = plan.Description
	}

	tx := domain.Transaction{
		ID:                   domain.NewTransactionID(now),
		Amount:               plan.InstallmentAmount,
		Date:                 p.Date,
		Type:                 domain.TypeBNPLPayment,
		PaymentMethod:        p.PaymentMethod,
		CategoryID:           p.CategoryID,
		Description:          p.Description,
		IsInstallmentPayment: true,
		InstallmentID:        plan.ID,
	}
	if err := tx.Validate(); err != nil {
		return domain.InstallmentPlan{}, domain.Transaction{}, fmt.Errorf("RecordInstallmentPayment: %w: %v", ErrInvalidTransaction, err)
	}

	plan.Paid++
	s.InstallmentPlans[plan.ID] = plan
	s.Transactions = append(s.Transactions, tx)
	return plan, tx, nil
}

// RecordTransfer appends the two legs of a transfer. The source leg is an
// expense from a bank account or a "<from>-payment" paid from a card; the
// destination leg is income into a bank account or a "<to>-payment" received
// by a card.
func (s *State) RecordTransfer(t Transfer, now time.Time) (source, destination domain.Transaction, err error) {
	if t.From == "" || t.To == "" || t.From == t.To {
		return source, destination, fmt.Errorf("RecordTransfer: %w: source and destination must differ", ErrInvalidTransaction)
	}
	if t.Amount <= 0 {
		return source, destination, fmt.Errorf("RecordTransfer: %w: amount must be positive", ErrInvalidTransaction)
	}
	rate := t.ExchangeRate
	if rate == 0 {
		rate = 1
	}
	if rate < 0 {
		return source, destination, fmt.Errorf("RecordTransfer: %w: exchange rate must be positive", ErrInvalidTransaction)
	}

	fromCard, err := s.accountKind(t.From)
	if err != nil {
		return source, destination, fmt.Errorf("RecordTransfer: source: %w", err)
	}
	toCard, err := s.accountKind(t.To)
	if err != nil {
		return source, destination, fmt.Errorf("RecordTransfer: destination: %w", err)
	}

	source = domain.Transaction{
		ID:            domain.NewTransactionID(now),
		Amount:        t.Amount,
		Date:          t.Date,
		Type:          domain.TypeExpense,
		PaymentMethod: t.From,
		Description:   t.Description,
	}
	if fromCard {
		source.Type = domain.CardPaymentType(t.From)
		source.Settlement = domain.SettlementPaid
	}

	destination = domain.Transaction{
		ID:            domain.NewTransactionID(now.Add(time.Millisecond)),
		Amount:        ConvertAmount(t.Amount, rate),
		Date:          t.Date,
		Type:          domain.TypeIncome,
		PaymentMethod: t.To,
		Description:   t.Description,
	}
	if toCard {
		destination.Type = domain.CardPaymentType(t.To)
		destination.Settlement = domain.SettlementReceived
	}

	for _, leg := range []*domain.Transaction{&source, &destination} {
		if err := leg.Validate(); err != nil {
			return domain.Transaction{}, domain.Transaction{}, fmt.Errorf("RecordTransfer: %w: %v", ErrInvalidTransaction, err)
		}
	}

	s.Transactions = append(s.Transactions, source, destination)
	return source, destination, nil
}

// ConvertAmount returns amount*rate computed in decimal.
func ConvertAmount(amount, rate float64) float64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(rate)).InexactFloat64()
}

// accountKind reports whether id is a card (true) or a bank account (false).
func (s *State) accountKind(id string) (bool, error) {
	if _, ok := s.BankAccounts[id]; ok {
		return false, nil
	}
	if _, ok := s.Cards[id]; ok {
		return true, nil
	}
	return false, fmt.Errorf("account %s: %w", id, ErrNotFound)
}
