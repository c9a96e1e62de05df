package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// TransactionType is the kind of a ledger entry. The set is closed apart from the
// dynamic "<cardId>-payment" settlement types and the legacy "سداد <cardName>" types.
type TransactionType string

const (
	TypeIncome               TransactionType = "income"
	TypeExpense              TransactionType = "expense"
	TypeBNPLPayment          TransactionType = "bnpl-payment"
	TypeInvestmentDeposit    TransactionType = "investment-deposit"
	TypeInvestmentWithdrawal TransactionType = "investment-withdrawal"
)

const (
	// PaymentSuffix terminates every settlement type ("<cardId>-payment").
	PaymentSuffix = "-payment"

	// PaymentMarker is the Arabic word for "payment" used in legacy settlement
	// descriptions and types ("سداد <cardName>").
	PaymentMarker = "سداد"

	// CashPaymentMethod is the literal payment method for cash transactions.
	CashPaymentMethod = "cash"
)

// CardPaymentType returns the settlement type that pays down the given card.
func CardPaymentType(cardID string) TransactionType {
	return TransactionType(cardID + PaymentSuffix)
}

// PaymentCardID returns the card id named by a "<cardId>-payment" type, or "".
func (t TransactionType) PaymentCardID() string {
	if t == TypeBNPLPayment || !t.IsPaymentType() {
		return ""
	}
	return strings.TrimSuffix(string(t), PaymentSuffix)
}

// LegacyCardPaymentLabel returns "سداد <cardName>", the marker older entries carry
// in their description or type when they settle a card.
func LegacyCardPaymentLabel(cardName string) string {
	return PaymentMarker + " " + cardName
}

// IsPaymentType reports whether t ends in "-payment". Note that bnpl-payment matches.
func (t TransactionType) IsPaymentType() bool {
	return strings.HasSuffix(string(t), PaymentSuffix)
}

// IsSettlementType reports whether t pays down a card: "<cardId>-payment" or the
// legacy "سداد <cardName>".
func (t TransactionType) IsSettlementType() bool {
	return t.PaymentCardID() != "" || strings.HasPrefix(string(t), PaymentMarker+" ")
}

// IsKnown reports whether t is one of the fixed kinds or a settlement type.
func (t TransactionType) IsKnown() bool {
	switch t {
	case TypeIncome, TypeExpense, TypeBNPLPayment, TypeInvestmentDeposit, TypeInvestmentWithdrawal:
		return true
	}
	if t.IsPaymentType() && len(t) > len(PaymentSuffix) {
		return true
	}
	return strings.HasPrefix(string(t), PaymentMarker+" ")
}

// SettlementDirection tags a transaction with its role in paying down a card, so the
// engine does not have to infer it from description text. Empty means untagged.
type SettlementDirection string

const (
	SettlementUnset    SettlementDirection = ""
	SettlementReceived SettlementDirection = "received"
	SettlementPaid     SettlementDirection = "paid"
	SettlementNone     SettlementDirection = "none"
)

// Valid reports whether d is one of the known directions (including unset).
func (d SettlementDirection) Valid() bool {
	switch d {
	case SettlementUnset, SettlementReceived, SettlementPaid, SettlementNone:
		return true
	}
	return false
}

// Transaction is one entry of the append-only log. Amount is always positive;
// direction comes from Type.
type Transaction struct {
	ID            string          `json:"id"`
	Amount        float64         `json:"amount"`
	Date          civil.Date      `json:"date"`
	Type          TransactionType `json:"type"`
	PaymentMethod string          `json:"paymentMethod"`
	CategoryID    string          `json:"categoryId,omitempty"`
	Description   string          `json:"description,omitempty"`

	IsInstallmentPayment bool   `json:"isInstallmentPayment,omitempty"`
	InstallmentID        string `json:"installmentId,omitempty"`

	Settlement SettlementDirection `json:"settlementDirection,omitempty"`
}

// Validate checks the invariants every stored transaction must satisfy.
func (t *Transaction) Validate() error {
	if t.Amount <= 0 {
		return fmt.Errorf("amount must be positive, got %v", t.Amount)
	}
	if !t.Type.IsKnown() {
		return fmt.Errorf("unknown transaction type %q", t.Type)
	}
	if t.PaymentMethod == "" {
		return fmt.Errorf("payment method is required")
	}
	if t.Date.IsZero() || !t.Date.IsValid() {
		return fmt.Errorf("invalid date %v", t.Date)
	}
	if !t.Settlement.Valid() {
		return fmt.Errorf("unknown settlement direction %q", t.Settlement)
	}
	if !t.SettlementApplies() {
		return fmt.Errorf("settlement direction %q does not fit type %q paid by %q", t.Settlement, t.Type, t.PaymentMethod)
	}
	if t.IsInstallmentPayment && t.InstallmentID == "" {
		return fmt.Errorf("installment payment without installment id")
	}
	return nil
}

// SettlementApplies reports whether the settlement tag agrees with the type.
// received needs a settlement type; paid also needs the card being drawn on to be
// the payment method of a "<cardId>-payment" type; none needs a non-settlement type.
func (t *Transaction) SettlementApplies() bool {
	switch t.Settlement {
	case SettlementUnset:
		return true
	case SettlementReceived:
		return t.Type.IsSettlementType()
	case SettlementPaid:
		if id := t.Type.PaymentCardID(); id != "" {
			return id == t.PaymentMethod
		}
		return t.Type.IsSettlementType()
	case SettlementNone:
		return !t.Type.IsSettlementType()
	}
	return false
}

// NewTransactionID returns an id whose first segment is the creation time in
// milliseconds, so ids created later sort after earlier ones on the same day.
func NewTransactionID(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString()[:8])
}

// IDTimestamp parses the leading numeric segment of an id. Ids without one yield 0.
func IDTimestamp(id string) int64 {
	head, _, _ := strings.Cut(id, "-")
	n, err := strconv.ParseInt(head, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
