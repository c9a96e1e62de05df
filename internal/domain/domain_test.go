package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestIDTimestamp(t *testing.T) {
	tests := []struct {
		id   string
		want int64
	}{
		{"1712345678901-ab12cd34", 1712345678901},
		{"42", 42},
		{"abc-123", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := IDTimestamp(tt.id); got != tt.want {
				t.Errorf("IDTimestamp(%q) = %d, want %d", tt.id, got, tt.want)
			}
		})
	}
}

func TestNewTransactionID_EmbedsCreationTime(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	id := NewTransactionID(now)

	if got := IDTimestamp(id); got != now.UnixMilli() {
		t.Errorf("IDTimestamp(%q) = %d, want %d", id, got, now.UnixMilli())
	}
	if !strings.Contains(id, "-") {
		t.Errorf("expected id %q to contain a random suffix", id)
	}
}

func TestTransactionType_IsKnown(t *testing.T) {
	tests := []struct {
		typ  TransactionType
		want bool
	}{
		{TypeIncome, true},
		{TypeExpense, true},
		{TypeBNPLPayment, true},
		{TypeInvestmentDeposit, true},
		{TypeInvestmentWithdrawal, true},
		{CardPaymentType("visa"), true},
		{TransactionType(LegacyCardPaymentLabel("Visa Gold")), true},
		{"-payment", false},
		{"refund", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			if got := tt.typ.IsKnown(); got != tt.want {
				t.Errorf("IsKnown(%q) = %v, want %v", tt.typ, got, tt.want)
			}
		})
	}
}

func TestTransaction_Validate(t *testing.T) {
	valid := Transaction{
		ID:            "1-a",
		Amount:        10,
		Date:          civil.Date{Year: 2024, Month: time.January, Day: 2},
		Type:          TypeExpense,
		PaymentMethod: CashPaymentMethod,
	}

	tests := []struct {
		name    string
		mutate  func(tx *Transaction)
		wantErr bool
	}{
		{"valid", func(tx *Transaction) {}, false},
		{"zero amount", func(tx *Transaction) { tx.Amount = 0 }, true},
		{"negative amount", func(tx *Transaction) { tx.Amount = -5 }, true},
		{"unknown type", func(tx *Transaction) { tx.Type = "gift" }, true},
		{"missing payment method", func(tx *Transaction) { tx.PaymentMethod = "" }, true},
		{"missing date", func(tx *Transaction) { tx.Date = civil.Date{} }, true},
		{"bad settlement", func(tx *Transaction) { tx.Settlement = "sideways" }, true},
		{"installment without plan", func(tx *Transaction) { tx.IsInstallmentPayment = true }, true},
		{"none on expense", func(tx *Transaction) { tx.Settlement = SettlementNone }, false},
		{"received on expense", func(tx *Transaction) { tx.Settlement = SettlementReceived }, true},
		{"paid on expense", func(tx *Transaction) { tx.Settlement = SettlementPaid }, true},
		{"received on bnpl payment", func(tx *Transaction) {
			tx.Type, tx.Settlement = TypeBNPLPayment, SettlementReceived
		}, true},
		{"received on card payment", func(tx *Transaction) {
			tx.Type, tx.PaymentMethod, tx.Settlement = CardPaymentType("visa"), "rajhi", SettlementReceived
		}, false},
		{"received on legacy payment", func(tx *Transaction) {
			tx.Type, tx.Settlement = TransactionType(LegacyCardPaymentLabel("Visa Gold")), SettlementReceived
		}, false},
		{"none on card payment", func(tx *Transaction) {
			tx.Type, tx.PaymentMethod, tx.Settlement = CardPaymentType("visa"), "rajhi", SettlementNone
		}, true},
		{"paid from the named card", func(tx *Transaction) {
			tx.Type, tx.PaymentMethod, tx.Settlement = CardPaymentType("visa"), "visa", SettlementPaid
		}, false},
		{"paid from another account", func(tx *Transaction) {
			tx.Type, tx.PaymentMethod, tx.Settlement = CardPaymentType("visa"), "rajhi", SettlementPaid
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			err := tx.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestPeriod_Contains(t *testing.T) {
	march := civil.Date{Year: 2024, Month: time.March, Day: 15}

	tests := []struct {
		name   string
		period Period
		want   bool
	}{
		{"same month", Period{Year: 2024, Month: time.March}, true},
		{"other month", Period{Year: 2024, Month: time.April}, false},
		{"whole year", Period{Year: 2024, Month: AllMonths}, true},
		{"other year", Period{Year: 2023, Month: AllMonths}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.period.Contains(march); got != tt.want {
				t.Errorf("Contains() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	now := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		year, month string
		want        Period
		wantErr     bool
	}{
		{"", "", Period{Year: 2025}, false},
		{"2024", "all", Period{Year: 2024}, false},
		{"2024", "3", Period{Year: 2024, Month: time.March}, false},
		{"2024", "13", Period{}, true},
		{"year", "", Period{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.year+"/"+tt.month, func(t *testing.T) {
			got, err := ParsePeriod(tt.year, tt.month, now)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePeriod() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePeriod() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestInstallmentPlan_Remaining(t *testing.T) {
	p := InstallmentPlan{Total: 4, Paid: 1, InstallmentAmount: 300}
	if p.Remaining() != 3 {
		t.Errorf("Remaining() = %d, want 3", p.Remaining())
	}
	if p.RemainingAmount() != 900 {
		t.Errorf("RemainingAmount() = %v, want 900", p.RemainingAmount())
	}

	p.Paid = 4
	if !p.IsComplete() || p.RemainingAmount() != 0 {
		t.Errorf("expected completed plan, got %+v", p)
	}
}

func TestLoanJSON(t *testing.T) {
	tests := []struct {
		name string
		loan Loan
	}{
		{"with start date", Loan{ID: "l1", Lender: "SNB", Principal: 1200, MonthlyPayment: 100, Months: 12, PaidMonths: 3,
			StartDate: civil.Date{Year: 2024, Month: time.January, Day: 15}}},
		{"without start date", Loan{ID: "l2", Lender: "family", Principal: 500, Months: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.loan)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if tt.loan.StartDate.IsZero() && strings.Contains(string(data), "startDate") {
				t.Errorf("unset start date should be omitted: %s", data)
			}
			var got Loan
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got != tt.loan {
				t.Errorf("got %+v, want %+v", got, tt.loan)
			}
		})
	}
}
