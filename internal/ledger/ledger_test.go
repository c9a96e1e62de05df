package ledger

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/finance-dashboard/internal/domain"
)

var (
	now     = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	june1   = civil.Date{Year: 2024, Month: time.June, Day: 1}
	allOf24 = domain.Period{Year: 2024, Month: domain.AllMonths}
)

func seeded(t *testing.T) *State {
	t.Helper()
	s := NewState()
	if _, err := s.UpsertBankAccount(domain.BankAccountConfig{ID: "rajhi", Name: "Al Rajhi", Balance: 1000, Currency: "SAR"}); err != nil {
		t.Fatalf("UpsertBankAccount() error = %v", err)
	}
	if _, err := s.UpsertBankAccount(domain.BankAccountConfig{ID: "wise", Name: "Wise USD", Currency: "USD"}); err != nil {
		t.Fatalf("UpsertBankAccount() error = %v", err)
	}
	if _, err := s.UpsertCard(domain.CardConfig{ID: "visa", Name: "Visa", Limit: 5000}); err != nil {
		t.Fatalf("UpsertCard() error = %v", err)
	}
	if _, err := s.UpsertCard(domain.CardConfig{ID: "amex", Name: "Amex", Limit: 2000}); err != nil {
		t.Fatalf("UpsertCard() error = %v", err)
	}
	if _, err := s.UpsertCategory(domain.Category{ID: "food", Name: "Food"}); err != nil {
		t.Fatalf("UpsertCategory() error = %v", err)
	}
	return s
}

func TestRecordBNPLPurchase(t *testing.T) {
	s := seeded(t)

	plan, tx, err := s.RecordBNPLPurchase(BNPLPurchase{
		Provider:          "tabby",
		TotalAmount:       1200,
		InstallmentAmount: 300,
		Installments:      4,
		Date:              june1,
		PaymentMethod:     "visa",
	}, now)
	if err != nil {
		t.Fatalf("RecordBNPLPurchase() error = %v", err)
	}

	if plan.Paid != 1 || plan.Total != 4 {
		t.Errorf("plan paid/total = %d/%d, want 1/4", plan.Paid, plan.Total)
	}
	if len(s.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(s.Transactions))
	}
	got := s.Transactions[0]
	if got.ID != tx.ID || got.Type != domain.TypeExpense || got.Amount != 300 {
		t.Errorf("transaction = %+v, want expense of 300", got)
	}
	if !got.IsInstallmentPayment || got.InstallmentID != plan.ID {
		t.Errorf("transaction not linked to plan %s: %+v", plan.ID, got)
	}
	for _, tx := range s.Transactions {
		if tx.Amount == 1200 {
			t.Errorf("found a transaction for the full purchase amount: %+v", tx)
		}
	}
	if stored := s.InstallmentPlans[plan.ID]; stored.Paid != 1 {
		t.Errorf("stored plan paid = %d, want 1", stored.Paid)
	}
}

func TestRecordBNPLPurchase_Defaults(t *testing.T) {
	s := seeded(t)

	plan, tx, err := s.RecordBNPLPurchase(BNPLPurchase{
		Provider:     "tamara",
		TotalAmount:  1000,
		Installments: 3,
		Date:         june1,
	}, now)
	if err != nil {
		t.Fatalf("RecordBNPLPurchase() error = %v", err)
	}
	if plan.InstallmentAmount != 333.33 {
		t.Errorf("installment amount = %v, want 333.33", plan.InstallmentAmount)
	}
	if tx.PaymentMethod != "tamara" {
		t.Errorf("payment method = %q, want provider tag", tx.PaymentMethod)
	}
}

func TestRecordBNPLPurchase_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   BNPLPurchase
	}{
		{"no installments", BNPLPurchase{Provider: "tabby", TotalAmount: 100, Date: june1}},
		{"zero total", BNPLPurchase{Provider: "tabby", Installments: 2, Date: june1}},
		{"no date", BNPLPurchase{Provider: "tabby", TotalAmount: 100, Installments: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seeded(t)
			if _, _, err := s.RecordBNPLPurchase(tt.in, now); err == nil {
				t.Fatal("expected error")
			}
			if len(s.Transactions) != 0 || len(s.InstallmentPlans) != 0 {
				t.Error("failed purchase must not change the state")
			}
		})
	}
}

func TestRecordInstallmentPayment(t *testing.T) {
	s := seeded(t)
	plan, _, err := s.RecordBNPLPurchase(BNPLPurchase{
		Provider: "tabby", TotalAmount: 600, InstallmentAmount: 200, Installments: 3, Date: june1,
	}, now)
	if err != nil {
		t.Fatalf("RecordBNPLPurchase() error = %v", err)
	}

	for i := 2; i <= 3; i++ {
		updated, tx, err := s.RecordInstallmentPayment(plan.ID, InstallmentPayment{Date: june1}, now.Add(time.Duration(i)*time.Second))
		if err != nil {
			t.Fatalf("payment %d: error = %v", i, err)
		}
		if updated.Paid != i {
			t.Errorf("payment %d: paid = %d", i, updated.Paid)
		}
		if tx.Type != domain.TypeBNPLPayment || tx.InstallmentID != plan.ID || tx.Amount != 200 {
			t.Errorf("payment %d: transaction = %+v", i, tx)
		}
	}

	_, _, err = s.RecordInstallmentPayment(plan.ID, InstallmentPayment{Date: june1}, now)
	if !errors.Is(err, ErrPlanComplete) {
		t.Errorf("error = %v, want ErrPlanComplete", err)
	}
	if len(s.Transactions) != 3 {
		t.Errorf("got %d transactions, want 3", len(s.Transactions))
	}

	if _, _, err := s.RecordInstallmentPayment("missing", InstallmentPayment{Date: june1}, now); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDeleteThenReAddRestoresPaidCounter(t *testing.T) {
	s := seeded(t)
	plan, _, err := s.RecordBNPLPurchase(BNPLPurchase{
		Provider: "tabby", TotalAmount: 1200, InstallmentAmount: 300, Installments: 4, Date: june1,
	}, now)
	if err != nil {
		t.Fatalf("RecordBNPLPurchase() error = %v", err)
	}
	_, payment, err := s.RecordInstallmentPayment(plan.ID, InstallmentPayment{Date: june1}, now)
	if err != nil {
		t.Fatalf("RecordInstallmentPayment() error = %v", err)
	}
	before := s.InstallmentPlans[plan.ID].Paid

	removed, err := s.DeleteTransaction(payment.ID)
	if err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if got := s.InstallmentPlans[plan.ID].Paid; got != before-1 {
		t.Errorf("after delete paid = %d, want %d", got, before-1)
	}

	if _, err := s.AddTransaction(removed, now); err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	if got := s.InstallmentPlans[plan.ID].Paid; got != before {
		t.Errorf("after re-add paid = %d, want %d", got, before)
	}
}

func TestDeleteTransaction_PaidFloorAtZero(t *testing.T) {
	s := seeded(t)
	s.InstallmentPlans["p"] = domain.InstallmentPlan{ID: "p", Provider: "tabby", Total: 2, Paid: 0}
	s.Transactions = append(s.Transactions, domain.Transaction{
		ID: "1-a", Amount: 10, Date: june1, Type: domain.TypeBNPLPayment, PaymentMethod: "tabby",
		IsInstallmentPayment: true, InstallmentID: "p",
	})

	if _, err := s.DeleteTransaction("1-a"); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if got := s.InstallmentPlans["p"].Paid; got != 0 {
		t.Errorf("paid = %d, want 0", got)
	}
	if _, err := s.DeleteTransaction("1-a"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestAddTransaction_CapsPaidAtTotal(t *testing.T) {
	s := seeded(t)
	s.InstallmentPlans["p"] = domain.InstallmentPlan{ID: "p", Provider: "tabby", Total: 2, Paid: 2}

	_, err := s.AddTransaction(domain.Transaction{
		Amount: 10, Date: june1, Type: domain.TypeBNPLPayment, PaymentMethod: "tabby",
		IsInstallmentPayment: true, InstallmentID: "p",
	}, now)
	if err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	if got := s.InstallmentPlans["p"].Paid; got != 2 {
		t.Errorf("paid = %d, want 2", got)
	}
}

func TestAddTransaction_Validation(t *testing.T) {
	tests := []struct {
		name    string
		tx      domain.Transaction
		wantErr error
	}{
		{
			name:    "negative amount",
			tx:      domain.Transaction{Amount: -5, Date: june1, Type: domain.TypeExpense, PaymentMethod: "cash"},
			wantErr: ErrInvalidTransaction,
		},
		{
			name:    "unknown type",
			tx:      domain.Transaction{Amount: 5, Date: june1, Type: "gift", PaymentMethod: "cash"},
			wantErr: ErrInvalidTransaction,
		},
		{
			name:    "missing plan",
			tx:      domain.Transaction{Amount: 5, Date: june1, Type: domain.TypeBNPLPayment, PaymentMethod: "tabby", IsInstallmentPayment: true, InstallmentID: "nope"},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seeded(t)
			_, err := s.AddTransaction(tt.tx, now)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if len(s.Transactions) != 0 {
				t.Error("rejected transaction was stored")
			}
		})
	}
}

func TestAddTransaction_AssignsID(t *testing.T) {
	s := seeded(t)
	tx, err := s.AddTransaction(domain.Transaction{Amount: 5, Date: june1, Type: domain.TypeExpense, PaymentMethod: "cash"}, now)
	if err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	if domain.IDTimestamp(tx.ID) != now.UnixMilli() {
		t.Errorf("id %q does not lead with the creation time", tx.ID)
	}
	if _, err := s.AddTransaction(tx, now); !errors.Is(err, ErrInvalidTransaction) {
		t.Errorf("duplicate id error = %v, want ErrInvalidTransaction", err)
	}
}

func TestAddTransaction_SettlementMustFitType(t *testing.T) {
	s := seeded(t)

	rejected := []domain.Transaction{
		{Amount: 300, Date: june1, Type: domain.TypeExpense, PaymentMethod: "visa", Settlement: domain.SettlementReceived},
		{Amount: 100, Date: june1, Type: domain.CardPaymentType("visa"), PaymentMethod: "rajhi", Settlement: domain.SettlementNone},
	}
	for _, tx := range rejected {
		if _, err := s.AddTransaction(tx, now); !errors.Is(err, ErrInvalidTransaction) {
			t.Errorf("AddTransaction(%s tagged %s) error = %v, want ErrInvalidTransaction", tx.Type, tx.Settlement, err)
		}
	}

	for _, tx := range rejected {
		tx.Settlement = domain.SettlementUnset
		if _, err := s.AddTransaction(tx, now); err != nil {
			t.Fatalf("AddTransaction() error = %v", err)
		}
	}

	snap := s.Snapshot(allOf24)
	if got := snap.CardDetails["visa"].Balance; got != 200 {
		t.Errorf("visa balance = %v, want 200", got)
	}
	if got := snap.BankAccountDetails["rajhi"].Balance; got != 900 {
		t.Errorf("rajhi balance = %v, want 900", got)
	}
}

func TestUpdateTransaction(t *testing.T) {
	s := seeded(t)
	tx, err := s.AddTransaction(domain.Transaction{Amount: 5, Date: june1, Type: domain.TypeExpense, PaymentMethod: "cash"}, now)
	if err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}

	tx.Amount = 50
	tx.CategoryID = "food"
	if err := s.UpdateTransaction(tx); err != nil {
		t.Fatalf("UpdateTransaction() error = %v", err)
	}
	if got, _ := s.Transaction(tx.ID); got.Amount != 50 || got.CategoryID != "food" {
		t.Errorf("stored = %+v", got)
	}

	tx.IsInstallmentPayment = true
	tx.InstallmentID = "p"
	if err := s.UpdateTransaction(tx); !errors.Is(err, ErrInvalidTransaction) {
		t.Errorf("relinking error = %v, want ErrInvalidTransaction", err)
	}

	if err := s.UpdateTransaction(domain.Transaction{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing error = %v, want ErrNotFound", err)
	}
}

func TestRecordTransfer(t *testing.T) {
	tests := []struct {
		name       string
		transfer   Transfer
		wantSrc    domain.TransactionType
		wantDst    domain.TransactionType
		wantDstAmt float64
		balances   map[string]float64
	}{
		{
			name:       "bank to bank with exchange rate",
			transfer:   Transfer{From: "rajhi", To: "wise", Amount: 100, ExchangeRate: 0.27, Date: june1},
			wantSrc:    domain.TypeExpense,
			wantDst:    domain.TypeIncome,
			wantDstAmt: 27,
			balances:   map[string]float64{"rajhi": 900, "wise": 27},
		},
		{
			name:       "bank to card",
			transfer:   Transfer{From: "rajhi", To: "visa", Amount: 300, Date: june1},
			wantSrc:    domain.TypeExpense,
			wantDst:    "visa-payment",
			wantDstAmt: 300,
			balances:   map[string]float64{"rajhi": 700, "visa": 0},
		},
		{
			name:       "card to card",
			transfer:   Transfer{From: "amex", To: "visa", Amount: 100, Date: june1},
			wantSrc:    "amex-payment",
			wantDst:    "visa-payment",
			wantDstAmt: 100,
			balances:   map[string]float64{"amex": 100, "visa": 200, "rajhi": 1000},
		},
		{
			name:       "card to bank",
			transfer:   Transfer{From: "visa", To: "rajhi", Amount: 50, Date: june1},
			wantSrc:    "visa-payment",
			wantDst:    domain.TypeIncome,
			wantDstAmt: 50,
			balances:   map[string]float64{"visa": 350, "rajhi": 1050},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seeded(t)
			// 300 of existing spend on visa.
			if _, err := s.AddTransaction(domain.Transaction{Amount: 300, Date: june1, Type: domain.TypeExpense, PaymentMethod: "visa"}, now); err != nil {
				t.Fatalf("AddTransaction() error = %v", err)
			}

			src, dst, err := s.RecordTransfer(tt.transfer, now)
			if err != nil {
				t.Fatalf("RecordTransfer() error = %v", err)
			}
			if src.Type != tt.wantSrc || src.Amount != tt.transfer.Amount || src.PaymentMethod != tt.transfer.From {
				t.Errorf("source leg = %+v", src)
			}
			if dst.Type != tt.wantDst || dst.Amount != tt.wantDstAmt || dst.PaymentMethod != tt.transfer.To {
				t.Errorf("destination leg = %+v", dst)
			}
			if src.ID == dst.ID {
				t.Error("legs must have independent ids")
			}
			if len(s.Transactions) != 3 {
				t.Errorf("got %d transactions, want 3", len(s.Transactions))
			}

			snap := s.Snapshot(allOf24)
			for id, want := range tt.balances {
				var got float64
				if c, ok := snap.CardDetails[id]; ok {
					got = c.Balance
				} else {
					got = snap.BankAccountDetails[id].Balance
				}
				if got != want {
					t.Errorf("balance of %s = %v, want %v", id, got, want)
				}
			}
		})
	}
}

func TestRecordTransfer_Rejected(t *testing.T) {
	tests := []struct {
		name     string
		transfer Transfer
		wantErr  error
	}{
		{"same account", Transfer{From: "rajhi", To: "rajhi", Amount: 1, Date: june1}, ErrInvalidTransaction},
		{"zero amount", Transfer{From: "rajhi", To: "wise", Date: june1}, ErrInvalidTransaction},
		{"negative rate", Transfer{From: "rajhi", To: "wise", Amount: 1, ExchangeRate: -2, Date: june1}, ErrInvalidTransaction},
		{"unknown destination", Transfer{From: "rajhi", To: "nowhere", Amount: 1, Date: june1}, ErrNotFound},
		{"missing date", Transfer{From: "rajhi", To: "wise", Amount: 1}, ErrInvalidTransaction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seeded(t)
			_, _, err := s.RecordTransfer(tt.transfer, now)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if len(s.Transactions) != 0 {
				t.Error("a rejected transfer must not append any leg")
			}
		})
	}
}

func TestConvertAmount(t *testing.T) {
	if got := ConvertAmount(0.1, 3); got != 0.3 {
		t.Errorf("ConvertAmount(0.1, 3) = %v, want 0.3", got)
	}
	if got := ConvertAmount(100, 3.75); got != 375 {
		t.Errorf("ConvertAmount(100, 3.75) = %v, want 375", got)
	}
}

func TestDeleteCategory(t *testing.T) {
	s := seeded(t)
	if _, err := s.AddTransaction(domain.Transaction{Amount: 5, Date: june1, Type: domain.TypeExpense, PaymentMethod: "cash", CategoryID: "food"}, now); err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}

	if err := s.DeleteCategory("food"); !errors.Is(err, ErrCategoryInUse) {
		t.Errorf("error = %v, want ErrCategoryInUse", err)
	}
	if _, ok := s.Categories["food"]; !ok {
		t.Error("category removed while in use")
	}

	if _, err := s.DeleteTransaction(s.Transactions[0].ID); err != nil {
		t.Fatalf("DeleteTransaction() error = %v", err)
	}
	if err := s.DeleteCategory("food"); err != nil {
		t.Errorf("DeleteCategory() error = %v", err)
	}
	if err := s.DeleteCategory("food"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestConfigValidation(t *testing.T) {
	s := seeded(t)

	if _, err := s.UpsertCard(domain.CardConfig{Name: ""}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("UpsertCard(no name) error = %v", err)
	}
	if _, err := s.UpsertCard(domain.CardConfig{ID: "rajhi", Name: "Clash"}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("UpsertCard(id clash) error = %v", err)
	}
	if _, err := s.UpsertBankAccount(domain.BankAccountConfig{ID: "cash", Name: "Cash"}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("UpsertBankAccount(cash) error = %v", err)
	}
	card, err := s.UpsertCard(domain.CardConfig{Name: "Mada Platinum", Limit: 100})
	if err != nil || card.ID != "mada-platinum" {
		t.Errorf("UpsertCard() = %+v, %v; want id mada-platinum", card, err)
	}

	if _, err := s.AddLoan(domain.Loan{Lender: "bank", Principal: 1000, Months: 10, PaidMonths: 11}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("AddLoan(overpaid) error = %v", err)
	}
	loan, err := s.AddLoan(domain.Loan{Lender: "bank", Principal: 1000, MonthlyPayment: 100, Months: 10})
	if err != nil || loan.ID == "" {
		t.Errorf("AddLoan() = %+v, %v", loan, err)
	}
	if got := s.LoanList(); len(got) != 1 {
		t.Errorf("LoanList() = %d loans, want 1", len(got))
	}
}

func TestClone_IsIndependent(t *testing.T) {
	s := seeded(t)
	if _, _, err := s.RecordBNPLPurchase(BNPLPurchase{Provider: "tabby", TotalAmount: 100, Installments: 2, Date: june1}, now); err != nil {
		t.Fatalf("RecordBNPLPurchase() error = %v", err)
	}

	c := s.Clone()
	c.Transactions[0].Amount = 999
	c.Cards["visa"] = domain.CardConfig{ID: "visa", Name: "changed"}
	for id, p := range c.InstallmentPlans {
		p.Paid = 2
		c.InstallmentPlans[id] = p
	}
	delete(c.Categories, "food")

	if s.Transactions[0].Amount == 999 {
		t.Error("transaction slice shared with clone")
	}
	if s.Cards["visa"].Name != "Visa" {
		t.Error("cards map shared with clone")
	}
	for _, p := range s.InstallmentPlans {
		if p.Paid != 1 {
			t.Error("plans map shared with clone")
		}
	}
	if _, ok := s.Categories["food"]; !ok {
		t.Error("categories map shared with clone")
	}
}

func TestNormalize(t *testing.T) {
	s := &State{}
	s.Normalize()
	if s.Transactions == nil || s.Cards == nil || s.BankAccounts == nil ||
		s.Categories == nil || s.InstallmentPlans == nil || s.Loans == nil {
		t.Errorf("Normalize() left nil collections: %+v", s)
	}
}
