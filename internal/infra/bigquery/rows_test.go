package bigquery

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/finance-dashboard/internal/domain"
	"github.com/dvloznov/finance-dashboard/internal/ledger"
	"github.com/dvloznov/finance-dashboard/internal/store"
)

var _ store.StateRepository = (*BigQueryStateRepository)(nil)

func TestTransactionRow_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tx   domain.Transaction
	}{
		{
			name: "minimal expense",
			tx: domain.Transaction{
				ID: "1-a", Amount: 12.5, Date: civil.Date{Year: 2024, Month: time.May, Day: 1},
				Type: domain.TypeExpense, PaymentMethod: "cash",
			},
		},
		{
			name: "tagged installment payment",
			tx: domain.Transaction{
				ID: "2-b", Amount: 300, Date: civil.Date{Year: 2024, Month: time.May, Day: 2},
				Type: domain.TypeBNPLPayment, PaymentMethod: "tabby", CategoryID: "shopping",
				Description: "laptop", IsInstallmentPayment: true, InstallmentID: "plan-1",
				Settlement: domain.SettlementNone,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := NewTransactionRow("alice", tt.tx)
			if row.UserID != "alice" {
				t.Errorf("UserID = %q", row.UserID)
			}
			if got := row.Domain(); got != tt.tx {
				t.Errorf("Domain() = %+v, want %+v", got, tt.tx)
			}
		})
	}
}

func TestTransactionRow_NullableColumns(t *testing.T) {
	row := NewTransactionRow("alice", domain.Transaction{ID: "1-a", Type: domain.TypeIncome})

	if row.CategoryID.Valid || row.Description.Valid || row.InstallmentID.Valid || row.SettlementDirection.Valid {
		t.Errorf("empty optional fields must be NULL: %+v", row)
	}
	if row.IsInstallmentPayment.Valid {
		t.Error("IsInstallmentPayment must be NULL when false")
	}
}

func TestConfigRows_RoundTrip(t *testing.T) {
	card := domain.CardConfig{ID: "visa", Name: "Visa", Limit: 5000, DueDay: 25, StatementDay: 1}
	if got := NewCardRow("u", card).Domain(); got != card {
		t.Errorf("card = %+v", got)
	}

	acct := domain.BankAccountConfig{ID: "rajhi", Name: "Al Rajhi", Balance: 1000, Currency: "SAR"}
	if got := NewBankAccountRow("u", acct).Domain(); got != acct {
		t.Errorf("account = %+v", got)
	}

	cat := domain.Category{ID: "food", Name: "Food"}
	if got := NewCategoryRow("u", cat).Domain(); got != cat {
		t.Errorf("category = %+v", got)
	}

	plan := domain.InstallmentPlan{
		ID: "p", Provider: "tabby", TotalAmount: 1200, InstallmentAmount: 300, Total: 4, Paid: 2,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	if got := NewInstallmentPlanRow("u", plan).Domain(); got != plan {
		t.Errorf("plan = %+v", got)
	}

	loan := domain.Loan{ID: "l", Lender: "SNB", Principal: 1000, MonthlyPayment: 100, Months: 10}
	row := NewLoanRow("u", loan)
	if row.StartDate.Valid {
		t.Error("zero start date must be NULL")
	}
	if got := row.Domain(); got != loan {
		t.Errorf("loan = %+v", got)
	}
}

func TestStateRows(t *testing.T) {
	st := ledger.NewState()
	st.Cards["visa"] = domain.CardConfig{ID: "visa", Name: "Visa"}
	st.Transactions = append(st.Transactions,
		domain.Transaction{ID: "1", Amount: 1, Type: domain.TypeExpense, PaymentMethod: "visa"},
		domain.Transaction{ID: "2", Amount: 2, Type: domain.TypeExpense, PaymentMethod: "visa"},
	)

	rows := StateRows("alice", st)
	if len(rows[transactionsTable]) != 2 || len(rows[cardsTable]) != 1 {
		t.Errorf("StateRows() = %d transactions, %d cards", len(rows[transactionsTable]), len(rows[cardsTable]))
	}
	if len(rows[loansTable]) != 0 {
		t.Errorf("expected no loan rows, got %d", len(rows[loansTable]))
	}
}

func TestEncodeRows(t *testing.T) {
	rows := []interface{}{
		NewTransactionRow("alice", domain.Transaction{
			ID: "1-a", Amount: 10, Date: civil.Date{Year: 2024, Month: time.March, Day: 9},
			Type: domain.TypeExpense, PaymentMethod: "cash", CategoryID: "food",
		}),
		NewTransactionRow("alice", domain.Transaction{ID: "2-b", Amount: 5, Type: domain.TypeIncome, PaymentMethod: "cash"}),
	}

	data, err := EncodeRows(rows)
	if err != nil {
		t.Fatalf("EncodeRows() error = %v", err)
	}
	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}

	var first map[string]interface{}
	if err := json.Unmarshal(lines[0], &first); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if first["transaction_date"] != "2024-03-09" {
		t.Errorf("transaction_date = %v", first["transaction_date"])
	}
	if first["category_id"] != "food" {
		t.Errorf("category_id = %v", first["category_id"])
	}
	if first["description"] != nil {
		t.Errorf("description = %v, want null", first["description"])
	}
}
