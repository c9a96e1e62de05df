package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/finance-dashboard/internal/domain"
	"github.com/dvloznov/finance-dashboard/internal/infra/inmemory"
	"github.com/dvloznov/finance-dashboard/internal/jobs"
	"github.com/dvloznov/finance-dashboard/internal/ledger"
)

var (
	fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	june1    = civil.Date{Year: 2024, Month: time.June, Day: 1}
	june     = domain.Period{Year: 2024, Month: time.June}
)

// mockPublisher records published jobs.
type mockPublisher struct {
	mu   sync.Mutex
	jobs []*jobs.BackupJob
	err  error
}

func (m *mockPublisher) PublishBackup(ctx context.Context, job *jobs.BackupJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	job.JobID = fmt.Sprintf("job-%d", len(m.jobs)+1)
	m.jobs = append(m.jobs, job)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// failingRepo wraps a store and fails every save.
type failingRepo struct {
	*inmemory.Store
}

func (f failingRepo) SaveState(ctx context.Context, userID string, st *ledger.State) error {
	return errors.New("disk full")
}

func newTestService(t *testing.T) (*Service, *inmemory.Store, *mockPublisher) {
	t.Helper()
	repo := inmemory.NewStore()
	pub := &mockPublisher{}
	svc := NewService(repo, pub, WithClock(func() time.Time { return fixedNow }), WithBackupDestination("local"))

	ctx := context.Background()
	if _, err := svc.UpsertBankAccount(ctx, "alice", domain.BankAccountConfig{ID: "rajhi", Name: "Al Rajhi", Balance: 1000}); err != nil {
		t.Fatalf("UpsertBankAccount() error = %v", err)
	}
	if _, err := svc.UpsertCard(ctx, "alice", domain.CardConfig{ID: "visa", Name: "Visa", Limit: 5000}); err != nil {
		t.Fatalf("UpsertCard() error = %v", err)
	}
	if _, err := svc.UpsertCategory(ctx, "alice", domain.Category{ID: "food", Name: "Food"}); err != nil {
		t.Fatalf("UpsertCategory() error = %v", err)
	}
	return svc, repo, pub
}

func TestService_WritePersistsAndSchedulesBackup(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub := newTestService(t)
	before := pub.count()

	tx, err := svc.AddTransaction(ctx, "alice", domain.Transaction{
		Amount: 100, Date: june1, Type: domain.TypeExpense, PaymentMethod: "visa", CategoryID: "food",
	})
	if err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	if tx.ID == "" {
		t.Error("expected an assigned id")
	}

	st, _ := repo.LoadState(ctx, "alice")
	if len(st.Transactions) != 1 {
		t.Fatalf("stored %d transactions, want 1", len(st.Transactions))
	}

	if pub.count() != before+1 {
		t.Fatalf("published %d jobs, want %d", pub.count(), before+1)
	}
	last := pub.jobs[len(pub.jobs)-1]
	if last.UserID != "alice" || last.Reason != "AddTransaction" || last.Destination != "local" {
		t.Errorf("backup job = %+v", last)
	}

	snap, err := svc.Snapshot(ctx, "alice", june)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if snap.TotalExpenses != 100 || snap.ExpensesByCategory["food"] != 100 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestService_FailedTransitionLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub := newTestService(t)
	before := pub.count()

	_, _, err := svc.RecordTransfer(ctx, "alice", ledger.Transfer{From: "rajhi", To: "nowhere", Amount: 50, Date: june1})
	if !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("RecordTransfer() error = %v, want ErrNotFound", err)
	}
	st, _ := repo.LoadState(ctx, "alice")
	if len(st.Transactions) != 0 {
		t.Errorf("rejected transfer stored %d legs", len(st.Transactions))
	}
	if pub.count() != before {
		t.Error("rejected write must not schedule a backup")
	}

	if _, err := svc.AddTransaction(ctx, "alice", domain.Transaction{Amount: -1, Date: june1, Type: domain.TypeExpense, PaymentMethod: "cash"}); !errors.Is(err, ledger.ErrInvalidTransaction) {
		t.Errorf("AddTransaction(negative) error = %v", err)
	}
}

func TestService_PublishFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	svc, repo, pub := newTestService(t)
	pub.err = errors.New("queue full")

	if _, err := svc.AddTransaction(ctx, "alice", domain.Transaction{Amount: 5, Date: june1, Type: domain.TypeIncome, PaymentMethod: "rajhi"}); err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	st, _ := repo.LoadState(ctx, "alice")
	if len(st.Transactions) != 1 {
		t.Error("write should be saved even when scheduling the backup fails")
	}

	if _, err := svc.RequestBackup(ctx, "alice"); err == nil {
		t.Error("RequestBackup() should surface publish errors")
	}
}

func TestService_SaveFailure(t *testing.T) {
	repo := failingRepo{inmemory.NewStore()}
	pub := &mockPublisher{}
	svc := NewService(repo, pub)

	_, err := svc.UpsertCategory(context.Background(), "alice", domain.Category{ID: "food", Name: "Food"})
	if err == nil {
		t.Fatal("expected save error")
	}
	if pub.count() != 0 {
		t.Error("failed save must not schedule a backup")
	}
}

func TestService_MissingUser(t *testing.T) {
	svc := NewService(inmemory.NewStore(), nil)
	ctx := context.Background()

	if _, err := svc.Snapshot(ctx, "", june); !errors.Is(err, ErrMissingUser) {
		t.Errorf("Snapshot() error = %v", err)
	}
	if err := svc.DeleteCategory(ctx, "", "food"); !errors.Is(err, ErrMissingUser) {
		t.Errorf("DeleteCategory() error = %v", err)
	}
	if _, err := svc.RequestBackup(ctx, "alice"); err == nil {
		t.Error("RequestBackup() without publisher expected error")
	}
}

func TestService_ConcurrentWritesAreSerialised(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)

	const writers = 25
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.AddTransaction(ctx, "alice", domain.Transaction{
				ID: fmt.Sprintf("%d-w", 1717200000000+i), Amount: 1, Date: june1,
				Type: domain.TypeExpense, PaymentMethod: "cash",
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("AddTransaction() error = %v", err)
		}
	}

	st, _ := repo.LoadState(ctx, "alice")
	if len(st.Transactions) != writers {
		t.Errorf("stored %d transactions, want %d (lost update)", len(st.Transactions), writers)
	}
}

func TestService_BNPLAndOverview(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t)

	plan, _, err := svc.RecordBNPLPurchase(ctx, "alice", ledger.BNPLPurchase{
		Provider: "tabby", TotalAmount: 400, Installments: 4, Date: june1, PaymentMethod: "visa", CategoryID: "food",
	})
	if err != nil {
		t.Fatalf("RecordBNPLPurchase() error = %v", err)
	}
	if _, _, err := svc.RecordInstallmentPayment(ctx, "alice", plan.ID, ledger.InstallmentPayment{Date: june1, PaymentMethod: "rajhi"}); err != nil {
		t.Fatalf("RecordInstallmentPayment() error = %v", err)
	}
	if _, err := svc.AddLoan(ctx, "alice", domain.Loan{Lender: "SNB", Principal: 1200, MonthlyPayment: 100, Months: 12}); err != nil {
		t.Fatalf("AddLoan() error = %v", err)
	}

	ov, err := svc.Overview(ctx, "alice", june)
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if ov.Installments.ActivePlans != 1 || ov.Installments.RemainingAmount != 200 {
		t.Errorf("installments = %+v", ov.Installments)
	}
	if ov.Loans.ActiveLoans != 1 || ov.Loans.RemainingAmount != 1200 {
		t.Errorf("loans = %+v", ov.Loans)
	}
	if ov.Snapshot.TotalExpenses != 200 || ov.Net != -200 {
		t.Errorf("totals = %v, net %v", ov.Snapshot.TotalExpenses, ov.Net)
	}

	plans, _ := svc.InstallmentPlans(ctx, "alice")
	if len(plans) != 1 || plans[0].Paid != 2 {
		t.Errorf("plans = %+v", plans)
	}

	txs, _ := svc.ListTransactions(ctx, "alice", june)
	if len(txs) != 2 {
		t.Errorf("ListTransactions() = %d, want 2", len(txs))
	}

	if err := svc.DeleteCategory(ctx, "alice", "food"); !errors.Is(err, ledger.ErrCategoryInUse) {
		t.Errorf("DeleteCategory() error = %v, want ErrCategoryInUse", err)
	}
}

func TestService_ReplaceState(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)

	replacement := ledger.NewState()
	replacement.Categories["travel"] = domain.Category{ID: "travel", Name: "Travel"}
	if err := svc.ReplaceState(ctx, "alice", replacement); err != nil {
		t.Fatalf("ReplaceState() error = %v", err)
	}

	st, _ := repo.LoadState(ctx, "alice")
	if len(st.Cards) != 0 || st.Categories["travel"].Name != "Travel" {
		t.Errorf("state after replace = %+v", st)
	}
}

func TestService_ManualBackupsOnly(t *testing.T) {
	ctx := context.Background()
	pub := &mockPublisher{}
	svc := NewService(inmemory.NewStore(), pub, WithoutAutomaticBackups(), WithClock(func() time.Time { return fixedNow }))

	if _, err := svc.UpsertCategory(ctx, "alice", domain.Category{ID: "food", Name: "Food"}); err != nil {
		t.Fatalf("UpsertCategory() error = %v", err)
	}
	if pub.count() != 0 {
		t.Fatalf("writes scheduled %d backups, want 0", pub.count())
	}

	job, err := svc.RequestBackup(ctx, "alice")
	if err != nil {
		t.Fatalf("RequestBackup() error = %v", err)
	}
	if job.Reason != "manual" || pub.count() != 1 {
		t.Errorf("job = %+v, published %d", job, pub.count())
	}

	if _, err := NewService(inmemory.NewStore(), nil).RequestBackup(ctx, "alice"); err == nil {
		t.Error("expected error without a publisher")
	}
}
