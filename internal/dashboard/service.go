// Package dashboard is the application service: it loads a user's state,
// applies one write, persists the result and schedules a backup.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dvloznov/finance-dashboard/internal/domain"
	"github.com/dvloznov/finance-dashboard/internal/engine"
	"github.com/dvloznov/finance-dashboard/internal/jobs"
	"github.com/dvloznov/finance-dashboard/internal/ledger"
	"github.com/dvloznov/finance-dashboard/internal/logger"
	"github.com/dvloznov/finance-dashboard/internal/store"
)

// ErrMissingUser is returned when an operation is called without a user id.
var ErrMissingUser = errors.New("user id is required")

// Service serialises writes per user. Reads do not take the user lock.
type Service struct {
	repo      store.StateRepository
	publisher jobs.Publisher

	backupDestination string
	manualBackupsOnly bool
	now               func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, e.g. in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithBackupDestination sets the destination recorded on published backup jobs.
func WithBackupDestination(name string) Option {
	return func(s *Service) { s.backupDestination = name }
}

// WithoutAutomaticBackups stops writes from scheduling backups; RequestBackup still works.
func WithoutAutomaticBackups() Option {
	return func(s *Service) { s.manualBackupsOnly = true }
}

// NewService creates a service. publisher may be nil to disable backups entirely.
func NewService(repo store.StateRepository, publisher jobs.Publisher, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	return l
}

// State returns the stored state of userID.
func (s *Service) State(ctx context.Context, userID string) (*ledger.State, error) {
	if userID == "" {
		return nil, fmt.Errorf("State: %w", ErrMissingUser)
	}
	st, err := s.repo.LoadState(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("State: loading state: %w", err)
	}
	return st, nil
}

// mutate runs fn against a copy of the stored state and saves the copy only
// when fn succeeds. Errors from fn are returned unchanged.
func (s *Service) mutate(ctx context.Context, op, userID string, fn func(st *ledger.State) error) error {
	if userID == "" {
		return fmt.Errorf("%s: %w", op, ErrMissingUser)
	}

	l := s.userLock(userID)
	l.Lock()
	defer l.Unlock()

	current, err := s.repo.LoadState(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: loading state: %w", op, err)
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return err
	}

	if err := s.repo.SaveState(ctx, userID, next); err != nil {
		return fmt.Errorf("%s: saving state: %w", op, err)
	}

	s.scheduleBackup(ctx, userID, op)
	return nil
}

// scheduleBackup is best effort: the write has already been saved.
func (s *Service) scheduleBackup(ctx context.Context, userID, reason string) {
	if s.publisher == nil || s.manualBackupsOnly {
		return
	}
	log := logger.FromContext(ctx)

	job := &jobs.BackupJob{
		UserID:      userID,
		Destination: s.backupDestination,
		Reason:      reason,
		CreatedAt:   s.now(),
	}
	if err := s.publisher.PublishBackup(ctx, job); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Str("reason", reason).Msg("Failed to schedule backup")
		return
	}
	log.Debug().Str("job_id", job.JobID).Str("reason", reason).Msg("Backup scheduled")
}

// RequestBackup publishes a backup job on demand and returns it.
func (s *Service) RequestBackup(ctx context.Context, userID string) (*jobs.BackupJob, error) {
	if userID == "" {
		return nil, fmt.Errorf("RequestBackup: %w", ErrMissingUser)
	}
	if s.publisher == nil {
		return nil, fmt.Errorf("RequestBackup: backups are not configured")
	}

	job := &jobs.BackupJob{
		UserID:      userID,
		Destination: s.backupDestination,
		Reason:      "manual",
		CreatedAt:   s.now(),
	}
	if err := s.publisher.PublishBackup(ctx, job); err != nil {
		return nil, fmt.Errorf("RequestBackup: %w", err)
	}
	return job, nil
}

// ReplaceState overwrites everything stored for userID, e.g. when restoring a backup.
func (s *Service) ReplaceState(ctx context.Context, userID string, st *ledger.State) error {
	if st == nil {
		return fmt.Errorf("ReplaceState: state is required")
	}
	return s.mutate(ctx, "ReplaceState", userID, func(next *ledger.State) error {
		replacement := st.Clone()
		replacement.Normalize()
		*next = *replacement
		return nil
	})
}

// Snapshot computes the derived view of userID's ledger for period.
func (s *Service) Snapshot(ctx context.Context, userID string, period domain.Period) (*engine.Snapshot, error) {
	st, err := s.State(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Snapshot: %w", err)
	}
	return st.Snapshot(period), nil
}

// Overview is a snapshot together with the rollups shown beside it.
type Overview struct {
	Snapshot      *engine.Snapshot           `json:"snapshot"`
	Net           float64                    `json:"net"`
	TopCategories []engine.CategoryAmount    `json:"topCategories"`
	Installments  engine.InstallmentSummary  `json:"installments"`
	Loans         engine.LoanSummary         `json:"loans"`
	Categories    map[string]domain.Category `json:"categories"`
}

// Overview computes the snapshot for period plus installment, loan and category rollups.
func (s *Service) Overview(ctx context.Context, userID string, period domain.Period) (*Overview, error) {
	st, err := s.State(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Overview: %w", err)
	}
	snap := st.Snapshot(period)
	return &Overview{
		Snapshot:      snap,
		Net:           snap.Net(),
		TopCategories: engine.TopCategories(snap.ExpensesByCategory, 0),
		Installments:  engine.SummarizeInstallments(st.Plans()),
		Loans:         engine.SummarizeLoans(st.LoanList()),
		Categories:    st.Categories,
	}, nil
}

// ListTransactions returns the transactions in period, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID string, period domain.Period) ([]domain.Transaction, error) {
	st, err := s.State(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("ListTransactions: %w", err)
	}
	return engine.SortTransactions(engine.FilterByPeriod(st.Transactions, period)), nil
}

// InstallmentPlans returns userID's plans, newest first.
func (s *Service) InstallmentPlans(ctx context.Context, userID string) ([]domain.InstallmentPlan, error) {
	st, err := s.State(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("InstallmentPlans: %w", err)
	}
	return st.Plans(), nil
}
