package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-dashboard/internal/advisor"
	"github.com/dvloznov/finance-dashboard/internal/app"
	"github.com/dvloznov/finance-dashboard/internal/backup"
	"github.com/dvloznov/finance-dashboard/internal/config"
	"github.com/dvloznov/finance-dashboard/internal/dashboard"
	"github.com/dvloznov/finance-dashboard/internal/domain"
	"github.com/dvloznov/finance-dashboard/internal/ledger"
	"github.com/dvloznov/finance-dashboard/internal/logger"
	"github.com/dvloznov/finance-dashboard/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log := logger.NewWithLevel(cfg.LogLevel)

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "snapshot":
		runSnapshot(cfg, log)
	case "add":
		runAdd(cfg, log)
	case "transfer":
		runTransfer(cfg, log)
	case "bnpl":
		runBNPL(cfg, log)
	case "backup":
		runBackup(cfg, log)
	case "restore":
		runRestore(cfg, log)
	case "advise":
		runAdvise(cfg, log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Finance Dashboard CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  snapshot  Print the dashboard for a year or month")
	fmt.Println("  add       Record an income, expense or investment transaction")
	fmt.Println("  transfer  Move money between bank accounts and cards")
	fmt.Println("  bnpl      Record a buy-now-pay-later purchase")
	fmt.Println("  backup    Write the current state to the backup destination")
	fmt.Println("  restore   Replace the current state with a backup")
	fmt.Println("  advise    Ask Gemini for advice on the current numbers")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nThe state backend and backup destination come from FINANCE_* variables.")
	fmt.Println("Run 'cli <command> -h' for more information on a command.")
}

// session holds what every command needs after flag parsing.
type session struct {
	ctx  context.Context
	repo store.StateRepository
	svc  *dashboard.Service
}

func open(cfg *config.Config, log zerolog.Logger, timeout time.Duration) (*session, func()) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = logger.WithContext(ctx, log)

	repo, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open state store")
	}

	// The CLI never runs a job queue, so writes do not schedule backups.
	svc := dashboard.NewService(repo, nil)
	return &session{ctx: ctx, repo: repo, svc: svc}, func() {
		repo.Close()
		cancel()
	}
}

func userFlag(fs *flag.FlagSet) *string {
	return fs.String("user", os.Getenv("FINANCE_USER"), "User whose state to use (or set FINANCE_USER)")
}

func requireUser(log zerolog.Logger, user string) {
	if user == "" {
		log.Fatal().Msg("Error: --user is required")
	}
}

func parseDate(log zerolog.Logger, s string) civil.Date {
	if s == "" {
		return civil.DateOf(time.Now())
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		log.Fatal().Err(err).Str("date", s).Msg("Error: invalid date format, expected YYYY-MM-DD")
	}
	return d
}

func runSnapshot(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
	user := userFlag(fs)
	year := fs.String("year", "", "Year (defaults to the current year)")
	month := fs.String("month", "", "Month 1-12, or empty for the whole year")
	fs.Parse(os.Args[2:])
	requireUser(log, *user)

	period, err := domain.ParsePeriod(*year, *month, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Error: invalid period")
	}

	s, done := open(cfg, log, time.Minute)
	defer done()

	overview, err := s.svc.Overview(s.ctx, *user, period)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to compute snapshot")
	}

	snap := overview.Snapshot
	fmt.Printf("\n=== %s ===\n", period)
	fmt.Printf("Income:    %.2f\n", snap.TotalIncome)
	fmt.Printf("Expenses:  %.2f\n", snap.TotalExpenses)
	fmt.Printf("Net:       %.2f\n", overview.Net)
	if len(overview.TopCategories) > 0 {
		fmt.Println("\nTop categories:")
		for _, c := range overview.TopCategories {
			name := c.CategoryID
			if cat, ok := overview.Categories[c.CategoryID]; ok {
				name = cat.Name
			}
			fmt.Printf("  %-20s %10.2f\n", name, c.Amount)
		}
	}
	fmt.Printf("\nInstallments remaining: %.2f\n", overview.Installments.RemainingAmount)
	fmt.Printf("Loans remaining:        %.2f\n\n", overview.Loans.RemainingAmount)
}

func runAdd(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	user := userFlag(fs)
	txType := fs.String("type", string(domain.TypeExpense), "income, expense, investment-deposit or investment-withdrawal")
	amount := fs.Float64("amount", 0, "Positive amount")
	method := fs.String("method", domain.CashPaymentMethod, "Payment method: cash, a card id or a bank account id")
	category := fs.String("category", "", "Category id")
	date := fs.String("date", "", "Date YYYY-MM-DD (defaults to today)")
	description := fs.String("description", "", "Free-text description")
	fs.Parse(os.Args[2:])
	requireUser(log, *user)

	s, done := open(cfg, log, time.Minute)
	defer done()

	tx, err := s.svc.AddTransaction(s.ctx, *user, domain.Transaction{
		Amount:        *amount,
		Date:          parseDate(log, *date),
		Type:          domain.TransactionType(*txType),
		PaymentMethod: *method,
		CategoryID:    *category,
		Description:   *description,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to add transaction")
	}
	fmt.Printf("Added transaction %s\n", tx.ID)
}

func runTransfer(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("transfer", flag.ExitOnError)
	user := userFlag(fs)
	from := fs.String("from", "", "Source bank account or card id")
	to := fs.String("to", "", "Destination bank account or card id")
	amount := fs.Float64("amount", 0, "Amount taken from the source")
	rate := fs.Float64("rate", 1, "Exchange rate applied to the destination amount")
	date := fs.String("date", "", "Date YYYY-MM-DD (defaults to today)")
	description := fs.String("description", "", "Free-text description")
	fs.Parse(os.Args[2:])
	requireUser(log, *user)

	s, done := open(cfg, log, time.Minute)
	defer done()

	source, destination, err := s.svc.RecordTransfer(s.ctx, *user, ledger.Transfer{
		From:         *from,
		To:           *to,
		Amount:       *amount,
		ExchangeRate: *rate,
		Date:         parseDate(log, *date),
		Description:  *description,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to record transfer")
	}
	fmt.Printf("Recorded transfer %s (%.2f) -> %s (%.2f)\n", source.PaymentMethod, source.Amount, destination.PaymentMethod, destination.Amount)
}

func runBNPL(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("bnpl", flag.ExitOnError)
	user := userFlag(fs)
	provider := fs.String("provider", "", "BNPL provider, e.g. tabby or tamara")
	total := fs.Float64("total", 0, "Full purchase amount")
	installments := fs.Int("installments", 4, "Number of installments")
	method := fs.String("method", "", "Payment method of the first installment (defaults to the provider)")
	category := fs.String("category", "", "Category id")
	date := fs.String("date", "", "Date YYYY-MM-DD (defaults to today)")
	description := fs.String("description", "", "Free-text description")
	fs.Parse(os.Args[2:])
	requireUser(log, *user)

	s, done := open(cfg, log, time.Minute)
	defer done()

	plan, _, err := s.svc.RecordBNPLPurchase(s.ctx, *user, ledger.BNPLPurchase{
		Provider:      *provider,
		TotalAmount:   *total,
		Installments:  *installments,
		Date:          parseDate(log, *date),
		PaymentMethod: *method,
		CategoryID:    *category,
		Description:   *description,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to record purchase")
	}
	fmt.Printf("Created plan %s: %d x %.2f, %d paid\n", plan.ID, plan.Total, plan.InstallmentAmount, plan.Paid)
}

func runBackup(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("backup", flag.ExitOnError)
	user := userFlag(fs)
	fs.Parse(os.Args[2:])
	requireUser(log, *user)

	s, done := open(cfg, log, 5*time.Minute)
	defer done()

	dest, closeDest, err := app.OpenBackupDestination(s.ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open backup destination")
	}
	defer closeDest()

	name, err := backup.Backup(s.ctx, s.repo, dest, *user, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Backup failed")
	}
	fmt.Printf("Backed up %s to %s (%s)\n", *user, name, cfg.Backup.Destination)
}

func runRestore(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("restore", flag.ExitOnError)
	user := userFlag(fs)
	name := fs.String("name", "", "Archive name (defaults to the latest)")
	fs.Parse(os.Args[2:])
	requireUser(log, *user)

	s, done := open(cfg, log, 5*time.Minute)
	defer done()

	dest, closeDest, err := app.OpenBackupDestination(s.ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open backup destination")
	}
	defer closeDest()

	archive, err := backup.Restore(s.ctx, s.repo, dest, *user, *name)
	if err != nil {
		log.Fatal().Err(err).Msg("Restore failed")
	}
	fmt.Printf("Restored %s from the backup taken %s (%d transactions)\n",
		*user, archive.CreatedAt.Format(time.RFC3339), len(archive.State.Transactions))
}

func runAdvise(cfg *config.Config, log zerolog.Logger) {
	fs := flag.NewFlagSet("advise", flag.ExitOnError)
	user := userFlag(fs)
	question := fs.String("question", "", "Question for the advisor")
	year := fs.String("year", "", "Year (defaults to the current year)")
	month := fs.String("month", "", "Month 1-12, or empty for the whole year")
	fs.Parse(os.Args[2:])
	requireUser(log, *user)

	period, err := domain.ParsePeriod(*year, *month, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Error: invalid period")
	}

	s, done := open(cfg, log, cfg.Gemini.Timeout+time.Minute)
	defer done()

	overview, err := s.svc.Overview(s.ctx, *user, period)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to compute snapshot")
	}

	adv, err := advisor.NewGeminiAdvisor(s.ctx, advisor.Options{
		Model:       cfg.Gemini.Model,
		Timeout:     cfg.Gemini.Timeout,
		Temperature: cfg.Gemini.Temperature,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create advisor")
	}

	answer, err := adv.Advise(s.ctx, overview, *question)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get advice")
	}
	fmt.Println(answer)
}
