package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-dashboard/internal/app"
	"github.com/dvloznov/finance-dashboard/internal/config"
	"github.com/dvloznov/finance-dashboard/internal/domain"
	"github.com/dvloznov/finance-dashboard/internal/logger"
	"github.com/dvloznov/finance-dashboard/internal/notionsync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New()
		bootLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize structured logger
	log := logger.NewWithLevel(cfg.LogLevel)

	// Parse CLI flags
	userID := flag.String("user", "", "User whose state to mirror (required)")
	yearStr := flag.String("year", "", "Year of the card and account figures (defaults to the current year)")
	monthStr := flag.String("month", "", "Month 1-12 of the card and account figures, or empty for the whole year")
	notionToken := flag.String("notion-token", cfg.Notion.Token, "Notion API token (or set FINANCE_NOTION_TOKEN)")
	transactionsDB := flag.String("transactions-db", cfg.Notion.TransactionsDB, "Notion database for transactions")
	cardsDB := flag.String("cards-db", cfg.Notion.CardsDB, "Notion database for cards (optional)")
	accountsDB := flag.String("accounts-db", cfg.Notion.AccountsDB, "Notion database for bank accounts (optional)")
	dryRun := flag.Bool("dry-run", false, "Dry run mode - preview changes without syncing")
	flag.Parse()

	// Validate required flags
	if *userID == "" {
		log.Fatal().Msg("Error: --user is required")
	}
	if *notionToken == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if *transactionsDB == "" && *cardsDB == "" && *accountsDB == "" {
		log.Fatal().Msg("Error: at least one Notion database is required")
	}

	period, err := domain.ParsePeriod(*yearStr, *monthStr, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Error: invalid period")
	}

	// Create context with timeout so CLI doesn't hang
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("user_id", *userID).
		Str("period", period.String()).
		Bool("dry_run", *dryRun).
		Msg("Starting Notion sync")

	repo, err := app.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open state store")
	}
	defer repo.Close()

	st, err := repo.LoadState(ctx, *userID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load state")
	}
	snap := st.Snapshot(period)

	notionClient := notionsync.NewNotionClient(*notionToken)

	if *transactionsDB != "" {
		res, err := notionsync.SyncTransactions(ctx, notionClient, *transactionsDB, st.SortedTransactions(), st.Categories, *dryRun)
		report(log, "transactions", res, err)
	}
	if *cardsDB != "" {
		res, err := notionsync.SyncCards(ctx, notionClient, *cardsDB, snap, *dryRun)
		report(log, "cards", res, err)
	}
	if *accountsDB != "" {
		res, err := notionsync.SyncBankAccounts(ctx, notionClient, *accountsDB, snap, *dryRun)
		report(log, "bank accounts", res, err)
	}

	fmt.Println("Sync completed successfully.")
}

func report(log zerolog.Logger, what string, res notionsync.SyncResult, err error) {
	if err != nil {
		log.Fatal().Err(err).Str("records", what).Msg("Sync failed")
	}
	fmt.Printf("%-14s created %d, updated %d, archived %d, skipped %d, failed %d\n",
		what+":", res.Created, res.Updated, res.Archived, res.Skipped, res.Failed)
}
