package notionsync

import (
	"context"
	"fmt"
	"sort"

	"github.com/jomei/notionapi"

	"github.com/dvloznov/finance-dashboard/internal/domain"
	"github.com/dvloznov/finance-dashboard/internal/engine"
	"github.com/dvloznov/finance-dashboard/internal/logger"
)

// SyncResult counts what a sync did (or would do, in a dry run).
type SyncResult struct {
	Created  int
	Updated  int
	Archived int
	Skipped  int
	Failed   int
}

// record is one item to mirror, identified by the value of the key property.
type record struct {
	key   string
	props notionapi.Properties
}

// SyncTransactions mirrors txs into the transactions database. Pages are
// matched by the "Transaction ID" property: missing ones are created, pages for
// deleted transactions (or without an id) are archived, existing ones are left alone.
func SyncTransactions(ctx context.Context, notion NotionService, databaseID string, txs []domain.Transaction, categories map[string]domain.Category, dryRun bool) (SyncResult, error) {
	records := make([]record, 0, len(txs))
	for _, tx := range txs {
		records = append(records, record{key: tx.ID, props: TransactionToNotionProperties(tx, categories)})
	}
	res, err := syncRecords(ctx, notion, databaseID, TransactionIDProperty, records, false, dryRun)
	if err != nil {
		return res, fmt.Errorf("SyncTransactions: %w", err)
	}
	return res, nil
}

// SyncCards upserts one page per card with its current balance and utilisation.
func SyncCards(ctx context.Context, notion NotionService, databaseID string, snap *engine.Snapshot, dryRun bool) (SyncResult, error) {
	records := make([]record, 0, len(snap.CardDetails))
	for _, id := range sortedKeys(snap.CardDetails) {
		records = append(records, record{key: id, props: CardToNotionProperties(snap.CardDetails[id])})
	}
	res, err := syncRecords(ctx, notion, databaseID, CardIDProperty, records, true, dryRun)
	if err != nil {
		return res, fmt.Errorf("SyncCards: %w", err)
	}
	return res, nil
}

// SyncBankAccounts upserts one page per bank account with its current balance.
func SyncBankAccounts(ctx context.Context, notion NotionService, databaseID string, snap *engine.Snapshot, dryRun bool) (SyncResult, error) {
	records := make([]record, 0, len(snap.BankAccountDetails))
	for _, id := range sortedKeys(snap.BankAccountDetails) {
		records = append(records, record{key: id, props: BankAccountToNotionProperties(snap.BankAccountDetails[id])})
	}
	res, err := syncRecords(ctx, notion, databaseID, AccountIDProperty, records, true, dryRun)
	if err != nil {
		return res, fmt.Errorf("SyncBankAccounts: %w", err)
	}
	return res, nil
}

// syncRecords reconciles a database with records. Per-page failures are logged
// and counted; only failing to list the database aborts the sync.
func syncRecords(ctx context.Context, notion NotionService, databaseID, keyProperty string, records []record, updateExisting, dryRun bool) (SyncResult, error) {
	log := logger.FromContext(ctx).With().Str("database_id", databaseID).Bool("dry_run", dryRun).Logger()
	var res SyncResult

	pages, err := queryAllNotionPages(ctx, notion, databaseID)
	if err != nil {
		return res, err
	}
	log.Info().Int("notion_page_count", len(pages)).Int("record_count", len(records)).Msg("Retrieved existing Notion pages")

	wanted := make(map[string]bool, len(records))
	for _, r := range records {
		wanted[r.key] = true
	}

	existing := make(map[string]string, len(pages))
	for _, page := range pages {
		key := pageKey(page, keyProperty)
		_, dup := existing[key]
		if key == "" || !wanted[key] || dup {
			if dryRun {
				log.Info().Str("key", key).Str("page_id", string(page.ID)).Msg("[DRY RUN] Would archive stale Notion page")
				res.Archived++
				continue
			}
			if err := notion.ArchivePage(ctx, string(page.ID)); err != nil {
				log.Warn().Err(err).Str("key", key).Str("page_id", string(page.ID)).Msg("Failed to archive stale Notion page")
				res.Failed++
				continue
			}
			res.Archived++
			continue
		}
		existing[key] = string(page.ID)
	}

	for _, r := range records {
		pageID, found := existing[r.key]
		switch {
		case found && !updateExisting:
			res.Skipped++
		case dryRun:
			if found {
				log.Info().Str("key", r.key).Msg("[DRY RUN] Would update Notion page")
				res.Updated++
			} else {
				log.Info().Str("key", r.key).Msg("[DRY RUN] Would create Notion page")
				res.Created++
			}
		case found:
			if _, err := notion.UpdatePage(ctx, pageID, r.props); err != nil {
				log.Warn().Err(err).Str("key", r.key).Str("page_id", pageID).Msg("Failed to update Notion page")
				res.Failed++
				continue
			}
			res.Updated++
		default:
			page, err := notion.CreatePage(ctx, databaseID, r.props)
			if err != nil {
				log.Warn().Err(err).Str("key", r.key).Msg("Failed to create Notion page")
				res.Failed++
				continue
			}
			log.Debug().Str("key", r.key).Str("page_id", string(page.ID)).Msg("Created Notion page")
			res.Created++
		}
	}

	log.Info().
		Int("created", res.Created).
		Int("updated", res.Updated).
		Int("archived", res.Archived).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Msg("Notion sync completed")

	return res, nil
}

// queryAllNotionPages queries all pages from a Notion database and returns them.
// Handles pagination automatically.
func queryAllNotionPages(ctx context.Context, notion NotionService, databaseID string) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: 100}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notion.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllNotionPages: %w", err)
		}
		all = append(all, resp.Results...)

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return all, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
