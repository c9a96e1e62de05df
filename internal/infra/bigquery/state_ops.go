package bigquery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/finance-dashboard/internal/ledger"
	"github.com/dvloznov/finance-dashboard/internal/logger"
)

const (
	DefaultDatasetID = "finance"

	transactionsTable     = "transactions"
	cardsTable            = "cards"
	bankAccountsTable     = "bank_accounts"
	categoriesTable       = "categories"
	installmentPlansTable = "installment_plans"
	loansTable            = "loans"
)

// StateTables lists every per-user table in the dataset.
var StateTables = []string{
	transactionsTable,
	cardsTable,
	bankAccountsTable,
	categoriesTable,
	installmentPlansTable,
	loansTable,
}

// Dataset identifies where the state tables live.
type Dataset struct {
	ProjectID string
	DatasetID string
}

func (d Dataset) table(name string) string {
	return "`" + d.ProjectID + "." + d.DatasetID + "." + name + "`"
}

// LoadStateWithClient reads every state table for userID using the provided client.
func LoadStateWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string) (*ledger.State, error) {
	st := ledger.NewState()

	txs, err := queryUserRows[TransactionRow](ctx, client, ds, transactionsTable, userID, "transaction_date, transaction_id")
	if err != nil {
		return nil, fmt.Errorf("LoadState: %w", err)
	}
	for i := range txs {
		st.Transactions = append(st.Transactions, txs[i].Domain())
	}

	cards, err := queryUserRows[CardRow](ctx, client, ds, cardsTable, userID, "card_id")
	if err != nil {
		return nil, fmt.Errorf("LoadState: %w", err)
	}
	for i := range cards {
		c := cards[i].Domain()
		st.Cards[c.ID] = c
	}

	accounts, err := queryUserRows[BankAccountRow](ctx, client, ds, bankAccountsTable, userID, "account_id")
	if err != nil {
		return nil, fmt.Errorf("LoadState: %w", err)
	}
	for i := range accounts {
		a := accounts[i].Domain()
		st.BankAccounts[a.ID] = a
	}

	categories, err := queryUserRows[CategoryRow](ctx, client, ds, categoriesTable, userID, "category_id")
	if err != nil {
		return nil, fmt.Errorf("LoadState: %w", err)
	}
	for i := range categories {
		c := categories[i].Domain()
		st.Categories[c.ID] = c
	}

	plans, err := queryUserRows[InstallmentPlanRow](ctx, client, ds, installmentPlansTable, userID, "created_ts")
	if err != nil {
		return nil, fmt.Errorf("LoadState: %w", err)
	}
	for i := range plans {
		p := plans[i].Domain()
		st.InstallmentPlans[p.ID] = p
	}

	loans, err := queryUserRows[LoanRow](ctx, client, ds, loansTable, userID, "loan_id")
	if err != nil {
		return nil, fmt.Errorf("LoadState: %w", err)
	}
	for i := range loans {
		l := loans[i].Domain()
		st.Loans[l.ID] = l
	}

	return st, nil
}

func queryUserRows[T any](ctx context.Context, client *bigquery.Client, ds Dataset, table, userID, orderBy string) ([]T, error) {
	q := client.Query(`SELECT * FROM ` + ds.table(table) + ` WHERE user_id = @user_id ORDER BY ` + orderBy)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: query read: %w", table, err)
	}

	var rows []T
	for {
		var r T
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: iter next: %w", table, err)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// stagingTTL bounds how long an abandoned staging table survives a crashed save.
const stagingTTL = time.Hour

// SaveStateWithClient replaces every row of userID. The new rows are first loaded
// into per-save staging tables; one multi-statement transaction then deletes the
// old rows and copies the staged ones in, so a failed save leaves the previous
// state untouched.
func SaveStateWithClient(ctx context.Context, client *bigquery.Client, ds Dataset, userID string, state *ledger.State) error {
	log := logger.FromContext(ctx)
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")

	staged := make(map[string]string, len(StateTables))
	defer func() {
		for _, name := range staged {
			if err := client.DatasetInProject(ds.ProjectID, ds.DatasetID).Table(name).Delete(ctx); err != nil {
				log.Warn().Err(err).Str("table", name).Msg("Failed to drop staging table")
			}
		}
	}()

	rows := StateRows(userID, state)
	for _, table := range StateTables {
		if len(rows[table]) == 0 {
			continue
		}
		name := table + "_staging_" + suffix
		if err := createStagingTable(ctx, client, ds, table, name); err != nil {
			return fmt.Errorf("SaveState: staging %s: %w", table, err)
		}
		staged[table] = name
		if err := loadRows(ctx, client, ds, name, rows[table]); err != nil {
			return fmt.Errorf("SaveState: loading %s: %w", table, err)
		}
	}

	q := client.Query(swapStatement(ds, staged))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}
	if err := runQuery(ctx, q); err != nil {
		return fmt.Errorf("SaveState: swapping rows: %w", err)
	}
	return nil
}

// swapStatement builds the transaction that replaces the user's rows in every
// state table. Tables absent from staged are only cleared.
func swapStatement(ds Dataset, staged map[string]string) string {
	var b strings.Builder
	b.WriteString("BEGIN TRANSACTION;\n")
	for _, table := range StateTables {
		fmt.Fprintf(&b, "DELETE FROM %s WHERE user_id = @user_id;\n", ds.table(table))
		if name, ok := staged[table]; ok {
			fmt.Fprintf(&b, "INSERT INTO %s SELECT * FROM %s;\n", ds.table(table), ds.table(name))
		}
	}
	b.WriteString("COMMIT TRANSACTION;\n")
	return b.String()
}

// createStagingTable creates name with the schema of table and a short expiry.
func createStagingTable(ctx context.Context, client *bigquery.Client, ds Dataset, table, name string) error {
	dataset := client.DatasetInProject(ds.ProjectID, ds.DatasetID)
	md, err := dataset.Table(table).Metadata(ctx)
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	return dataset.Table(name).Create(ctx, &bigquery.TableMetadata{
		Schema:         md.Schema,
		ExpirationTime: time.Now().Add(stagingTTL),
	})
}

// StateRows converts state into the rows of each table, keyed by table name.
func StateRows(userID string, state *ledger.State) map[string][]interface{} {
	rows := make(map[string][]interface{}, len(StateTables))
	for _, t := range state.Transactions {
		rows[transactionsTable] = append(rows[transactionsTable], NewTransactionRow(userID, t))
	}
	for _, c := range state.Cards {
		rows[cardsTable] = append(rows[cardsTable], NewCardRow(userID, c))
	}
	for _, a := range state.BankAccounts {
		rows[bankAccountsTable] = append(rows[bankAccountsTable], NewBankAccountRow(userID, a))
	}
	for _, c := range state.Categories {
		rows[categoriesTable] = append(rows[categoriesTable], NewCategoryRow(userID, c))
	}
	for _, p := range state.InstallmentPlans {
		rows[installmentPlansTable] = append(rows[installmentPlansTable], NewInstallmentPlanRow(userID, p))
	}
	for _, l := range state.Loans {
		rows[loansTable] = append(rows[loansTable], NewLoanRow(userID, l))
	}
	return rows
}

// EncodeRows renders rows as newline-delimited JSON for a load job.
func EncodeRows(rows []interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range rows {
		if err := enc.Encode(r); err != nil {
			return nil, fmt.Errorf("EncodeRows: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// loadRows appends rows with a load job. Streaming inserts are avoided because
// rows in the streaming buffer cannot be read back by DML in the same save.
func loadRows(ctx context.Context, client *bigquery.Client, ds Dataset, table string, rows []interface{}) error {
	if len(rows) == 0 {
		return nil
	}
	data, err := EncodeRows(rows)
	if err != nil {
		return err
	}

	source := bigquery.NewReaderSource(bytes.NewReader(data))
	source.SourceFormat = bigquery.JSON

	loader := client.DatasetInProject(ds.ProjectID, ds.DatasetID).Table(table).LoaderFrom(source)
	loader.WriteDisposition = bigquery.WriteAppend

	job, err := loader.Run(ctx)
	if err != nil {
		return fmt.Errorf("run load: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}

func runQuery(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("wait for job: %w", err)
	}

	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}

	return nil
}
