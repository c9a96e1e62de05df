// Package bigquery persists user state in BigQuery tables keyed by user_id.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/finance-dashboard/internal/ledger"
)

// BigQueryStateRepository is the StateRepository that interacts with BigQuery.
// It holds a shared client to avoid creating a new connection for each operation.
type BigQueryStateRepository struct {
	client  *bigquery.Client
	dataset Dataset
}

// NewBigQueryStateRepository creates a repository with a shared BigQuery client.
func NewBigQueryStateRepository(ctx context.Context, projectID, datasetID string) (*BigQueryStateRepository, error) {
	if projectID == "" {
		return nil, fmt.Errorf("NewBigQueryStateRepository: project id is required")
	}
	if datasetID == "" {
		datasetID = DefaultDatasetID
	}
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryStateRepository: creating client: %w", err)
	}
	return NewBigQueryStateRepositoryWithClient(client, Dataset{ProjectID: projectID, DatasetID: datasetID}), nil
}

// NewBigQueryStateRepositoryWithClient wraps an existing client.
func NewBigQueryStateRepositoryWithClient(client *bigquery.Client, ds Dataset) *BigQueryStateRepository {
	return &BigQueryStateRepository{client: client, dataset: ds}
}

// Close closes the BigQuery client connection.
func (r *BigQueryStateRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// LoadState delegates to LoadStateWithClient with the shared client.
func (r *BigQueryStateRepository) LoadState(ctx context.Context, userID string) (*ledger.State, error) {
	if userID == "" {
		return nil, fmt.Errorf("LoadState: user id is required")
	}
	return LoadStateWithClient(ctx, r.client, r.dataset, userID)
}

// SaveState delegates to SaveStateWithClient with the shared client.
func (r *BigQueryStateRepository) SaveState(ctx context.Context, userID string, state *ledger.State) error {
	if userID == "" {
		return fmt.Errorf("SaveState: user id is required")
	}
	if state == nil {
		return fmt.Errorf("SaveState: state is nil")
	}
	return SaveStateWithClient(ctx, r.client, r.dataset, userID, state)
}
