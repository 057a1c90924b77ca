// Package warehouse mirrors persisted results into BigQuery for analytics.
//
// The relational store stays the source of truth. Exports are idempotent:
// asset history is MERGEd on (group_id, date) and holding valuations are
// tagged with the run that produced them.
package warehouse

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/mf-dashboard/internal/domain"
)

const (
	assetHistoryTable  = "asset_history"
	holdingValuesTable = "holding_values"
)

// Exporter writes to one BigQuery dataset.
type Exporter struct {
	client    *bigquery.Client
	projectID string
	datasetID string
	now       func() time.Time
}

// NewExporter creates an Exporter with its own client.
func NewExporter(ctx context.Context, projectID, datasetID string) (*Exporter, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewExporter: creating client: %w", err)
	}
	return &Exporter{client: client, projectID: projectID, datasetID: datasetID, now: time.Now}, nil
}

// Close closes the BigQuery client connection.
func (e *Exporter) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

func (e *Exporter) table(name string) string {
	return fmt.Sprintf("`%s.%s.%s`", e.projectID, e.datasetID, name)
}

// EnsureTables creates the export tables when they are missing.
func (e *Exporter) EnsureTables(ctx context.Context) error {
	for _, ddl := range createTableStatements(e.table) {
		if err := e.run(ctx, e.client.Query(ddl)); err != nil {
			return fmt.Errorf("EnsureTables: %w", err)
		}
	}
	return nil
}

// ExportAssetHistory upserts the group's daily totals.
func (e *Exporter) ExportAssetHistory(ctx context.Context, groupID string, points []domain.AssetHistoryPoint) error {
	if len(points) == 0 {
		return nil
	}
	q := e.client.Query(mergeAssetHistoryStatement(e.table(assetHistoryTable)))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "group_id", Value: groupID},
		{Name: "rows", Value: assetHistoryParams(points)},
		{Name: "exported_ts", Value: e.now().UTC()},
	}
	if err := e.run(ctx, q); err != nil {
		return fmt.Errorf("ExportAssetHistory: %w", err)
	}
	return nil
}

// ExportHoldingValues streams the run's valuations.
func (e *Exporter) ExportHoldingValues(ctx context.Context, runID string, snapshotDate civil.Date, holdings []domain.Holding) error {
	rows := holdingValueRows(runID, snapshotDate, holdings, e.now())
	if len(rows) == 0 {
		return nil
	}
	inserter := e.client.DatasetInProject(e.projectID, e.datasetID).Table(holdingValuesTable).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("ExportHoldingValues: inserting rows: %w", err)
	}
	return nil
}

// ListExportedDates returns the days exported for the group, oldest first.
func (e *Exporter) ListExportedDates(ctx context.Context, groupID string) ([]civil.Date, error) {
	q := e.client.Query(fmt.Sprintf(`
		SELECT group_id, date, total_assets, change, exported_ts
		FROM %s
		WHERE group_id = @group_id
		ORDER BY date
	`, e.table(assetHistoryTable)))
	q.Parameters = []bigquery.QueryParameter{{Name: "group_id", Value: groupID}}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListExportedDates: reading query: %w", err)
	}

	var dates []civil.Date
	for {
		var row AssetHistoryRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListExportedDates: iterating: %w", err)
		}
		dates = append(dates, row.Date)
	}
	return dates, nil
}

func (e *Exporter) run(ctx context.Context, q *bigquery.Query) error {
	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("running query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("job error: %w", err)
	}
	return nil
}

func createTableStatements(table func(string) string) []string {
	return []string{
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			group_id      STRING NOT NULL,
			date          DATE NOT NULL,
			total_assets  INT64 NOT NULL,
			change        INT64,
			exported_ts   TIMESTAMP NOT NULL
		)
		CLUSTER BY group_id
	`, table(assetHistoryTable)),
		fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id               STRING NOT NULL,
			snapshot_date        DATE NOT NULL,
			holding_mf_id        STRING,
			account_mf_id        STRING,
			name                 STRING,
			type                 STRING,
			category             STRING,
			amount               INT64,
			quantity             FLOAT64,
			unit_price           FLOAT64,
			avg_cost_price       FLOAT64,
			daily_change         INT64,
			unrealized_gain      INT64,
			unrealized_gain_pct  FLOAT64,
			exported_ts          TIMESTAMP
		)
		PARTITION BY snapshot_date
	`, table(holdingValuesTable)),
	}
}

func mergeAssetHistoryStatement(table string) string {
	return fmt.Sprintf(`
		MERGE %s T
		USING (SELECT * FROM UNNEST(@rows)) S
		ON T.group_id = @group_id AND T.date = S.date
		WHEN MATCHED THEN
			UPDATE SET total_assets = S.total_assets, change = S.change, exported_ts = @exported_ts
		WHEN NOT MATCHED THEN
			INSERT (group_id, date, total_assets, change, exported_ts)
			VALUES (@group_id, S.date, S.total_assets, S.change, @exported_ts)
	`, table)
}
