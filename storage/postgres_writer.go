package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"ai-startup-map/models"
	"ai-startup-map/utils"
)

const postgresBatchSize = 50

// postgresColumns is the fixed column order of the startups table. Feature
// flags vary between runs and are stored together as JSONB.
var postgresColumns = []string{
	"run_id", "name", "website", "website_clean", "description", "source", "sources",
	"funding_amount", "features", "keywords", "min_price", "max_price", "price_tiers",
	"size_category", "gtm_motion", "primary_use_case", "business_model",
	"cluster", "cluster_name", "cluster_size", "pca_x", "pca_y",
	"defensibility_score", "defensibility", "saturation_score", "saturation",
}

// PostgresWriter mirrors checkpoint 2 into PostgreSQL.
type PostgresWriter struct {
	db     *sql.DB
	logger *utils.Logger
}

var _ CheckpointSink = (*PostgresWriter)(nil)

// NewPostgresWriter opens a connection to PostgreSQL, pinging under retry,
// runs the schema migration and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(ctx context.Context, dsn string, retry utils.RetryConfig, logger *utils.Logger) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if retry.BaseDelay == 0 {
		retry.BaseDelay = 2 * time.Second
	}
	if err := retry.Do(ctx, "postgres ping", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	pw := &PostgresWriter{db: db, logger: logger}
	if err := pw.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return pw, nil
}

func (pw *PostgresWriter) migrate(ctx context.Context) error {
	_, err := pw.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS startups (
			id                  SERIAL PRIMARY KEY,
			run_id              UUID             NOT NULL,
			name                TEXT             NOT NULL,
			website             TEXT             NOT NULL DEFAULT '',
			website_clean       TEXT             NOT NULL DEFAULT '',
			description         TEXT             NOT NULL DEFAULT '',
			source              VARCHAR(50)      NOT NULL DEFAULT '',
			sources             TEXT             NOT NULL DEFAULT '',
			funding_amount      DOUBLE PRECISION,
			features            JSONB            NOT NULL DEFAULT '{}',
			keywords            TEXT             NOT NULL DEFAULT '',
			min_price           DOUBLE PRECISION,
			max_price           DOUBLE PRECISION,
			price_tiers         INTEGER,
			size_category       VARCHAR(32)      NOT NULL DEFAULT '',
			gtm_motion          TEXT             NOT NULL DEFAULT '',
			primary_use_case    TEXT             NOT NULL DEFAULT '',
			business_model      TEXT             NOT NULL DEFAULT '',
			cluster             INTEGER          NOT NULL,
			cluster_name        TEXT             NOT NULL,
			cluster_size        INTEGER          NOT NULL,
			pca_x               DOUBLE PRECISION NOT NULL,
			pca_y               DOUBLE PRECISION NOT NULL,
			defensibility_score DOUBLE PRECISION NOT NULL,
			defensibility       VARCHAR(32)      NOT NULL,
			saturation_score    DOUBLE PRECISION NOT NULL,
			saturation          VARCHAR(32)      NOT NULL,
			created_at          TIMESTAMPTZ      NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_startups_run_id        ON startups(run_id);
		CREATE INDEX IF NOT EXISTS idx_startups_cluster       ON startups(cluster);
		CREATE INDEX IF NOT EXISTS idx_startups_defensibility ON startups(defensibility);
		CREATE INDEX IF NOT EXISTS idx_startups_saturation    ON startups(saturation);
	`)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Clear deletes all existing rows from the table.
func (pw *PostgresWriter) Clear(ctx context.Context) error {
	return clearStartups(ctx, pw.db)
}

func clearStartups(ctx context.Context, db execer) error {
	query, args, err := sq.Delete("startups").PlaceholderFormat(sq.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("postgres: build clear: %w", err)
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Write replaces the table contents with t in batches of 50, tagging every
// row with runID. The clear and every batch share one transaction.
func (pw *PostgresWriter) Write(ctx context.Context, runID string, t *models.Table) error {
	if err := ValidateClustered(t); err != nil {
		return err
	}
	if t.Len() == 0 {
		return nil
	}

	tx, err := pw.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := clearStartups(ctx, tx); err != nil {
		return err
	}
	for i := 0; i < t.Len(); i += postgresBatchSize {
		end := i + postgresBatchSize
		if end > t.Len() {
			end = t.Len()
		}
		query, args, err := buildPostgresInsert(runID, t, t.Entities[i:end])
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: insert batch at %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	pw.logger.Info("[postgres] Stored %d entities in table startups (run %s)", t.Len(), runID)
	return nil
}

// buildPostgresInsert renders one multi-row INSERT for batch.
func buildPostgresInsert(runID string, t *models.Table, batch []models.CanonicalEntity) (string, []any, error) {
	ins := sq.Insert("startups").Columns(postgresColumns...).PlaceholderFormat(sq.Dollar)
	for i := range batch {
		row, err := postgresRow(runID, t, &batch[i])
		if err != nil {
			return "", nil, err
		}
		ins = ins.Values(row...)
	}
	query, args, err := ins.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("postgres: build insert: %w", err)
	}
	return query, args, nil
}

func postgresRow(runID string, t *models.Table, e *models.CanonicalEntity) ([]any, error) {
	features := make(map[string]int, len(t.FeatureColumns))
	for _, c := range t.FeatureColumns {
		features[c] = e.Feature(c)
	}
	blob, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("postgres: encode features of %q: %w", e.Name, err)
	}

	var tiers any
	if e.Price.PriceTiers != nil {
		tiers = *e.Price.PriceTiers
	}
	return []any{
		runID, e.Name, e.Website, e.WebsiteClean, e.Description, e.Source,
		strings.Join(e.Sources, listSeparator),
		nullFloat(e.FundingAmount), string(blob), strings.Join(e.Keywords, listSeparator),
		nullFloat(e.Price.MinPrice), nullFloat(e.Price.MaxPrice), tiers,
		string(e.SizeCategory), e.GTMMotion, e.PrimaryUseCase, e.BusinessModel,
		*e.ClusterID, e.ClusterName, e.ClusterSize, e.PCA.X, e.PCA.Y,
		e.DefensibilityScore, e.Defensibility, e.SaturationScore, e.Saturation,
	}, nil
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
