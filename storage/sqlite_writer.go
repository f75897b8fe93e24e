package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"ai-startup-map/models"
	"ai-startup-map/utils"
)

const sqliteTable = "clustered_startups"

// SQLiteWriter mirrors checkpoint 2 into a single-file SQLite database. The
// table is recreated on every write, since feature columns vary between runs.
type SQLiteWriter struct {
	db     *sql.DB
	logger *utils.Logger
}

var _ CheckpointSink = (*SQLiteWriter)(nil)

// NewSQLiteWriter opens (or creates) the database at path.
func NewSQLiteWriter(path string, logger *utils.Logger) (*SQLiteWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: create output dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	return &SQLiteWriter{db: db, logger: logger}, nil
}

// Write replaces the table contents with t, tagging every row with runID.
func (w *SQLiteWriter) Write(ctx context.Context, runID string, t *models.Table) error {
	if err := ValidateClustered(t); err != nil {
		return err
	}
	cols := checkpointColumns(t, true)

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range sqliteSchema(cols) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: schema: %w", err)
		}
	}

	names := make([]string, 0, len(cols)+1)
	names = append(names, `"run_id"`)
	for _, c := range cols {
		names = append(names, fmt.Sprintf("%q", c.name))
	}
	for i := range t.Entities {
		values := make([]any, 0, len(cols)+1)
		values = append(values, runID)
		for _, c := range cols {
			values = append(values, c.value(&t.Entities[i]))
		}
		query, args, err := sq.Insert(fmt.Sprintf("%q", sqliteTable)).Columns(names...).Values(values...).ToSql()
		if err != nil {
			return fmt.Errorf("sqlite: build insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("sqlite: insert %q: %w", t.Entities[i].Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	w.logger.Info("[sqlite] Mirrored %d entities into %s (run %s)", t.Len(), sqliteTable, runID)
	return nil
}

// sqliteSchema drops and recreates the mirror table for cols.
func sqliteSchema(cols []column) []string {
	defs := []string{`"run_id" TEXT NOT NULL`}
	for _, c := range cols {
		typ := "TEXT"
		switch c.kind {
		case kindReal:
			typ = "REAL"
		case kindInt:
			typ = "INTEGER"
		}
		defs = append(defs, fmt.Sprintf("%q %s", c.name, typ))
	}
	return []string{
		fmt.Sprintf(`DROP TABLE IF EXISTS %q`, sqliteTable),
		fmt.Sprintf(`CREATE TABLE %q (%s)`, sqliteTable, strings.Join(defs, ",")),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_cluster ON %s(cluster)`, sqliteTable, sqliteTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_defensibility ON %s(defensibility)`, sqliteTable, sqliteTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_saturation ON %s(saturation)`, sqliteTable, sqliteTable),
	}
}

func (w *SQLiteWriter) Close() error {
	return w.db.Close()
}
