// Package store exports run outputs to SQLite for ad-hoc querying.
package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/forecast-cli/internal/extend"
	"github.com/sells-group/forecast-cli/internal/model"
)

// SQLiteStore writes forecast tables using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	started_at   DATETIME NOT NULL,
	finished_at  DATETIME NOT NULL,
	attributions TEXT NOT NULL,
	growths      TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS group_series (
	run_id             TEXT NOT NULL REFERENCES runs(id),
	level              TEXT NOT NULL,
	variant            TEXT NOT NULL,
	segment_id         INTEGER NOT NULL,
	name               TEXT NOT NULL,
	year               INTEGER NOT NULL,
	employment         REAL NOT NULL,
	value_type         TEXT NOT NULL,
	forecast_source    TEXT,
	applied_growth_pct REAL
);

CREATE TABLE IF NOT EXISTS comparison (
	run_id             TEXT NOT NULL REFERENCES runs(id),
	level              TEXT NOT NULL,
	segment_id         INTEGER NOT NULL,
	name               TEXT NOT NULL,
	year               INTEGER NOT NULL,
	employment         REAL NOT NULL,
	value_type         TEXT NOT NULL,
	forecast_source    TEXT,
	attribution_source TEXT NOT NULL,
	applied_growth_pct REAL,
	is_total           INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS occupation_forecasts (
	run_id             TEXT NOT NULL REFERENCES runs(id),
	segment_id         INTEGER NOT NULL,
	segment_name       TEXT NOT NULL,
	occupation_code    TEXT NOT NULL,
	occupation_title   TEXT,
	year               INTEGER NOT NULL,
	methodology        TEXT NOT NULL,
	attribution_source TEXT NOT NULL,
	growth_source      TEXT NOT NULL,
	employment         REAL NOT NULL,
	share              REAL NOT NULL,
	is_total           INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS allocation_validation (
	run_id        TEXT NOT NULL REFERENCES runs(id),
	segment_id    INTEGER NOT NULL,
	year          INTEGER NOT NULL,
	methodology   TEXT NOT NULL,
	allocated_sum REAL NOT NULL,
	segment_total REAL NOT NULL,
	pct_diff      REAL NOT NULL,
	flagged       INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_group_series_run ON group_series(run_id, level, variant);
CREATE INDEX IF NOT EXISTS idx_comparison_run ON comparison(run_id, level);
CREATE INDEX IF NOT EXISTS idx_occupation_forecasts_run ON occupation_forecasts(run_id, year);
CREATE INDEX IF NOT EXISTS idx_allocation_validation_run ON allocation_validation(run_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRun records run metadata before table rows are inserted.
func (s *SQLiteStore) CreateRun(ctx context.Context, runID string, startedAt time.Time, attributions, growths []string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, attributions, growths) VALUES (?, ?, ?, ?, ?)`,
		runID, startedAt, time.Now().UTC(), strings.Join(attributions, ","), strings.Join(growths, ","),
	)
	return eris.Wrapf(err, "sqlite: insert run %s", runID)
}

// SaveSeries inserts one group-year series under a level ("segment" or
// "stage") and a variant label such as "baseline_lightcast".
func (s *SQLiteStore) SaveSeries(ctx context.Context, runID, level, variant string, records []model.GroupYearRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO group_series (run_id, level, variant, segment_id, name, year, employment, value_type, forecast_source, applied_growth_pct)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare series insert")
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			runID, level, variant, r.Group.SegmentID, r.Group.Name, r.Year,
			r.Employment, string(r.ValueType), r.ForecastSource, nullFloat(r.AppliedGrowthPct),
		); err != nil {
			return eris.Wrap(err, "sqlite: insert series row")
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit series")
}

// SaveComparison inserts a stacked methodology table.
func (s *SQLiteStore) SaveComparison(ctx context.Context, runID, level string, records []extend.StackedRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO comparison (run_id, level, segment_id, name, year, employment, value_type, forecast_source, attribution_source, applied_growth_pct, is_total)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare comparison insert")
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			runID, level, r.Group.SegmentID, r.Group.Name, r.Year,
			r.Employment, string(r.ValueType), r.ForecastSource, r.Attribution,
			nullFloat(r.AppliedGrowthPct), boolInt(r.Group.IsTotal()),
		); err != nil {
			return eris.Wrap(err, "sqlite: insert comparison row")
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit comparison")
}

// SaveAllocations inserts the occupation-level forecast table.
func (s *SQLiteStore) SaveAllocations(ctx context.Context, runID string, records []model.AllocationRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO occupation_forecasts (run_id, segment_id, segment_name, occupation_code, occupation_title, year, methodology, attribution_source, growth_source, employment, share, is_total)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare allocation insert")
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			runID, r.SegmentID, r.SegmentName, r.OccCode, r.OccTitle, r.Year,
			r.Methodology.String(), r.Methodology.Attribution, r.Methodology.Growth,
			r.Employment, r.Share, boolInt(r.IsTotal),
		); err != nil {
			return eris.Wrap(err, "sqlite: insert allocation row")
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit allocations")
}

// SaveValidations inserts the allocation validation table.
func (s *SQLiteStore) SaveValidations(ctx context.Context, runID string, records []model.ValidationRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO allocation_validation (run_id, segment_id, year, methodology, allocated_sum, segment_total, pct_diff, flagged)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare validation insert")
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			runID, r.SegmentID, r.Year, r.Methodology.String(),
			r.AllocatedSum, r.SegmentTotal, r.PctDiff, boolInt(r.Flagged),
		); err != nil {
			return eris.Wrap(err, "sqlite: insert validation row")
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit validations")
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
