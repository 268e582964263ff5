// Package history persists one summary row per dataset check in PostgreSQL.
//
// The message file of a dataset only holds its latest check; the history
// table keeps every run so operators can see how a cruise's status evolved
// across resubmissions. History is optional: the server runs without a
// database and simply does not record runs.
package history

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/cruisecheck/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is the subset of pgx used by the store. Both *pgxpool.Pool and
// pgx.Tx satisfy it.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// DefaultListLimit and MaxListLimit bound ListRuns.
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS check_runs (
		id                UUID PRIMARY KEY,
		dataset_id        TEXT NOT NULL,
		strategy          TEXT NOT NULL,
		status            TEXT NOT NULL,
		num_rows          INTEGER NOT NULL,
		num_columns       INTEGER NOT NULL,
		error_rows        INTEGER NOT NULL,
		warning_rows      INTEGER NOT NULL,
		message_count     INTEGER NOT NULL,
		geoposition_error BOOLEAN NOT NULL,
		engine_failed     BOOLEAN NOT NULL,
		ip_address        TEXT,
		user_agent        TEXT,
		duration_ms       BIGINT NOT NULL,
		checked_at        TIMESTAMPTZ NOT NULL,
		data_hash         TEXT
	)`,
	`ALTER TABLE check_runs ADD COLUMN IF NOT EXISTS data_hash TEXT`,
	`CREATE INDEX IF NOT EXISTS check_runs_dataset_idx ON check_runs (dataset_id, checked_at DESC)`,
	`CREATE INDEX IF NOT EXISTS check_runs_checked_at_idx ON check_runs (checked_at)`,
}

const insertRunSQL = `INSERT INTO check_runs (
	id, dataset_id, strategy, status, num_rows, num_columns, error_rows, warning_rows,
	message_count, geoposition_error, engine_failed, ip_address, user_agent, duration_ms, checked_at,
	data_hash
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

const selectRunsSQL = `SELECT
	id, dataset_id, strategy, status, num_rows, num_columns, error_rows, warning_rows,
	message_count, geoposition_error, engine_failed, ip_address, user_agent, duration_ms, checked_at,
	data_hash
FROM check_runs`

// Run is a stored check summary.
type Run struct {
	ID               string    `json:"id"`
	DatasetID        string    `json:"datasetId"`
	Strategy         string    `json:"strategy"`
	Status           string    `json:"status"`
	NumRows          int       `json:"numRows"`
	NumColumns       int       `json:"numColumns"`
	ErrorRows        int       `json:"errorRows"`
	WarningRows      int       `json:"warningRows"`
	MessageCount     int       `json:"messageCount"`
	GeopositionError bool      `json:"geopositionError"`
	EngineFailed     bool      `json:"engineFailed"`
	IPAddress        string    `json:"ipAddress,omitempty"`
	UserAgent        string    `json:"userAgent,omitempty"`
	DurationMS       int64     `json:"durationMs"`
	CheckedAt        time.Time `json:"checkedAt"`
	DataHash         string    `json:"dataHash,omitempty"`
}

// Store reads and writes check run summaries.
type Store struct {
	db DBTX
}

// NewStore creates a store over db.
func NewStore(db DBTX) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the history table and its indexes if missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure history schema: %w", err)
		}
	}
	return nil
}

// RecordRun inserts one check summary. It implements core.RunRecorder.
func (s *Store) RecordRun(ctx context.Context, run core.RunSummary) error {
	checkedAt := run.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = time.Now()
	}
	_, err := s.db.Exec(ctx, insertRunSQL,
		toPgUUID(run.RunID),
		run.DatasetID,
		run.Strategy,
		run.Status,
		int32(run.NumRows),
		int32(run.NumColumns),
		int32(run.ErrorRows),
		int32(run.WarningRows),
		int32(run.MessageCount),
		run.GeopositionError,
		run.EngineFailed,
		toPgText(run.IPAddress),
		toPgText(run.UserAgent),
		run.Duration.Milliseconds(),
		toPgTimestamptz(checkedAt),
		toPgText(run.DataHash),
	)
	if err != nil {
		return fmt.Errorf("record check run %s: %w", run.DatasetID, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first. An empty datasetID
// lists runs of every dataset. limit is clamped to [1, MaxListLimit].
func (s *Store) ListRuns(ctx context.Context, datasetID string, limit int) ([]Run, error) {
	limit = clampLimit(limit)

	var (
		rows pgx.Rows
		err  error
	)
	if datasetID == "" {
		rows, err = s.db.Query(ctx, selectRunsSQL+` ORDER BY checked_at DESC LIMIT $1`, int32(limit))
	} else {
		rows, err = s.db.Query(ctx, selectRunsSQL+` WHERE dataset_id = $1 ORDER BY checked_at DESC LIMIT $2`,
			datasetID, int32(limit))
	}
	if err != nil {
		return nil, fmt.Errorf("list check runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan check run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list check runs: %w", err)
	}
	return runs, nil
}

// PurgeOlderThan deletes runs checked more than days ago and returns how
// many were removed.
func (s *Store) PurgeOlderThan(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		return 0, fmt.Errorf("purge check runs: retention must be positive, got %d", days)
	}
	tag, err := s.db.Exec(ctx,
		`DELETE FROM check_runs WHERE checked_at < now() - make_interval(days => $1)`, int32(days))
	if err != nil {
		return 0, fmt.Errorf("purge check runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanRun(row pgx.Row) (Run, error) {
	var (
		r                                   Run
		id                                  pgtype.UUID
		numRows, numCols, errRows, warnRows int32
		msgCount                            int32
		ip, ua, hash                        pgtype.Text
		checkedAt                           pgtype.Timestamptz
	)
	err := row.Scan(
		&id, &r.DatasetID, &r.Strategy, &r.Status,
		&numRows, &numCols, &errRows, &warnRows, &msgCount,
		&r.GeopositionError, &r.EngineFailed,
		&ip, &ua, &r.DurationMS, &checkedAt, &hash,
	)
	if err != nil {
		return Run{}, err
	}
	r.ID = uuidToString(id)
	r.NumRows = int(numRows)
	r.NumColumns = int(numCols)
	r.ErrorRows = int(errRows)
	r.WarningRows = int(warnRows)
	r.MessageCount = int(msgCount)
	r.IPAddress = fromPgText(ip)
	r.UserAgent = fromPgText(ua)
	r.CheckedAt = checkedAt.Time
	r.DataHash = fromPgText(hash)
	return r, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}

var _ core.RunRecorder = (*Store)(nil)
