package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/verdantlabs/greenspace-cli/internal/greenspace"
)

// SQLiteStore implements Store using modernc.org/sqlite.
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
CREATE TABLE IF NOT EXISTS extractions (
	id          TEXT PRIMARY KEY,
	region      TEXT NOT NULL,
	source_file TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	summary     TEXT,
	error       TEXT,
	started_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_extractions_region ON extractions(region);
CREATE INDEX IF NOT EXISTS idx_extractions_status ON extractions(status);
CREATE INDEX IF NOT EXISTS idx_extractions_started_at ON extractions(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateExtraction(ctx context.Context, region greenspace.Region) (*Extraction, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extractions (id, region, source_file, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, region.Name, region.SourceFile, string(StatusRunning), now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert extraction for %s", region.Name)
	}

	return &Extraction{
		ID:         id,
		Region:     region.Name,
		SourceFile: region.SourceFile,
		Status:     StatusRunning,
		StartedAt:  now,
	}, nil
}

func (s *SQLiteStore) CompleteExtraction(ctx context.Context, id string, summary *greenspace.RegionSummary) error {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal summary")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE extractions SET status = ?, summary = ?, finished_at = ? WHERE id = ?`,
		string(StatusComplete), string(summaryJSON), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete extraction %s", id)
	}
	return checkRowsAffected(res, "extraction", id)
}

func (s *SQLiteStore) FailExtraction(ctx context.Context, id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE extractions SET status = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(StatusFailed), msg, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail extraction %s", id)
	}
	return checkRowsAffected(res, "extraction", id)
}

func (s *SQLiteStore) GetExtraction(ctx context.Context, id string) (*Extraction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, region, source_file, status, summary, error, started_at, finished_at
		 FROM extractions WHERE id = ?`,
		id,
	)
	return scanExtraction(row)
}

func (s *SQLiteStore) ListExtractions(ctx context.Context, filter ExtractionFilter) ([]Extraction, error) {
	query := `SELECT id, region, source_file, status, summary, error, started_at, finished_at
	          FROM extractions WHERE 1=1`
	var args []any

	if filter.Region != "" {
		query += ` AND region = ?`
		args = append(args, filter.Region)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list extractions")
	}
	defer rows.Close()

	var extractions []Extraction
	for rows.Next() {
		e, err := scanExtraction(rows)
		if err != nil {
			return nil, err
		}
		extractions = append(extractions, *e)
	}
	return extractions, eris.Wrap(rows.Err(), "sqlite: list extractions iterate")
}

func (s *SQLiteStore) LatestSummary(ctx context.Context, region string) (*greenspace.RegionSummary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT summary FROM extractions
		 WHERE region = ? AND status = ? AND summary IS NOT NULL
		 ORDER BY finished_at DESC LIMIT 1`,
		region, string(StatusComplete),
	)

	var summaryJSON string
	err := row.Scan(&summaryJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: latest summary for %s", region)
	}

	var summary greenspace.RegionSummary
	if err := json.Unmarshal([]byte(summaryJSON), &summary); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal summary")
	}
	return &summary, nil
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanExtraction(row scannable) (*Extraction, error) {
	var e Extraction
	var summaryJSON, errMsg sql.NullString
	var finishedAt sql.NullTime

	err := row.Scan(&e.ID, &e.Region, &e.SourceFile, &e.Status, &summaryJSON, &errMsg, &e.StartedAt, &finishedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("extraction not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan extraction")
	}

	if summaryJSON.Valid && summaryJSON.String != "" {
		e.Summary = &greenspace.RegionSummary{}
		if err := json.Unmarshal([]byte(summaryJSON.String), e.Summary); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal summary")
		}
	}
	if errMsg.Valid {
		e.Error = errMsg.String
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		e.FinishedAt = &t
	}
	return &e, nil
}
