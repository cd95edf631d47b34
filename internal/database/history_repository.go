package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// MatchRecord is one categorization outcome kept for audit. Labels are
// stored as a JSON array so the same schema works on SQLite and Postgres.
type MatchRecord struct {
	ID           int64     `db:"id"            json:"id"`
	EntryID      string    `db:"entry_id"      json:"entry_id"`
	Domain       string    `db:"domain"        json:"domain"`
	LabelsJSON   string    `db:"labels"        json:"-"`
	Labels       []string  `db:"-"             json:"labels"`
	Suppressed   int       `db:"suppressed"    json:"suppressed"`
	Context      string    `db:"context"       json:"context,omitempty"`
	Source       string    `db:"source"        json:"source,omitempty"`
	ProcessingMs float64   `db:"processing_ms" json:"processing_ms"`
	MatchedAt    time.Time `db:"matched_at"    json:"matched_at"`
}

// DomainStat is the per-domain aggregate for the stats endpoint.
type DomainStat struct {
	Domain string `db:"domain" json:"domain"`
	Count  int    `db:"count"  json:"count"`
}

const historySchema = `
CREATE TABLE IF NOT EXISTS match_history (
	id            INTEGER PRIMARY KEY,
	entry_id      TEXT    NOT NULL,
	domain        TEXT    NOT NULL,
	labels        TEXT    NOT NULL,
	suppressed    INTEGER NOT NULL DEFAULT 0,
	context       TEXT    NOT NULL DEFAULT '',
	source        TEXT    NOT NULL DEFAULT '',
	processing_ms REAL    NOT NULL DEFAULT 0,
	matched_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_match_history_entry ON match_history (entry_id);
CREATE INDEX IF NOT EXISTS idx_match_history_matched_at ON match_history (matched_at);
`

const historySchemaPostgres = `
CREATE TABLE IF NOT EXISTS match_history (
	id            BIGSERIAL PRIMARY KEY,
	entry_id      TEXT    NOT NULL,
	domain        TEXT    NOT NULL,
	labels        TEXT    NOT NULL,
	suppressed    INTEGER NOT NULL DEFAULT 0,
	context       TEXT    NOT NULL DEFAULT '',
	source        TEXT    NOT NULL DEFAULT '',
	processing_ms DOUBLE PRECISION NOT NULL DEFAULT 0,
	matched_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_match_history_entry ON match_history (entry_id);
CREATE INDEX IF NOT EXISTS idx_match_history_matched_at ON match_history (matched_at);
`

// HistoryRepository handles database operations for match history.
type HistoryRepository struct {
	db *sqlx.DB
}

// NewHistoryRepository creates a new match-history repository.
func NewHistoryRepository(db *sqlx.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// EnsureSchema creates the match_history table when absent.
func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	schema := historySchema
	if r.db.DriverName() == "postgres" {
		schema = historySchemaPostgres
	}
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure match_history schema: %w", err)
	}
	return nil
}

// Record inserts one match record. The record's Labels slice is encoded
// into LabelsJSON before writing.
func (r *HistoryRepository) Record(ctx context.Context, rec *MatchRecord) error {
	labels, err := json.Marshal(rec.Labels)
	if err != nil {
		return fmt.Errorf("encode labels: %w", err)
	}
	rec.LabelsJSON = string(labels)
	if rec.MatchedAt.IsZero() {
		rec.MatchedAt = time.Now().UTC()
	}

	query := r.db.Rebind(`
		INSERT INTO match_history (entry_id, domain, labels, suppressed, context, source, processing_ms, matched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if _, err := r.db.ExecContext(ctx, query,
		rec.EntryID, rec.Domain, rec.LabelsJSON, rec.Suppressed,
		rec.Context, rec.Source, rec.ProcessingMs, rec.MatchedAt,
	); err != nil {
		return fmt.Errorf("insert match record: %w", err)
	}
	return nil
}

// Recent returns the most recent match records, newest first.
func (r *HistoryRepository) Recent(ctx context.Context, limit int) ([]*MatchRecord, error) {
	var records []*MatchRecord
	query := r.db.Rebind(`
		SELECT id, entry_id, domain, labels, suppressed, context, source, processing_ms, matched_at
		FROM match_history
		ORDER BY matched_at DESC, id DESC
		LIMIT ?
	`)
	if err := r.db.SelectContext(ctx, &records, query, limit); err != nil {
		return nil, fmt.Errorf("select recent match records: %w", err)
	}
	for _, rec := range records {
		if err := json.Unmarshal([]byte(rec.LabelsJSON), &rec.Labels); err != nil {
			return nil, fmt.Errorf("decode labels for record %d: %w", rec.ID, err)
		}
	}
	return records, nil
}

// ByEntry returns the latest record for one note entry.
func (r *HistoryRepository) ByEntry(ctx context.Context, entryID string) (*MatchRecord, error) {
	var rec MatchRecord
	query := r.db.Rebind(`
		SELECT id, entry_id, domain, labels, suppressed, context, source, processing_ms, matched_at
		FROM match_history
		WHERE entry_id = ?
		ORDER BY matched_at DESC, id DESC
		LIMIT 1
	`)
	if err := r.db.GetContext(ctx, &rec, query, entryID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("match record not found: %s", entryID)
		}
		return nil, fmt.Errorf("get match record: %w", err)
	}
	if err := json.Unmarshal([]byte(rec.LabelsJSON), &rec.Labels); err != nil {
		return nil, fmt.Errorf("decode labels for record %d: %w", rec.ID, err)
	}
	return &rec, nil
}

// DomainStats returns match counts per domain, largest first.
func (r *HistoryRepository) DomainStats(ctx context.Context) ([]*DomainStat, error) {
	var stats []*DomainStat
	query := `
		SELECT domain, COUNT(*) as count
		FROM match_history
		GROUP BY domain
		ORDER BY count DESC
	`
	if err := r.db.SelectContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("select domain stats: %w", err)
	}
	return stats, nil
}
