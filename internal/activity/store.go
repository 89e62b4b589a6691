package activity

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Store is the interface for reading and writing activity entries.
type Store interface {
	// WriteEntries writes one or more activity entries (one event → many entries).
	WriteEntries(ctx context.Context, entries []Entry) error

	// QueryByEntity returns activity entries for a specific entity, newest first.
	QueryByEntity(ctx context.Context, entityType, entityID string, opts QueryOptions) (entries []Entry, nextCursor string, totalCount int, err error)

	// Search matches entries whose summary contains query, case-insensitively.
	Search(ctx context.Context, query string, opts SearchOptions) (entries []Entry, totalCount int, err error)
}

// SQLiteStore implements Store on a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the
// activity table exists.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening activity database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := NewSQLiteStore(db)
	if err := s.CreateTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating activity table: %w", err)
	}
	return s, nil
}

// NewSQLiteStore wraps an open database handle.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateTable creates the activity_entries table and its indexes.
func (s *SQLiteStore) CreateTable(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS activity_entries (
			event_id            TEXT NOT NULL,
			event_type          TEXT NOT NULL,
			occurred_at         INTEGER NOT NULL,
			indexed_entity_type TEXT NOT NULL,
			indexed_entity_id   TEXT NOT NULL,
			entity_role         TEXT NOT NULL,
			source_refs         TEXT NOT NULL DEFAULT '[]',
			summary             TEXT NOT NULL,
			category            TEXT NOT NULL,
			weight              TEXT NOT NULL,
			payload             BLOB,
			PRIMARY KEY (indexed_entity_type, indexed_entity_id, occurred_at, event_id)
		);

		CREATE INDEX IF NOT EXISTS idx_activity_entity_time
			ON activity_entries (indexed_entity_type, indexed_entity_id, occurred_at DESC);
	`)
	return err
}

// WriteEntries inserts activity entries, ignoring duplicates.
func (s *SQLiteStore) WriteEntries(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	var b strings.Builder
	b.WriteString(`INSERT OR IGNORE INTO activity_entries (
		event_id, event_type, occurred_at, indexed_entity_type, indexed_entity_id,
		entity_role, source_refs, summary, category, weight, payload
	) VALUES `)

	args := make([]any, 0, len(entries)*11)
	for i, e := range entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")

		refsJSON, err := json.Marshal(e.SourceRefs)
		if err != nil {
			return fmt.Errorf("encoding source refs: %w", err)
		}
		args = append(args,
			e.EventID, e.EventType, e.OccurredAt.UnixNano(), e.IndexedEntityType, e.IndexedEntityID,
			e.EntityRole, string(refsJSON), e.Summary, e.Category, e.Weight, []byte(e.Payload),
		)
	}

	_, err := s.db.ExecContext(ctx, b.String(), args...)
	return err
}

// QueryByEntity returns activity entries for a specific entity with filtering and pagination.
func (s *SQLiteStore) QueryByEntity(ctx context.Context, entityType, entityID string, opts QueryOptions) ([]Entry, string, int, error) {
	limit := opts.limit()

	conditions := []string{"indexed_entity_type = ?", "indexed_entity_id = ?"}
	args := []any{entityType, entityID}

	if opts.Since != nil {
		conditions = append(conditions, "occurred_at >= ?")
		args = append(args, opts.Since.UnixNano())
	}
	if opts.Until != nil {
		conditions = append(conditions, "occurred_at <= ?")
		args = append(args, opts.Until.UnixNano())
	}
	if len(opts.Categories) > 0 {
		conditions = append(conditions, "category IN ("+placeholders(len(opts.Categories))+")")
		for _, c := range opts.Categories {
			args = append(args, c)
		}
	}
	if opts.MinWeight != "" && opts.MinWeight != "info" {
		var weights []string
		for w := range WeightOrder {
			if IsAtLeastWeight(w, opts.MinWeight) {
				weights = append(weights, w)
			}
		}
		if len(weights) > 0 {
			conditions = append(conditions, "weight IN ("+placeholders(len(weights))+")")
			for _, w := range weights {
				args = append(args, w)
			}
		}
	}

	where := strings.Join(conditions, " AND ")

	// Total ignores the cursor so it stays stable across pages.
	var totalCount int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM activity_entries WHERE "+where, args...).Scan(&totalCount); err != nil {
		return nil, "", 0, fmt.Errorf("counting activity entries: %w", err)
	}

	if opts.Cursor != "" {
		if cursorTime, err := time.Parse(time.RFC3339Nano, opts.Cursor); err == nil {
			where += " AND occurred_at < ?"
			args = append(args, cursorTime.UnixNano())
		}
	}

	query := `SELECT event_id, event_type, occurred_at, indexed_entity_type, indexed_entity_id,
			entity_role, source_refs, summary, category, weight, payload
		FROM activity_entries
		WHERE ` + where + `
		ORDER BY occurred_at DESC
		LIMIT ?`
	args = append(args, limit+1) // fetch one extra for cursor

	entries, err := s.scan(ctx, query, args...)
	if err != nil {
		return nil, "", 0, err
	}

	var nextCursor string
	if len(entries) > limit {
		entries = entries[:limit]
		nextCursor = entries[len(entries)-1].OccurredAt.Format(time.RFC3339Nano)
	}
	return entries, nextCursor, totalCount, nil
}

// Search performs a case-insensitive substring search across summaries.
func (s *SQLiteStore) Search(ctx context.Context, query string, opts SearchOptions) ([]Entry, int, error) {
	conditions := []string{"instr(lower(summary), lower(?)) > 0"}
	args := []any{query}

	if opts.EntityType != "" {
		conditions = append(conditions, "indexed_entity_type = ?")
		args = append(args, opts.EntityType)
	}
	if opts.Since != nil {
		conditions = append(conditions, "occurred_at >= ?")
		args = append(args, opts.Since.UnixNano())
	}
	if len(opts.Categories) > 0 {
		conditions = append(conditions, "category IN ("+placeholders(len(opts.Categories))+")")
		for _, c := range opts.Categories {
			args = append(args, c)
		}
	}

	where := strings.Join(conditions, " AND ")

	var totalCount int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM activity_entries WHERE "+where, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("counting activity entries: %w", err)
	}

	sqlQuery := `SELECT event_id, event_type, occurred_at, indexed_entity_type, indexed_entity_id,
			entity_role, source_refs, summary, category, weight, payload
		FROM activity_entries
		WHERE ` + where + `
		ORDER BY occurred_at DESC
		LIMIT ?`
	args = append(args, opts.limit())

	entries, err := s.scan(ctx, sqlQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	return entries, totalCount, nil
}

func (s *SQLiteStore) scan(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying activity entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var occurred int64
		var refsJSON string
		var payload []byte
		err := rows.Scan(
			&e.EventID, &e.EventType, &occurred, &e.IndexedEntityType, &e.IndexedEntityID,
			&e.EntityRole, &refsJSON, &e.Summary, &e.Category, &e.Weight, &payload,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning activity entry: %w", err)
		}
		e.OccurredAt = time.Unix(0, occurred).UTC()
		if refsJSON != "" {
			_ = json.Unmarshal([]byte(refsJSON), &e.SourceRefs)
		}
		if len(payload) > 0 {
			e.Payload = payload
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
