package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// RecordExecution inserts entry, assigning an ID and start time when unset.
func (s *SQLiteStore) RecordExecution(ctx context.Context, entry *HistoryEntry) error {
	if s.db == nil {
		return errNotOpen
	}
	if entry.ID == "" {
		entry.ID = generateID()
	}
	if entry.StartedAt.IsZero() {
		entry.StartedAt = time.Now().UTC()
	}

	var errMsg *string
	if entry.Error != "" {
		errMsg = &entry.Error
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (id, endpoint, query, query_kind, method, outcome, status_code,
			row_count, truncated, bytes_read, elapsed_ms, error, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Endpoint, entry.Query, entry.QueryKind, entry.Method, entry.Outcome,
		entry.StatusCode, entry.RowCount, boolInt(entry.Truncated), entry.BytesRead,
		entry.Elapsed.Milliseconds(), errMsg, toMillis(entry.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record execution: %w", err)
	}
	s.logger.Debug("recorded execution", slog.String("id", entry.ID), slog.String("outcome", entry.Outcome))
	return nil
}

const historyColumns = `id, endpoint, query, query_kind, method, outcome, status_code,
	row_count, truncated, bytes_read, elapsed_ms, error, started_at`

// GetExecution retrieves a history entry by ID or by a unique ID prefix.
func (s *SQLiteStore) GetExecution(ctx context.Context, id string) (*HistoryEntry, error) {
	if s.db == nil {
		return nil, errNotOpen
	}
	if id == "" || strings.ContainsAny(id, "%_") {
		return nil, fmt.Errorf("execution not found: %s", id)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+historyColumns+` FROM history
		WHERE id = ? OR id LIKE ? || '%'
		ORDER BY id = ? DESC LIMIT 2`, id, id, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var matches []*HistoryEntry
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to get execution: %w", err)
		}
		matches = append(matches, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get execution: %w", err)
	}

	switch {
	case len(matches) == 0:
		return nil, fmt.Errorf("execution not found: %s", id)
	case matches[0].ID == id, len(matches) == 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("execution id prefix %q is ambiguous", id)
	}
}

// ListHistory returns matching entries, newest first.
func (s *SQLiteStore) ListHistory(ctx context.Context, filter HistoryFilter) ([]*HistoryEntry, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	var (
		where []string
		args  []any
	)
	if filter.Endpoint != "" {
		where = append(where, "endpoint = ?")
		args = append(args, filter.Endpoint)
	}
	if filter.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, filter.Outcome)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `SELECT ` + historyColumns + ` FROM history`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY started_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*HistoryEntry
	for rows.Next() {
		entry, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history: %w", err)
	}
	return out, nil
}

// PruneHistory keeps the newest keep entries and returns how many it removed.
func (s *SQLiteStore) PruneHistory(ctx context.Context, keep int) (int64, error) {
	if s.db == nil {
		return 0, errNotOpen
	}
	if keep < 0 {
		keep = 0
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM history WHERE id NOT IN (
			SELECT id FROM history ORDER BY started_at DESC, id LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHistory(row rowScanner) (*HistoryEntry, error) {
	var (
		e         HistoryEntry
		truncated int
		elapsedMS int64
		startedAt int64
		errMsg    sql.NullString
	)
	err := row.Scan(&e.ID, &e.Endpoint, &e.Query, &e.QueryKind, &e.Method, &e.Outcome,
		&e.StatusCode, &e.RowCount, &truncated, &e.BytesRead, &elapsedMS, &errMsg, &startedAt)
	if err != nil {
		return nil, err
	}
	e.Truncated = truncated != 0
	e.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	e.StartedAt = fromMillis(startedAt)
	if errMsg.Valid {
		e.Error = errMsg.String
	}
	return &e, nil
}
