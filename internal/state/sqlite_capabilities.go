package state

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapsparql/pkg/capability"
)

// SaveCapabilities caches model under its endpoint, replacing any earlier
// snapshot. A zero FetchedAt is stored as the current time.
func (s *SQLiteStore) SaveCapabilities(ctx context.Context, model *capability.Model) error {
	if s.db == nil {
		return errNotOpen
	}
	if model == nil || model.Endpoint == "" {
		return fmt.Errorf("capability snapshot has no endpoint")
	}

	now := time.Now().UTC()
	fetched := model.FetchedAt
	if fetched.IsZero() {
		fetched = now
	}
	snapshot := *model
	snapshot.FetchedAt = fetched

	data, err := capability.Encode(&snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode capabilities: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO capabilities (endpoint, available, snapshot, fetched_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(endpoint) DO UPDATE SET
			available = excluded.available,
			snapshot = excluded.snapshot,
			fetched_at = excluded.fetched_at,
			updated_at = excluded.updated_at`,
		model.Endpoint, boolInt(model.Available), string(data), toMillis(fetched), toMillis(now),
	)
	if err != nil {
		return fmt.Errorf("failed to save capabilities: %w", err)
	}
	s.logger.Debug("cached capabilities", slog.String("endpoint", model.Endpoint))
	return nil
}

// GetCapabilities returns the cached snapshot for endpoint, or nil when none
// is cached.
func (s *SQLiteStore) GetCapabilities(ctx context.Context, endpoint string) (*capability.Model, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	var snapshot string
	err := s.db.QueryRowContext(ctx,
		`SELECT snapshot FROM capabilities WHERE endpoint = ?`, endpoint,
	).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get capabilities: %w", err)
	}

	model, err := capability.Decode(bytes.NewReader([]byte(snapshot)), "json")
	if err != nil {
		return nil, fmt.Errorf("failed to decode cached capabilities for %s: %w", endpoint, err)
	}
	return model, nil
}

// ListCapabilities lists cached snapshots ordered by endpoint.
func (s *SQLiteStore) ListCapabilities(ctx context.Context) ([]CapabilitySummary, error) {
	if s.db == nil {
		return nil, errNotOpen
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT endpoint, available, fetched_at, updated_at FROM capabilities ORDER BY endpoint`)
	if err != nil {
		return nil, fmt.Errorf("failed to list capabilities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []CapabilitySummary
	for rows.Next() {
		var (
			c                  CapabilitySummary
			available          int
			fetched, updatedAt int64
		)
		if err := rows.Scan(&c.Endpoint, &available, &fetched, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan capabilities: %w", err)
		}
		c.Available = available != 0
		c.FetchedAt = fromMillis(fetched)
		c.UpdatedAt = fromMillis(updatedAt)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating capabilities: %w", err)
	}
	return out, nil
}

// DeleteCapabilities drops the cached snapshot for endpoint.
func (s *SQLiteStore) DeleteCapabilities(ctx context.Context, endpoint string) error {
	if s.db == nil {
		return errNotOpen
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM capabilities WHERE endpoint = ?`, endpoint); err != nil {
		return fmt.Errorf("failed to delete capabilities: %w", err)
	}
	return nil
}
