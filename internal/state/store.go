// Package state persists client-side state in SQLite: capability snapshots
// cached per endpoint and a history of executed queries.
package state

import (
	"context"
	"time"

	"github.com/leapstack-labs/leapsparql/pkg/capability"
)

// Store is the persistence interface used by the CLI.
type Store interface {
	SaveCapabilities(ctx context.Context, model *capability.Model) error
	GetCapabilities(ctx context.Context, endpoint string) (*capability.Model, error)
	ListCapabilities(ctx context.Context) ([]CapabilitySummary, error)
	DeleteCapabilities(ctx context.Context, endpoint string) error

	RecordExecution(ctx context.Context, entry *HistoryEntry) error
	GetExecution(ctx context.Context, id string) (*HistoryEntry, error)
	ListHistory(ctx context.Context, filter HistoryFilter) ([]*HistoryEntry, error)
	PruneHistory(ctx context.Context, keep int) (int64, error)

	Close() error
}

// CapabilitySummary lists a cached snapshot without decoding it.
type CapabilitySummary struct {
	Endpoint  string    `json:"endpoint"`
	Available bool      `json:"available"`
	FetchedAt time.Time `json:"fetched_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HistoryEntry records one query execution.
type HistoryEntry struct {
	ID         string        `json:"id"`
	Endpoint   string        `json:"endpoint"`
	Query      string        `json:"query"`
	QueryKind  string        `json:"query_kind"`
	Method     string        `json:"method"`
	Outcome    string        `json:"outcome"`
	StatusCode int           `json:"status_code,omitempty"`
	RowCount   int           `json:"row_count"`
	Truncated  bool          `json:"truncated"`
	BytesRead  int64         `json:"bytes_read"`
	Elapsed    time.Duration `json:"elapsed"`
	Error      string        `json:"error,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
}

// HistoryFilter narrows ListHistory. Zero values match everything.
type HistoryFilter struct {
	Endpoint string
	Outcome  string
	Limit    int
}

// DefaultHistoryLimit caps ListHistory when the filter sets no limit.
const DefaultHistoryLimit = 50

var _ Store = (*SQLiteStore)(nil)
