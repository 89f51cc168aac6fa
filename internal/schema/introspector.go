package schema

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dbchat/dbchat/internal/observability"
	"github.com/dbchat/dbchat/internal/sqldb"
)

// Querier is the slice of the database collaborator introspection needs.
// *sqldb.DB satisfies it.
type Querier interface {
	ListTables(ctx context.Context) ([]string, error)
	DescribeTable(ctx context.Context, table string) ([]sqldb.Column, error)
	SampleRows(ctx context.Context, table string, limit int) (sqldb.Result, error)
}

type IntrospectorConfig struct {
	SampleRows int
	CacheTTL   time.Duration
}

// Introspector reads table metadata and caches the resulting Snapshot.
// Reads share the cache; a refresh holds the write lock so concurrent
// refreshes cannot produce a torn snapshot.
type Introspector struct {
	db         Querier
	sampleRows int
	ttl        time.Duration
	now        func() time.Time

	mu       sync.RWMutex
	snapshot *Snapshot
}

func NewIntrospector(db Querier, cfg IntrospectorConfig) *Introspector {
	sampleRows := cfg.SampleRows
	if sampleRows <= 0 {
		sampleRows = 3
	}
	return &Introspector{
		db:         db,
		sampleRows: sampleRows,
		ttl:        cfg.CacheTTL,
		now:        time.Now,
	}
}

// Snapshot returns the cached snapshot, refreshing it on first use, when
// force is set, or when the cache TTL has expired.
func (i *Introspector) Snapshot(ctx context.Context, force bool) (*Snapshot, error) {
	if !force {
		i.mu.RLock()
		cached := i.snapshot
		i.mu.RUnlock()
		if cached != nil && !i.expired(cached) {
			return cached, nil
		}
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if !force && i.snapshot != nil && !i.expired(i.snapshot) {
		return i.snapshot, nil
	}

	snapshot, err := i.refresh(ctx)
	if err != nil {
		return nil, err
	}
	i.snapshot = snapshot
	observability.IncrementSchemaRefresh()
	return snapshot, nil
}

// Reset drops the cached snapshot so the next Snapshot call re-reads the
// database.
func (i *Introspector) Reset() {
	i.mu.Lock()
	i.snapshot = nil
	i.mu.Unlock()
}

func (i *Introspector) expired(snapshot *Snapshot) bool {
	if i.ttl <= 0 {
		return false
	}
	return i.now().After(snapshot.CapturedAt.Add(i.ttl))
}

func (i *Introspector) refresh(ctx context.Context) (*Snapshot, error) {
	names, err := i.db.ListTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("introspect tables: %w", err)
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		columns, err := i.db.DescribeTable(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("introspect columns of %q: %w", name, err)
		}
		table := Table{Name: name, Columns: columns}

		// Samples are best effort: a table the connected role cannot
		// read should not fail the whole snapshot.
		if sample, err := i.db.SampleRows(ctx, name, i.sampleRows); err == nil {
			table.SampleColumns = sample.Columns
			table.SampleRows = sample.Rows
		}
		tables = append(tables, table)
	}

	return &Snapshot{Tables: tables, CapturedAt: i.now()}, nil
}
