// Package sqlrunner executes generated SQL against tenant warehouses.
// Connections are pooled per tenant and every statement passes the
// read-only guardrail before it reaches a database.
package sqlrunner

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/duckdb/duckdb-go/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	// Warehouse drivers.
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/sqltalk/sqltalk/plugin/sqlgen"
	"github.com/sqltalk/sqltalk/store"
)

// ErrUnsupportedDriver is returned for tenant drivers the runner
// cannot open.
var ErrUnsupportedDriver = errors.New("sqlrunner: unsupported warehouse driver")

// Config tunes the runner.
type Config struct {
	// MaxConcurrent caps in-flight queries across all tenants.
	MaxConcurrent int64
	// StatementTimeout bounds one query execution.
	StatementTimeout time.Duration
	// MaxRows truncates result sets; Result.Truncated reports it.
	MaxRows int
}

// DefaultConfig returns the default runner configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxConcurrent:    8,
		StatementTimeout: 30 * time.Second,
		MaxRows:          1000,
	}
}

// Result is the outcome of one executed query.
type Result struct {
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	RowCount  int      `json:"row_count"`
	Truncated bool     `json:"truncated"`
}

type handle struct {
	db *sql.DB

	// connector is set for duckdb handles and closed with the db.
	connector *duckdb.Connector
}

// Runner manages tenant warehouse connections.
type Runner struct {
	config *Config
	sem    *semaphore.Weighted

	mu      sync.Mutex
	handles map[string]*handle // keyed by tenant UID
}

// NewRunner creates a runner.
func NewRunner(config *Config) *Runner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Runner{
		config:  config,
		sem:     semaphore.NewWeighted(config.MaxConcurrent),
		handles: make(map[string]*handle),
	}
}

// Execute checks the statement is read-only, then runs it on the
// tenant's warehouse with the configured timeout and row cap.
func (r *Runner) Execute(ctx context.Context, tenant *store.Tenant, query string) (*Result, error) {
	if err := sqlgen.EnsureReadOnly(query); err != nil {
		return nil, err
	}

	db, err := r.open(tenant)
	if err != nil {
		return nil, err
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, errors.Wrap(err, "waiting for query slot")
	}
	defer r.sem.Release(1)

	ctx, cancel := context.WithTimeout(ctx, r.config.StatementTimeout)
	defer cancel()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "query failed")
	}
	defer rows.Close()

	return r.collect(rows)
}

func (r *Runner) collect(rows *sql.Rows) (*Result, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read columns")
	}

	result := &Result{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		if r.config.MaxRows > 0 && len(result.Rows) >= r.config.MaxRows {
			result.Truncated = true
			break
		}

		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}

		// Byte slices do not survive JSON encoding usefully.
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	result.RowCount = len(result.Rows)
	return result, nil
}

// open returns the pooled connection for the tenant, dialing on first
// use.
func (r *Runner) open(tenant *store.Tenant) (*sql.DB, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handles[tenant.UID]; ok {
		return h.db, nil
	}

	h, err := dial(tenant)
	if err != nil {
		return nil, err
	}
	r.handles[tenant.UID] = h
	return h.db, nil
}

func dial(tenant *store.Tenant) (*handle, error) {
	switch tenant.Driver {
	case "duckdb":
		connector, err := duckdb.NewConnector(tenant.DSN, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to open duckdb at %s", tenant.DSN)
		}
		return &handle{db: sql.OpenDB(connector), connector: connector}, nil
	case "postgres":
		db, err := sql.Open("postgres", tenant.DSN)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open postgres warehouse")
		}
		db.SetMaxOpenConns(4)
		return &handle{db: db}, nil
	case "sqlite":
		db, err := sql.Open("sqlite", tenant.DSN)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open sqlite warehouse")
		}
		db.SetMaxOpenConns(1)
		return &handle{db: db}, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedDriver, "%q", tenant.Driver)
	}
}

// Invalidate closes and forgets the tenant's connection, for use after
// a tenant's DSN changes or the tenant is deleted.
func (r *Runner) Invalidate(tenantUID string) {
	r.mu.Lock()
	h, ok := r.handles[tenantUID]
	delete(r.handles, tenantUID)
	r.mu.Unlock()

	if ok {
		h.close()
	}
}

// Close closes all pooled connections.
func (r *Runner) Close() error {
	r.mu.Lock()
	handles := r.handles
	r.handles = make(map[string]*handle)
	r.mu.Unlock()

	var firstErr error
	for _, h := range handles {
		if err := h.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (h *handle) close() error {
	err := h.db.Close()
	if h.connector != nil {
		if cerr := h.connector.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
