package sqlrunner

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqltalk/sqltalk/plugin/sqlgen"
	"github.com/sqltalk/sqltalk/plugin/temporal"
	"github.com/sqltalk/sqltalk/store"
)

// newWarehouse creates a sqlite warehouse file seeded with an orders
// table and returns a tenant pointing at it.
func newWarehouse(t *testing.T) *store.Tenant {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "warehouse.db")
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE orders (id INTEGER PRIMARY KEY, amount REAL, created_at TEXT);
		INSERT INTO orders (id, amount, created_at) VALUES
			(1, 10.5, '2024-09-23 08:00:00'),
			(2, 20.0, '2024-09-24 09:30:00'),
			(3, 5.25, '2024-10-01 10:00:00');
	`)
	require.NoError(t, err)

	return &store.Tenant{
		UID:    "tenant-test",
		Name:   "warehouse",
		Driver: "sqlite",
		DSN:    dsn,
	}
}

func TestExecuteSelect(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil)
	defer r.Close()

	tenant := newWarehouse(t)
	result, err := r.Execute(ctx, tenant, "SELECT id, amount FROM orders ORDER BY id")
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "amount"}, result.Columns)
	assert.Equal(t, 3, result.RowCount)
	assert.False(t, result.Truncated)
	assert.Equal(t, int64(1), result.Rows[0][0])
}

func TestExecuteRejectsMutations(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil)
	defer r.Close()

	tenant := newWarehouse(t)
	for _, query := range []string{
		"DROP TABLE orders",
		"DELETE FROM orders",
		"SELECT 1; DROP TABLE orders",
	} {
		_, err := r.Execute(ctx, tenant, query)
		require.Error(t, err, query)
		assert.ErrorIs(t, err, sqlgen.ErrNotReadOnly, query)
	}

	// The table must be untouched.
	result, err := r.Execute(ctx, tenant, "SELECT COUNT(*) AS n FROM orders")
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Rows[0][0])
}

func TestExecuteTruncatesRows(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(&Config{
		MaxConcurrent:    2,
		StatementTimeout: 10 * time.Second,
		MaxRows:          2,
	})
	defer r.Close()

	tenant := newWarehouse(t)
	result, err := r.Execute(ctx, tenant, "SELECT id FROM orders ORDER BY id")
	require.NoError(t, err)

	assert.Equal(t, 2, result.RowCount)
	assert.True(t, result.Truncated)
}

func TestExecuteUnsupportedDriver(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil)
	defer r.Close()

	_, err := r.Execute(ctx, &store.Tenant{UID: "x", Driver: "clickhouse"}, "SELECT 1")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestInvalidateReopens(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil)
	defer r.Close()

	tenant := newWarehouse(t)
	_, err := r.Execute(ctx, tenant, "SELECT 1")
	require.NoError(t, err)

	r.Invalidate(tenant.UID)

	_, err = r.Execute(ctx, tenant, "SELECT 1")
	require.NoError(t, err)
}

// Business-hours filtering is local to the tenant timezone, so a row
// stored at 03:00 UTC (10:00 in Jakarta) must match a 9-17 Jakarta
// filter even though its UTC hour is outside the range.
func TestExecuteLocalHourFilter(t *testing.T) {
	ctx := context.Background()
	r := NewRunner(nil)
	defer r.Close()

	dsn := filepath.Join(t.TempDir(), "warehouse.db")
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE orders (id INTEGER PRIMARY KEY, created_at TEXT);
		INSERT INTO orders (id, created_at) VALUES
			(1, '2024-10-02 03:00:00'),
			(2, '2024-10-02 14:00:00');
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	tenant := &store.Tenant{
		UID:    "tenant-jakarta",
		Name:   "warehouse",
		Driver: "sqlite",
		DSN:    dsn,
	}

	conv, err := temporal.NewConvention(time.Monday, "Asia/Jakarta")
	require.NoError(t, err)
	res, err := temporal.Resolve(temporal.HourOfDayFilter(9, 17), time.Now(), conv)
	require.NoError(t, err)
	predicate, err := sqlgen.RenderPredicate(sqlgen.DialectSQLite, "created_at", res)
	require.NoError(t, err)

	result, err := r.Execute(ctx, tenant, "SELECT id FROM orders WHERE "+predicate+" ORDER BY id")
	require.NoError(t, err)
	require.Equal(t, 1, result.RowCount, "03:00 UTC is 10:00 Jakarta and must match; 14:00 UTC is 21:00 Jakarta and must not")
	assert.Equal(t, int64(1), result.Rows[0][0])
}
