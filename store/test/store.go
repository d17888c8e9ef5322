// Package teststore creates throwaway sqlite-backed stores for tests.
package teststore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqltalk/sqltalk/internal/profile"
	"github.com/sqltalk/sqltalk/store"
	"github.com/sqltalk/sqltalk/store/db"
)

// NewStore creates a migrated sqlite store in a temp directory.
// The store is closed when the test finishes.
func NewStore(ctx context.Context, t *testing.T) *store.Store {
	t.Helper()

	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "sqltalk_test.db"),
	}

	driver, err := db.NewDBDriver(p)
	require.NoError(t, err)

	s := store.New(driver, p)
	require.NoError(t, s.Migrate(ctx))

	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

// NewTenant registers a tenant with sensible defaults for tests.
func NewTenant(ctx context.Context, t *testing.T, s *store.Store) *store.Tenant {
	t.Helper()

	tenant, err := s.CreateTenant(ctx, &store.Tenant{
		Name:      "warehouse",
		Driver:    "sqlite",
		DSN:       ":memory:",
		Dialect:   "sqlite",
		Timezone:  "Asia/Jakarta",
		WeekStart: "monday",
	})
	require.NoError(t, err)
	return tenant
}
