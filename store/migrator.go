package store

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Migration files live in store/migration/{driver}/ as
// "NN__description.sql" where NN is a zero-padded patch number; files
// are sorted lexicographically and applied in order. LATEST.sql is the
// full schema for new installations. Applied patches are recorded in
// migration_history so restarts are idempotent.

//go:embed migration
var migrationFS embed.FS

const (
	// MigrateFileNameSplit is the split character between the patch
	// number and the description in the migration file name.
	// For example, "01__create_tenant.sql".
	MigrateFileNameSplit = "__"
	// LatestSchemaFileName is the name of the latest schema file.
	LatestSchemaFileName = "LATEST.sql"
)

// validateMigrationFileName checks if a migration file follows the
// expected "NN__description.sql" naming convention.
func validateMigrationFileName(filename string) error {
	parts := strings.Split(filename, MigrateFileNameSplit)
	if len(parts) < 2 {
		return errors.Errorf("invalid migration filename format: %s", filename)
	}
	if _, err := strconv.Atoi(parts[0]); err != nil {
		return errors.Errorf("migration filename must start with a number: %s", filename)
	}
	return nil
}

// Migrate brings the database schema up to date. Fresh databases get
// the full LATEST.sql schema; existing ones get pending patches.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check database state")
	}

	if !initialized {
		if err := s.applyLatestSchema(ctx); err != nil {
			return errors.Wrap(err, "failed to apply latest schema")
		}
		slog.Info("database initialized", slog.String("driver", s.profile.Driver))
	}

	if err := s.ensureMigrationHistory(ctx); err != nil {
		return errors.Wrap(err, "failed to ensure migration history")
	}
	return s.applyPendingMigrations(ctx, !initialized)
}

func (s *Store) migrationDir() string {
	return filepath.Join("migration", s.profile.Driver)
}

func (s *Store) applyLatestSchema(ctx context.Context) error {
	buf, err := fs.ReadFile(migrationFS, filepath.Join(s.migrationDir(), LatestSchemaFileName))
	if err != nil {
		return errors.Wrapf(err, "failed to read %s for driver %q", LatestSchemaFileName, s.profile.Driver)
	}
	if _, err := s.driver.GetDB().ExecContext(ctx, string(buf)); err != nil {
		return errors.Wrapf(err, "failed to execute %s", LatestSchemaFileName)
	}
	return nil
}

func (s *Store) ensureMigrationHistory(ctx context.Context) error {
	// Portable across sqlite and postgres.
	_, err := s.driver.GetDB().ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS migration_history (
			version TEXT NOT NULL PRIMARY KEY,
			created_ts BIGINT NOT NULL
		)`)
	return err
}

// applyPendingMigrations applies patch files that are not yet recorded
// in migration_history. On a fresh install LATEST.sql already contains
// every patch, so all patches are recorded without being executed.
func (s *Store) applyPendingMigrations(ctx context.Context, fresh bool) error {
	entries, err := fs.ReadDir(migrationFS, s.migrationDir())
	if err != nil {
		return errors.Wrapf(err, "failed to read migration dir for driver %q", s.profile.Driver)
	}

	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	var pending []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == LatestSchemaFileName {
			continue
		}
		if err := validateMigrationFileName(name); err != nil {
			return err
		}
		if !applied[name] {
			pending = append(pending, name)
		}
	}
	sort.Strings(pending)

	db := s.driver.GetDB()
	for _, name := range pending {
		if !fresh {
			buf, err := fs.ReadFile(migrationFS, filepath.Join(s.migrationDir(), name))
			if err != nil {
				return errors.Wrapf(err, "failed to read migration %s", name)
			}
			if _, err := db.ExecContext(ctx, string(buf)); err != nil {
				return errors.Wrapf(err, "failed to apply migration %s", name)
			}
			slog.Info("migration applied", slog.String("file", name))
		}
		if _, err := db.ExecContext(ctx,
			"INSERT INTO migration_history (version, created_ts) VALUES ($1, $2)",
			name, time.Now().Unix()); err != nil {
			return errors.Wrapf(err, "failed to record migration %s", name)
		}
	}
	return nil
}

func (s *Store) appliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := s.driver.GetDB().QueryContext(ctx, "SELECT version FROM migration_history")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list applied migrations")
	}
	defer rows.Close()

	applied := map[string]bool{}
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}
