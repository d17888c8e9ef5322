package db

import (
	"github.com/pkg/errors"

	"github.com/sqltalk/sqltalk/internal/profile"
	"github.com/sqltalk/sqltalk/store"
	"github.com/sqltalk/sqltalk/store/db/postgres"
	"github.com/sqltalk/sqltalk/store/db/sqlite"
)

// The metadata store supports PostgreSQL and SQLite.
//
// PostgreSQL: production use, vector search via pgvector.
// SQLite: development and testing, vector search computed in process.

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.Errorf("unknown db driver %q: only 'postgres' and 'sqlite' are supported", profile.Driver)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
