// Package sqlgen renders resolved temporal predicates into
// dialect-specific SQL fragments and drives LLM SQL generation with
// retrieval-augmented prompts. The temporal resolver itself never emits
// SQL; everything dialect-shaped lives here.
package sqlgen

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Dialect identifies a target SQL backend.
type Dialect string

const (
	DialectClickHouse Dialect = "clickhouse"
	DialectPostgres   Dialect = "postgres"
	DialectDuckDB     Dialect = "duckdb"
	DialectSQLite     Dialect = "sqlite"
	DialectMySQL      Dialect = "mysql"
)

// ErrUnknownDialect is returned for dialect identifiers outside the
// supported set.
var ErrUnknownDialect = errors.New("sqlgen: unknown dialect")

// ParseDialect normalizes a dialect identifier.
func ParseDialect(s string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "clickhouse":
		return DialectClickHouse, nil
	case "postgres", "postgresql":
		return DialectPostgres, nil
	case "duckdb":
		return DialectDuckDB, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "mysql":
		return DialectMySQL, nil
	default:
		return "", errors.Wrapf(ErrUnknownDialect, "%q", s)
	}
}

// timestampLiteral renders an absolute instant as a dialect timestamp
// literal. Instants are normalized to UTC so the emitted predicate is
// independent of any server session timezone; SQLite and MySQL literals
// are naive and assume UTC-stored columns.
func (d Dialect) timestampLiteral(t time.Time) string {
	utc := t.UTC().Format("2006-01-02 15:04:05")
	switch d {
	case DialectClickHouse:
		return "toDateTime('" + utc + "', 'UTC')"
	case DialectPostgres, DialectDuckDB:
		return "TIMESTAMPTZ '" + utc + "+00'"
	default:
		return "'" + utc + "'"
	}
}

// weekdayExpr renders the weekday-extraction expression for a column,
// converting the stored instant to tz first so the weekday is the local
// one. SQLite has no timezone database; it gets a fixed minute offset
// computed by the caller.
func (d Dialect) weekdayExpr(column, tz string, offsetMinutes int) string {
	switch d {
	case DialectClickHouse:
		return "toDayOfWeek(toTimeZone(" + column + ", '" + tz + "'))"
	case DialectPostgres:
		return "EXTRACT(ISODOW FROM " + column + " AT TIME ZONE '" + tz + "')"
	case DialectDuckDB:
		return "isodow(" + column + " AT TIME ZONE '" + tz + "')"
	case DialectSQLite:
		return fmt.Sprintf("CAST(strftime('%%w', %s, '%+d minutes') AS INTEGER)", column, offsetMinutes)
	case DialectMySQL:
		return "WEEKDAY(CONVERT_TZ(" + column + ", 'UTC', '" + tz + "'))"
	default:
		return ""
	}
}

// weekdayNumber maps a weekday to the numbering scheme of the dialect's
// weekday expression: ISO 1(Mon)..7(Sun) for ClickHouse/Postgres/DuckDB,
// 0(Sun)..6(Sat) for SQLite strftime, 0(Mon)..6(Sun) for MySQL WEEKDAY.
func (d Dialect) weekdayNumber(day time.Weekday) int {
	iso := int(day)
	if day == time.Sunday {
		iso = 7
	}
	switch d {
	case DialectSQLite:
		return int(day)
	case DialectMySQL:
		return iso - 1
	default:
		return iso
	}
}

// hourExpr renders the hour-of-day extraction expression for a column,
// converted to tz the same way as weekdayExpr.
func (d Dialect) hourExpr(column, tz string, offsetMinutes int) string {
	switch d {
	case DialectClickHouse:
		return "toHour(toTimeZone(" + column + ", '" + tz + "'))"
	case DialectPostgres, DialectDuckDB:
		return "EXTRACT(HOUR FROM " + column + " AT TIME ZONE '" + tz + "')"
	case DialectSQLite:
		return fmt.Sprintf("CAST(strftime('%%H', %s, '%+d minutes') AS INTEGER)", column, offsetMinutes)
	case DialectMySQL:
		return "HOUR(CONVERT_TZ(" + column + ", 'UTC', '" + tz + "'))"
	default:
		return ""
	}
}
