package sqlgen

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// ErrNotReadOnly is returned when a statement could modify data or
// schema. Generated and caller-supplied SQL both pass through this check
// before touching a target warehouse.
var ErrNotReadOnly = errors.New("sqlgen: statement is not a read-only query")

var forbiddenKeyword = regexp.MustCompile(`(?i)\b(insert|update|delete|drop|alter|create|truncate|replace|grant|revoke|attach|detach|vacuum|merge|copy|call|set)\b`)

// EnsureReadOnly verifies the statement is a single SELECT (optionally
// WITH-prefixed) query. The check is keyword-based, not a full parse:
// it rejects anything that names a mutating verb even inside a
// subquery, trading a few false positives for never letting a write
// through.
func EnsureReadOnly(sql string) error {
	text := strings.TrimSpace(sql)
	if text == "" {
		return errors.Wrap(ErrNotReadOnly, "empty statement")
	}

	// A trailing semicolon is fine; content after it is not.
	if idx := strings.IndexByte(text, ';'); idx >= 0 {
		if rest := strings.TrimSpace(text[idx+1:]); rest != "" {
			return errors.Wrap(ErrNotReadOnly, "multiple statements")
		}
		text = text[:idx]
	}

	upper := strings.ToUpper(strings.TrimSpace(text))
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return errors.Wrapf(ErrNotReadOnly, "statement must start with SELECT or WITH")
	}

	if match := forbiddenKeyword.FindString(stripLiterals(text)); match != "" {
		return errors.Wrapf(ErrNotReadOnly, "forbidden keyword %q", strings.ToUpper(match))
	}
	return nil
}

// stripLiterals blanks out single-quoted string literals so keywords
// inside data values don't trip the check.
func stripLiterals(sql string) string {
	var b strings.Builder
	b.Grow(len(sql))
	inString := false
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		if c == '\'' {
			inString = !inString
			b.WriteByte(c)
			continue
		}
		if inString {
			b.WriteByte(' ')
		} else {
			b.WriteByte(c)
		}
	}
	return b.String()
}
