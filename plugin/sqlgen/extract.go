package sqlgen

import (
	"strings"

	"github.com/pkg/errors"
)

// ExtractSQL pulls the SQL statement out of an LLM response. Models are
// told not to fence or annotate their output, but they do anyway, so the
// extractor tolerates markdown fences, a leading "SQL:" label and
// trailing prose after the statement's closing semicolon.
func ExtractSQL(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", errors.New("empty model response")
	}

	// Prefer a fenced block when present.
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		// Drop the language tag line, e.g. ```sql
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			firstLine := strings.TrimSpace(rest[:nl])
			if firstLine == "" || isLanguageTag(firstLine) {
				rest = rest[nl+1:]
			}
		}
		if end := strings.Index(rest, "```"); end >= 0 {
			rest = rest[:end]
		}
		text = strings.TrimSpace(rest)
	}

	text = strings.TrimSpace(strings.TrimPrefix(text, "SQL:"))

	// Keep only the first statement.
	if idx := strings.IndexByte(text, ';'); idx >= 0 {
		text = text[:idx]
	}
	text = strings.TrimSpace(text)

	if text == "" {
		return "", errors.New("no SQL statement found in model response")
	}
	return text, nil
}

func isLanguageTag(s string) bool {
	switch strings.ToLower(s) {
	case "sql", "clickhouse", "postgres", "postgresql", "duckdb", "sqlite", "mysql":
		return true
	default:
		return false
	}
}
