package sqlgen

import (
	"fmt"
	"strings"
)

// Dialect-specific system prompts. Temporal guidance is deliberately
// absent: relative time phrases are resolved deterministically before
// prompting, and the exact predicates arrive as a constraint block the
// model is told to copy verbatim.
var systemPrompts = map[Dialect]string{
	DialectClickHouse: `You are a ClickHouse SQL expert. Generate ONLY valid ClickHouse SQL SELECT queries.
Use ClickHouse functions exactly: toYear(), toMonth(), toStartOfWeek(), toDateTime(), now(), today().
Never use YEAR(), MONTH(), toYYYY or invented table names.`,

	DialectPostgres: `You are a PostgreSQL SQL expert. Generate ONLY valid PostgreSQL SELECT queries.
Use PostgreSQL functions: EXTRACT(), DATE_TRUNC(), NOW(). Quote identifiers with double quotes only when needed.`,

	DialectDuckDB: `You are a DuckDB SQL expert. Generate ONLY valid DuckDB SELECT queries.
Use DuckDB functions: date_trunc(), isodow(), strftime(), now(). Prefer standard SQL over vendor extensions.`,

	DialectSQLite: `You are a SQLite SQL expert. Generate ONLY valid SQLite SELECT queries.
Use SQLite functions: strftime(), date(), datetime(). There is no RIGHT JOIN or FULL OUTER JOIN.`,

	DialectMySQL: `You are a MySQL SQL expert. Generate ONLY valid MySQL SELECT queries.
Use MySQL functions: YEAR(), MONTH(), DATE_SUB(), NOW(). Quote identifiers with backticks.`,
}

const promptRules = `Rules:
- Generate a single read-only SELECT statement. No INSERT, UPDATE, DELETE, DDL or multiple statements.
- Use only tables and columns that appear in the provided schema.
- When a TEMPORAL CONSTRAINTS block is present, copy its predicates into the WHERE clause verbatim. Do not invent your own date arithmetic for those phrases.
- Respond with the SQL only: no narrative, no markdown fences, no trailing explanation.`

// QuestionSQL is one retrieved question/SQL training pair.
type QuestionSQL struct {
	Question string
	SQL      string
}

// PromptInput carries everything the prompt builder assembles: the
// question, retrieved training context and pre-resolved temporal hints.
type PromptInput struct {
	Dialect  Dialect
	Question string

	// Retrieved training context, most similar first.
	DDL           []string
	Documentation []string
	Pairs         []QuestionSQL

	// TemporalHints are pre-rendered predicates, one per detected
	// phrase, e.g. `created_date >= ... AND created_date < ...`.
	// Each hint names the phrase it came from.
	TemporalHints []TemporalHint
}

// TemporalHint pairs a detected phrase with its exact predicate.
type TemporalHint struct {
	Phrase    string
	Predicate string
}

// BuildSystemPrompt returns the dialect system prompt plus the shared
// generation rules.
func BuildSystemPrompt(d Dialect) string {
	base, ok := systemPrompts[d]
	if !ok {
		base = systemPrompts[DialectPostgres]
	}
	return base + "\n\n" + promptRules
}

// BuildUserPrompt assembles the retrieval context and the question into
// the user message.
func BuildUserPrompt(in PromptInput) string {
	var b strings.Builder

	if len(in.DDL) > 0 {
		b.WriteString("SCHEMA:\n")
		for _, ddl := range in.DDL {
			b.WriteString(strings.TrimSpace(ddl))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(in.Documentation) > 0 {
		b.WriteString("DOCUMENTATION:\n")
		for _, doc := range in.Documentation {
			b.WriteString("- ")
			b.WriteString(strings.TrimSpace(doc))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(in.Pairs) > 0 {
		b.WriteString("SIMILAR QUESTIONS:\n")
		for _, pair := range in.Pairs {
			fmt.Fprintf(&b, "Q: %s\nSQL: %s\n", strings.TrimSpace(pair.Question), strings.TrimSpace(pair.SQL))
		}
		b.WriteString("\n")
	}

	if len(in.TemporalHints) > 0 {
		b.WriteString("TEMPORAL CONSTRAINTS (copy verbatim into WHERE):\n")
		for _, hint := range in.TemporalHints {
			fmt.Fprintf(&b, "- %q means: %s\n", hint.Phrase, hint.Predicate)
		}
		b.WriteString("\n")
	}

	b.WriteString("QUESTION: ")
	b.WriteString(strings.TrimSpace(in.Question))
	return b.String()
}
