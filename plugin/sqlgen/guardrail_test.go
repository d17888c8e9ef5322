package sqlgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureReadOnly_Allows(t *testing.T) {
	statements := []string{
		"SELECT 1",
		"select count(*) from orders where created_date >= today() - 7",
		"WITH weekly AS (SELECT 1) SELECT * FROM weekly",
		"SELECT * FROM orders;",
		// Mutating verbs inside string literals are data, not commands.
		"SELECT * FROM audit_log WHERE action = 'delete user'",
	}

	for _, sql := range statements {
		assert.NoError(t, EnsureReadOnly(sql), sql)
	}
}

func TestEnsureReadOnly_Rejects(t *testing.T) {
	statements := []string{
		"",
		"DROP TABLE orders",
		"INSERT INTO orders VALUES (1)",
		"UPDATE orders SET total = 0",
		"DELETE FROM orders",
		"TRUNCATE orders",
		"CREATE TABLE x (id INT)",
		"SELECT 1; DROP TABLE orders",
		"SELECT * FROM orders WHERE id IN (SELECT id FROM x); DELETE FROM x",
		"GRANT ALL ON orders TO intruder",
		"EXPLAIN SELECT 1", // not a plain SELECT/WITH prefix
	}

	for _, sql := range statements {
		assert.ErrorIs(t, EnsureReadOnly(sql), ErrNotReadOnly, sql)
	}
}

func TestExtractSQL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare", "SELECT 1", "SELECT 1"},
		{"trailing semicolon", "SELECT 1;\n", "SELECT 1"},
		{"fenced", "```sql\nSELECT count(*) FROM orders\n```", "SELECT count(*) FROM orders"},
		{"fenced with prose", "Here you go:\n```sql\nSELECT 1\n```\nLet me know!", "SELECT 1"},
		{"label", "SQL: SELECT 1", "SELECT 1"},
		{"prose after statement", "SELECT 1;\nThis query counts rows.", "SELECT 1"},
		{"unclosed fence", "```\nSELECT 2", "SELECT 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractSQL(tt.raw)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ExtractSQL("   ")
	assert.Error(t, err)
	_, err = ExtractSQL("```sql\n```")
	assert.Error(t, err)
}
