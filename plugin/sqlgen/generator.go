package sqlgen

import (
	"context"

	"github.com/pkg/errors"

	"github.com/sqltalk/sqltalk/server/ai"
)

// ChatCompleter is the slice of the AI provider the generator needs.
type ChatCompleter interface {
	Chat(ctx context.Context, messages []ai.Message) (string, error)
}

// Generator turns a prompt input into a validated SQL statement.
type Generator struct {
	llm ChatCompleter
}

// NewGenerator creates a generator backed by the given LLM.
func NewGenerator(llm ChatCompleter) *Generator {
	return &Generator{llm: llm}
}

// Generate prompts the model and returns a single read-only SQL
// statement. Responses that cannot be reduced to one SELECT fail here
// rather than at the warehouse.
func (g *Generator) Generate(ctx context.Context, in PromptInput) (string, error) {
	if in.Question == "" {
		return "", errors.New("question is required")
	}

	messages := []ai.Message{
		{Role: "system", Content: BuildSystemPrompt(in.Dialect)},
		{Role: "user", Content: BuildUserPrompt(in)},
	}

	raw, err := g.llm.Chat(ctx, messages)
	if err != nil {
		return "", errors.Wrap(err, "chat completion failed")
	}

	sql, err := ExtractSQL(raw)
	if err != nil {
		return "", err
	}
	if err := EnsureReadOnly(sql); err != nil {
		return "", err
	}
	return sql, nil
}
