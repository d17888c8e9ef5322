// Package retrieval assembles prompt context for SQL generation by
// vector search over a tenant's training data.
package retrieval

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/sqltalk/sqltalk/plugin/sqlgen"
	"github.com/sqltalk/sqltalk/store"
)

// Embedder turns a content query into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Options tunes one retrieval pass.
type Options struct {
	// Query is the content query, with temporal phrases already
	// stripped so retrieval ranks by subject rather than by period.
	Query    string
	TenantID int32

	MinScore float32
	Limit    int // per kind

	RequestID string
	Logger    *slog.Logger
}

// Context is the retrieved prompt material, grouped by kind.
type Context struct {
	DDL           []string
	Documentation []string
	Pairs         []sqlgen.QuestionSQL
}

// Empty reports whether nothing relevant was found.
func (c *Context) Empty() bool {
	return len(c.DDL) == 0 && len(c.Documentation) == 0 && len(c.Pairs) == 0
}

// Retriever performs per-kind vector search over training items.
type Retriever struct {
	store    *store.Store
	embedder Embedder
}

// NewRetriever creates a retriever.
func NewRetriever(st *store.Store, embedder Embedder) *Retriever {
	return &Retriever{
		store:    st,
		embedder: embedder,
	}
}

// Retrieve embeds the content query once and searches each training
// kind separately, so a schema-heavy corpus cannot crowd question
// pairs out of the prompt.
func (r *Retriever) Retrieve(ctx context.Context, opts *Options) (*Context, error) {
	if opts == nil || opts.Query == "" {
		return nil, errors.New("retrieval query is required")
	}
	if opts.Limit <= 0 {
		opts.Limit = 5
	}
	if opts.MinScore <= 0 {
		opts.MinScore = 0.3
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	vector, err := r.embedder.Embed(ctx, opts.Query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to embed content query")
	}

	result := &Context{}
	for _, kind := range []store.TrainingKind{
		store.TrainingKindDDL,
		store.TrainingKindDocumentation,
		store.TrainingKindSQLPair,
	} {
		matches, err := r.store.VectorSearch(ctx, &store.VectorSearchOptions{
			TenantID: opts.TenantID,
			Kind:     kind,
			Vector:   vector,
			Limit:    opts.Limit,
			MinScore: opts.MinScore,
		})
		if err != nil {
			return nil, errors.Wrapf(err, "vector search failed for kind %s", kind)
		}

		for _, match := range matches {
			switch kind {
			case store.TrainingKindDDL:
				result.DDL = append(result.DDL, match.Item.Content)
			case store.TrainingKindDocumentation:
				result.Documentation = append(result.Documentation, match.Item.Content)
			case store.TrainingKindSQLPair:
				result.Pairs = append(result.Pairs, sqlgen.QuestionSQL{
					Question: match.Item.Question,
					SQL:      match.Item.Content,
				})
			}
		}

		logger.DebugContext(ctx, "retrieval pass",
			"request_id", opts.RequestID,
			"kind", string(kind),
			"matches", len(matches),
		)
	}

	return result, nil
}
