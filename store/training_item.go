package store

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid/v4"
)

// TrainingKind classifies a piece of training data for retrieval.
type TrainingKind string

const (
	// TrainingKindDDL is a CREATE TABLE statement describing schema.
	TrainingKindDDL TrainingKind = "ddl"
	// TrainingKindDocumentation is free-form prose about the data.
	TrainingKindDocumentation TrainingKind = "documentation"
	// TrainingKindSQLPair is a question with its known-good SQL.
	TrainingKindSQLPair TrainingKind = "sql_pair"
)

// Valid reports whether the kind is one of the known values.
func (k TrainingKind) Valid() bool {
	switch k {
	case TrainingKindDDL, TrainingKindDocumentation, TrainingKindSQLPair:
		return true
	}
	return false
}

// TrainingItem is one unit of retrieval context: a DDL statement,
// a documentation snippet, or a question/SQL pair.
type TrainingItem struct {
	ID int32

	// Standard fields
	CreatedTs int64

	// Domain specific fields
	UID      string
	TenantID int32
	Kind     TrainingKind
	Question string // only set for sql_pair
	Content  string

	// Embedding of Question (sql_pair) or Content (ddl, documentation).
	Embedding []float32
	Model     string // embedding model identifier
}

// FindTrainingItem is the find condition for training items.
type FindTrainingItem struct {
	ID       *int32
	UID      *string
	TenantID *int32
	Kind     *TrainingKind
	Limit    *int
	Offset   *int
}

// DeleteTrainingItem is the delete condition for a training item.
type DeleteTrainingItem struct {
	UID string
}

// TrainingItemWithScore is a vector search result with similarity score.
type TrainingItemWithScore struct {
	Item  *TrainingItem
	Score float32 // cosine similarity, higher is more similar
}

// VectorSearchOptions represents the options for vector search.
type VectorSearchOptions struct {
	TenantID int32        // required, only search items of this tenant
	Kind     TrainingKind // required, search within one kind
	Vector   []float32    // query vector
	Limit    int          // number of results to return, default 10
	MinScore float32      // drop results below this similarity
}

// CreateTrainingItem creates a training item, assigning a UID when none
// is given.
func (s *Store) CreateTrainingItem(ctx context.Context, create *TrainingItem) (*TrainingItem, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	create.CreatedTs = time.Now().Unix()
	return s.driver.CreateTrainingItem(ctx, create)
}

// ListTrainingItems lists training items.
func (s *Store) ListTrainingItems(ctx context.Context, find *FindTrainingItem) ([]*TrainingItem, error) {
	return s.driver.ListTrainingItems(ctx, find)
}

// DeleteTrainingItem deletes a training item by UID.
func (s *Store) DeleteTrainingItem(ctx context.Context, delete *DeleteTrainingItem) error {
	return s.driver.DeleteTrainingItem(ctx, delete)
}

// VectorSearch performs vector similarity search over training items.
func (s *Store) VectorSearch(ctx context.Context, opts *VectorSearchOptions) ([]*TrainingItemWithScore, error) {
	return s.driver.VectorSearch(ctx, opts)
}
