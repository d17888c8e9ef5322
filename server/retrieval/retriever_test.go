package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqltalk/sqltalk/store"
	teststore "github.com/sqltalk/sqltalk/store/test"
)

// fixedEmbedder maps known texts to fixed vectors.
type fixedEmbedder struct {
	vectors map[string][]float32
}

func (e *fixedEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func TestRetrieveGroupsByKind(t *testing.T) {
	ctx := context.Background()
	s := teststore.NewStore(ctx, t)
	tenant := teststore.NewTenant(ctx, t, s)

	seed := []struct {
		kind     store.TrainingKind
		question string
		content  string
	}{
		{store.TrainingKindDDL, "", "CREATE TABLE orders (id INTEGER, amount REAL, created_at TIMESTAMP)"},
		{store.TrainingKindDocumentation, "", "orders holds one row per checkout"},
		{store.TrainingKindSQLPair, "total order count", "SELECT COUNT(*) FROM orders"},
	}
	for _, item := range seed {
		_, err := s.CreateTrainingItem(ctx, &store.TrainingItem{
			TenantID:  tenant.ID,
			Kind:      item.kind,
			Question:  item.question,
			Content:   item.content,
			Embedding: []float32{1, 0, 0},
		})
		require.NoError(t, err)
	}

	r := NewRetriever(s, &fixedEmbedder{vectors: map[string][]float32{
		"pesanan": {1, 0, 0},
	}})

	got, err := r.Retrieve(ctx, &Options{Query: "pesanan", TenantID: tenant.ID})
	require.NoError(t, err)
	require.False(t, got.Empty())
	assert.Len(t, got.DDL, 1)
	assert.Len(t, got.Documentation, 1)
	require.Len(t, got.Pairs, 1)
	assert.Equal(t, "total order count", got.Pairs[0].Question)
	assert.Equal(t, "SELECT COUNT(*) FROM orders", got.Pairs[0].SQL)
}

func TestRetrieveAppliesMinScore(t *testing.T) {
	ctx := context.Background()
	s := teststore.NewStore(ctx, t)
	tenant := teststore.NewTenant(ctx, t, s)

	_, err := s.CreateTrainingItem(ctx, &store.TrainingItem{
		TenantID:  tenant.ID,
		Kind:      store.TrainingKindDDL,
		Content:   "CREATE TABLE unrelated (id INTEGER)",
		Embedding: []float32{0, 1, 0},
	})
	require.NoError(t, err)

	r := NewRetriever(s, &fixedEmbedder{vectors: map[string][]float32{
		"pesanan": {1, 0, 0},
	}})

	got, err := r.Retrieve(ctx, &Options{
		Query:    "pesanan",
		TenantID: tenant.ID,
		MinScore: 0.5,
	})
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestRetrieveRequiresQuery(t *testing.T) {
	ctx := context.Background()
	s := teststore.NewStore(ctx, t)

	r := NewRetriever(s, &fixedEmbedder{})

	_, err := r.Retrieve(ctx, &Options{TenantID: 1})
	assert.Error(t, err)

	_, err = r.Retrieve(ctx, nil)
	assert.Error(t, err)
}
