package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/sqltalk/sqltalk/store"
)

// Embeddings are stored as JSON arrays. Similarity search decodes the
// candidate rows and ranks them in process, which is fine at the corpus
// sizes a dev setup holds.

func (d *DB) CreateTrainingItem(ctx context.Context, create *store.TrainingItem) (*store.TrainingItem, error) {
	embedding, err := encodeEmbedding(create.Embedding)
	if err != nil {
		return nil, err
	}

	stmt := `
		INSERT INTO training_item (uid, created_ts, tenant_id, kind, question, content, embedding, model)
		VALUES (` + placeholders(8) + `)
		RETURNING id
	`
	err = d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.CreatedTs,
		create.TenantID,
		string(create.Kind),
		create.Question,
		create.Content,
		embedding,
		create.Model,
	).Scan(&create.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create training item")
	}
	return create, nil
}

func (d *DB) ListTrainingItems(ctx context.Context, find *store.FindTrainingItem) ([]*store.TrainingItem, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.TenantID != nil {
		where, args = append(where, "tenant_id = "+placeholder(len(args)+1)), append(args, *find.TenantID)
	}
	if find.Kind != nil {
		where, args = append(where, "kind = "+placeholder(len(args)+1)), append(args, string(*find.Kind))
	}

	query := `
		SELECT id, uid, created_ts, tenant_id, kind, question, content, embedding, model
		FROM training_item
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC
	`
	if find.Limit != nil {
		query += " LIMIT " + placeholder(len(args)+1)
		args = append(args, *find.Limit)
		if find.Offset != nil {
			query += " OFFSET " + placeholder(len(args)+1)
			args = append(args, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list training items")
	}
	defer rows.Close()

	list := []*store.TrainingItem{}
	for rows.Next() {
		item, err := scanTrainingItem(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, item)
	}
	return list, rows.Err()
}

func (d *DB) DeleteTrainingItem(ctx context.Context, delete *store.DeleteTrainingItem) error {
	result, err := d.db.ExecContext(ctx, "DELETE FROM training_item WHERE uid = "+placeholder(1), delete.UID)
	if err != nil {
		return errors.Wrap(err, "failed to delete training item")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.Errorf("training item %s not found", delete.UID)
	}
	return nil
}

// VectorSearch ranks the tenant's items of one kind by cosine
// similarity against the query vector.
func (d *DB) VectorSearch(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.TrainingItemWithScore, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, uid, created_ts, tenant_id, kind, question, content, embedding, model
		FROM training_item
		WHERE tenant_id = ` + placeholder(1) + `
			AND kind = ` + placeholder(2) + `
			AND embedding IS NOT NULL
	`
	rows, err := d.db.QueryContext(ctx, query, opts.TenantID, string(opts.Kind))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load training items for vector search")
	}
	defer rows.Close()

	results := []*store.TrainingItemWithScore{}
	for rows.Next() {
		item, err := scanTrainingItem(rows)
		if err != nil {
			return nil, err
		}
		score := cosineSimilarity(opts.Vector, item.Embedding)
		if score >= opts.MinScore {
			results = append(results, &store.TrainingItemWithScore{Item: item, Score: score})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func scanTrainingItem(rows *sql.Rows) (*store.TrainingItem, error) {
	var item store.TrainingItem
	var kind string
	var embedding sql.NullString
	if err := rows.Scan(
		&item.ID,
		&item.UID,
		&item.CreatedTs,
		&item.TenantID,
		&kind,
		&item.Question,
		&item.Content,
		&embedding,
		&item.Model,
	); err != nil {
		return nil, errors.Wrap(err, "failed to scan training item")
	}
	item.Kind = store.TrainingKind(kind)

	if embedding.Valid && embedding.String != "" {
		if err := json.Unmarshal([]byte(embedding.String), &item.Embedding); err != nil {
			return nil, errors.Wrap(err, "failed to decode embedding")
		}
	}
	return &item, nil
}

func encodeEmbedding(embedding []float32) (any, error) {
	if len(embedding) == 0 {
		return nil, nil
	}
	buf, err := json.Marshal(embedding)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode embedding")
	}
	return string(buf), nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
