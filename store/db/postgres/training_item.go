package postgres

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/sqltalk/sqltalk/store"
)

func (d *DB) CreateTrainingItem(ctx context.Context, create *store.TrainingItem) (*store.TrainingItem, error) {
	var embedding any
	if len(create.Embedding) > 0 {
		embedding = pgvector.NewVector(create.Embedding)
	}

	stmt := `
		INSERT INTO training_item (uid, created_ts, tenant_id, kind, question, content, embedding, model)
		VALUES (` + placeholders(8) + `)
		RETURNING id
	`
	err := d.db.QueryRowContext(ctx, stmt,
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

// VectorSearch ranks training items by cosine similarity using
// pgvector. The <=> operator computes cosine distance, so similarity
// is 1 - distance and ordering by distance ascending returns the most
// similar items first.
func (d *DB) VectorSearch(ctx context.Context, opts *store.VectorSearchOptions) ([]*store.TrainingItemWithScore, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 10
	}

	query := `
		SELECT id, uid, created_ts, tenant_id, kind, question, content, embedding, model,
			1 - (embedding <=> $1) AS score
		FROM training_item
		WHERE tenant_id = $2
			AND kind = $3
			AND embedding IS NOT NULL
		ORDER BY embedding <=> $1
		LIMIT $4
	`

	vector := pgvector.NewVector(opts.Vector)
	rows, err := d.db.QueryContext(ctx, query, vector, opts.TenantID, string(opts.Kind), limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to vector search training items")
	}
	defer rows.Close()

	results := []*store.TrainingItemWithScore{}
	for rows.Next() {
		var item store.TrainingItem
		var kind string
		var embedding pgvector.Vector
		var score float32
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
			&score,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan vector search result")
		}
		item.Kind = store.TrainingKind(kind)
		item.Embedding = embedding.Slice()

		if score >= opts.MinScore {
			results = append(results, &store.TrainingItemWithScore{Item: &item, Score: score})
		}
	}
	return results, rows.Err()
}

func scanTrainingItem(rows *sql.Rows) (*store.TrainingItem, error) {
	var item store.TrainingItem
	var kind string
	var embedding *pgvector.Vector
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
	if embedding != nil {
		item.Embedding = embedding.Slice()
	}
	return &item, nil
}
