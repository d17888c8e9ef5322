package postgres

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/sqltalk/sqltalk/store"
)

func (d *DB) CreateQueryLog(ctx context.Context, create *store.QueryLog) (*store.QueryLog, error) {
	phrases := create.DetectedPhrases
	if phrases == nil {
		phrases = []string{}
	}
	buf, err := json.Marshal(phrases)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode detected phrases")
	}

	stmt := `
		INSERT INTO query_log (created_ts, tenant_id, question, content_query, detected_phrases, generated_sql, status, error_message, duration_ms)
		VALUES (` + placeholders(9) + `)
		RETURNING id
	`
	err = d.db.QueryRowContext(ctx, stmt,
		create.CreatedTs,
		create.TenantID,
		create.Question,
		create.ContentQuery,
		string(buf),
		create.GeneratedSQL,
		string(create.Status),
		create.ErrorMessage,
		create.DurationMs,
	).Scan(&create.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create query log")
	}
	return create, nil
}

func (d *DB) ListQueryLogs(ctx context.Context, find *store.FindQueryLog) ([]*store.QueryLog, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.TenantID != nil {
		where, args = append(where, "tenant_id = "+placeholder(len(args)+1)), append(args, *find.TenantID)
	}
	if find.Status != nil {
		where, args = append(where, "status = "+placeholder(len(args)+1)), append(args, string(*find.Status))
	}

	query := `
		SELECT id, created_ts, tenant_id, question, content_query, detected_phrases, generated_sql, status, error_message, duration_ms
		FROM query_log
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
		return nil, errors.Wrap(err, "failed to list query logs")
	}
	defer rows.Close()

	list := []*store.QueryLog{}
	for rows.Next() {
		var log store.QueryLog
		var status, phrases string
		if err := rows.Scan(
			&log.ID,
			&log.CreatedTs,
			&log.TenantID,
			&log.Question,
			&log.ContentQuery,
			&phrases,
			&log.GeneratedSQL,
			&status,
			&log.ErrorMessage,
			&log.DurationMs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan query log")
		}
		log.Status = store.QueryLogStatus(status)
		if err := json.Unmarshal([]byte(phrases), &log.DetectedPhrases); err != nil {
			return nil, errors.Wrap(err, "failed to decode detected phrases")
		}
		list = append(list, &log)
	}
	return list, rows.Err()
}
