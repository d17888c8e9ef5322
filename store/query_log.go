package store

import (
	"context"
	"time"
)

// QueryLogStatus is the terminal state of one ask or execute request.
type QueryLogStatus string

const (
	QueryLogStatusOK       QueryLogStatus = "ok"
	QueryLogStatusRejected QueryLogStatus = "rejected"
	QueryLogStatusFailed   QueryLogStatus = "failed"
)

// QueryLog records one question and what became of it, for auditing
// generated SQL and reviewing how temporal phrases were resolved.
type QueryLog struct {
	ID int64

	// Standard fields
	CreatedTs int64

	// Domain specific fields
	TenantID        int32
	Question        string
	ContentQuery    string
	DetectedPhrases []string // temporal phrases found in the question
	GeneratedSQL    string
	Status          QueryLogStatus
	ErrorMessage    string
	DurationMs      int64
}

// FindQueryLog is the find condition for query logs.
type FindQueryLog struct {
	TenantID *int32
	Status   *QueryLogStatus
	Limit    *int
	Offset   *int
}

// CreateQueryLog records one completed request.
func (s *Store) CreateQueryLog(ctx context.Context, create *QueryLog) (*QueryLog, error) {
	create.CreatedTs = time.Now().Unix()
	return s.driver.CreateQueryLog(ctx, create)
}

// ListQueryLogs lists query logs, newest first.
func (s *Store) ListQueryLogs(ctx context.Context, find *FindQueryLog) ([]*QueryLog, error) {
	return s.driver.ListQueryLogs(ctx, find)
}
