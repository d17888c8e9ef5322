package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Tenant model related methods.
	CreateTenant(ctx context.Context, create *Tenant) (*Tenant, error)
	ListTenants(ctx context.Context, find *FindTenant) ([]*Tenant, error)
	UpdateTenant(ctx context.Context, update *UpdateTenant) (*Tenant, error)
	DeleteTenant(ctx context.Context, delete *DeleteTenant) error

	// TrainingItem model related methods.
	CreateTrainingItem(ctx context.Context, create *TrainingItem) (*TrainingItem, error)
	ListTrainingItems(ctx context.Context, find *FindTrainingItem) ([]*TrainingItem, error)
	DeleteTrainingItem(ctx context.Context, delete *DeleteTrainingItem) error

	// VectorSearch performs semantic search over training items using
	// vector similarity. Returns items and their similarity scores.
	VectorSearch(ctx context.Context, opts *VectorSearchOptions) ([]*TrainingItemWithScore, error)

	// QueryLog model related methods.
	CreateQueryLog(ctx context.Context, create *QueryLog) (*QueryLog, error)
	ListQueryLogs(ctx context.Context, find *FindQueryLog) ([]*QueryLog, error)
}
