package store

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
)

// Tenant represents a registered analytical database that questions can
// be asked against. Each tenant carries its own connection settings and
// the calendar convention used to resolve temporal phrases: boundary
// timezone and week start day.
type Tenant struct {
	ID int32

	// Standard fields
	CreatedTs int64
	UpdatedTs int64

	// Domain specific fields
	UID       string
	Name      string
	Driver    string // duckdb, postgres or sqlite
	DSN       string
	Dialect   string // SQL dialect for generation, see plugin/sqlgen
	Timezone  string // IANA name, e.g. "Asia/Jakarta"
	WeekStart string // "monday" or "sunday"
}

// FindTenant is the find condition for tenants.
type FindTenant struct {
	ID  *int32
	UID *string
}

// UpdateTenant is the update condition for a tenant.
type UpdateTenant struct {
	ID int32

	Name      *string
	Driver    *string
	DSN       *string
	Dialect   *string
	Timezone  *string
	WeekStart *string
}

// DeleteTenant is the delete condition for a tenant.
type DeleteTenant struct {
	ID int32
}

// CreateTenant creates a tenant, assigning a UID when none is given.
func (s *Store) CreateTenant(ctx context.Context, create *Tenant) (*Tenant, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	now := time.Now().Unix()
	create.CreatedTs = now
	create.UpdatedTs = now

	tenant, err := s.driver.CreateTenant(ctx, create)
	if err != nil {
		return nil, err
	}
	s.tenantCache.Set(ctx, tenant.UID, tenant)
	return tenant, nil
}

// GetTenant returns one tenant matching the find condition, or nil when
// no tenant matches.
func (s *Store) GetTenant(ctx context.Context, find *FindTenant) (*Tenant, error) {
	if find.UID != nil {
		if value, ok := s.tenantCache.Get(ctx, *find.UID); ok {
			if tenant, ok := value.(*Tenant); ok {
				return tenant, nil
			}
		}
	}

	list, err := s.driver.ListTenants(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	tenant := list[0]
	s.tenantCache.Set(ctx, tenant.UID, tenant)
	return tenant, nil
}

// ListTenants lists tenants.
func (s *Store) ListTenants(ctx context.Context, find *FindTenant) ([]*Tenant, error) {
	return s.driver.ListTenants(ctx, find)
}

// UpdateTenant updates a tenant and invalidates its cache entry.
func (s *Store) UpdateTenant(ctx context.Context, update *UpdateTenant) (*Tenant, error) {
	tenant, err := s.driver.UpdateTenant(ctx, update)
	if err != nil {
		return nil, err
	}
	s.tenantCache.Set(ctx, tenant.UID, tenant)
	return tenant, nil
}

// DeleteTenant deletes a tenant and its training items.
func (s *Store) DeleteTenant(ctx context.Context, delete *DeleteTenant) error {
	tenant, err := s.GetTenant(ctx, &FindTenant{ID: &delete.ID})
	if err != nil {
		return err
	}
	if tenant == nil {
		return errors.Errorf("tenant %d not found", delete.ID)
	}

	if err := s.driver.DeleteTenant(ctx, delete); err != nil {
		return err
	}
	s.tenantCache.Delete(ctx, tenant.UID)
	return nil
}
