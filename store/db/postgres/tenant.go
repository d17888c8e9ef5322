package postgres

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/sqltalk/sqltalk/store"
)

func (d *DB) CreateTenant(ctx context.Context, create *store.Tenant) (*store.Tenant, error) {
	stmt := `
		INSERT INTO tenant (uid, created_ts, updated_ts, name, driver, dsn, dialect, timezone, week_start)
		VALUES (` + placeholders(9) + `)
		RETURNING id
	`
	err := d.db.QueryRowContext(ctx, stmt,
		create.UID,
		create.CreatedTs,
		create.UpdatedTs,
		create.Name,
		create.Driver,
		create.DSN,
		create.Dialect,
		create.Timezone,
		create.WeekStart,
	).Scan(&create.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create tenant")
	}
	return create, nil
}

func (d *DB) ListTenants(ctx context.Context, find *store.FindTenant) ([]*store.Tenant, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}

	query := `
		SELECT id, uid, created_ts, updated_ts, name, driver, dsn, dialect, timezone, week_start
		FROM tenant
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC
	`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list tenants")
	}
	defer rows.Close()

	list := []*store.Tenant{}
	for rows.Next() {
		var tenant store.Tenant
		if err := rows.Scan(
			&tenant.ID,
			&tenant.UID,
			&tenant.CreatedTs,
			&tenant.UpdatedTs,
			&tenant.Name,
			&tenant.Driver,
			&tenant.DSN,
			&tenant.Dialect,
			&tenant.Timezone,
			&tenant.WeekStart,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan tenant")
		}
		list = append(list, &tenant)
	}
	return list, rows.Err()
}

func (d *DB) UpdateTenant(ctx context.Context, update *store.UpdateTenant) (*store.Tenant, error) {
	set, args := []string{}, []any{}

	if update.Name != nil {
		set, args = append(set, "name = "+placeholder(len(args)+1)), append(args, *update.Name)
	}
	if update.Driver != nil {
		set, args = append(set, "driver = "+placeholder(len(args)+1)), append(args, *update.Driver)
	}
	if update.DSN != nil {
		set, args = append(set, "dsn = "+placeholder(len(args)+1)), append(args, *update.DSN)
	}
	if update.Dialect != nil {
		set, args = append(set, "dialect = "+placeholder(len(args)+1)), append(args, *update.Dialect)
	}
	if update.Timezone != nil {
		set, args = append(set, "timezone = "+placeholder(len(args)+1)), append(args, *update.Timezone)
	}
	if update.WeekStart != nil {
		set, args = append(set, "week_start = "+placeholder(len(args)+1)), append(args, *update.WeekStart)
	}
	if len(set) == 0 {
		return nil, errors.New("no fields to update")
	}

	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, time.Now().Unix())
	args = append(args, update.ID)

	stmt := `
		UPDATE tenant
		SET ` + strings.Join(set, ", ") + `
		WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, uid, created_ts, updated_ts, name, driver, dsn, dialect, timezone, week_start
	`

	var tenant store.Tenant
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&tenant.ID,
		&tenant.UID,
		&tenant.CreatedTs,
		&tenant.UpdatedTs,
		&tenant.Name,
		&tenant.Driver,
		&tenant.DSN,
		&tenant.Dialect,
		&tenant.Timezone,
		&tenant.WeekStart,
	); err != nil {
		return nil, errors.Wrap(err, "failed to update tenant")
	}
	return &tenant, nil
}

func (d *DB) DeleteTenant(ctx context.Context, delete *store.DeleteTenant) error {
	result, err := d.db.ExecContext(ctx, "DELETE FROM tenant WHERE id = "+placeholder(1), delete.ID)
	if err != nil {
		return errors.Wrap(err, "failed to delete tenant")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return errors.Errorf("tenant %d not found", delete.ID)
	}
	return nil
}
