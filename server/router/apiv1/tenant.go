package apiv1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sqltalk/sqltalk/plugin/sqlgen"
	apierrors "github.com/sqltalk/sqltalk/server/internal/errors"
	"github.com/sqltalk/sqltalk/server/timezone"
	"github.com/sqltalk/sqltalk/store"
)

type createTenantRequest struct {
	Name      string `json:"name"`
	Driver    string `json:"driver"`
	DSN       string `json:"dsn"`
	Dialect   string `json:"dialect"`
	Timezone  string `json:"timezone"`
	WeekStart string `json:"week_start"`
}

// tenantResponse never echoes the DSN; it may carry credentials.
type tenantResponse struct {
	UID       string `json:"uid"`
	Name      string `json:"name"`
	Driver    string `json:"driver"`
	Dialect   string `json:"dialect"`
	Timezone  string `json:"timezone"`
	WeekStart string `json:"week_start"`
	CreatedTs int64  `json:"created_ts"`
}

func toTenantResponse(t *store.Tenant) *tenantResponse {
	return &tenantResponse{
		UID:       t.UID,
		Name:      t.Name,
		Driver:    t.Driver,
		Dialect:   t.Dialect,
		Timezone:  t.Timezone,
		WeekStart: t.WeekStart,
		CreatedTs: t.CreatedTs,
	}
}

// createTenant registers a warehouse with its calendar convention.
func (s *APIV1Service) createTenant(c echo.Context) error {
	var req createTenantRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, apierrors.InvalidArgument("invalid request body"))
	}

	if req.Name == "" || req.DSN == "" {
		return jsonError(c, http.StatusBadRequest, apierrors.InvalidArgument("name and dsn are required"))
	}
	switch req.Driver {
	case "duckdb", "postgres", "sqlite":
	default:
		return jsonError(c, http.StatusBadRequest,
			apierrors.InvalidArgument("driver must be duckdb, postgres or sqlite"))
	}

	if req.Dialect == "" {
		req.Dialect = req.Driver
	}
	dialect, err := sqlgen.ParseDialect(req.Dialect)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, apierrors.InvalidArgument("unknown dialect "+req.Dialect))
	}

	if req.Timezone == "" {
		req.Timezone = "UTC"
	}
	if !timezone.IsValid(req.Timezone) {
		return jsonError(c, http.StatusBadRequest, apierrors.InvalidArgument("unknown timezone "+req.Timezone))
	}

	switch req.WeekStart {
	case "":
		req.WeekStart = "monday"
	case "monday", "sunday":
	default:
		return jsonError(c, http.StatusBadRequest,
			apierrors.InvalidArgument("week_start must be monday or sunday"))
	}

	tenant, err := s.Store.CreateTenant(c.Request().Context(), &store.Tenant{
		Name:      req.Name,
		Driver:    req.Driver,
		DSN:       req.DSN,
		Dialect:   string(dialect),
		Timezone:  req.Timezone,
		WeekStart: req.WeekStart,
	})
	if err != nil {
		return s.pipelineError(c,
			apierrors.Wrap(err, apierrors.ErrCodeExecutionFailed, "failed to create tenant"))
	}
	return c.JSON(http.StatusOK, toTenantResponse(tenant))
}

// listTenants lists registered tenants.
func (s *APIV1Service) listTenants(c echo.Context) error {
	tenants, err := s.Store.ListTenants(c.Request().Context(), &store.FindTenant{})
	if err != nil {
		return s.pipelineError(c,
			apierrors.Wrap(err, apierrors.ErrCodeExecutionFailed, "failed to list tenants"))
	}

	response := make([]*tenantResponse, 0, len(tenants))
	for _, tenant := range tenants {
		response = append(response, toTenantResponse(tenant))
	}
	return c.JSON(http.StatusOK, response)
}

// deleteTenant removes a tenant, its training data and its pooled
// warehouse connection.
func (s *APIV1Service) deleteTenant(c echo.Context) error {
	tenant, err := s.tenantByUID(c, c.Param("uid"))
	if tenant == nil {
		return err
	}

	if err := s.Store.DeleteTenant(c.Request().Context(), &store.DeleteTenant{ID: tenant.ID}); err != nil {
		return s.pipelineError(c,
			apierrors.Wrap(err, apierrors.ErrCodeExecutionFailed, "failed to delete tenant"))
	}
	s.Runner.Invalidate(tenant.UID)
	return c.NoContent(http.StatusNoContent)
}
