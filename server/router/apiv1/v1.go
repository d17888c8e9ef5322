// Package apiv1 exposes the REST surface: question answering, SQL
// generation and execution, training data management and tenant
// administration.
package apiv1

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sqltalk/sqltalk/internal/profile"
	"github.com/sqltalk/sqltalk/plugin/sqlgen"
	"github.com/sqltalk/sqltalk/plugin/temporal"
	"github.com/sqltalk/sqltalk/server/ai"
	apierrors "github.com/sqltalk/sqltalk/server/internal/errors"
	"github.com/sqltalk/sqltalk/server/internal/observability"
	"github.com/sqltalk/sqltalk/server/middleware"
	"github.com/sqltalk/sqltalk/server/queryengine"
	"github.com/sqltalk/sqltalk/server/retrieval"
	"github.com/sqltalk/sqltalk/server/sqlrunner"
	"github.com/sqltalk/sqltalk/store"
)

// AIClient is the slice of the AI provider the API needs.
type AIClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Chat(ctx context.Context, messages []ai.Message) (string, error)
}

// APIV1Service wires the question pipeline behind the REST routes.
type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store
	Runner  *sqlrunner.Runner

	client    AIClient
	detector  *queryengine.Detector
	retriever *retrieval.Retriever
	generator *sqlgen.Generator
	limiter   *middleware.RateLimiter
	metrics   *observability.Metrics
}

// NewAPIV1Service creates the API service. A nil client disables the
// LLM-backed endpoints (ask, sql); execute and the management
// endpoints keep working.
func NewAPIV1Service(p *profile.Profile, st *store.Store, runner *sqlrunner.Runner, client AIClient) *APIV1Service {
	s := &APIV1Service{
		Profile:  p,
		Store:    st,
		Runner:   runner,
		detector: queryengine.NewDetector(),
		limiter:  middleware.NewRateLimiter(10, 20),
		metrics:  observability.GlobalMetrics(),
	}
	if client != nil {
		s.client = client
		s.retriever = retrieval.NewRetriever(st, client)
		s.generator = sqlgen.NewGenerator(client)
	}
	return s
}

// Register attaches all routes to the echo instance.
func (s *APIV1Service) Register(e *echo.Echo) {
	e.GET("/healthz", s.healthz)

	g := e.Group("/api/v1", s.rateLimit)
	g.POST("/ask", s.ask)
	g.POST("/sql", s.generateSQL)
	g.POST("/execute", s.execute)

	g.POST("/train", s.train)
	g.GET("/training-data", s.listTrainingData)
	g.DELETE("/training-data/:uid", s.deleteTrainingData)

	g.POST("/tenants", s.createTenant)
	g.GET("/tenants", s.listTenants)
	g.DELETE("/tenants/:uid", s.deleteTenant)
}

func (s *APIV1Service) rateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.limiter.Allow(c.RealIP()) {
			return jsonError(c, http.StatusTooManyRequests,
				apierrors.RateLimitExceeded("too many requests"))
		}
		return next(c)
	}
}

type healthzResponse struct {
	Status  string                         `json:"status"`
	Mode    string                         `json:"mode"`
	Driver  string                         `json:"driver"`
	LLM     bool                           `json:"llm"`
	Metrics *observability.MetricsSnapshot `json:"metrics"`
}

func (s *APIV1Service) healthz(c echo.Context) error {
	status := "ok"
	if err := s.Store.GetDriver().GetDB().PingContext(c.Request().Context()); err != nil {
		status = "degraded"
	}
	return c.JSON(http.StatusOK, &healthzResponse{
		Status:  status,
		Mode:    s.Profile.Mode,
		Driver:  s.Profile.Driver,
		LLM:     s.generator != nil,
		Metrics: s.metrics.Snapshot(),
	})
}

type errorResponse struct {
	Code    apierrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
}

func jsonError(c echo.Context, status int, err *apierrors.PipelineError) error {
	return c.JSON(status, &errorResponse{Code: err.Code, Message: err.Message})
}

// tenantByUID loads the tenant or replies 404.
func (s *APIV1Service) tenantByUID(c echo.Context, uid string) (*store.Tenant, error) {
	if uid == "" {
		return nil, jsonError(c, http.StatusBadRequest,
			apierrors.InvalidArgument("tenant_uid is required"))
	}
	tenant, err := s.Store.GetTenant(c.Request().Context(), &store.FindTenant{UID: &uid})
	if err != nil {
		return nil, jsonError(c, http.StatusInternalServerError,
			apierrors.Wrap(err, apierrors.ErrCodeExecutionFailed, "failed to load tenant"))
	}
	if tenant == nil {
		return nil, jsonError(c, http.StatusNotFound, apierrors.TenantNotFound(uid))
	}
	return tenant, nil
}

// conventionFor builds the temporal convention from tenant settings.
func conventionFor(tenant *store.Tenant) (*temporal.Convention, error) {
	return temporal.NewConvention(parseWeekStart(tenant.WeekStart), tenant.Timezone)
}

func parseWeekStart(s string) time.Weekday {
	if s == "sunday" {
		return time.Sunday
	}
	return time.Monday
}
