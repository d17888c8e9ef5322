package apiv1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/sqltalk/sqltalk/plugin/sqlgen"
	"github.com/sqltalk/sqltalk/plugin/temporal"
	apierrors "github.com/sqltalk/sqltalk/server/internal/errors"
	"github.com/sqltalk/sqltalk/server/internal/observability"
	"github.com/sqltalk/sqltalk/server/queryengine"
	"github.com/sqltalk/sqltalk/server/retrieval"
	"github.com/sqltalk/sqltalk/server/sqlrunner"
	"github.com/sqltalk/sqltalk/store"
)

const defaultTimeColumn = "created_at"

type askRequest struct {
	TenantUID string `json:"tenant_uid"`
	Question  string `json:"question"`
	// TimeColumn is the timestamp column temporal predicates are
	// rendered against. Defaults to created_at.
	TimeColumn string `json:"time_column"`
}

type executeRequest struct {
	TenantUID string `json:"tenant_uid"`
	SQL       string `json:"sql"`
}

type temporalHintResponse struct {
	Phrase    string `json:"phrase"`
	Predicate string `json:"predicate"`
}

type sqlResponse struct {
	SQL           string                 `json:"sql"`
	ContentQuery  string                 `json:"content_query"`
	TemporalHints []temporalHintResponse `json:"temporal_hints"`
}

type askResponse struct {
	sqlResponse
	Result     *sqlrunner.Result `json:"result"`
	DurationMs int64             `json:"duration_ms"`
}

// generation is the outcome of the shared detect/resolve/retrieve/
// generate pipeline.
type generation struct {
	sql       string
	detection queryengine.Result
	hints     []sqlgen.TemporalHint
}

// ask runs the full pipeline: detect temporal phrases, resolve them
// against the tenant convention, retrieve context, generate SQL and
// execute it on the tenant warehouse.
func (s *APIV1Service) ask(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, apierrors.InvalidArgument("invalid request body"))
	}

	tenant, err := s.tenantByUID(c, req.TenantUID)
	if tenant == nil {
		return err
	}

	reqCtx := observability.NewRequestContext(slog.Default(), "ask", tenant.UID)
	s.metrics.RecordRequest("ask")

	gen, perr := s.generate(c, reqCtx, tenant, &req)
	if perr != nil {
		s.recordFailure(c, reqCtx, tenant, "ask", req.Question, nil, "", perr)
		return s.pipelineError(c, perr)
	}

	result, err := s.Runner.Execute(c.Request().Context(), tenant, gen.sql)
	if err != nil {
		perr := executionError(err)
		s.recordFailure(c, reqCtx, tenant, "ask", req.Question, &gen.detection, gen.sql, perr)
		return s.pipelineError(c, perr)
	}

	s.recordSuccess(c, reqCtx, tenant, req.Question, &gen.detection, gen.sql)
	s.metrics.RecordDuration("ask", reqCtx.Duration())
	reqCtx.Info("question answered",
		slog.Int("rows", result.RowCount),
		slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()),
	)

	return c.JSON(http.StatusOK, &askResponse{
		sqlResponse: toSQLResponse(gen),
		Result:      result,
		DurationMs:  reqCtx.DurationMs(),
	})
}

// generateSQL runs the pipeline up to SQL generation without touching
// the warehouse.
func (s *APIV1Service) generateSQL(c echo.Context) error {
	var req askRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, apierrors.InvalidArgument("invalid request body"))
	}

	tenant, err := s.tenantByUID(c, req.TenantUID)
	if tenant == nil {
		return err
	}

	reqCtx := observability.NewRequestContext(slog.Default(), "sql", tenant.UID)
	s.metrics.RecordRequest("sql")

	gen, perr := s.generate(c, reqCtx, tenant, &req)
	if perr != nil {
		s.recordFailure(c, reqCtx, tenant, "sql", req.Question, nil, "", perr)
		return s.pipelineError(c, perr)
	}

	s.recordSuccess(c, reqCtx, tenant, req.Question, &gen.detection, gen.sql)
	s.metrics.RecordDuration("sql", reqCtx.Duration())
	return c.JSON(http.StatusOK, toSQLResponse(gen))
}

// execute runs caller-supplied SQL through the guardrail and the
// tenant warehouse.
func (s *APIV1Service) execute(c echo.Context) error {
	var req executeRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, apierrors.InvalidArgument("invalid request body"))
	}
	if req.SQL == "" {
		return jsonError(c, http.StatusBadRequest, apierrors.InvalidArgument("sql is required"))
	}

	tenant, err := s.tenantByUID(c, req.TenantUID)
	if tenant == nil {
		return err
	}

	reqCtx := observability.NewRequestContext(slog.Default(), "execute", tenant.UID)
	s.metrics.RecordRequest("execute")

	result, err := s.Runner.Execute(c.Request().Context(), tenant, req.SQL)
	if err != nil {
		perr := executionError(err)
		s.recordFailure(c, reqCtx, tenant, "execute", "", nil, req.SQL, perr)
		return s.pipelineError(c, perr)
	}

	s.recordSuccess(c, reqCtx, tenant, "", nil, req.SQL)
	s.metrics.RecordDuration("execute", reqCtx.Duration())
	return c.JSON(http.StatusOK, result)
}

// generate is the shared detect/resolve/retrieve/generate pipeline.
// The clock is read once here and threaded through resolution.
func (s *APIV1Service) generate(c echo.Context, reqCtx *observability.RequestContext, tenant *store.Tenant, req *askRequest) (*generation, *apierrors.PipelineError) {
	if s.generator == nil {
		return nil, apierrors.LLMUnavailable("no LLM provider configured")
	}
	if req.Question == "" {
		return nil, apierrors.InvalidArgument("question is required")
	}

	ctx := c.Request().Context()

	dialect, err := sqlgen.ParseDialect(tenant.Dialect)
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.ErrCodeInvalidArgument, "unknown tenant dialect")
	}

	detection, err := s.detector.Detect(req.Question)
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.ErrCodeInvalidArgument, "question rejected")
	}

	timeColumn := req.TimeColumn
	if timeColumn == "" {
		timeColumn = defaultTimeColumn
	}

	var hints []sqlgen.TemporalHint
	if len(detection.Detections) > 0 {
		reference := time.Now()
		conv, err := conventionFor(tenant)
		if err != nil {
			return nil, apierrors.Wrap(err, apierrors.ErrCodeTemporalResolution, "tenant calendar convention is invalid")
		}

		for _, d := range detection.Detections {
			res, err := temporal.Resolve(d.Expression, reference, conv)
			if err != nil {
				return nil, apierrors.Wrap(err, apierrors.ErrCodeTemporalResolution,
					"failed to resolve phrase "+d.Phrase)
			}
			predicate, err := sqlgen.RenderPredicate(dialect, timeColumn, res)
			if err != nil {
				return nil, apierrors.Wrap(err, apierrors.ErrCodeTemporalResolution,
					"failed to render phrase "+d.Phrase)
			}
			hints = append(hints, sqlgen.TemporalHint{Phrase: d.Phrase, Predicate: predicate})
		}
		reqCtx.Debug("temporal phrases resolved", slog.Int("count", len(hints)))
	}

	contentQuery := detection.ContentQuery
	if contentQuery == "" {
		contentQuery = req.Question
	}

	retrieved, err := s.retriever.Retrieve(ctx, &retrieval.Options{
		Query:     contentQuery,
		TenantID:  tenant.ID,
		RequestID: reqCtx.RequestID,
		Logger:    reqCtx.Logger,
	})
	if err != nil {
		return nil, apierrors.Wrap(err, apierrors.ErrCodeGenerationFailed, "retrieval failed")
	}

	generated, err := s.generator.Generate(ctx, sqlgen.PromptInput{
		Dialect:       dialect,
		Question:      req.Question,
		DDL:           retrieved.DDL,
		Documentation: retrieved.Documentation,
		Pairs:         retrieved.Pairs,
		TemporalHints: hints,
	})
	if err != nil {
		if errors.Is(err, sqlgen.ErrNotReadOnly) {
			return nil, apierrors.Wrap(err, apierrors.ErrCodeNotReadOnly, "generated statement is not read-only")
		}
		return nil, apierrors.Wrap(err, apierrors.ErrCodeGenerationFailed, "SQL generation failed")
	}

	return &generation{sql: generated, detection: detection, hints: hints}, nil
}

func toSQLResponse(gen *generation) sqlResponse {
	hints := make([]temporalHintResponse, 0, len(gen.hints))
	for _, h := range gen.hints {
		hints = append(hints, temporalHintResponse{Phrase: h.Phrase, Predicate: h.Predicate})
	}
	return sqlResponse{
		SQL:           gen.sql,
		ContentQuery:  gen.detection.ContentQuery,
		TemporalHints: hints,
	}
}

func executionError(err error) *apierrors.PipelineError {
	if errors.Is(err, sqlgen.ErrNotReadOnly) {
		return apierrors.Wrap(err, apierrors.ErrCodeNotReadOnly, "statement is not read-only")
	}
	return apierrors.Wrap(err, apierrors.ErrCodeExecutionFailed, "execution failed")
}

// pipelineError maps error codes to HTTP statuses.
func (s *APIV1Service) pipelineError(c echo.Context, perr *apierrors.PipelineError) error {
	status := http.StatusInternalServerError
	switch perr.Code {
	case apierrors.ErrCodeInvalidArgument,
		apierrors.ErrCodeTemporalResolution,
		apierrors.ErrCodeNotReadOnly:
		status = http.StatusBadRequest
	case apierrors.ErrCodeTenantNotFound:
		status = http.StatusNotFound
	case apierrors.ErrCodeLLMUnavailable:
		status = http.StatusServiceUnavailable
	case apierrors.ErrCodeRateLimitExceeded:
		status = http.StatusTooManyRequests
	}
	return jsonError(c, status, perr)
}

func (s *APIV1Service) recordSuccess(c echo.Context, reqCtx *observability.RequestContext, tenant *store.Tenant, question string, detection *queryengine.Result, sql string) {
	s.logQuery(c, reqCtx, tenant, question, detection, sql, store.QueryLogStatusOK, "")
}

func (s *APIV1Service) recordFailure(c echo.Context, reqCtx *observability.RequestContext, tenant *store.Tenant, operation, question string, detection *queryengine.Result, sql string, perr *apierrors.PipelineError) {
	s.metrics.RecordFailure(operation)
	reqCtx.Error("request failed", perr,
		slog.String(observability.LogFieldErrorCode, string(perr.Code)))

	status := store.QueryLogStatusFailed
	if perr.Code == apierrors.ErrCodeNotReadOnly {
		status = store.QueryLogStatusRejected
	}
	s.logQuery(c, reqCtx, tenant, question, detection, sql, status, perr.Message)
}

func (s *APIV1Service) logQuery(c echo.Context, reqCtx *observability.RequestContext, tenant *store.Tenant, question string, detection *queryengine.Result, sql string, status store.QueryLogStatus, errMsg string) {
	log := &store.QueryLog{
		TenantID:     tenant.ID,
		Question:     question,
		GeneratedSQL: sql,
		Status:       status,
		ErrorMessage: errMsg,
		DurationMs:   reqCtx.DurationMs(),
	}
	if detection != nil {
		log.ContentQuery = detection.ContentQuery
		for _, d := range detection.Detections {
			log.DetectedPhrases = append(log.DetectedPhrases, d.Phrase)
		}
	}
	if _, err := s.Store.CreateQueryLog(c.Request().Context(), log); err != nil {
		reqCtx.Warn("failed to record query log", slog.String("error", err.Error()))
	}
}
