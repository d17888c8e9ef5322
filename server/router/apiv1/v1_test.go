package apiv1

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqltalk/sqltalk/internal/profile"
	"github.com/sqltalk/sqltalk/server/ai"
	"github.com/sqltalk/sqltalk/server/sqlrunner"
	"github.com/sqltalk/sqltalk/store"
	teststore "github.com/sqltalk/sqltalk/store/test"
)

// fakeAI satisfies AIClient with canned responses.
type fakeAI struct {
	chatResponse string

	lastMessages []ai.Message
}

func (f *fakeAI) Embed(_ context.Context, _ string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (f *fakeAI) Chat(_ context.Context, messages []ai.Message) (string, error) {
	f.lastMessages = messages
	return f.chatResponse, nil
}

type testEnv struct {
	echo    *echo.Echo
	store   *store.Store
	service *APIV1Service
	ai      *fakeAI
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s := teststore.NewStore(context.Background(), t)
	runner := sqlrunner.NewRunner(nil)
	t.Cleanup(func() { _ = runner.Close() })

	fake := &fakeAI{}
	service := NewAPIV1Service(testProfile(), s, runner, fake)

	e := echo.New()
	service.Register(e)

	return &testEnv{echo: e, store: s, service: service, ai: fake}
}

func testProfile() *profile.Profile {
	return &profile.Profile{Mode: "dev", Driver: "sqlite"}
}

// newWarehouseTenant creates a tenant whose warehouse is a seeded
// sqlite file.
func newWarehouseTenant(t *testing.T, env *testEnv) *store.Tenant {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "warehouse.db")
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE orders (id INTEGER PRIMARY KEY, amount REAL, created_at TEXT);
		INSERT INTO orders (id, amount, created_at) VALUES
			(1, 10.0, '2024-09-23 08:00:00'),
			(2, 20.0, '2024-09-24 09:30:00');
	`)
	require.NoError(t, err)

	tenant, err := env.store.CreateTenant(context.Background(), &store.Tenant{
		Name:      "warehouse",
		Driver:    "sqlite",
		DSN:       dsn,
		Dialect:   "sqlite",
		Timezone:  "Asia/Jakarta",
		WeekStart: "monday",
	})
	require.NoError(t, err)
	return tenant
}

func doJSON(t *testing.T, e *echo.Echo, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestAskEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	tenant := newWarehouseTenant(t, env)
	env.ai.chatResponse = "SELECT COUNT(*) AS n FROM orders"

	rec := doJSON(t, env.echo, http.MethodPost, "/api/v1/ask", map[string]string{
		"tenant_uid": tenant.UID,
		"question":   "berapa banyak pesanan minggu lalu",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[askResponse](t, rec)
	assert.Equal(t, "SELECT COUNT(*) AS n FROM orders", resp.SQL)
	assert.Equal(t, "pesanan", resp.ContentQuery)
	require.Len(t, resp.TemporalHints, 1)
	assert.Equal(t, "minggu lalu", resp.TemporalHints[0].Phrase)
	assert.Contains(t, resp.TemporalHints[0].Predicate, ">=")
	assert.Contains(t, resp.TemporalHints[0].Predicate, "<")
	require.NotNil(t, resp.Result)
	assert.Equal(t, 1, resp.Result.RowCount)

	// The model saw the pre-resolved predicate, not a raw phrase.
	require.Len(t, env.ai.lastMessages, 2)
	assert.Contains(t, env.ai.lastMessages[1].Content, "TEMPORAL CONSTRAINTS")
	assert.Contains(t, env.ai.lastMessages[1].Content, resp.TemporalHints[0].Predicate)

	// The request was recorded.
	logs, err := env.store.ListQueryLogs(context.Background(), &store.FindQueryLog{TenantID: &tenant.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, store.QueryLogStatusOK, logs[0].Status)
	assert.Equal(t, []string{"minggu lalu"}, logs[0].DetectedPhrases)
}

func TestAskUnknownTenant(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.echo, http.MethodPost, "/api/v1/ask", map[string]string{
		"tenant_uid": "missing",
		"question":   "anything",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAskRejectsMutatingGeneration(t *testing.T) {
	env := newTestEnv(t)
	tenant := newWarehouseTenant(t, env)
	env.ai.chatResponse = "DROP TABLE orders"

	rec := doJSON(t, env.echo, http.MethodPost, "/api/v1/ask", map[string]string{
		"tenant_uid": tenant.UID,
		"question":   "remove everything",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decode[errorResponse](t, rec)
	assert.Equal(t, "NOT_READ_ONLY", string(resp.Code))

	logs, err := env.store.ListQueryLogs(context.Background(), &store.FindQueryLog{TenantID: &tenant.ID})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, store.QueryLogStatusRejected, logs[0].Status)
}

func TestGenerateSQLDoesNotExecute(t *testing.T) {
	env := newTestEnv(t)
	tenant := newWarehouseTenant(t, env)
	env.ai.chatResponse = "SELECT id FROM orders"

	rec := doJSON(t, env.echo, http.MethodPost, "/api/v1/sql", map[string]string{
		"tenant_uid": tenant.UID,
		"question":   "list order ids this month",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[sqlResponse](t, rec)
	assert.Equal(t, "SELECT id FROM orders", resp.SQL)
	require.Len(t, resp.TemporalHints, 1)
	assert.Equal(t, "this month", resp.TemporalHints[0].Phrase)
	assert.NotContains(t, rec.Body.String(), `"result"`)
}

func TestExecuteGuardrail(t *testing.T) {
	env := newTestEnv(t)
	tenant := newWarehouseTenant(t, env)

	rec := doJSON(t, env.echo, http.MethodPost, "/api/v1/execute", map[string]string{
		"tenant_uid": tenant.UID,
		"sql":        "DELETE FROM orders",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, env.echo, http.MethodPost, "/api/v1/execute", map[string]string{
		"tenant_uid": tenant.UID,
		"sql":        "SELECT COUNT(*) AS n FROM orders",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decode[sqlrunner.Result](t, rec)
	assert.Equal(t, 1, result.RowCount)
}

func TestAskWithoutLLM(t *testing.T) {
	s := teststore.NewStore(context.Background(), t)
	runner := sqlrunner.NewRunner(nil)
	t.Cleanup(func() { _ = runner.Close() })

	service := NewAPIV1Service(testProfile(), s, runner, nil)
	e := echo.New()
	service.Register(e)

	tenant, err := s.CreateTenant(context.Background(), &store.Tenant{
		Name: "w", Driver: "sqlite", DSN: ":memory:", Dialect: "sqlite",
		Timezone: "UTC", WeekStart: "monday",
	})
	require.NoError(t, err)

	rec := doJSON(t, e, http.MethodPost, "/api/v1/ask", map[string]string{
		"tenant_uid": tenant.UID,
		"question":   "anything",
	})
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTrainAndListAndDelete(t *testing.T) {
	env := newTestEnv(t)
	tenant := newWarehouseTenant(t, env)

	rec := doJSON(t, env.echo, http.MethodPost, "/api/v1/train", map[string]any{
		"tenant_uid": tenant.UID,
		"items": []map[string]string{
			{"kind": "ddl", "content": "CREATE TABLE orders (id INTEGER)"},
			{"kind": "sql_pair", "question": "order count", "content": "SELECT COUNT(*) FROM orders"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	created := decode[trainResponse](t, rec)
	require.Len(t, created.Created, 2)

	rec = doJSON(t, env.echo, http.MethodGet, "/api/v1/training-data?tenant_uid="+tenant.UID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	items := decode[[]*trainingItemResponse](t, rec)
	require.Len(t, items, 2)
	assert.NotContains(t, rec.Body.String(), "embedding")

	rec = doJSON(t, env.echo, http.MethodGet,
		"/api/v1/training-data?tenant_uid="+tenant.UID+"&kind=ddl", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]*trainingItemResponse](t, rec), 1)

	rec = doJSON(t, env.echo, http.MethodDelete, "/api/v1/training-data/"+created.Created[0], nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, env.echo, http.MethodGet, "/api/v1/training-data?tenant_uid="+tenant.UID, nil)
	assert.Len(t, decode[[]*trainingItemResponse](t, rec), 1)
}

func TestTrainRejectsUnknownKind(t *testing.T) {
	env := newTestEnv(t)
	tenant := newWarehouseTenant(t, env)

	rec := doJSON(t, env.echo, http.MethodPost, "/api/v1/train", map[string]any{
		"tenant_uid": tenant.UID,
		"items":      []map[string]string{{"kind": "schema", "content": "x"}},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTenantLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.echo, http.MethodPost, "/api/v1/tenants", map[string]string{
		"name":     "analytics",
		"driver":   "duckdb",
		"dsn":      "/data/analytics.duckdb",
		"timezone": "Asia/Jakarta",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	created := decode[tenantResponse](t, rec)
	assert.NotEmpty(t, created.UID)
	assert.Equal(t, "duckdb", created.Dialect) // defaults to the driver
	assert.Equal(t, "monday", created.WeekStart)
	assert.False(t, strings.Contains(rec.Body.String(), "/data/analytics.duckdb"),
		"DSN must not be echoed")

	rec = doJSON(t, env.echo, http.MethodGet, "/api/v1/tenants", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]*tenantResponse](t, rec), 1)

	rec = doJSON(t, env.echo, http.MethodDelete, "/api/v1/tenants/"+created.UID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, env.echo, http.MethodGet, "/api/v1/tenants", nil)
	assert.Len(t, decode[[]*tenantResponse](t, rec), 0)
}

func TestCreateTenantValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing name", map[string]string{"driver": "sqlite", "dsn": "x"}},
		{"bad driver", map[string]string{"name": "a", "driver": "clickhouse", "dsn": "x"}},
		{"bad timezone", map[string]string{"name": "a", "driver": "sqlite", "dsn": "x", "timezone": "Mars/Olympus"}},
		{"bad week start", map[string]string{"name": "a", "driver": "sqlite", "dsn": "x", "week_start": "friday"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, env.echo, http.MethodPost, "/api/v1/tenants", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)

	rec := doJSON(t, env.echo, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[healthzResponse](t, rec)
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.LLM)
}
