package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/gridsql/internal/engine"
	"github.com/leapstack-labs/gridsql/internal/mutate"
	"github.com/leapstack-labs/gridsql/internal/query"
	"github.com/leapstack-labs/gridsql/internal/testutil"
	"github.com/leapstack-labs/gridsql/pkg/adapter"
	"github.com/leapstack-labs/gridsql/pkg/core"
)

func newLedgerServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	logger := testutil.NewTestLogger(t)

	e, err := engine.Open(context.Background(), engine.Config{
		Adapter: adapter.Config{Type: "sqlite", Path: testutil.NewLedgerDB(t)},
		Logger:  logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })

	cfg.Service = e
	cfg.Logger = logger
	return NewServer(cfg)
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestListTablesAndColumns(t *testing.T) {
	s := newLedgerServer(t, Config{})

	rec, body := do(t, s, http.MethodGet, "/api/tables", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"accounts", "ledger"}, body["tables"])

	rec, body = do(t, s, http.MethodGet, "/api/tables/accounts/columns", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cols := body["columns"].([]any)
	require.Len(t, cols, 2)
	assert.Equal(t, "id", cols[0].(map[string]any)["name"])

	rec, body = do(t, s, http.MethodGet, "/api/tables/missing/columns", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown_table", body["error"])
}

func TestQuery(t *testing.T) {
	s := newLedgerServer(t, Config{MaxLimit: 2})

	tests := []struct {
		name      string
		body      string
		wantCode  int
		wantError string
		wantRows  int
	}{
		{
			name:     "filter and sort",
			body:     `{"limit": 10, "sort": {"column": "amount", "direction": "desc"}, "filterModel": {"account": {"filter": "bank", "filterType": "text", "type": "equals"}}}`,
			wantCode: http.StatusOK,
			wantRows: 2,
		},
		{
			name:     "limit clamped",
			body:     `{"limit": 500}`,
			wantCode: http.StatusOK,
			wantRows: 2,
		},
		{
			name:      "limit required",
			body:      `{}`,
			wantCode:  http.StatusBadRequest,
			wantError: "invalid_options",
		},
		{
			name:      "unknown filter column",
			body:      `{"limit": 5, "filterModel": {"nope": {"filter": "x", "filterType": "text"}}}`,
			wantCode:  http.StatusBadRequest,
			wantError: "unknown_column",
		},
		{
			name:      "malformed filter",
			body:      `{"limit": 5, "filterModel": {"amount": {"filter": "abc", "filterType": "number", "type": "greaterThan"}}}`,
			wantCode:  http.StatusBadRequest,
			wantError: "malformed_filter",
		},
		{
			name:      "invalid aggregate",
			body:      `{"limit": 5, "groupBy": "region", "aggregates": [{"column": "amount", "agg": "MEDIAN"}]}`,
			wantCode:  http.StatusBadRequest,
			wantError: "invalid_aggregate",
		},
		{
			name:      "bad json",
			body:      `{"limit": `,
			wantCode:  http.StatusBadRequest,
			wantError: "bad_request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := do(t, s, http.MethodPost, "/api/tables/ledger/query", tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
				assert.NotEmpty(t, body["message"])
				return
			}
			assert.Len(t, body["rows"], tt.wantRows)
		})
	}
}

func TestEditsThenQuery(t *testing.T) {
	s := newLedgerServer(t, Config{})

	rec, body := do(t, s, http.MethodPost, "/api/tables/ledger/edits",
		`{"edits": [{"data": {"transaction_id": "T4"}, "colId": "amount", "value": 25},
		            {"data": {"transaction_id": "T404"}, "colId": "amount", "value": 1}]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	results := body["results"].([]any)
	require.Len(t, results, 2)
	assert.Equal(t, "applied", results[0].(map[string]any)["status"])
	assert.Equal(t, "no_match", results[1].(map[string]any)["status"])

	rec, body = do(t, s, http.MethodPost, "/api/tables/ledger/query",
		`{"limit": 1, "filterModel": {"transaction_id": {"filter": "T4", "filterType": "text", "type": "equals"}}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := body["rows"].([]any)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 25, rows[0].(map[string]any)["amount"])
}

func TestEditsRateLimited(t *testing.T) {
	s := newLedgerServer(t, Config{EditRate: 0.001, EditBurst: 1})
	body := `{"edits": []}`

	rec, _ := do(t, s, http.MethodPost, "/api/tables/ledger/edits", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, out := do(t, s, http.MethodPost, "/api/tables/ledger/edits", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limit_exceeded", out["error"])
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Reads are not limited.
	rec, _ = do(t, s, http.MethodGet, "/api/tables", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChecks(t *testing.T) {
	s := newLedgerServer(t, Config{})

	rec, body := do(t, s, http.MethodGet, "/api/tables/ledger/checks/duplicates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"transaction_id", "duplicate_count"}, body["columns"])

	rec, body = do(t, s, http.MethodGet, "/api/tables/ledger/checks/orphans", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "unknown_check", body["error"])

	rec, body = do(t, s, http.MethodGet, "/api/tables/accounts/checks/invalid-debit-credit", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown_column", body["error"])
}

func TestHealthAndMetrics(t *testing.T) {
	s := newLedgerServer(t, Config{})

	rec, body := do(t, s, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	do(t, s, http.MethodGet, "/api/tables", "")
	rec, _ = do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "gridsql_http_requests_total")
}

func TestCORS(t *testing.T) {
	s := newLedgerServer(t, Config{CORSOrigins: []string{"http://grid.local"}})

	req := httptest.NewRequest(http.MethodGet, "/api/tables", nil)
	req.Header.Set("Origin", "http://grid.local")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://grid.local", rec.Header().Get("Access-Control-Allow-Origin"))
}

type failingService struct{ err error }

func (f failingService) ListTables() []string { return nil }
func (f failingService) GetColumns(string) ([]core.Column, error) {
	return nil, f.err
}
func (f failingService) RunQuery(context.Context, string, query.Options) (*core.QueryResult, error) {
	return nil, f.err
}
func (f failingService) ApplyEdits(context.Context, string, []mutate.EditDescriptor) ([]mutate.EditResult, error) {
	return nil, f.err
}
func (f failingService) RunCheck(context.Context, string, string) (*core.QueryResult, error) {
	return nil, f.err
}
func (f failingService) Ping(context.Context) error { return f.err }

func TestDataSourceErrors(t *testing.T) {
	dsErr := core.WrapDataSource("query", errors.New("dial tcp 10.0.0.1:5432: connection refused"))
	s := NewServer(Config{Service: failingService{err: dsErr}})

	rec, body := do(t, s, http.MethodPost, "/api/tables/ledger/query", `{"limit": 1}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "data_source", body["error"])
	assert.Equal(t, "connectivity", body["kind"])
	assert.NotContains(t, body["message"], "10.0.0.1")

	rec, _ = do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	s = NewServer(Config{Service: failingService{err: errors.New("boom")}})
	rec, body = do(t, s, http.MethodGet, "/api/tables/ledger/columns", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal", body["error"])
}

func TestServeListenerShutsDown(t *testing.T) {
	s := newLedgerServer(t, Config{ShutdownTimeout: time.Second})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ServeListener(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRateLimiterSweep(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	ok, _ := rl.AllowWithRetry("10.0.0.1")
	require.True(t, ok)

	rl.sweep(time.Now().Add(10 * time.Minute))
	assert.Empty(t, rl.limiters)
}
