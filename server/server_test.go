package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacewh/spacewh/center"
	"github.com/spacewh/spacewh/core"
	"github.com/spacewh/spacewh/engine"
	"github.com/spacewh/spacewh/logging"
	"github.com/spacewh/spacewh/tool"
)

// blockingCouncil parks every request until released so runs stay
// observable through the active-request endpoints.
type blockingCouncil struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingCouncil() *blockingCouncil {
	return &blockingCouncil{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (b *blockingCouncil) ProcessRequest(ctx context.Context, _ core.CouncilRequest) (*core.CouncilResponse, error) {
	b.started <- struct{}{}
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &core.CouncilResponse{Response: "late answer"}, nil
}

type failingRetriever struct{}

func (failingRetriever) Query(context.Context, core.RetrievalQuery) (*core.RetrievalResult, error) {
	return nil, errors.New("index offline")
}

func doRequest(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader = http.NoBody
	if body != "" {
		rd = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

// -------------------- Router Tests --------------------

func TestRouterRootAndHealth(t *testing.T) {
	r := NewRouter(RouterConfig{Control: engine.NewControl()})

	rec := doRequest(t, r, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.JSONEq(t, `{"message": "System Engine Control API"}`, rec.Body.String())

	rec = doRequest(t, r, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestRouterOptionalRoutesNotMounted(t *testing.T) {
	r := NewRouter(RouterConfig{Control: engine.NewControl()})

	rec := doRequest(t, r, http.MethodGet, "/tools", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, r, http.MethodGet, "/components", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, r, http.MethodGet, "/alerts", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// -------------------- Process Tests --------------------

func TestProcessEndpoint(t *testing.T) {
	r := NewRouter(RouterConfig{Control: engine.NewControl()})

	body := `{"user_id": "u-1", "message": "hello", "mode": "archivist"}`
	rec := doRequest(t, r, http.MethodPost, "/process", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp engine.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "[Engine 1] Response to: hello", resp.Response)
	assert.Equal(t, "u-1", resp.UserID)
	assert.Empty(t, resp.Err)
}

func TestProcessEndpointRejectsMalformedBody(t *testing.T) {
	r := NewRouter(RouterConfig{Control: engine.NewControl()})

	rec := doRequest(t, r, http.MethodPost, "/process", "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid JSON body")
}

func TestProcessEndpointValidatesFields(t *testing.T) {
	r := NewRouter(RouterConfig{Control: engine.NewControl()})

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "missing user", body: `{"message": "hi"}`, want: "user_id"},
		{name: "blank message", body: `{"user_id": "u-1", "message": "  "}`, want: "message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, r, http.MethodPost, "/process", tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestProcessEndpointEngineErrorStays200(t *testing.T) {
	control := engine.NewControl(func(o *engine.ControlOptions) {
		o.Retriever = failingRetriever{}
	})
	r := NewRouter(RouterConfig{Control: control})

	body := `{"user_id": "u-2", "message": "find it", "mode": "orchestrator"}`
	rec := doRequest(t, r, http.MethodPost, "/process", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp engine.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Error in Engine 2: retrieval failed: index offline", resp.Err)
	assert.Contains(t, resp.Response, "encountered an error")
}

func TestStatusEndpoint(t *testing.T) {
	control := engine.NewControl(func(o *engine.ControlOptions) {
		o.Tools = tool.NewSystem()
	})
	r := NewRouter(RouterConfig{Control: control})

	rec := doRequest(t, r, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status engine.SystemStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "operational", status.Status)
	assert.Zero(t, status.ActiveRequests)
	assert.Equal(t, "operational", status.Components["engine_1"])
	assert.Equal(t, "operational", status.Components["tools"])
	assert.Equal(t, "not_connected", status.Components["ai_council"])
}

func TestActiveRequestsEndpointEmpty(t *testing.T) {
	r := NewRouter(RouterConfig{Control: engine.NewControl()})

	rec := doRequest(t, r, http.MethodGet, "/active-requests", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"active_requests": []}`, rec.Body.String())
}

func TestCancelRequestLifecycle(t *testing.T) {
	council := newBlockingCouncil()
	control := engine.NewControl(func(o *engine.ControlOptions) {
		o.Council = council
	})
	r := NewRouter(RouterConfig{Control: control})

	done := make(chan *engine.Response, 1)
	go func() {
		done <- control.ProcessRequest(context.Background(), engine.Request{
			UserID:  "u-9",
			Message: "work",
			Mode:    "godfather",
		})
	}()

	select {
	case <-council.started:
	case <-time.After(2 * time.Second):
		t.Fatal("council never started")
	}

	rec := doRequest(t, r, http.MethodGet, "/active-requests", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		ActiveRequests []engine.ActiveRequest `json:"active_requests"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Len(t, listing.ActiveRequests, 1)

	id := listing.ActiveRequests[0].RequestID
	assert.True(t, strings.HasPrefix(id, "u-9_"))
	assert.Equal(t, "godfather", listing.ActiveRequests[0].Mode)

	rec = doRequest(t, r, http.MethodDelete, "/requests/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"message": "Request %s cancelled"}`, id), rec.Body.String())

	// The run is no longer active, so a second cancel finds nothing.
	rec = doRequest(t, r, http.MethodDelete, "/requests/"+id, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), fmt.Sprintf("Request %s not found or not active", id))

	close(council.release)
	select {
	case resp := <-done:
		assert.Equal(t, "late answer", resp.Response)
	case <-time.After(2 * time.Second):
		t.Fatal("request never finished")
	}
}

func TestCancelUnknownRequest(t *testing.T) {
	r := NewRouter(RouterConfig{Control: engine.NewControl()})

	rec := doRequest(t, r, http.MethodDelete, "/requests/ghost", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Request ghost not found or not active")
}

func TestProcessRateLimit(t *testing.T) {
	r := NewRouter(RouterConfig{
		Control:      engine.NewControl(),
		ProcessLimit: RateLimitConfig{RequestLimit: 2, WindowLength: time.Minute},
	})

	body := `{"user_id": "u-1", "message": "hi"}`
	for i := 0; i < 2; i++ {
		rec := doRequest(t, r, http.MethodPost, "/process", body)
		require.Equal(t, http.StatusOK, rec.Code, "request %d should be allowed", i+1)
	}

	rec := doRequest(t, r, http.MethodPost, "/process", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rate limit exceeded")

	// Read-only routes are not limited.
	rec = doRequest(t, r, http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

// -------------------- Tools Tests --------------------

func TestToolsEndpoint(t *testing.T) {
	r := NewRouter(RouterConfig{Control: engine.NewControl(), Tools: tool.NewSystem()})

	rec := doRequest(t, r, http.MethodGet, "/tools", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var listing struct {
		Mode  string             `json:"mode"`
		Tools []core.ToolSummary `json:"tools"`
		Count int                `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.Equal(t, "archivist", listing.Mode)
	assert.Equal(t, len(listing.Tools), listing.Count)

	names := make([]string, 0, len(listing.Tools))
	for _, s := range listing.Tools {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "echo")
	assert.Contains(t, names, "system_info")

	rec = doRequest(t, r, http.MethodGet, "/tools?mode=ENTITY", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	assert.Equal(t, "entity", listing.Mode)
}

func TestToolsEndpointUnknownMode(t *testing.T) {
	r := NewRouter(RouterConfig{Control: engine.NewControl(), Tools: tool.NewSystem()})

	rec := doRequest(t, r, http.MethodGet, "/tools?mode=sorcerer", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown mode: sorcerer")
}

// -------------------- Center Tests --------------------

func TestComponentsAndAlertsEndpoints(t *testing.T) {
	c := center.New()
	c.RegisterComponent("retrieval", core.StatusOperational, "knowledge index")
	c.CreateAlert(context.Background(), core.AlertWarning, "Latency rising", "p99 above budget", "retrieval", nil)

	r := NewRouter(RouterConfig{Control: engine.NewControl(), Center: c})

	rec := doRequest(t, r, http.MethodGet, "/components", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var comps struct {
		Components map[string]*core.Component `json:"components"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &comps))
	require.Contains(t, comps.Components, "retrieval")
	assert.Equal(t, core.StatusOperational, comps.Components["retrieval"].Status)

	rec = doRequest(t, r, http.MethodGet, "/alerts", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var alerts struct {
		Alerts []*core.Alert `json:"alerts"`
		Count  int           `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alerts))
	require.Equal(t, 1, alerts.Count)
	assert.Equal(t, "Latency rising", alerts.Alerts[0].Title)

	rec = doRequest(t, r, http.MethodGet, "/alerts?level=critical", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alerts))
	assert.Zero(t, alerts.Count)

	rec = doRequest(t, r, http.MethodGet, "/alerts?component=engine", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alerts))
	assert.Zero(t, alerts.Count)
}

func TestAlertsEndpointUnknownLevel(t *testing.T) {
	r := NewRouter(RouterConfig{Control: engine.NewControl(), Center: center.New()})

	rec := doRequest(t, r, http.MethodGet, "/alerts?level=apocalyptic", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown alert level: apocalyptic")
}

// -------------------- Middleware Tests --------------------

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.True(t, strings.HasPrefix(seen, "req_"))
	assert.Equal(t, seen, rec.Header().Get("X-Request-Id"))

	// A caller-supplied ID is kept.
	req = httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	req.Header.Set("X-Request-Id", "req_given")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req_given", seen)
	assert.Equal(t, "req_given", rec.Header().Get("X-Request-Id"))
}

func TestRecoveryMiddleware(t *testing.T) {
	h := Recovery(logging.NoOpLogger{})(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "an unexpected error occurred")
}

// -------------------- Server Tests --------------------

func TestServerRunGracefulShutdown(t *testing.T) {
	srv := New(NewRouter(RouterConfig{Control: engine.NewControl()}), func(o *Options) {
		o.Addr = "127.0.0.1:0"
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server never shut down")
	}
}
