package engine

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spacewh/spacewh/core"
	"github.com/spacewh/spacewh/crew"
	"github.com/spacewh/spacewh/knowledge"
	"github.com/spacewh/spacewh/model"
	"github.com/spacewh/spacewh/tool"
)

// blockingCouncil holds a request open until released, so tests can observe
// a run while it is still processing.
type blockingCouncil struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingCouncil() *blockingCouncil {
	return &blockingCouncil{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (b *blockingCouncil) ProcessRequest(ctx context.Context, _ core.CouncilRequest) (*core.CouncilResponse, error) {
	close(b.started)

	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return &core.CouncilResponse{Response: "late answer"}, nil
}

// -------------------- Control Tests --------------------

func TestProcessRequestSimulated(t *testing.T) {
	c := NewControl()

	resp := c.ProcessRequest(context.Background(), Request{UserID: "u-1", Message: "hello", Mode: "archivist"})

	require.NotNil(t, resp)
	assert.Equal(t, "[Engine 1] Response to: hello", resp.Response)
	assert.Equal(t, "u-1", resp.UserID)
	assert.Equal(t, []string{"basic_search"}, resp.ToolsUsed)
	assert.GreaterOrEqual(t, resp.ProcessingTimeMS, 0.0)
	assert.Empty(t, resp.Err)
	assert.Empty(t, c.ActiveRequests())
}

func TestProcessRequestDefaultsMode(t *testing.T) {
	c := NewControl()

	resp := c.ProcessRequest(context.Background(), Request{UserID: "u-1", Message: "hello"})

	assert.Equal(t, "[Engine 1] Response to: hello", resp.Response)

	c.mu.RLock()
	defer c.mu.RUnlock()

	require.Len(t, c.runs, 1)
	for id, r := range c.runs {
		assert.True(t, strings.HasPrefix(id, "u-1_"))
		assert.Equal(t, "archivist", r.mode)
		assert.Equal(t, statusCompleted, r.status)
	}
}

func TestProcessRequestUnknownMode(t *testing.T) {
	c := NewControl()

	resp := c.ProcessRequest(context.Background(), Request{UserID: "u-1", Message: "hello", Mode: "quantum"})

	assert.Equal(t, "[Engine 1] Response to: hello", resp.Response)
	assert.Empty(t, resp.Err)
}

func TestProcessRequestPermissionDenied(t *testing.T) {
	deny := AuthorizerFunc(func(string, core.Mode) bool { return false })
	c := NewControl(func(o *ControlOptions) { o.Authorizer = deny })

	resp := c.ProcessRequest(context.Background(), Request{UserID: "u-2", Message: "escalate", Mode: "entity"})

	assert.Equal(t, "Permission denied: User u-2 does not have access to entity mode", resp.Err)

	// Denied requests are downgraded, not rejected.
	assert.Equal(t, "[Engine 1] Response to: escalate", resp.Response)
	assert.Equal(t, []string{"basic_search"}, resp.ToolsUsed)

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, r := range c.runs {
		assert.Equal(t, statusCompleted, r.status)
	}
}

func TestProcessRequestCouncilMetadata(t *testing.T) {
	council := &stubCouncil{}
	source := &stubToolSource{tools: []core.ToolSummary{{Name: "echo"}}}
	c := NewControl(func(o *ControlOptions) {
		o.Council = council
		o.Tools = source
	})

	resp := c.ProcessRequest(context.Background(), Request{UserID: "u-3", Message: "report", Mode: "godfather"})

	assert.Equal(t, "council answer", resp.Response)
	assert.Equal(t, true, resp.Metadata["ai_council"])
	assert.Equal(t, []string{"echo"}, resp.Metadata["available_tools"])
}

func TestProcessRequestPipelineFault(t *testing.T) {
	c := NewControl()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp := c.ProcessRequest(ctx, Request{
		UserID:   "u-4",
		Message:  "hello",
		Mode:     "archivist",
		Metadata: map[string]any{"origin": "test"},
	})

	assert.Equal(t, "An error occurred while processing your request.", resp.Response)
	assert.Contains(t, resp.Err, "context canceled")
	assert.Equal(t, map[string]any{"origin": "test"}, resp.Metadata)
	assert.Empty(t, resp.ToolsUsed)

	c.mu.RLock()
	defer c.mu.RUnlock()

	require.Len(t, c.runs, 1)
	for _, r := range c.runs {
		assert.Equal(t, statusFailed, r.status)
	}
}

func TestActiveRequestsAndCancel(t *testing.T) {
	council := newBlockingCouncil()
	c := NewControl(func(o *ControlOptions) { o.Council = council })

	respCh := make(chan *Response, 1)
	go func() {
		respCh <- c.ProcessRequest(context.Background(), Request{UserID: "u-5", Message: "slow one", Mode: "archivist"})
	}()

	<-council.started

	active := c.ActiveRequests()
	require.Len(t, active, 1)
	assert.True(t, strings.HasPrefix(active[0].RequestID, "u-5_"))
	assert.Equal(t, statusProcessing, active[0].Status)
	assert.Equal(t, "u-5", active[0].UserID)
	assert.Equal(t, "archivist", active[0].Mode)
	assert.GreaterOrEqual(t, active[0].DurationMS, 0.0)
	assert.False(t, active[0].StartedAt.IsZero())
	assert.Equal(t, 1, c.Status().ActiveRequests)

	id := active[0].RequestID
	assert.True(t, c.CancelRequest(id))
	assert.False(t, c.CancelRequest(id), "already cancelled")
	assert.False(t, c.CancelRequest("ghost_1"))
	assert.Empty(t, c.ActiveRequests())
	assert.Equal(t, 0, c.Status().ActiveRequests)

	// Cancellation is advisory: the run finishes and settles as completed.
	close(council.release)
	resp := <-respCh
	assert.Equal(t, "late answer", resp.Response)

	c.mu.RLock()
	defer c.mu.RUnlock()
	assert.Equal(t, statusCompleted, c.runs[id].status)
}

func TestStatusComponents(t *testing.T) {
	c := NewControl()
	status := c.Status()

	assert.Equal(t, "operational", status.Status)
	assert.Zero(t, status.ActiveRequests)
	assert.False(t, status.Timestamp.IsZero())
	assert.Equal(t, map[string]string{
		"engine_1":   "operational",
		"engine_2":   "operational",
		"engine_3":   "operational",
		"engine_4":   "in_development",
		"ai_council": "not_connected",
		"retrieval":  "not_connected",
		"tools":      "not_connected",
	}, status.Components)
}

func TestStatusConnectedComponents(t *testing.T) {
	c := NewControl(func(o *ControlOptions) {
		o.Council = &stubCouncil{}
		o.Retriever = &stubRetriever{}
		o.Tools = &stubToolSource{}
	})

	components := c.Status().Components

	assert.Equal(t, "operational", components["ai_council"])
	assert.Equal(t, "operational", components["retrieval"])
	assert.Equal(t, "operational", components["tools"])
	assert.Equal(t, "in_development", components["engine_4"])
}

func TestDurationMS(t *testing.T) {
	assert.Equal(t, 1.23, durationMS(1234567*time.Nanosecond))
	assert.Equal(t, 0.0, durationMS(0))
	assert.GreaterOrEqual(t, elapsedMS(time.Now()), 0.0)
}

// -------------------- Integration Tests --------------------

func TestProcessRequestFullStack(t *testing.T) {
	idx := knowledge.NewIndex()
	idx.Add(knowledge.Document{
		Title:   "Array calibration",
		Content: "Calibrate the sensor array from the west console after each cycle.",
	})

	system := tool.NewSystem()
	council := crew.NewCouncil(model.NewMockModel("gpt-4", "openai"))

	c := NewControl(func(o *ControlOptions) {
		o.Council = council
		o.Retriever = idx
		o.Tools = system
	})

	resp := c.ProcessRequest(context.Background(), Request{
		UserID:  "u-9",
		Message: "calibrate the array",
		Mode:    "entity",
	})

	require.NotNil(t, resp)
	assert.Empty(t, resp.Err)
	assert.Contains(t, resp.Response, "calibrate the array")

	require.NotEmpty(t, resp.ToolsUsed)
	assert.Equal(t, "rag_deep_query", resp.ToolsUsed[0])
	assert.Contains(t, resp.ToolsUsed, "echo")
	assert.Contains(t, resp.ToolsUsed, "system_info")

	assert.Equal(t, true, resp.Metadata["ai_council"])
	assert.Equal(t, true, resp.Metadata["rag_used"])
	assert.Equal(t, true, resp.Metadata["persistent_memory"])
	assert.Contains(t, resp.Metadata["available_tools"], "echo")

	assert.Equal(t, "operational", c.Status().Components["ai_council"])
}
