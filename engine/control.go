package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spacewh/spacewh/core"
	"github.com/spacewh/spacewh/logging"
)

// Run-tracking states for the request ledger.
const (
	statusProcessing = "processing"
	statusCompleted  = "completed"
	statusFailed     = "failed"
	statusCancelled  = "cancelled"
)

// Component states reported by Status.
const (
	componentOperational   = "operational"
	componentInDevelopment = "in_development"
	componentNotConnected  = "not_connected"
)

// ControlOptions configures a Control.
type ControlOptions struct {
	// Logger receives structured request logs. Defaults to a no-op logger.
	Logger logging.Logger

	// Authorizer guards mode access. A nil authorizer grants every request.
	Authorizer ModeAuthorizer

	// Council, Retriever and Tools are handed to the dispatcher. Any of
	// them may be nil; Status reports disconnected collaborators.
	Council   core.Council
	Retriever core.Retriever
	Tools     core.ToolSource
}

// Control coordinates request processing end to end. It owns the stage
// pipeline and an in-memory ledger of every request it has seen; the ledger
// backs status reporting, active-request listing and advisory cancellation.
// Settled entries stay in the ledger for the lifetime of the process.
type Control struct {
	logger    logging.Logger
	stages    []Stage
	council   core.Council
	retriever core.Retriever
	tools     core.ToolSource

	mu   sync.RWMutex
	runs map[string]*run
}

// run tracks one request through its lifecycle.
type run struct {
	id      string
	status  string
	userID  string
	mode    string
	started time.Time
}

// NewControl creates a Control and assembles its pipeline: permission check,
// mode routing, tier dispatch.
func NewControl(optFns ...func(o *ControlOptions)) *Control {
	opts := ControlOptions{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	dispatcher := NewDispatcher(func(o *Options) {
		o.Logger = opts.Logger
		o.Council = opts.Council
		o.Retriever = opts.Retriever
		o.Tools = opts.Tools
	})

	return &Control{
		logger: opts.Logger,
		stages: []Stage{
			NewPermissionStage(opts.Authorizer, opts.Logger),
			NewRouteStage(opts.Logger),
			dispatcher,
		},
		council:   opts.Council,
		retriever: opts.Retriever,
		tools:     opts.Tools,
		runs:      make(map[string]*run),
	}
}

// ProcessRequest runs one request through the pipeline and returns its
// response. Request-level problems such as permission denials and engine
// failures come back inside the response with Err set and the run still
// counts as completed; only pipeline faults flip the tracked run to failed
// and produce the generic failure response.
func (c *Control) ProcessRequest(ctx context.Context, req Request) *Response {
	start := time.Now()

	if strings.TrimSpace(req.Mode) == "" {
		req.Mode = core.ModeArchivist.String()
	}

	id := fmt.Sprintf("%s_%d", req.UserID, start.Unix())

	c.mu.Lock()
	c.runs[id] = &run{id: id, status: statusProcessing, userID: req.UserID, mode: req.Mode, started: start}
	c.mu.Unlock()

	c.logger.Info("engine.request.start", "request_id", id, "user_id", req.UserID, "mode", req.Mode)

	state := newState(req)

	if err := c.runPipeline(ctx, state); err != nil {
		c.setStatus(id, statusFailed)
		c.logger.Error("engine.request.failed", "request_id", id, "error", err)
		c.logDispatch(state, time.Since(start), err)

		return &Response{
			Response:         "An error occurred while processing your request.",
			UserID:           req.UserID,
			ProcessingTimeMS: elapsedMS(start),
			Metadata:         req.Metadata,
			Err:              err.Error(),
		}
	}

	c.setStatus(id, statusCompleted)

	elapsed := time.Since(start)
	c.logger.Info("engine.request.complete", "request_id", id, "engine", state.CurrentEngine, "duration_ms", elapsed.Milliseconds())
	c.logDispatch(state, elapsed, nil)

	return &Response{
		Response:         state.Response,
		UserID:           state.UserID,
		ToolsUsed:        state.ToolsUsed,
		ProcessingTimeMS: elapsedMS(start),
		Metadata:         state.Metadata,
		Err:              state.Err,
	}
}

// runPipeline executes the stages in order, stopping at the first stage
// error or context cancellation.
func (c *Control) runPipeline(ctx context.Context, state *State) error {
	for _, stage := range c.stages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("stage %s aborted: %w", stage.Name(), err)
		}

		if err := stage.Process(ctx, state); err != nil {
			return fmt.Errorf("stage %s failed: %w", stage.Name(), err)
		}
	}

	return nil
}

// ActiveRequest is a point-in-time view of one in-flight request.
type ActiveRequest struct {
	RequestID  string    `json:"request_id"`
	Status     string    `json:"status"`
	UserID     string    `json:"user_id"`
	Mode       string    `json:"mode"`
	DurationMS float64   `json:"duration_ms"`
	StartedAt  time.Time `json:"started_at"`
}

// ActiveRequests lists requests still processing, oldest first.
func (c *Control) ActiveRequests() []ActiveRequest {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := time.Now()
	out := make([]ActiveRequest, 0)

	for _, r := range c.runs {
		if r.status != statusProcessing {
			continue
		}

		out = append(out, ActiveRequest{
			RequestID:  r.id,
			Status:     r.status,
			UserID:     r.userID,
			Mode:       r.mode,
			DurationMS: durationMS(now.Sub(r.started)),
			StartedAt:  r.started,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].RequestID < out[j].RequestID
		}

		return out[i].StartedAt.Before(out[j].StartedAt)
	})

	return out
}

// CancelRequest marks a processing request as cancelled in the ledger. The
// cancellation is advisory: in-flight work is not interrupted, and a run
// that settles afterwards overwrites the cancelled status. Returns false
// for unknown ids and for requests that already settled.
func (c *Control) CancelRequest(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.runs[id]
	if !ok || r.status != statusProcessing {
		return false
	}

	r.status = statusCancelled
	c.logger.Info("engine.request.cancelled", "request_id", id)

	return true
}

// SystemStatus is the operational banner returned by Status.
type SystemStatus struct {
	Status         string            `json:"status"`
	ActiveRequests int               `json:"active_requests"`
	Components     map[string]string `json:"components"`
	Timestamp      time.Time         `json:"timestamp"`
}

// Status reports the control layer's view of the system: how many requests
// are processing and which collaborators are connected. The top tier is
// reported as in development until its autonomous behaviors ship.
func (c *Control) Status() SystemStatus {
	c.mu.RLock()

	active := 0

	for _, r := range c.runs {
		if r.status == statusProcessing {
			active++
		}
	}

	c.mu.RUnlock()

	return SystemStatus{
		Status:         "operational",
		ActiveRequests: active,
		Components: map[string]string{
			Tier1.String(): componentOperational,
			Tier2.String(): componentOperational,
			Tier3.String(): componentOperational,
			Tier4.String(): componentInDevelopment,
			"ai_council":   connected(c.council != nil),
			"retrieval":    connected(c.retriever != nil),
			"tools":        connected(c.tools != nil),
		},
		Timestamp: time.Now(),
	}
}

func (c *Control) setStatus(id, status string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.runs[id]; ok {
		r.status = status
	}
}

// logDispatch feeds the engine-dispatch metrics hook when the configured
// logger provides one.
func (c *Control) logDispatch(state *State, dur time.Duration, err error) {
	metrics, ok := c.logger.(interface {
		LogEngineDispatch(engine string, toolsUsed int, dur time.Duration, success bool, err error)
	})
	if !ok {
		return
	}

	success := err == nil && state.Err == ""
	metrics.LogEngineDispatch(state.CurrentEngine, len(state.ToolsUsed), dur, success, err)
}

func connected(ok bool) string {
	if ok {
		return componentOperational
	}

	return componentNotConnected
}

// elapsedMS returns the time since start in milliseconds, rounded to two
// decimal places.
func elapsedMS(start time.Time) float64 {
	return durationMS(time.Since(start))
}

func durationMS(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*100) / 100
}
