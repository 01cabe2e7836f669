package crew

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spacewh/spacewh/core"
	"github.com/spacewh/spacewh/logging"
	"github.com/spacewh/spacewh/model"
)

// Options configures a Crew instance.
type Options struct {
	Logger logging.Logger

	// Limiter caps the total number of model calls the crew may make. A
	// nil limiter allows unlimited calls.
	Limiter *core.ModelLimiter
}

// Crew coordinates a set of role agents against a shared model backend.
//
// Tasks accumulate via AddTask and run together: sequentially with Run,
// where each agent sees the findings of the agents before it, or
// concurrently with RunParallel for independent probes. A crew is safe for
// concurrent use, but a single task queue is shared, so callers driving one
// crew from multiple goroutines should serialize reset/add/run cycles.
type Crew struct {
	name    string
	model   model.Model
	logger  logging.Logger
	limiter *core.ModelLimiter

	mu     sync.Mutex
	agents map[string]*Agent
	order  []string
	tasks  []Task
}

// RunError wraps a crew execution failure with the crew name.
type RunError struct {
	Crew string
	Err  error
}

// Error implements the error interface.
func (e *RunError) Error() string { return fmt.Sprintf("crew %s: %s", e.Crew, e.Err) }

// Unwrap exposes the underlying failure for errors.Is / errors.As.
func (e *RunError) Unwrap() error { return e.Err }

// TaskOutput pairs a completed task with the output its agent produced.
type TaskOutput struct {
	AgentName string `json:"agent"`
	Task      Task   `json:"task"`
	Output    string `json:"output"`
}

// Result collects the outputs of a crew run in task order.
type Result struct {
	Crew    string       `json:"crew"`
	Outputs []TaskOutput `json:"outputs"`
}

// Findings joins all task outputs into a single report body.
func (r *Result) Findings() string {
	parts := make([]string, 0, len(r.Outputs))
	for _, out := range r.Outputs {
		parts = append(parts, fmt.Sprintf("[%s] %s", out.AgentName, out.Output))
	}
	return strings.Join(parts, "\n\n")
}

// New creates a crew from the given agents. Agents are looked up by name
// when tasks run; registering two agents with the same name keeps the last
// one.
func New(name string, m model.Model, agents []*Agent, optFns ...func(*Options)) *Crew {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	c := &Crew{
		name:    name,
		model:   m,
		logger:  opts.Logger,
		limiter: opts.Limiter,
		agents:  make(map[string]*Agent),
	}

	for _, a := range agents {
		if a == nil {
			continue
		}
		if _, exists := c.agents[a.Name]; !exists {
			c.order = append(c.order, a.Name)
		}
		c.agents[a.Name] = a
	}

	return c
}

// Name returns the crew name.
func (c *Crew) Name() string { return c.name }

// Agent returns the named member profile or nil.
func (c *Crew) Agent(name string) *Agent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agents[name]
}

// AgentNames returns member names in registration order.
func (c *Crew) AgentNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

// AddTask appends a task to the crew's queue.
func (c *Crew) AddTask(task Task) {
	c.mu.Lock()
	c.tasks = append(c.tasks, task)
	c.mu.Unlock()

	c.logger.Info("crew.task.added", "crew", c.name, "agent", task.AgentName, "description", truncate(task.Description, 50))
}

// ResetTasks clears the crew's task queue.
func (c *Crew) ResetTasks() {
	c.mu.Lock()
	c.tasks = nil
	c.mu.Unlock()

	c.logger.Info("crew.tasks.reset", "crew", c.name)
}

// Tasks returns a snapshot of the queued tasks.
func (c *Crew) Tasks() []Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	tasks := make([]Task, len(c.tasks))
	copy(tasks, c.tasks)
	return tasks
}

// Run executes the queued tasks in order. Each task's output is appended to
// a shared transcript visible to later tasks, so agents build on each
// other's findings. Execution stops at the first failure.
func (c *Crew) Run(ctx context.Context) (*Result, error) {
	tasks := c.Tasks()
	if len(tasks) == 0 {
		c.logger.Warn("crew.run.no_tasks", "crew", c.name)
		return nil, &RunError{Crew: c.name, Err: errors.New("no tasks assigned")}
	}

	c.logger.Info("crew.run.start", "crew", c.name, "tasks", len(tasks))
	start := time.Now()

	result := &Result{Crew: c.name}
	var transcript []string

	for i, task := range tasks {
		output, err := c.executeTask(ctx, task, transcript)
		if err != nil {
			c.logger.Error("crew.task.error", "crew", c.name, "task", i, "agent", task.AgentName, "error", err)
			c.logRun(len(tasks), time.Since(start), err)
			return nil, &RunError{Crew: c.name, Err: err}
		}

		transcript = append(transcript, fmt.Sprintf("[%s] %s", task.AgentName, output))
		result.Outputs = append(result.Outputs, TaskOutput{AgentName: task.AgentName, Task: task, Output: output})
	}

	c.logger.Info("crew.run.complete", "crew", c.name, "tasks", len(tasks))
	c.logRun(len(tasks), time.Since(start), nil)

	return result, nil
}

// RunParallel executes the queued tasks concurrently. Tasks must be
// independent: no transcript is shared between them. Outputs are returned
// in task order; the first error encountered fails the whole run after all
// tasks finish.
func (c *Crew) RunParallel(ctx context.Context) (*Result, error) {
	tasks := c.Tasks()
	if len(tasks) == 0 {
		c.logger.Warn("crew.run.no_tasks", "crew", c.name)
		return nil, &RunError{Crew: c.name, Err: errors.New("no tasks assigned")}
	}

	c.logger.Info("crew.run.start", "crew", c.name, "tasks", len(tasks), "parallel", true)
	start := time.Now()

	outputs := make([]string, len(tasks))
	var wg sync.WaitGroup
	errCh := make(chan error, len(tasks))

	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task Task) {
			defer wg.Done()

			output, err := c.executeTask(ctx, task, nil)
			if err != nil {
				errCh <- fmt.Errorf("parallel execution failed for agent %s: %w", task.AgentName, err)
				return
			}
			outputs[i] = output
		}(i, task)
	}

	wg.Wait()
	close(errCh)

	if len(errCh) > 0 {
		err := <-errCh
		c.logger.Error("crew.run.error", "crew", c.name, "error", err)
		c.logRun(len(tasks), time.Since(start), err)
		return nil, &RunError{Crew: c.name, Err: err}
	}

	result := &Result{Crew: c.name}
	for i, task := range tasks {
		result.Outputs = append(result.Outputs, TaskOutput{AgentName: task.AgentName, Task: task, Output: outputs[i]})
	}

	c.logger.Info("crew.run.complete", "crew", c.name, "tasks", len(tasks))
	c.logRun(len(tasks), time.Since(start), nil)

	return result, nil
}

// executeTask resolves the task's agent, renders the prompt and performs a
// single model call. A non-nil transcript is prepended so the agent can
// build on earlier findings.
func (c *Crew) executeTask(ctx context.Context, task Task, transcript []string) (string, error) {
	agent := c.Agent(task.AgentName)
	if agent == nil {
		return "", fmt.Errorf("agent %s is not part of crew %s", task.AgentName, c.name)
	}

	prompt, err := task.Prompt()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if len(transcript) > 0 {
		sb.WriteString("Findings from preceding tasks:\n\n")
		sb.WriteString(strings.Join(transcript, "\n\n"))
		sb.WriteString("\n\n")
	}
	sb.WriteString(prompt)

	if c.limiter != nil {
		if err := c.limiter.Increment(); err != nil {
			return "", fmt.Errorf("model call rejected for agent %s: %w", task.AgentName, err)
		}
	}

	respCh, errCh := c.model.Generate(ctx, model.Request{
		Instructions: agent.Instructions(),
		Messages:     []model.Message{{Role: "user", Text: sb.String()}},
	})

	resp, err := model.Collect(respCh, errCh)
	if err != nil {
		return "", fmt.Errorf("model call failed for agent %s: %w", task.AgentName, err)
	}

	return resp.Message.Text, nil
}

// logRun reports run timing to loggers that track crew metrics.
func (c *Crew) logRun(tasks int, dur time.Duration, err error) {
	if cl, ok := c.logger.(interface {
		LogCrewRun(crew string, tasks int, dur time.Duration, success bool, err error)
	}); ok {
		cl.LogCrewRun(c.name, tasks, dur, err == nil, err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
