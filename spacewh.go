// Package spacewh provides a high-level façade over the platform
// subsystems (control center, engine control, tools system) enabling rapid
// construction of a running platform. Most applications interact with this
// package by:
//  1. Creating a Platform via New() (optionally wiring a council, retriever
//     and crews)
//  2. Processing user requests through ProcessRequest
//  3. Serving the HTTP surface from the server package with the Platform's
//     subsystems
//
// The façade delegates request handling to engine.Control while keeping
// setup ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a model-backed council
// and a structured logger.
package spacewh

import (
	"context"

	"github.com/spacewh/spacewh/artifact"
	"github.com/spacewh/spacewh/center"
	"github.com/spacewh/spacewh/core"
	"github.com/spacewh/spacewh/engine"
	"github.com/spacewh/spacewh/logging"
	"github.com/spacewh/spacewh/tool"
)

// Options configures the Platform instance.
type Options struct {
	// Logger is shared by every subsystem. Defaults to a no-op logger.
	Logger logging.Logger

	// CenterConfig tunes the control center ledgers.
	CenterConfig center.Config

	// Council and Retriever are the engine collaborators. Either may be
	// nil; the engines degrade per tier (simulated responses, skipped
	// retrieval).
	Council   core.Council
	Retriever core.Retriever

	// Authorizer guards engine mode access. Nil grants every request.
	Authorizer engine.ModeAuthorizer

	// Admin and Monitoring are the center's delegation crews. Nil crews
	// turn the corresponding operations into typed not-initialized
	// failures.
	Admin      center.AdminCrew
	Monitoring center.MonitoringCrew

	// Reports archives delegation findings (defaults to an in-memory
	// store).
	Reports core.ReportStore
}

// Platform is the high-level façade aggregating the platform subsystems.
type Platform struct {
	opts    Options
	center  *center.Center
	control *engine.Control
	tools   *tool.System
}

// New creates a new Platform instance with optional overrides. The tools
// system and report store default to in-memory implementations.
func New(optFns ...func(o *Options)) *Platform {
	opts := Options{
		Logger:       logging.NoOpLogger{},
		CenterConfig: center.DefaultConfig(),
		Reports:      artifact.NewInMemoryStore(),
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	tools := tool.NewSystem(func(o *tool.SystemOptions) {
		o.Logger = opts.Logger
	})

	control := engine.NewControl(func(o *engine.ControlOptions) {
		o.Logger = opts.Logger
		o.Authorizer = opts.Authorizer
		o.Council = opts.Council
		o.Retriever = opts.Retriever
		o.Tools = tools
	})

	c := center.New(func(o *center.Options) {
		o.Logger = opts.Logger
		o.Config = opts.CenterConfig
		o.Admin = opts.Admin
		o.Monitoring = opts.Monitoring
		o.Reports = opts.Reports
	})

	return &Platform{opts: opts, center: c, control: control, tools: tools}
}

// Center returns the control center.
func (p *Platform) Center() *center.Center { return p.center }

// Control returns the engine control layer.
func (p *Platform) Control() *engine.Control { return p.control }

// Tools returns the tools system.
func (p *Platform) Tools() *tool.System { return p.tools }

// ProcessRequest routes one user request through the engine pipeline.
func (p *Platform) ProcessRequest(ctx context.Context, req engine.Request) *engine.Response {
	return p.control.ProcessRequest(ctx, req)
}

// Status reports the engine control view of the system.
func (p *Platform) Status() engine.SystemStatus {
	return p.control.Status()
}
