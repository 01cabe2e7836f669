package server

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/spacewh/spacewh/center"
	"github.com/spacewh/spacewh/core"
	"github.com/spacewh/spacewh/engine"
	"github.com/spacewh/spacewh/logging"
)

// RouterConfig holds the collaborators and policies for the HTTP surface.
// Control is required; Tools and Center are optional, and their routes are
// only mounted when the collaborator is present.
type RouterConfig struct {
	Logger       logging.Logger
	Control      *engine.Control
	Tools        core.ToolSource
	Center       *center.Center
	ProcessLimit RateLimitConfig
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	// Global middleware - order matters
	r.Use(RequestID)             // Generate/propagate request ID first
	r.Use(RequestLogger(logger)) // Structured logging
	r.Use(Recovery(logger))      // Panic recovery
	r.Use(chimiddleware.RealIP)  // Real IP extraction

	opsHandler := NewOpsHandler()
	processHandler := NewProcessHandler(cfg.Control)

	r.Get("/", opsHandler.Root)
	r.Get("/healthz", opsHandler.Health)
	r.Get("/status", processHandler.Status)
	r.Get("/active-requests", processHandler.ActiveRequests)
	r.Delete("/requests/{requestID}", processHandler.Cancel)

	processLimit := cfg.ProcessLimit
	if processLimit.RequestLimit <= 0 {
		processLimit = ProcessRateLimit
	}
	r.Group(func(r chi.Router) {
		r.Use(RateLimitByIP(processLimit))
		r.Post("/process", processHandler.Process)
	})

	if cfg.Tools != nil {
		toolsHandler := NewToolsHandler(cfg.Tools)
		r.Get("/tools", toolsHandler.List)
	}

	if cfg.Center != nil {
		centerHandler := NewCenterHandler(cfg.Center)
		r.Get("/components", centerHandler.Components)
		r.Get("/alerts", centerHandler.Alerts)
	}

	return r
}
