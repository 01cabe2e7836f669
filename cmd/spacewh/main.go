package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/spacewh/spacewh"
	"github.com/spacewh/spacewh/center"
	"github.com/spacewh/spacewh/config"
	"github.com/spacewh/spacewh/core"
	"github.com/spacewh/spacewh/crew"
	"github.com/spacewh/spacewh/engine"
	"github.com/spacewh/spacewh/knowledge"
	"github.com/spacewh/spacewh/logging"
	"github.com/spacewh/spacewh/memory"
	"github.com/spacewh/spacewh/model"
	"github.com/spacewh/spacewh/model/anthropic"
	"github.com/spacewh/spacewh/model/openai"
	"github.com/spacewh/spacewh/server"
)

const (
	healthCheckInterval  = time.Hour
	alertCleanupInterval = 24 * time.Hour
)

var rootCmd = &cobra.Command{
	Use:   "spacewh",
	Short: "Space WH platform CLI",
	Long: `Space WH runs an AI agent platform: a control center for system
management, four processing engines gated by permission modes, and a
permission-aware tools system.

serve starts the HTTP API; status and tools query a running server;
config manages spacewh.yml.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("SPACEWH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("server", "http://localhost:8000", "server base URL for client commands")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(toolsCmd())
	rootCmd.AddCommand(configCmd())
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the platform HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			if cfg == nil {
				cfg = config.Default()
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			logger := logging.NewSlogLogger(cfg.LogLevel(), cfg.Logging.Format, false)

			p, err := buildPlatform(cfg, logger)
			if err != nil {
				return err
			}

			router := server.NewRouter(server.RouterConfig{
				Logger:  logger,
				Control: p.Control(),
				Tools:   p.Tools(),
				Center:  p.Center(),
				ProcessLimit: server.RateLimitConfig{
					RequestLimit: cfg.Server.ProcessRatePerMinute,
					WindowLength: time.Minute,
				},
			})
			srv := server.New(router, func(o *server.Options) {
				o.Logger = logger
				o.Addr = cfg.Server.Addr
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Printf("Serving Space WH API on %s\n", cfg.Server.Addr)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Run(ctx) })
			if cfg.Center.AutomatedTasks["health_check"] {
				g.Go(func() error { return runHealthChecks(ctx, p.Center(), healthCheckInterval) })
			}
			if cfg.Center.AutomatedTasks["alert_cleanup"] {
				g.Go(func() error { return runAlertCleanup(ctx, p.Center(), alertCleanupInterval) })
			}
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

// buildPlatform assembles the platform from config. A missing model API key
// degrades crew-backed features instead of failing startup.
func buildPlatform(cfg *config.Config, logger logging.Logger) (*spacewh.Platform, error) {
	var retriever core.Retriever
	if len(cfg.Knowledge.Seeds) > 0 {
		index := knowledge.NewIndex(func(o *knowledge.Options) { o.Logger = logger })
		for _, seed := range cfg.Knowledge.Seeds {
			index.Add(knowledge.Document{ID: seed.ID, Title: seed.Title, Content: seed.Content})
		}
		retriever = index
	}

	m, err := buildModel(cfg)
	if err != nil {
		return nil, err
	}

	var council core.Council
	var admin center.AdminCrew
	var monitoring center.MonitoringCrew
	if m != nil {
		council = crew.NewCouncil(m, func(o *crew.CouncilOptions) {
			o.Logger = logger
			o.Memory = memory.NewInMemoryStore()
		})
		adminCrew, err := crew.NewAdminCrew(m, func(o *crew.Options) { o.Logger = logger })
		if err != nil {
			return nil, err
		}
		monitoringCrew, err := crew.NewMonitoringCrew(m, func(o *crew.Options) { o.Logger = logger })
		if err != nil {
			return nil, err
		}
		admin, monitoring = adminCrew, monitoringCrew
	} else {
		logger.Warn("cli.model_unavailable",
			"provider", cfg.Model.Provider,
			"reason", "api key not set",
		)
	}

	p := spacewh.New(func(o *spacewh.Options) {
		o.Logger = logger
		o.CenterConfig = center.Config{
			EnableAutonomousMode: cfg.Center.EnableAutonomousMode,
			AlertRetentionDays:   cfg.Center.AlertRetentionDays,
			MetricsRetentionDays: cfg.Center.MetricsRetentionDays,
			DefaultTaskPriority:  cfg.Center.DefaultTaskPriority,
			DefaultModel:         cfg.Center.DefaultModel,
			AutomatedTasks:       cfg.Center.AutomatedTasks,
			Custom:               cfg.Center.CustomSettings,
		}
		o.Council = council
		o.Retriever = retriever
		o.Admin = admin
		o.Monitoring = monitoring
	})
	registerComponents(p.Center(), council != nil, retriever != nil)

	return p, nil
}

// buildModel selects the crew model backend. Missing API keys return a nil
// model rather than an error; only an unknown provider fails.
func buildModel(cfg *config.Config) (model.Model, error) {
	switch cfg.Model.Provider {
	case "openai":
		if os.Getenv("OPENAI_API_KEY") == "" {
			return nil, nil
		}
		return openai.NewModel(func(o *openai.Options) {
			o.Model = cfg.Center.DefaultModel
		}), nil
	case "anthropic":
		if os.Getenv("ANTHROPIC_API_KEY") == "" {
			return nil, nil
		}
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.Model = anthropicsdk.Model(cfg.Center.DefaultModel)
		}), nil
	case "mock":
		return model.NewMockModel(cfg.Center.DefaultModel, "mock"), nil
	default:
		return nil, fmt.Errorf("unknown model provider %s", cfg.Model.Provider)
	}
}

// registerComponents seeds the component ledger with the serve topology.
func registerComponents(c *center.Center, councilUp, retrievalUp bool) {
	c.RegisterComponent("engine_control", core.StatusOperational, "Tiered request processing")
	c.RegisterComponent("tools", core.StatusOperational, "Permission-gated tool registry")

	if councilUp {
		c.RegisterComponent("ai_council", core.StatusOperational, "Agent council")
	} else {
		c.RegisterComponent("ai_council", core.StatusDown, "Agent council (model backend not configured)")
	}
	if retrievalUp {
		c.RegisterComponent("retrieval", core.StatusOperational, "Knowledge index")
	} else {
		c.RegisterComponent("retrieval", core.StatusDown, "Knowledge index (no seed documents)")
	}
}

func runHealthChecks(ctx context.Context, c *center.Center, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			// Failed delegations are logged and tracked by the center.
			_, _ = c.PerformSystemHealthCheck(ctx)
		}
	}
}

func runAlertCleanup(ctx context.Context, c *center.Center, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.PruneResolvedAlerts()
		}
	}
}

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show system status from a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			var status engine.SystemStatus
			if err := getJSON(cmd.Context(), serverURL()+"/status", &status); err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(status)
			}

			fmt.Printf("Status: %s\n", status.Status)
			fmt.Printf("Active requests: %d\n", status.ActiveRequests)

			names := make([]string, 0, len(status.Components))
			for name := range status.Components {
				names = append(names, name)
			}
			sort.Strings(names)

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"Component", "Status"})
			for _, name := range names {
				tw.AppendRow(table.Row{name, status.Components[name]})
			}
			tw.Render()
			return nil
		},
	}
	return cmd
}

func toolsCmd() *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List tools available to a permission mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint := serverURL() + "/tools"
			if mode != "" {
				endpoint += "?mode=" + url.QueryEscape(mode)
			}

			var listing struct {
				Mode  string             `json:"mode"`
				Tools []core.ToolSummary `json:"tools"`
				Count int                `json:"count"`
			}
			if err := getJSON(cmd.Context(), endpoint, &listing); err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(listing)
			}

			fmt.Printf("Mode: %s (%d tools)\n", listing.Mode, listing.Count)

			tw := table.NewWriter()
			tw.SetOutputMirror(os.Stdout)
			tw.AppendHeader(table.Row{"ID", "Name", "Description"})
			for _, t := range listing.Tools {
				tw.AppendRow(table.Row{t.ID, t.Name, t.Description})
			}
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "", "permission mode (default archivist)")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Manage spacewh.yml"}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing config")
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show loaded config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(viper.GetString("workspace")); err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
}

func serverURL() string {
	return strings.TrimSuffix(viper.GetString("server"), "/")
}

func getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
