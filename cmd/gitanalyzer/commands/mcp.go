package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/gitanalyzer/pkg/config"
	"github.com/Sumatoshi-tech/gitanalyzer/pkg/mcp"
	"github.com/Sumatoshi-tech/gitanalyzer/pkg/observability"
)

// NewMCPCommand creates the MCP server command.
func NewMCPCommand() *cobra.Command {
	var (
		debug      bool
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for AI agent integration",
		Long: `Start a Model Context Protocol (MCP) server on stdio transport.

The server exposes one tool:
  - gitanalyzer_analyze: per-author line attribution for a local Git repository`,
		Args: cobra.NoArgs,
		RunE: func(cobraCmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}

			cfg.Logging.JSON = true

			providers, err := initObservability(cfg, observability.ModeMCP, cobraCmd.ErrOrStderr(), debug, false)
			if err != nil {
				return err
			}

			defer shutdownObservability(providers)

			red, err := observability.NewREDMetrics(providers.Meter)
			if err != nil {
				return err
			}

			svc, err := buildService(cfg)
			if err != nil {
				return err
			}

			svc.Logger = providers.Logger
			svc.Tracer = providers.Tracer

			svc.Metrics, err = observability.NewAnalysisMetrics(providers.Meter)
			if err != nil {
				return err
			}

			srv := mcp.NewServer(mcp.ServerDeps{
				Logger:   providers.Logger,
				Metrics:  red,
				Tracer:   providers.Tracer,
				Analyzer: svc,
			})

			return srv.Run(cobraCmd.Context())
		},
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging to stderr")
	cmd.Flags().StringVar(&configPath, "config", "", "Config file (default: .gitanalyzer.yaml in . or $HOME)")

	return cmd
}
