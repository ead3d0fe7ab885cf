package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"mercator-hq/guardian/pkg/cli"
	"mercator-hq/guardian/pkg/config"
	"mercator-hq/guardian/pkg/detect"
	"mercator-hq/guardian/pkg/telemetry/logging"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	mockUpstream  bool
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Guardian proxy server",
	Long: `Start the Guardian proxy server with the specified configuration.

The server accepts OpenAI-compatible chat completion requests, scans the
prompt, forwards it upstream, scans the completion and returns it. Blocked
transactions get a policy_violation error instead.

Examples:
  # Start with defaults and GUARDIAN_* environment overrides
  GUARDIAN_UPSTREAM_BASE_URL=https://api.openai.com/v1 guardian run

  # Start with a config file
  guardian run --config /etc/guardian/config.yaml

  # Answer from a local echo backend instead of a real upstream
  guardian run --mock-upstream

  # Validate config without starting the server
  guardian run --config config.yaml --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.mockUpstream, "mock-upstream", false, "echo prompts back instead of calling the upstream API")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("config", err.Error())
	}
	cfg := config.GetConfig()

	if runFlags.listenAddress != "" {
		cfg.Proxy.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	if runFlags.mockUpstream {
		cfg.Upstream.Mock = true
	}
	if err := config.ValidateForRun(cfg); err != nil {
		return cli.NewConfigError("flags", err.Error())
	}

	logger, err := logging.Install(logging.Config{
		Level:           cfg.Telemetry.Logging.Level,
		Format:          cfg.Telemetry.Logging.Format,
		AddSource:       cfg.Telemetry.Logging.AddSource,
		RedactSensitive: cfg.Telemetry.Logging.RedactLogs(),
		Registry:        detect.MustBuiltin(),
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	if runFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	logger.Info("starting guardian",
		"version", Version,
		"listen_address", cfg.Proxy.ListenAddress,
		"config", cfgFile,
	)
	serveErr := a.server.Run(ctx)

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := a.close(closeCtx); err != nil {
		slog.Error("shutdown incomplete", "error", err)
	}

	if serveErr != nil {
		return cli.NewCommandError("run", serveErr)
	}
	logger.Info("guardian stopped")
	return nil
}
