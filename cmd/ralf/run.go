package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ForLess01/API-RALF/pkg/cli"
	"github.com/ForLess01/API-RALF/pkg/config"
	"github.com/ForLess01/API-RALF/pkg/server"
)

type runOptions struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the gateway",
		Long: `Start the API-RALF gateway.

Without --config the built-in defaults are used: gemini first, then
openrouter, keys from GEMINI_API_KEY and OPENROUTER_API_KEY, port from PORT.
With --config the file is watched and the cooldown and log level are
reloaded when it changes.

Examples:
  # Start with defaults
  ralf run

  # Start with a config file
  ralf run --config /etc/ralf/ralf.yaml

  # Override listen address
  ralf run --listen 0.0.0.0:8080

  # Load and validate everything without listening
  ralf run --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.listenAddress, "listen", "l", "", "override listen address")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "build the gateway without starting the listener")
	return cmd
}

func runServer(cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	if err := config.Initialize(root.configPath); err != nil {
		return cli.NewConfigError(root.configPath, err)
	}
	config.SetOverrides(func(c *config.Config) {
		if opts.listenAddress != "" {
			c.Proxy.ListenAddress = opts.listenAddress
		}
		if opts.logLevel != "" {
			c.Telemetry.Logging.Level = opts.logLevel
		}
	})
	cfg := config.GetConfig()

	serverOpts := []server.Option{server.WithVersion(versionInfo())}
	if root.configPath != "" {
		serverOpts = append(serverOpts, server.WithConfigPath(root.configPath))
	}

	srv, err := server.New(cfg, serverOpts...)
	if err != nil {
		return cli.NewCommandError("run", err)
	}

	out := cmd.OutOrStdout()
	if opts.dryRun {
		if err := srv.Shutdown(cmd.Context()); err != nil {
			return cli.NewCommandError("run", err)
		}
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	printBanner(cmd, root, cfg)

	if err := srv.Start(cmd.Context()); err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Fprintln(out, "✓ Server stopped")
	return nil
}

func printBanner(cmd *cobra.Command, root *rootOptions, cfg *config.Config) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "API-RALF v%s\n", Version)
	if root.configPath != "" {
		fmt.Fprintf(out, "Configuration: %s\n", root.configPath)
	}

	names := make([]string, len(cfg.Backends))
	for i, b := range cfg.Backends {
		names[i] = b.Name
	}
	fmt.Fprintf(out, "✓ Backends: %v (cooldown %s)\n", names, cfg.Routing.Cooldown)
	if cfg.Journal.Enabled {
		fmt.Fprintf(out, "✓ Journal: %s\n", cfg.Journal.Backend)
	}
	fmt.Fprintf(out, "✓ Listening on %s\n", cfg.Proxy.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(out, "✓ Metrics endpoint: http://%s%s\n", cfg.Proxy.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Fprintln(out, "\nPress Ctrl+C to stop")
}
