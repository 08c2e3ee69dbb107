package main

import (
	"github.com/spf13/cobra"

	"github.com/ForLess01/API-RALF/pkg/cli"
	"github.com/ForLess01/API-RALF/pkg/config"
)

// rootOptions are the flags shared by every subcommand.
type rootOptions struct {
	configPath string
	format     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "ralf",
		Short: "API-RALF - chat gateway with rate-limit failover",
		Long: `API-RALF accepts a chat conversation and streams the reply from the first
available LLM backend. A backend that answers with a rate limit is put in
cooldown and the request moves on to the next one; when every backend is
busy the client gets a fixed fallback message instead of an error.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path (defaults plus environment when empty)")
	root.PersistentFlags().StringVarP(&opts.format, "output", "o", "text", "output format: text, json, csv")

	root.AddCommand(
		newRunCmd(opts),
		newVersionCmd(opts),
		newValidateCmd(opts),
		newBackendsCmd(opts),
		newJournalCmd(opts),
		newCompletionCmd(),
	)
	return root
}

// loadConfig reads the configuration with environment overrides applied.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(o.configPath)
	if err != nil {
		return nil, cli.NewConfigError(o.configPath, err)
	}
	return cfg, nil
}

func (o *rootOptions) write(cmd *cobra.Command, data any) error {
	formatter, err := cli.NewFormatter(cli.OutputFormat(o.format))
	if err != nil {
		return err
	}
	return formatter.FormatTo(cmd.OutOrStdout(), data)
}
