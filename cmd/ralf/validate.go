package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ForLess01/API-RALF/pkg/config"
)

// validateReport is the machine-readable result of ralf validate.
type validateReport struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Backends []string `json:"backends,omitempty"`
}

func newValidateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Long: `Load the configuration with environment overrides applied and report every
problem found. Backends without an API key are reported as warnings: the
gateway still starts and routes around them.

Examples:
  ralf validate --config ralf.yaml
  ralf validate --config ralf.yaml -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := buildReport(root)
			if root.format != "text" && root.format != "" {
				if werr := root.write(cmd, report); werr != nil {
					return werr
				}
				return err
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "✓ Configuration valid")
			fmt.Fprintf(out, "  Backends: %v\n", report.Backends)
			for _, w := range report.Warnings {
				fmt.Fprintf(out, "! %s\n", w)
			}
			return nil
		},
	}
}

func buildReport(root *rootOptions) (*validateReport, error) {
	cfg, err := root.loadConfig()
	if err != nil {
		report := &validateReport{}
		var verr config.ValidationError
		if errors.As(err, &verr) {
			for _, fe := range verr.Errors {
				report.Errors = append(report.Errors, fe.Error())
			}
		} else {
			report.Errors = []string{err.Error()}
		}
		return report, err
	}

	report := &validateReport{Valid: true}
	for _, b := range cfg.Backends {
		report.Backends = append(report.Backends, b.Name)
		switch {
		case b.APIKey != "":
		case b.APIKeyEnv != "":
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("backend %s has no API key (set %s)", b.Name, b.APIKeyEnv))
		default:
			report.Warnings = append(report.Warnings, fmt.Sprintf("backend %s has no API key", b.Name))
		}
	}
	return report, nil
}
