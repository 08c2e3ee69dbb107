package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ForLess01/API-RALF/pkg/cli"
	"github.com/ForLess01/API-RALF/pkg/config"
	"github.com/ForLess01/API-RALF/pkg/providerfactory"
	"github.com/ForLess01/API-RALF/pkg/routing"
)

type backendsOptions struct {
	server  string
	check   bool
	timeout time.Duration
}

// configuredBackends lists backends as the configuration defines them.
type configuredBackends []configuredBackend

type configuredBackend struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Model   string `json:"model,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
	APIKey  string `json:"api_key"`
}

func (c configuredBackends) Header() []string {
	return []string{"NAME", "TYPE", "MODEL", "BASE URL", "API KEY"}
}

func (c configuredBackends) Rows() [][]string {
	rows := make([][]string, len(c))
	for i, b := range c {
		rows[i] = []string{b.Name, b.Type, orDefault(b.Model), orDefault(b.BaseURL), b.APIKey}
	}
	return rows
}

// liveBackends is the snapshot served by a running gateway.
type liveBackends routing.Snapshot

func (l liveBackends) Header() []string {
	return []string{"NAME", "TYPE", "STATUS", "COOLDOWN LEFT", "NEXT"}
}

func (l liveBackends) Rows() [][]string {
	rows := make([][]string, len(l.Backends))
	for i, b := range l.Backends {
		next := ""
		if b.Current {
			next = "*"
		}
		left := "-"
		if b.CooldownRemainingSeconds > 0 {
			left = (time.Duration(b.CooldownRemainingSeconds) * time.Second).String()
		}
		rows[i] = []string{b.Name, b.Type, b.Status, left, next}
	}
	return rows
}

func newBackendsCmd(root *rootOptions) *cobra.Command {
	opts := &backendsOptions{}

	cmd := &cobra.Command{
		Use:   "backends",
		Short: "List backends",
		Long: `List the configured backends in rotation order.

With --server the live state is fetched from a running gateway instead,
including which backends are cooling down and for how long.

Examples:
  ralf backends --config ralf.yaml
  ralf backends --check
  ralf backends --server http://localhost:3000 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.server != "" {
				snap, err := fetchSnapshot(cmd.Context(), opts.server, opts.timeout)
				if err != nil {
					return cli.NewCommandError("backends", err)
				}
				return root.write(cmd, liveBackends(*snap))
			}

			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if opts.check {
				registry, err := providerfactory.NewRegistry(cfg.Backends)
				if err != nil {
					return cli.NewCommandError("backends", err)
				}
				if err := registry.Close(); err != nil {
					return cli.NewCommandError("backends", err)
				}
			}
			return root.write(cmd, listConfigured(cfg.Backends))
		},
	}

	cmd.Flags().StringVar(&opts.server, "server", "", "base URL of a running gateway to query")
	cmd.Flags().BoolVar(&opts.check, "check", false, "construct every backend adapter to catch type errors")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "request timeout for --server")
	return cmd
}

func listConfigured(backends []config.BackendConfig) configuredBackends {
	out := make(configuredBackends, len(backends))
	for i, b := range backends {
		pc := providerfactory.ProviderConfig(b)
		key := "missing"
		if pc.APIKey != "" {
			key = "set"
		}
		out[i] = configuredBackend{
			Name:    pc.Name,
			Type:    pc.Type,
			Model:   pc.Model,
			BaseURL: pc.BaseURL,
			APIKey:  key,
		}
	}
	return out
}

func fetchSnapshot(ctx context.Context, server string, timeout time.Duration) (*routing.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := strings.TrimRight(server, "/") + "/backends"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}

	var snap routing.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return &snap, nil
}

func orDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}
