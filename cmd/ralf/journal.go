package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ForLess01/API-RALF/pkg/cli"
	"github.com/ForLess01/API-RALF/pkg/config"
	"github.com/ForLess01/API-RALF/pkg/journal"
)

// errMemoryJournal is returned when the configured journal lives only inside
// the gateway process.
var errMemoryJournal = errors.New("journal backend is memory: records exist only inside the running gateway, query GET /dispatches instead")

type journalListOptions struct {
	backend string
	outcome string
	since   string
	limit   int
	offset  int
}

type journalPruneOptions struct {
	days       int
	maxRecords int64
}

// recordTable renders journal records.
type recordTable []*journal.Record

func (r recordTable) Header() []string {
	return []string{"STARTED", "OUTCOME", "BACKEND", "ATTEMPTED", "RATE LIMITED", "DURATION", "REQUEST ID"}
}

func (r recordTable) Rows() [][]string {
	rows := make([][]string, len(r))
	for i, rec := range r {
		outcome := rec.Outcome
		if rec.Reason != "" {
			outcome += " (" + rec.Reason + ")"
		}
		rows[i] = []string{
			rec.StartedAt.UTC().Format(time.RFC3339),
			outcome,
			orDash(rec.Backend),
			orDash(strings.Join(rec.Attempted, ",")),
			orDash(strings.Join(rec.RateLimited, ",")),
			strconv.FormatInt(rec.DurationMS, 10) + "ms",
			orDash(rec.RequestID),
		}
	}
	return rows
}

func newJournalCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the dispatch journal",
		Long: `Query and prune the dispatch journal written by a gateway configured with
the sqlite journal backend.`,
	}
	cmd.AddCommand(newJournalListCmd(root), newJournalPruneCmd(root))
	return cmd
}

func newJournalListCmd(root *rootOptions) *cobra.Command {
	opts := &journalListOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List journal records, newest first",
		Long: `List journal records, newest first.

--since accepts a duration ("24h") or an RFC3339 timestamp.

Examples:
  ralf journal list --config ralf.yaml --since 1h
  ralf journal list --outcome exhausted -o csv > exhausted.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := &journal.Query{
				Backend: opts.backend,
				Outcome: opts.outcome,
				Limit:   opts.limit,
				Offset:  opts.offset,
			}
			if opts.since != "" {
				since, err := parseSince(opts.since, time.Now())
				if err != nil {
					return err
				}
				q.Since = &since
			}

			store, err := openJournal(root)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.Query(cmd.Context(), q)
			if err != nil {
				return cli.NewCommandError("journal list", err)
			}
			return root.write(cmd, recordTable(records))
		},
	}

	cmd.Flags().StringVar(&opts.backend, "backend", "", "filter by serving backend")
	cmd.Flags().StringVar(&opts.outcome, "outcome", "", "filter by outcome: served, exhausted, failed")
	cmd.Flags().StringVar(&opts.since, "since", "", "only records started after this duration ago or RFC3339 time")
	cmd.Flags().IntVar(&opts.limit, "limit", config.DefaultJournalQueryLimit, "max results")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "pagination offset")
	return cmd
}

func newJournalPruneCmd(root *rootOptions) *cobra.Command {
	opts := &journalPruneOptions{}

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Apply the retention policy now",
		Long: `Delete records older than the retention period and trim the journal to
its maximum size, the same pass the gateway runs on its prune schedule.

Examples:
  ralf journal prune --config ralf.yaml
  ralf journal prune --days 1 --max-records 5000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			retention := cfg.Journal.Retention
			if cmd.Flags().Changed("days") {
				retention.Days = opts.days
			}
			if cmd.Flags().Changed("max-records") {
				retention.MaxRecords = opts.maxRecords
			}

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := journal.NewPruner(store, retention).Prune(cmd.Context())
			if err != nil {
				return cli.NewCommandError("journal prune", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %d records\n", removed)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.days, "days", 0, "override retention days (0 keeps records regardless of age)")
	cmd.Flags().Int64Var(&opts.maxRecords, "max-records", 0, "override the maximum number of records kept")
	return cmd
}

func openJournal(root *rootOptions) (journal.Store, error) {
	cfg, err := root.loadConfig()
	if err != nil {
		return nil, err
	}
	return openStore(cfg)
}

func openStore(cfg *config.Config) (journal.Store, error) {
	if cfg.Journal.Backend != "sqlite" {
		return nil, cli.NewCommandError("journal", errMemoryJournal)
	}
	store, err := journal.Open(cfg.Journal)
	if err != nil {
		return nil, cli.NewCommandError("journal", err)
	}
	return store, nil
}

// parseSince accepts a duration before now or an RFC3339 timestamp.
func parseSince(s string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(s); err == nil {
		if d < 0 {
			return time.Time{}, fmt.Errorf("invalid --since %q: duration must be positive", s)
		}
		return now.Add(-d), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since %q: want a duration like 24h or an RFC3339 time", s)
	}
	return t, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
