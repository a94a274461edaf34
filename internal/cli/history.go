package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmater/boostprobe/internal/store"
)

const defaultRetention = 30 * 24 * time.Hour

func newHistoryCmd(configPath, dsn *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(cmd.Context(), *configPath, *dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("query runs: %w", err)
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of runs to list")
	return cmd
}

func newPruneCmd(configPath, dsn *string) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete stored runs older than a retention period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 {
				olderThan = defaultRetention
			}
			db, err := openStore(cmd.Context(), *configPath, *dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			cutoff := time.Now().UTC().Add(-olderThan)
			n, err := db.EvictRunsBefore(cmd.Context(), cutoff)
			if err != nil {
				return fmt.Errorf("evict runs: %w", err)
			}
			log.Printf("prune: deleted %d runs started before %s", n, cutoff.Format(time.RFC3339))
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d runs\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", defaultRetention, "delete runs started longer ago than this")
	return cmd
}

// openStore resolves the DSN from --db, then the config file.
func openStore(ctx context.Context, configPath, dsn string) (*store.Store, error) {
	if dsn == "" && configPath != "" {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return nil, err
		}
		dsn = cfg.Store.DSN
	}
	if dsn == "" {
		return nil, fmt.Errorf("no database configured: set --db or store.dsn")
	}
	db, err := store.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return db, nil
}

func printRuns(w io.Writer, runs []store.RunRecord) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "no runs recorded")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSTARTED\tTARGET\tMATCHED\tFAILED\tRESULT")
	for _, r := range runs {
		result := "PASS"
		if !r.Passed {
			result = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			r.RunID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Target, r.Matched, r.Failed, result)
	}
	tw.Flush()
}
