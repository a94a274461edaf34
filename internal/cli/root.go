package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tmater/boostprobe/internal/alert"
	"github.com/tmater/boostprobe/internal/check"
	"github.com/tmater/boostprobe/internal/config"
	"github.com/tmater/boostprobe/internal/proto"
	"github.com/tmater/boostprobe/internal/report"
	"github.com/tmater/boostprobe/internal/store"
	"github.com/tmater/boostprobe/internal/suite"
	"github.com/tmater/boostprobe/internal/verdict"
)

// errRunFailed signals a completed run whose verdict failed. The report has
// already said why, so Execute only sets the exit code.
var errRunFailed = errors.New("run failed")

var version = "dev"

// NewRootCmd builds the boostprobe command tree.
func NewRootCmd() *cobra.Command {
	var (
		configPath string
		dsn        string
		baseURL    string
		path       string
		apiKey     string
		timeout    time.Duration
		format     string
		policy     string
		cases      []string
	)

	root := &cobra.Command{
		Use:   "boostprobe",
		Short: "Verify that a boost endpoint enforces its request body size limit",
		Long: `Verify that a boost endpoint enforces its request body size limit.

With no arguments boostprobe sends three boosts to http://localhost:8080/boost:
a 50KB and a 95KB message that must be accepted (201), and a 150KB message that
must be rejected (>= 400). Each case is one request; nothing is retried.

The exit status is 1 when any case does not behave as expected.`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("base-url") {
				cfg.Target.BaseURL = baseURL
			}
			if flags.Changed("path") {
				cfg.Target.Path = path
			}
			if flags.Changed("api-key") {
				cfg.Target.APIKey = apiKey
			}
			if flags.Changed("timeout") {
				cfg.Target.Timeout = timeout
			}
			if flags.Changed("format") {
				cfg.Report = format
			}
			if flags.Changed("policy") {
				cfg.Policy = policy
			}
			if flags.Changed("db") {
				cfg.Store.DSN = dsn
			}
			if len(cases) > 0 {
				cfg.Cases = cfg.Cases[:0]
				for _, s := range cases {
					c, err := config.ParseCase(s)
					if err != nil {
						return err
					}
					cfg.Cases = append(cfg.Cases, c)
				}
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return run(cmd.Context(), cmd, cfg)
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path (built-in suite when empty)")
	root.PersistentFlags().StringVar(&dsn, "db", "", "postgres DSN for run history")

	root.Flags().StringVar(&baseURL, "base-url", "", "target base URL")
	root.Flags().StringVar(&path, "path", "", "endpoint path")
	root.Flags().StringVar(&apiKey, "api-key", "", "value sent in the x-api-key header (env "+config.APIKeyEnv+")")
	root.Flags().DurationVar(&timeout, "timeout", check.DefaultTimeout, "per-request timeout")
	root.Flags().StringVarP(&format, "format", "f", "text", "report format (text, json, log)")
	root.Flags().StringVar(&policy, "policy", "strict", "exit policy: strict fails on any mismatch, report never fails")
	root.Flags().StringArrayVar(&cases, "case", nil, "probe case as size_kb:accept|reject, repeatable; replaces configured cases")

	root.AddCommand(newHistoryCmd(&configPath, &dsn))
	root.AddCommand(newPruneCmd(&configPath, &dsn))
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd().ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errRunFailed):
		return 1
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 2
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg := config.Default()
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	rep, err := report.New(cfg.Report, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	pol, err := verdict.ParsePolicy(cfg.Policy)
	if err != nil {
		return err
	}

	p := check.NewProber(check.Target{
		BaseURL: cfg.Target.BaseURL,
		Path:    cfg.Target.Path,
		APIKey:  cfg.Target.APIKey,
		Timeout: cfg.Target.Timeout,
	})
	log.Printf("boostprobe: target=%s api_key=%s timeout=%s cases=%d", p.Target().URL(), report.MaskKey(cfg.Target.APIKey), cfg.Target.Timeout, len(cfg.Cases))

	sum := suite.Run(ctx, p, p.Target().URL(), cfg.Cases, rep, pol)

	if cfg.Store.DSN != "" {
		if err := saveRun(ctx, cfg.Store.DSN, sum); err != nil {
			log.Printf("boostprobe: failed to store run run_id=%s: %s", sum.RunID, err)
		}
	}

	if !sum.Passed {
		if cfg.Alert.Webhook != "" {
			if err := alert.Fire(ctx, cfg.Alert.Webhook, alert.FromSummary(sum)); err != nil {
				log.Printf("boostprobe: failed to fire alert run_id=%s: %s", sum.RunID, err)
			}
		}
		return errRunFailed
	}
	return nil
}

func saveRun(ctx context.Context, dsn string, sum proto.RunSummary) error {
	db, err := store.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.SaveRun(ctx, sum)
}
