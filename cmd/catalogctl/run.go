package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/storeops/catalogctl/internal/config"
	"github.com/storeops/catalogctl/internal/orchestrator"
	"github.com/storeops/catalogctl/internal/pricing"
	"github.com/storeops/catalogctl/internal/repository/resthttp"
	"github.com/storeops/catalogctl/pkg/graceful"
)

type runOptions struct {
	ConfigPath string
	IDs        []string
	Category   string
	Limit      int
}

var runCmdRunner = runBatch

func newRunCmd(root *rootFlags) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process one batch of catalog candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCmdRunner(root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to pipeline configuration file")
	cmd.Flags().StringSliceVar(&opts.IDs, "ids", nil, "Only process these product IDs")
	cmd.Flags().StringVar(&opts.Category, "category", "", "Only process products in this category")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of products to process")
	cmd.MarkFlagRequired("config") //nolint:errcheck

	return cmd
}

func runBatch(root *rootFlags, opts runOptions) error {
	cfg, err := config.ParseConfig(opts.ConfigPath)
	if err != nil {
		return err
	}

	log, err := newLogger(root)
	if err != nil {
		return err
	}

	storeCfg, err := resthttp.ConfigFromEnv()
	if err != nil {
		return err
	}
	store, err := resthttp.New(storeCfg)
	if err != nil {
		return err
	}

	engine, err := pricing.NewEngine(cfg.RuleSet(), cfg.InstallmentPlan())
	if err != nil {
		return err
	}

	orch, err := orchestrator.New(orchestrator.Options{
		Repository:    store,
		Pricing:       engine,
		Collections:   cfg.CollectionRules(),
		SourceTag:     cfg.SourceTag,
		WriteInterval: cfg.WriteInterval(),
		Retry: orchestrator.RetryPolicy{
			MaxAttempts: cfg.Retry.MaxAttempts,
			BaseDelay:   durationMs(cfg.Retry.BaseDelayMs),
			MaxDelay:    durationMs(cfg.Retry.MaxDelayMs),
			JitterFrac:  cfg.Retry.Jitter,
		},
		DryRun:   root.dryRun || cfg.DryRun,
		PageSize: cfg.PageSize,
		Logger:   log,
	})
	if err != nil {
		return err
	}

	ctx, cancel := graceful.Context(context.Background())
	defer cancel()

	report, runErr := orch.Run(ctx, orchestrator.Filter{
		IDs:      opts.IDs,
		Category: opts.Category,
		Limit:    opts.Limit,
	})
	if report != nil {
		fmt.Fprint(os.Stdout, report.Summary())
	}

	return runErr
}

func durationMs(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
