package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonathan/figure-planner/internal/config"
	"github.com/jonathan/figure-planner/internal/logger"
	"github.com/jonathan/figure-planner/internal/observability"
)

// rootOptions are the flags shared by every command.
type rootOptions struct {
	configPath string
	backend    string
	jsonOutput bool

	cfg      *config.Config
	shutdown func(context.Context) error
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "figures_agent",
		Short:         "Historical figure planner",
		Long:          "figures_agent manages the catalogue of historical figures for the channel and generates new figure proposals with an LLM.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if opts.shutdown != nil {
				return opts.shutdown(cmd.Context())
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a JSON config file overriding the environment")
	cmd.PersistentFlags().StringVar(&opts.backend, "backend", "", "Record store backend (dynamodb, postgres, sqlite, memory)")
	cmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Print results as JSON")

	cmd.AddCommand(
		newServeCmd(opts),
		newListCmd(opts),
		newCreateCmd(opts),
		newUpdateCmd(opts),
		newGenerateCmd(opts),
		newPresignCmd(opts),
		newSeedCmd(opts),
		newMigrateCmd(opts),
		newTokenCmd(opts),
	)
	return cmd
}

// setup resolves the configuration and installs logging and tracing.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	cfg := config.FromEnv()
	if o.configPath != "" {
		fileCfg, err := config.LoadConfig(o.configPath)
		if err != nil {
			return err
		}
		merged := fileCfg.MergeWithDefaults(*cfg)
		cfg = &merged
	}
	if o.backend != "" {
		cfg.StoreBackend = o.backend
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg

	log := logger.Init(logger.Options{
		Development: cfg.IsDevelopment(),
		SentryDSN:   cfg.SentryDSN,
		Environment: cfg.AppEnv,
		Output:      cmd.ErrOrStderr(),
	})

	shutdown, err := observability.InitTracing(cmd.Context(), log, observability.TracingConfig{
		ServiceName: "figure-planner",
		Environment: cfg.AppEnv,
		Exporter:    cfg.OTelExporter,
		SampleRatio: cfg.OTelSample,
	})
	if err != nil {
		return err
	}
	o.shutdown = shutdown
	return nil
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
