package main

import (
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/figure-planner/internal/config"
	"github.com/jonathan/figure-planner/internal/server"
	"github.com/jonathan/figure-planner/internal/server/middleware"
	"github.com/jonathan/figure-planner/internal/server/ratelimit"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the REST API server",
		Long:  `Start an HTTP server exposing the figure list, create, update, generate and upload endpoints.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := root.cfg
			if !cmd.Flags().Changed("port") {
				p, err := strconv.Atoi(cfg.Port)
				if err != nil {
					return fmt.Errorf("invalid PORT %q: %w", cfg.Port, err)
				}
				port = p
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, appParts{generator: true, uploads: true})
			if err != nil {
				return err
			}
			defer a.Close()

			if !cfg.LLMConfigured() {
				a.logger.Warn("no LLM API key configured; /figures/generate will answer 503", "provider", cfg.LLMProvider)
			}
			if a.uploads == nil {
				a.logger.Warn("upload buckets not configured; /uploads will answer 503")
			}

			auth, err := tokenValidator()
			if err != nil {
				return err
			}
			if auth == nil {
				a.logger.Warn("JWT_SECRET not set; API is unauthenticated")
			}

			srv := server.New(a.manager, a.uploads, server.Options{
				Port:        port,
				CORSOrigin:  cfg.CORSOrigin,
				RateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig(cfg.RateLimitRPS, cfg.RateLimitBurst)),
				Auth:        auth,
				Logger:      a.logger.With("component", "http"),
			})
			return srv.Run(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on (defaults to PORT)")
	return cmd
}

// tokenValidator returns the bearer token validator, or nil when JWT_SECRET
// is not set.
func tokenValidator() (middleware.TokenValidator, error) {
	jwtCfg, err := config.OptionalJWTConfig()
	if err != nil || jwtCfg == nil {
		return nil, err
	}
	return server.NewJWTService(jwtCfg).AsTokenValidator(), nil
}
