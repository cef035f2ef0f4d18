package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jonathan/figure-planner/internal/config"
	"github.com/jonathan/figure-planner/internal/db"
	"github.com/jonathan/figure-planner/internal/figures"
	"github.com/jonathan/figure-planner/internal/llm"
	"github.com/jonathan/figure-planner/internal/namelock"
	"github.com/jonathan/figure-planner/internal/proposal"
	"github.com/jonathan/figure-planner/internal/store"
	"github.com/jonathan/figure-planner/internal/store/dynamo"
	"github.com/jonathan/figure-planner/internal/uploads"
)

// app holds the wired dependencies of one command invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *store.Store
	manager *figures.Manager
	uploads *uploads.Service

	closers []func() error
}

// appParts selects the optional dependencies a command needs.
type appParts struct {
	generator bool
	uploads   bool
}

func newApp(ctx context.Context, cfg *config.Config, parts appParts) (*app, error) {
	a := &app{cfg: cfg, logger: slog.Default()}

	backend, err := a.openBackend(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.store = store.New(backend, a.logger.With("component", "store"))

	var generator figures.ProposalGenerator
	if parts.generator && cfg.LLMConfigured() {
		g, err := a.newGenerator(ctx)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		generator = g
	}

	locker, err := a.newLocker(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	if parts.uploads && cfg.UploadsConfigured() {
		if a.uploads, err = a.newUploads(ctx); err != nil {
			_ = a.Close()
			return nil, err
		}
	}

	a.manager = figures.NewManager(a.store, generator, locker, a.logger.With("component", "figures"))
	return a, nil
}

// openBackend connects the configured record store.
func (a *app) openBackend(ctx context.Context) (store.Backend, error) {
	switch a.cfg.StoreBackend {
	case config.BackendMemory:
		a.logger.Warn("using in-memory store; records are lost on exit")
		return store.NewMemoryBackend(), nil

	case config.BackendSQLite:
		s, err := db.OpenSQLite(a.cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		// The local file is migrated on open so development needs no extra step.
		if err := s.Migrate(ctx); err != nil {
			return nil, err
		}
		return s, nil

	case config.BackendPostgres:
		pg, err := db.Connect(ctx, a.cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error { pg.Close(); return nil })
		return pg, nil

	case config.BackendDynamoDB:
		b, _, err := dynamo.Connect(ctx, dynamo.Config{
			Table:    a.cfg.TableName,
			Region:   a.cfg.AWSRegion,
			Endpoint: a.cfg.DynamoDBEndpoint,
		})
		if err != nil {
			return nil, err
		}
		return b, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", a.cfg.StoreBackend)
}

// newGenerator builds the proposal generator over the configured provider.
func (a *app) newGenerator(ctx context.Context) (*proposal.Generator, error) {
	var (
		llmCfg *llm.Config
		apiKey string
		model  string
	)
	switch a.cfg.LLMProvider {
	case config.ProviderGemini:
		llmCfg, apiKey, model = llm.DefaultGeminiConfig(), a.cfg.GeminiAPIKey, a.cfg.GeminiModel
	default:
		llmCfg, apiKey, model = llm.DefaultOpenAIConfig(), a.cfg.OpenAIAPIKey, a.cfg.OpenAIModel
		llmCfg.BaseURL = a.cfg.OpenAIBaseURL
	}
	if model != "" {
		llmCfg = llmCfg.WithModel(llm.TierStandard, model)
	}
	llmCfg = llmCfg.WithSystemInstruction(proposal.SystemInstruction())
	llmCfg.Temperature = float32(a.cfg.Temperature)

	client, err := llm.NewClient(ctx, llmCfg, apiKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	a.closers = append(a.closers, client.Close)

	return proposal.NewGenerator(client,
		proposal.WithFeedback(a.cfg.GeneratorFeedback),
		proposal.WithLogger(a.logger.With("component", "generator")),
	), nil
}

// newLocker returns the Redis name lock when REDIS_URL is set.
func (a *app) newLocker(ctx context.Context) (namelock.Locker, error) {
	if a.cfg.RedisURL == "" {
		return namelock.Noop{}, nil
	}
	l, err := namelock.Connect(ctx, a.cfg.RedisURL, a.cfg.NameLockTTL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, l.Close)
	return l, nil
}

// newUploads builds the presigning service for the configured storage provider.
func (a *app) newUploads(ctx context.Context) (*uploads.Service, error) {
	var presigner uploads.Presigner
	switch a.cfg.StorageProvider {
	case config.StorageGCS:
		p, err := uploads.NewGCSPresigner(ctx)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, p.Close)
		presigner = p
	default:
		p, err := uploads.NewS3Presigner(ctx, uploads.S3Config{
			Region:   a.cfg.AWSRegion,
			Endpoint: a.cfg.S3Endpoint,
		})
		if err != nil {
			return nil, err
		}
		presigner = p
	}

	return uploads.NewService(presigner, uploads.Config{
		ThumbnailBucket: a.cfg.ThumbnailBucket,
		ArtifactsBucket: a.cfg.ArtifactsBucket,
		PortraitPrefix:  a.cfg.PortraitPrefix,
		Expiry:          a.cfg.UploadExpiry,
	}, a.logger.With("component", "uploads"))
}

// Close releases every opened resource in reverse order.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
