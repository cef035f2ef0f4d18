package proposal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jonathan/figure-planner/internal/llm"
	"github.com/jonathan/figure-planner/internal/observability"
	"github.com/jonathan/figure-planner/internal/prompts"
	"github.com/jonathan/figure-planner/internal/retry"
	"github.com/jonathan/figure-planner/internal/types"
)

// Generator asks the model for a proposal and retries until one passes Validate.
type Generator struct {
	client   llm.Client
	policy   retry.Policy
	tier     llm.ModelTier
	feedback bool
	logger   *slog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithPolicy overrides the attempt policy.
func WithPolicy(p retry.Policy) Option {
	return func(g *Generator) { g.policy = p }
}

// WithTier selects the model tier used for each attempt.
func WithTier(tier llm.ModelTier) Option {
	return func(g *Generator) { g.tier = tier }
}

// WithLogger sets the logger for attempt diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// WithFeedback appends the previous attempt's rejection reason to the next prompt.
func WithFeedback(enabled bool) Option {
	return func(g *Generator) { g.feedback = enabled }
}

// NewGenerator creates a Generator with the default three-attempt policy.
func NewGenerator(client llm.Client, opts ...Option) *Generator {
	g := &Generator{
		client:   client,
		policy:   retry.Default(),
		tier:     llm.TierStandard,
		feedback: true,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// SystemInstruction is the instruction the generator's client should be configured with.
func SystemInstruction() string {
	return prompts.MustGet(prompts.FiguresFile, prompts.KeySystem)
}

// Generate returns the first proposal that passes every rule. Forbidden names
// from intent.ForbidNames are merged with forbiddenNames. When every attempt
// fails the error is an *ExhaustedError carrying the final attempt's reason.
func (g *Generator) Generate(ctx context.Context, intent types.Intent, forbiddenNames []string) (*types.Proposal, error) {
	ctx, span := observability.Tracer().Start(ctx, "proposal.Generate")
	defer span.End()

	forbidden := make([]string, 0, len(forbiddenNames)+len(intent.ForbidNames))
	forbidden = append(forbidden, forbiddenNames...)
	forbidden = append(forbidden, intent.ForbidNames...)

	var (
		accepted   *types.Proposal
		lastReason string
	)
	attempts, err := g.policy.Do(ctx, func(ctx context.Context, attempt int) error {
		prompt, err := g.buildPrompt(intent, forbidden, lastReason)
		if err != nil {
			return err
		}

		p, stage, err := g.attempt(ctx, prompt, forbidden)
		if err != nil {
			lastReason = fmt.Sprintf("%s: %v", stage, err)
			g.logger.Warn("proposal attempt rejected",
				"attempt", attempt,
				"stage", stage,
				"reason", err.Error(),
			)
			span.AddEvent("attempt rejected", trace.WithAttributes(
				attribute.Int("attempt", attempt),
				attribute.String("stage", stage),
			))
			return retry.Retryable(&AttemptError{Attempt: attempt, Stage: stage, Cause: err})
		}

		accepted = p
		return nil
	})
	span.SetAttributes(attribute.Int("proposal.attempts", attempts))

	if err == nil {
		g.logger.Info("proposal accepted", "attempts", attempts, "name", accepted.Name, "model", g.client.GetModel(g.tier))
		return accepted, nil
	}

	var attemptErr *AttemptError
	if errors.As(err, &attemptErr) {
		exhausted := &ExhaustedError{Attempts: attempts, Reason: lastReason, Cause: err}
		observability.RecordError(span, exhausted)
		return nil, exhausted
	}
	observability.RecordError(span, err)
	return nil, err
}

// attempt performs exactly one model call and validates the result.
func (g *Generator) attempt(ctx context.Context, prompt string, forbidden []string) (*types.Proposal, string, error) {
	content, err := g.client.GenerateJSON(ctx, prompt, g.tier)
	if err != nil {
		return nil, "generator call", err
	}
	if strings.TrimSpace(content) == "" {
		return nil, "generator call", errors.New("no content returned")
	}

	var raw any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, "parse", fmt.Errorf("response was not valid JSON: %w", err)
	}

	p, err := Validate(raw, forbidden)
	if err != nil {
		return nil, "validate", err
	}
	return p, "", nil
}

func (g *Generator) buildPrompt(intent types.Intent, forbidden []string, lastReason string) (string, error) {
	feedback := ""
	if g.feedback && lastReason != "" {
		var err error
		feedback, err = prompts.Render(prompts.FiguresFile, prompts.KeyRetryFeedback, map[string]string{
			"Reason": lastReason,
		})
		if err != nil {
			return "", err
		}
	}

	forbid := "なし"
	if len(forbidden) > 0 {
		forbid = strings.Join(forbidden, ", ")
	}

	return prompts.Render(prompts.FiguresFile, prompts.KeyProposeFigure, map[string]string{
		"Intent":      intentLines(intent),
		"ForbidNames": forbid,
		"Feedback":    feedback,
	})
}

func intentLines(intent types.Intent) string {
	var sb strings.Builder
	for _, line := range []struct{ label, value string }{
		{"テーマ", intent.Theme},
		{"時代", intent.Era},
		{"焦点", intent.Focus},
	} {
		if v := strings.TrimSpace(line.value); v != "" {
			sb.WriteString(line.label)
			sb.WriteString(": ")
			sb.WriteString(v)
			sb.WriteString("\n")
		}
	}
	if sb.Len() == 0 {
		return "特になし"
	}
	return strings.TrimSuffix(sb.String(), "\n")
}
