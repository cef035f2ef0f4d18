// Package figures composes the record store and the proposal generator into
// the create, update and list operations exposed to the API and CLI.
package figures

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/jonathan/figure-planner/internal/namelock"
	"github.com/jonathan/figure-planner/internal/names"
	"github.com/jonathan/figure-planner/internal/store"
	"github.com/jonathan/figure-planner/internal/types"
)

// ProposalGenerator produces validated proposals.
type ProposalGenerator interface {
	Generate(ctx context.Context, intent types.Intent, forbiddenNames []string) (*types.Proposal, error)
}

// Filter narrows ListFigures. Zero values match everything.
type Filter struct {
	Status types.Status
	// Query is matched case-insensitively against id, name and title.
	Query string
}

// Overrides replace fields of a proposal when it is turned into a record.
type Overrides struct {
	Title  string       `json:"youtubeTitle,omitempty"`
	Status types.Status `json:"status,omitempty"`
	Bio    string       `json:"bio,omitempty"`
	Notes  string       `json:"notes,omitempty"`
}

// Manager provides the figure lifecycle operations.
type Manager struct {
	store     *store.Store
	generator ProposalGenerator
	locker    namelock.Locker
	logger    *slog.Logger
}

// NewManager creates a Manager. generator may be nil, in which case
// GenerateProposal fails with ErrGeneratorUnavailable. A nil locker disables
// name locking.
func NewManager(st *store.Store, generator ProposalGenerator, locker namelock.Locker, logger *slog.Logger) *Manager {
	if locker == nil {
		locker = namelock.Noop{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{store: st, generator: generator, locker: locker, logger: logger}
}

// CreateFigure validates input and inserts a new record.
func (m *Manager) CreateFigure(ctx context.Context, input *types.NewFigureInput) (*types.Figure, error) {
	if err := input.Validate(); err != nil {
		return nil, toValidationError(err)
	}

	m.noteStatus(ctx, "name", input.Name, input.Status)

	release, err := m.lockName(ctx, input.Name)
	if err != nil {
		return nil, err
	}
	defer release()

	return m.store.Create(ctx, input.ToFigure())
}

// noteStatus logs a status outside the known lifecycle. It is stored as given.
func (m *Manager) noteStatus(ctx context.Context, key, value string, status types.Status) {
	if status != "" && !status.IsKnown() {
		m.logger.WarnContext(ctx, "unrecognized status stored as given", key, value, "status", string(status))
	}
}

// UpdateFigure writes the supplied fields of a record. When the update
// completes both asset keys of a record still awaiting them, the status
// becomes available unless the caller set one. An empty change set returns
// the current record without writing.
func (m *Manager) UpdateFigure(ctx context.Context, id string, changes *types.FigureChanges) (*types.Figure, error) {
	if err := changes.Validate(); err != nil {
		return nil, toValidationError(err)
	}

	current, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if changes.IsEmpty() {
		return current, nil
	}
	if changes.Status.Set {
		m.noteStatus(ctx, "pk", id, changes.Status.Value)
	}

	if changes.Name.Set && !names.Equal(changes.Name.Value, current.Name) {
		release, err := m.lockName(ctx, changes.Name.Value)
		if err != nil {
			return nil, err
		}
		defer release()
		if err := m.checkRename(ctx, id, changes.Name.Value); err != nil {
			return nil, err
		}
	}

	effective := changes
	if completesAssets(current, changes) {
		c := *changes
		c.Status = types.Some(types.StatusAvailable)
		effective = &c
		m.logger.Info("assets complete, marking figure available", "pk", id)
	}

	return m.store.Update(ctx, id, effective)
}

// completesAssets reports whether applying changes gives a record awaiting
// assets both keys for the first time, with no status chosen by the caller.
func completesAssets(current *types.Figure, changes *types.FigureChanges) bool {
	if changes.Status.Set || !current.Status.AwaitingAssets() || current.HasAssets() {
		return false
	}
	return changes.Apply(current).HasAssets()
}

func (m *Manager) checkRename(ctx context.Context, id, name string) error {
	all, err := m.store.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, f := range all {
		if f.ID != id && names.Equal(f.Name, name) {
			return &store.DuplicateNameError{Name: name, ExistingID: f.ID}
		}
	}
	return nil
}

// ListFigures returns every record matching filter, ordered by id.
func (m *Manager) ListFigures(ctx context.Context, filter Filter) ([]*types.Figure, error) {
	all, err := m.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(all), nil
}

// Apply returns the figures matching f, preserving order.
func (f Filter) Apply(figures []*types.Figure) []*types.Figure {
	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]*types.Figure, 0, len(figures))
	for _, fig := range figures {
		if f.Status != "" && fig.Status != f.Status {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(fig.ID), query) &&
			!strings.Contains(strings.ToLower(fig.Name), query) &&
			!strings.Contains(strings.ToLower(fig.Title), query) {
			continue
		}
		out = append(out, fig)
	}
	return out
}

// GenerateProposal asks the generator for a proposal whose name differs from
// every stored record and from intent.ForbidNames.
func (m *Manager) GenerateProposal(ctx context.Context, intent types.Intent) (*types.Proposal, error) {
	if m.generator == nil {
		return nil, ErrGeneratorUnavailable
	}

	all, err := m.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	forbidden := make([]string, 0, len(all))
	for _, f := range all {
		forbidden = append(forbidden, f.Name)
	}

	p, err := m.generator.Generate(ctx, intent, forbidden)
	if err != nil {
		m.logger.Warn("proposal generation failed", "error", err)
		return nil, err
	}
	m.logger.Info("proposal generated", "name", p.Name)
	return p, nil
}

// CreateFromProposal stores an accepted proposal as a new record. The
// proposal's plan snapshot is kept in aiPlan.
func (m *Manager) CreateFromProposal(ctx context.Context, p *types.Proposal, overrides *Overrides) (*types.Figure, error) {
	if p == nil {
		return nil, &ValidationError{Field: "proposal", Message: "is required"}
	}
	input := p.NewFigureInput()
	if overrides != nil {
		if overrides.Title != "" {
			input.Title = overrides.Title
		}
		if overrides.Status != "" {
			input.Status = overrides.Status
		}
		if overrides.Bio != "" {
			input.Bio = overrides.Bio
		}
		if overrides.Notes != "" {
			input.Notes = overrides.Notes
		}
	}
	return m.CreateFigure(ctx, input)
}

func (m *Manager) lockName(ctx context.Context, name string) (func(), error) {
	release, err := m.locker.Acquire(ctx, name)
	if errors.Is(err, namelock.ErrHeld) {
		return nil, &store.ConcurrentAllocationError{Cause: fmt.Errorf("name %s: %w", name, err)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock name %s: %w", name, err)
	}
	return release, nil
}
