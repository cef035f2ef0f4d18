// Package store provides typed access to the collection of figure records.
// Records live in a single keyed collection behind a Backend; the Store owns
// identifier allocation, name uniqueness on insert and partial-update composition.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonathan/figure-planner/internal/names"
	"github.com/jonathan/figure-planner/internal/observability"
	"github.com/jonathan/figure-planner/internal/schemas"
	"github.com/jonathan/figure-planner/internal/types"
)

// ErrNoChanges is returned by Update when the change set supplies no field.
// The backend is not contacted.
var ErrNoChanges = errors.New("no changes supplied")

// Document is a record as held by a backend, decoded to plain JSON values.
type Document = map[string]any

// Backend is a key-value collection keyed by "pk".
//
// Implementations must provide read-your-writes consistency for Scan and Get
// after a successful PutIfAbsent or Update.
type Backend interface {
	// Scan returns every stored document in any order.
	Scan(ctx context.Context) ([]Document, error)
	// Get returns one document or ErrItemNotFound.
	Get(ctx context.Context, id string) (Document, error)
	// PutIfAbsent inserts the record unless its pk exists, in which case it
	// returns ErrConditionFailed and writes nothing.
	PutIfAbsent(ctx context.Context, fig *types.Figure) error
	// Update writes only the given attributes of an existing record and
	// returns the stored document. A missing pk yields ErrItemNotFound.
	Update(ctx context.Context, id string, changes []types.FieldChange) (Document, error)
}

// Store is the record store adapter.
type Store struct {
	backend Backend
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a Store over backend. A nil logger discards output.
func New(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{backend: backend, logger: logger, now: time.Now}
}

// WithClock returns a copy of the store using now for timestamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	c := *s
	c.now = now
	return &c
}

// ListAll returns every well-formed record sorted by identifier. Records that
// fail to decode are logged and skipped so the listing stays usable under
// schema drift.
func (s *Store) ListAll(ctx context.Context) ([]*types.Figure, error) {
	ctx, span := observability.Tracer().Start(ctx, "store.ListAll")
	defer span.End()

	figures, _, err := s.scan(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("figures.count", len(figures)))
	return figures, nil
}

// Get returns one record.
func (s *Store) Get(ctx context.Context, id string) (*types.Figure, error) {
	doc, err := s.backend.Get(ctx, id)
	if errors.Is(err, ErrItemNotFound) {
		return nil, &NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get figure %s: %w", id, err)
	}
	fig, err := decode(doc)
	if err != nil {
		return nil, fmt.Errorf("figure %s is malformed: %w", id, err)
	}
	return fig, nil
}

// Create inserts candidate under the next free identifier. It fails with
// *DuplicateNameError when an existing record's name matches after
// normalization and with *ConcurrentAllocationError when another writer took
// the identifier between the scan and the insert.
func (s *Store) Create(ctx context.Context, candidate *types.Figure) (*types.Figure, error) {
	ctx, span := observability.Tracer().Start(ctx, "store.Create")
	defer span.End()

	existing, ids, err := s.scan(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	for _, f := range existing {
		if names.Equal(f.Name, candidate.Name) {
			return nil, &DuplicateNameError{Name: candidate.Name, ExistingID: f.ID}
		}
	}

	rec := candidate.Clone()
	rec.ID = NextID(ids)
	if rec.Status == "" {
		rec.Status = types.StatusReady
	}
	now := s.now().UnixMilli()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	span.SetAttributes(attribute.String("figure.id", rec.ID))

	if err := s.backend.PutIfAbsent(ctx, rec); err != nil {
		if errors.Is(err, ErrConditionFailed) {
			s.logger.Warn("figure identifier taken concurrently", "pk", rec.ID)
			return nil, &ConcurrentAllocationError{ID: rec.ID, Cause: err}
		}
		observability.RecordError(span, err)
		return nil, fmt.Errorf("failed to insert figure %s: %w", rec.ID, err)
	}

	s.logger.Info("figure created", "pk", rec.ID, "name", rec.Name)
	return rec, nil
}

// Update writes the supplied fields plus a fresh updatedAt and returns the
// stored record. An empty change set returns ErrNoChanges without touching
// the backend.
func (s *Store) Update(ctx context.Context, id string, changes *types.FigureChanges) (*types.Figure, error) {
	fields := changes.Fields()
	if len(fields) == 0 {
		return nil, ErrNoChanges
	}

	ctx, span := observability.Tracer().Start(ctx, "store.Update")
	defer span.End()
	span.SetAttributes(attribute.String("figure.id", id), attribute.Int("figure.fields", len(fields)))

	fields = append(fields, types.FieldChange{Attr: "updatedAt", Value: s.now().UnixMilli()})

	doc, err := s.backend.Update(ctx, id, fields)
	if errors.Is(err, ErrItemNotFound) {
		return nil, &NotFoundError{ID: id}
	}
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("failed to update figure %s: %w", id, err)
	}

	fig, err := decode(doc)
	if err != nil {
		return nil, fmt.Errorf("updated figure %s is malformed: %w", id, err)
	}
	return fig, nil
}

// Import inserts fig under its own identifier, as fixtures and migrations
// do. It returns false without writing when the identifier is taken. Missing
// status and timestamps are filled in.
func (s *Store) Import(ctx context.Context, fig *types.Figure) (bool, error) {
	rec := fig.Clone()
	if rec.Status == "" {
		rec.Status = types.StatusReady
	}
	if err := rec.CheckShape(); err != nil {
		return false, fmt.Errorf("invalid figure: %w", err)
	}
	now := s.now().UnixMilli()
	if rec.CreatedAt == 0 {
		rec.CreatedAt = now
	}
	if rec.UpdatedAt == 0 {
		rec.UpdatedAt = rec.CreatedAt
	}

	err := s.backend.PutIfAbsent(ctx, rec)
	if errors.Is(err, ErrConditionFailed) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to import figure %s: %w", rec.ID, err)
	}
	s.logger.Info("figure imported", "pk", rec.ID, "name", rec.Name)
	return true, nil
}

// scan returns the decodable records sorted by identifier together with every
// identifier present, malformed records included.
func (s *Store) scan(ctx context.Context) ([]*types.Figure, []string, error) {
	docs, err := s.backend.Scan(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan figures: %w", err)
	}

	figures := make([]*types.Figure, 0, len(docs))
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if pk, ok := doc["pk"].(string); ok {
			ids = append(ids, pk)
		}
		fig, err := decode(doc)
		if err != nil {
			s.logger.Warn("skipping malformed figure record", "pk", doc["pk"], "error", err)
			continue
		}
		figures = append(figures, fig)
	}

	SortByID(figures)
	return figures, ids, nil
}

// NextID allocates the identifier following the highest parsable one.
func NextID(ids []string) string {
	highest := 0
	for _, id := range ids {
		if n, ok := types.ParseID(id); ok && n > highest {
			highest = n
		}
	}
	return types.FormatID(highest + 1)
}

// SortByID orders figures by numeric sequence, falling back to string order
// for identifiers outside the figure#<n> form.
func SortByID(figures []*types.Figure) {
	sort.SliceStable(figures, func(i, j int) bool {
		a, aok := types.ParseID(figures[i].ID)
		b, bok := types.ParseID(figures[j].ID)
		switch {
		case aok && bok && a != b:
			return a < b
		case aok != bok:
			return aok
		default:
			return figures[i].ID < figures[j].ID
		}
	})
}

func decode(doc Document) (*types.Figure, error) {
	if err := schemas.ValidateDocument(schemas.Figure, doc); err != nil {
		return nil, err
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	var fig types.Figure
	if err := json.Unmarshal(data, &fig); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &fig, nil
}

// ToDocument converts a value to its plain JSON form.
func ToDocument(v any) (Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
