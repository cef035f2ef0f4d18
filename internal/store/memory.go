package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jonathan/figure-planner/internal/types"
)

// MemoryBackend keeps records in process memory. It backs local development
// runs and tests.
type MemoryBackend struct {
	mu     sync.Mutex
	docs   map[string]Document
	writes int
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{docs: make(map[string]Document)}
}

// Seed stores raw documents as-is, bypassing every check.
func (m *MemoryBackend) Seed(docs ...Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs == nil {
		m.docs = make(map[string]Document)
	}
	for _, d := range docs {
		pk, _ := d["pk"].(string)
		m.docs[pk] = copyDocument(d)
	}
}

// Writes returns how many PutIfAbsent and Update calls reached the backend.
func (m *MemoryBackend) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Scan implements Backend.
func (m *MemoryBackend) Scan(_ context.Context) ([]Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Document, 0, len(m.docs))
	for _, d := range m.docs {
		out = append(out, copyDocument(d))
	}
	return out, nil
}

// Get implements Backend.
func (m *MemoryBackend) Get(_ context.Context, id string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	return copyDocument(d), nil
}

// PutIfAbsent implements Backend.
func (m *MemoryBackend) PutIfAbsent(_ context.Context, fig *types.Figure) error {
	doc, err := ToDocument(fig)
	if err != nil {
		return fmt.Errorf("failed to encode figure: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.docs == nil {
		m.docs = make(map[string]Document)
	}
	m.writes++
	if _, exists := m.docs[fig.ID]; exists {
		return ErrConditionFailed
	}
	m.docs[fig.ID] = doc
	return nil
}

// Update implements Backend.
func (m *MemoryBackend) Update(_ context.Context, id string, changes []types.FieldChange) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++

	d, ok := m.docs[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	if err := ApplyChanges(d, changes); err != nil {
		return nil, err
	}
	return copyDocument(d), nil
}

// ApplyChanges writes changes into doc in place. Removals and nil values
// delete the attribute.
func ApplyChanges(doc Document, changes []types.FieldChange) error {
	for _, c := range changes {
		if c.Remove {
			delete(doc, c.Attr)
			continue
		}
		v, err := PlainValue(c.Value)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", c.Attr, err)
		}
		if v == nil {
			delete(doc, c.Attr)
			continue
		}
		doc[c.Attr] = v
	}
	return nil
}

// PlainValue converts v to the plain JSON value a Document would hold.
func PlainValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func copyDocument(d Document) Document {
	out, err := ToDocument(d)
	if err != nil {
		// Documents only ever hold JSON values.
		panic(err)
	}
	return out
}
