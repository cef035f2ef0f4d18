package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/figure-planner/internal/store"
	"github.com/jonathan/figure-planner/internal/types"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "data", "figures.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLite_MigrateIsIdempotent(t *testing.T) {
	s := newTestSQLite(t)
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestSQLite_PutIfAbsent(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()
	fig := &types.Figure{ID: "figure#001", Name: "織田信長", Status: types.StatusReady}

	require.NoError(t, s.PutIfAbsent(ctx, fig))
	err := s.PutIfAbsent(ctx, &types.Figure{ID: "figure#001", Name: "other", Status: types.StatusReady})
	assert.ErrorIs(t, err, store.ErrConditionFailed)

	doc, err := s.Get(ctx, "figure#001")
	require.NoError(t, err)
	assert.Equal(t, "織田信長", doc["name"])
}

func TestSQLite_GetMissing(t *testing.T) {
	s := newTestSQLite(t)
	_, err := s.Get(context.Background(), "figure#404")
	assert.ErrorIs(t, err, store.ErrItemNotFound)

	_, err = s.Update(context.Background(), "figure#404", []types.FieldChange{{Attr: "notes", Value: "x"}})
	assert.ErrorIs(t, err, store.ErrItemNotFound)
}

func TestSQLite_ThroughStore(t *testing.T) {
	st := store.New(newTestSQLite(t), nil)
	ctx := context.Background()

	first, err := st.Create(ctx, &types.Figure{
		Name:  "徳川家康",
		Title: "【徳川家康に学ぶ】3つの忍耐",
		Bio:   "江戸幕府の初代将軍",
		Plan:  &types.ProposalPlan{Summary: "s", Hook: "h", Sources: []string{"a"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "figure#001", first.ID)

	_, err = st.Create(ctx, &types.Figure{Name: "徳川 家康"})
	var dup *store.DuplicateNameError
	require.ErrorAs(t, err, &dup)

	second, err := st.Create(ctx, &types.Figure{Name: "坂本龍馬"})
	require.NoError(t, err)
	assert.Equal(t, "figure#002", second.ID)

	updated, err := st.Update(ctx, first.ID, &types.FigureChanges{
		Bio:  types.Null[string](),
		Plan: types.Some(&types.ProposalPlan{Summary: "new"}),
	})
	require.NoError(t, err)
	assert.Empty(t, updated.Bio)
	require.NotNil(t, updated.Plan)
	assert.Equal(t, "new", updated.Plan.Summary)
	assert.Empty(t, updated.Plan.Sources, "plans are replaced, not merged")
	assert.Equal(t, first.Title, updated.Title)

	all, err := st.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "figure#001", all[0].ID)
}

func TestSQLite_RollbackDropsTable(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.Rollback(ctx))
	_, err := s.Scan(ctx)
	assert.Error(t, err)

	require.NoError(t, s.Migrate(ctx))
	docs, err := s.Scan(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestSQLite_SkipsNonObjectDocuments(t *testing.T) {
	s := newTestSQLite(t)
	st := store.New(s, nil)
	ctx := context.Background()

	_, err := st.Create(ctx, &types.Figure{Name: "織田信長"})
	require.NoError(t, err)
	for pk, doc := range map[string]string{
		"figure#002": `["legacy"]`,
		"figure#003": `null`,
		"figure#004": `"text"`,
	} {
		_, err := s.db.ExecContext(ctx, `INSERT INTO figures (pk, doc) VALUES (?, ?)`, pk, doc)
		require.NoError(t, err)
	}

	all, err := st.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "figure#001", all[0].ID)

	created, err := st.Create(ctx, &types.Figure{Name: "豊臣秀吉"})
	require.NoError(t, err)
	assert.Equal(t, "figure#005", created.ID, "skipped rows still count for allocation")
}

func TestScannedDocument(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want store.Document
	}{
		{"object", `{"pk":"figure#001","name":"a"}`, store.Document{"pk": "figure#001", "name": "a"}},
		{"object without pk", `{"name":"a"}`, store.Document{"pk": "figure#009", "name": "a"}},
		{"array", `["legacy"]`, store.Document{"pk": "figure#009"}},
		{"null", `null`, store.Document{"pk": "figure#009"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pk := "figure#009"
			if tt.name == "object" {
				pk = "figure#001"
			}
			assert.Equal(t, tt.want, scannedDocument(pk, []byte(tt.raw)))
		})
	}
}
