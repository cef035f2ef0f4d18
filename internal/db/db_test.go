package db

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/figure-planner/internal/types"
)

func TestSplitChanges(t *testing.T) {
	tests := []struct {
		name        string
		changes     []types.FieldChange
		wantPatch   map[string]any
		wantRemoves []string
	}{
		{
			name:        "empty",
			wantPatch:   map[string]any{},
			wantRemoves: []string{},
		},
		{
			name: "set and remove",
			changes: []types.FieldChange{
				{Attr: "status", Value: types.StatusAvailable},
				{Attr: "tags", Value: []string{"幕末"}},
				{Attr: "bio", Remove: true},
				{Attr: "updatedAt", Value: int64(1700000000000)},
			},
			wantPatch: map[string]any{
				"status":    "available",
				"tags":      []any{"幕末"},
				"updatedAt": float64(1700000000000),
			},
			wantRemoves: []string{"bio"},
		},
		{
			name: "nil plan removes",
			changes: []types.FieldChange{
				{Attr: "aiPlan", Value: (*types.ProposalPlan)(nil)},
			},
			wantPatch:   map[string]any{},
			wantRemoves: []string{"aiPlan"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patch, removes, err := SplitChanges(tt.changes)
			require.NoError(t, err)

			var got map[string]any
			require.NoError(t, json.Unmarshal(patch, &got))
			assert.Equal(t, tt.wantPatch, got)
			assert.Equal(t, tt.wantRemoves, removes)
		})
	}
}

func TestGetDialect(t *testing.T) {
	assert.Equal(t, "postgres", getDialect(DriverPostgres))
	assert.Equal(t, "sqlite3", getDialect(DriverSQLite))
	assert.Equal(t, "mysql", getDialect("mysql"))
}

func TestSetupGoose_UnknownDriver(t *testing.T) {
	err := setupGoose("mysql")
	assert.ErrorContains(t, err, `no migrations for driver "mysql"`)
}

func TestMigrationsEmbedded(t *testing.T) {
	for _, dir := range migrationDirs {
		entries, err := migrationsFS.ReadDir(dir)
		require.NoError(t, err, dir)
		assert.NotEmpty(t, entries, dir)
	}
}
