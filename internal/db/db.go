// Package db provides SQL backends for the figure store: PostgreSQL through
// pgx and SQLite through sqlx. Both keep each record as a JSON document keyed by pk.
package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/jonathan/figure-planner/internal/store"
	"github.com/jonathan/figure-planner/internal/types"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate applies the embedded PostgreSQL migrations.
func (db *DB) Migrate(ctx context.Context) error {
	sqlDB := stdlib.OpenDBFromPool(db.pool)
	defer sqlDB.Close()
	return RunMigrations(ctx, sqlDB, DriverPostgres)
}

// Rollback reverts the latest PostgreSQL migration.
func (db *DB) Rollback(ctx context.Context) error {
	sqlDB := stdlib.OpenDBFromPool(db.pool)
	defer sqlDB.Close()
	return MigrateDown(ctx, sqlDB, DriverPostgres)
}

// Scan implements store.Backend.
func (db *DB) Scan(ctx context.Context) ([]store.Document, error) {
	rows, err := db.pool.Query(ctx, `SELECT pk, doc FROM figures`)
	if err != nil {
		return nil, fmt.Errorf("failed to list figures: %w", err)
	}
	defer rows.Close()

	var docs []store.Document
	for rows.Next() {
		var (
			pk  string
			raw []byte
		)
		if err := rows.Scan(&pk, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan figure: %w", err)
		}
		docs = append(docs, scannedDocument(pk, raw))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate figures: %w", err)
	}
	return docs, nil
}

// Get implements store.Backend.
func (db *DB) Get(ctx context.Context, id string) (store.Document, error) {
	var raw []byte
	err := db.pool.QueryRow(ctx, `SELECT doc FROM figures WHERE pk = $1`, id).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get figure %s: %w", id, err)
	}
	return decodeDocument(raw)
}

// PutIfAbsent implements store.Backend.
func (db *DB) PutIfAbsent(ctx context.Context, fig *types.Figure) error {
	doc, err := json.Marshal(fig)
	if err != nil {
		return fmt.Errorf("failed to marshal figure: %w", err)
	}

	tag, err := db.pool.Exec(ctx,
		`INSERT INTO figures (pk, doc) VALUES ($1, $2::jsonb)
		 ON CONFLICT (pk) DO NOTHING`,
		fig.ID, string(doc),
	)
	if err != nil {
		return fmt.Errorf("failed to insert figure %s: %w", fig.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrConditionFailed
	}
	return nil
}

// Update implements store.Backend. Set attributes are merged at the top
// level of the document and removed attributes are deleted in the same statement.
func (db *DB) Update(ctx context.Context, id string, changes []types.FieldChange) (store.Document, error) {
	patch, removes, err := SplitChanges(changes)
	if err != nil {
		return nil, err
	}

	var raw []byte
	err = db.pool.QueryRow(ctx,
		`UPDATE figures SET doc = (doc || $2::jsonb) - $3::text[], updated_at = NOW()
		 WHERE pk = $1
		 RETURNING doc`,
		id, string(patch), removes,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to update figure %s: %w", id, err)
	}
	return decodeDocument(raw)
}

// SplitChanges separates a change list into a JSON object of attributes to
// set and the names of attributes to delete. removes is never nil.
func SplitChanges(changes []types.FieldChange) (patch []byte, removes []string, err error) {
	set := make(store.Document, len(changes))
	removes = []string{}
	for _, c := range changes {
		if c.Remove {
			removes = append(removes, c.Attr)
			continue
		}
		v, err := store.PlainValue(c.Value)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode %s: %w", c.Attr, err)
		}
		if v == nil {
			removes = append(removes, c.Attr)
			continue
		}
		set[c.Attr] = v
	}

	patch, err = json.Marshal(set)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal patch: %w", err)
	}
	return patch, removes, nil
}

// scannedDocument decodes one listed row. A row whose document is not a JSON
// object comes back as {"pk": pk} so the store skips it while still counting
// its identifier.
func scannedDocument(pk string, raw []byte) store.Document {
	doc, err := decodeDocument(raw)
	if err != nil || doc == nil {
		return store.Document{"pk": pk}
	}
	if _, ok := doc["pk"].(string); !ok {
		doc["pk"] = pk
	}
	return doc
}

func decodeDocument(raw []byte) (store.Document, error) {
	var doc store.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal figure document: %w", err)
	}
	return doc, nil
}
