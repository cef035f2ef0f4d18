package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/jonathan/figure-planner/internal/store"
	"github.com/jonathan/figure-planner/internal/types"
)

// SQLite stores figures in a single SQLite file.
type SQLite struct {
	db *sqlx.DB
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sqlx.Connect(DriverSQLite, path)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	// One connection serializes writers and keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	slog.Info("database connected", "driver", DriverSQLite)
	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate applies the embedded SQLite migrations.
func (s *SQLite) Migrate(ctx context.Context) error {
	return RunMigrations(ctx, s.db.DB, DriverSQLite)
}

// Rollback reverts the latest SQLite migration.
func (s *SQLite) Rollback(ctx context.Context) error {
	return MigrateDown(ctx, s.db.DB, DriverSQLite)
}

// Scan implements store.Backend.
func (s *SQLite) Scan(ctx context.Context) ([]store.Document, error) {
	var rows []struct {
		PK  string `db:"pk"`
		Doc string `db:"doc"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT pk, doc FROM figures`); err != nil {
		return nil, fmt.Errorf("failed to list figures: %w", err)
	}

	docs := make([]store.Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, scannedDocument(row.PK, []byte(row.Doc)))
	}
	return docs, nil
}

// Get implements store.Backend.
func (s *SQLite) Get(ctx context.Context, id string) (store.Document, error) {
	return s.get(ctx, s.db, id)
}

// PutIfAbsent implements store.Backend.
func (s *SQLite) PutIfAbsent(ctx context.Context, fig *types.Figure) error {
	doc, err := json.Marshal(fig)
	if err != nil {
		return fmt.Errorf("failed to marshal figure: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO figures (pk, doc) VALUES (?, ?) ON CONFLICT (pk) DO NOTHING`,
		fig.ID, string(doc),
	)
	if err != nil {
		return fmt.Errorf("failed to insert figure %s: %w", fig.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read insert result: %w", err)
	}
	if n == 0 {
		return store.ErrConditionFailed
	}
	return nil
}

// Update implements store.Backend. The read and write share one transaction.
func (s *SQLite) Update(ctx context.Context, id string, changes []types.FieldChange) (store.Document, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	doc, err := s.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := store.ApplyChanges(doc, changes); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal figure: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE figures SET doc = ?, updated_at = CURRENT_TIMESTAMP WHERE pk = ?`,
		string(raw), id,
	); err != nil {
		return nil, fmt.Errorf("failed to update figure %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}
	return doc, nil
}

func (s *SQLite) get(ctx context.Context, q sqlx.QueryerContext, id string) (store.Document, error) {
	var raw string
	err := sqlx.GetContext(ctx, q, &raw, `SELECT doc FROM figures WHERE pk = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get figure %s: %w", id, err)
	}
	return decodeDocument([]byte(raw))
}
