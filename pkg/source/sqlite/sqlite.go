// Package sqlite serves worlds from a SQLite database.
//
// Each world is a row in "worlds"; its elements and relationships are rows in
// "elements" and "relationships" keyed by world_id and ordered by position,
// so a load returns them in the order they were saved. Element content and
// tags are stored as JSON text. The schema is created on open.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/worldloom/worldloom/pkg/errors"
	"github.com/worldloom/worldloom/pkg/source"
	"github.com/worldloom/worldloom/pkg/world"
)

// Kind is the source kind reported by Store.
const Kind = "sqlite"

//go:embed schema.sql
var schema string

func init() {
	source.Register("sqlite", func(ctx context.Context, dsn *url.URL) (source.Source, error) {
		return Open(ctx, dsn.Host+dsn.Path)
	})
}

// Store reads and writes worlds in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New(errors.ErrCodeInvalidPath, "sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Kind returns "sqlite".
func (s *Store) Kind() string { return Kind }

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// List returns the stored world ids.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT id FROM worlds ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list worlds: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan world id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Load reads one world.
func (s *Store) Load(ctx context.Context, id string) (*world.World, error) {
	if err := errors.ValidateWorldID(id); err != nil {
		return nil, err
	}

	w := &world.World{ID: id}
	err := s.sqlDB.QueryRowContext(ctx, `SELECT name FROM worlds WHERE id = ?`, id).Scan(&w.Name)
	if err == sql.ErrNoRows {
		return nil, source.NotFound(Kind, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load world %s: %w", id, err)
	}

	if w.Elements, err = s.loadElements(ctx, id); err != nil {
		return nil, err
	}
	if w.Relationships, err = s.loadRelationships(ctx, id); err != nil {
		return nil, err
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *Store) loadElements(ctx context.Context, worldID string) ([]world.Element, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, type, title, content, tags FROM elements WHERE world_id = ? ORDER BY position`, worldID)
	if err != nil {
		return nil, fmt.Errorf("load elements: %w", err)
	}
	defer rows.Close()

	elements := []world.Element{}
	for rows.Next() {
		var (
			e             world.Element
			typ           string
			content, tags string
		)
		if err := rows.Scan(&e.ID, &typ, &e.Title, &content, &tags); err != nil {
			return nil, fmt.Errorf("scan element: %w", err)
		}
		if e.Type, err = world.ParseElementType(typ); err != nil {
			return nil, fmt.Errorf("element %s: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(content), &e.Content); err != nil {
			return nil, fmt.Errorf("element %s content: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
			return nil, fmt.Errorf("element %s tags: %w", e.ID, err)
		}
		if len(e.Content) == 0 {
			e.Content = nil
		}
		if len(e.Tags) == 0 {
			e.Tags = nil
		}
		elements = append(elements, e)
	}
	return elements, rows.Err()
}

func (s *Store) loadRelationships(ctx context.Context, worldID string) ([]world.Relationship, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, source_id, target_id, type, strength, description, bidirectional
		   FROM relationships WHERE world_id = ? ORDER BY position`, worldID)
	if err != nil {
		return nil, fmt.Errorf("load relationships: %w", err)
	}
	defer rows.Close()

	rels := []world.Relationship{}
	for rows.Next() {
		var r world.Relationship
		if err := rows.Scan(&r.ID, &r.SourceID, &r.TargetID, &r.Type, &r.Strength, &r.Description, &r.Bidirectional); err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

// Save replaces the stored copy of w in one transaction.
func (s *Store) Save(ctx context.Context, w *world.World) (err error) {
	if err := w.Validate(); err != nil {
		return err
	}
	if err := errors.ValidateWorldID(w.ID); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO worlds (id, name) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`, w.ID, w.Name); err != nil {
		return fmt.Errorf("upsert world: %w", err)
	}
	for _, table := range []string{"elements", "relationships"} {
		if _, err = tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE world_id = ?`, w.ID); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	for i, e := range w.Elements {
		content, err := json.Marshal(orEmpty(e.Content))
		if err != nil {
			return fmt.Errorf("element %s content: %w", e.ID, err)
		}
		tags, err := json.Marshal(orEmptySlice(e.Tags))
		if err != nil {
			return fmt.Errorf("element %s tags: %w", e.ID, err)
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO elements (world_id, position, id, type, title, content, tags) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			w.ID, i, e.ID, string(e.Type), e.Title, string(content), string(tags)); err != nil {
			return fmt.Errorf("insert element %s: %w", e.ID, err)
		}
	}
	for i, r := range w.Relationships {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO relationships (world_id, position, id, source_id, target_id, type, strength, description, bidirectional)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			w.ID, i, r.ID, r.SourceID, r.TargetID, r.Type, r.Strength, r.Description, r.Bidirectional); err != nil {
			return fmt.Errorf("insert relationship %s: %w", r.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Delete removes a world and its rows.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM worlds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete world %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return source.NotFound(Kind, id)
	}
	return nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func orEmptySlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var (
	_ source.Source = (*Store)(nil)
	_ source.Writer = (*Store)(nil)
)
