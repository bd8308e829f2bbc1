// Package catalog persists the list of published documentation sets.
package catalog

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/Masterminds/semver/v3"
	_ "modernc.org/sqlite"
)

// Entry is one published documentation set.
type Entry struct {
	Name        string
	Version     string
	SourceKind  string // "registry" or "url"
	Source      string // version requirement or URL as requested
	Features    []string
	Description string
	PublishDir  string
	Revision    string
	BuiltAt     time.Time
}

// Catalog is an SQLite-backed Entry store keyed by publish directory.
type Catalog struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (creating if needed) the catalog at path. ":memory:" gives a
// private in-memory catalog.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	c := &Catalog{db: db}
	if err := c.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return c, nil
}

func (c *Catalog) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS docs (
		publish_dir TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		version TEXT NOT NULL,
		source_kind TEXT NOT NULL,
		source TEXT NOT NULL,
		features TEXT NOT NULL DEFAULT '[]',
		description TEXT NOT NULL DEFAULT '',
		revision TEXT NOT NULL DEFAULT '',
		built_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_docs_name ON docs(name);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Record inserts e, replacing any entry for the same publish directory.
func (c *Catalog) Record(ctx context.Context, e Entry) error {
	if e.Name == "" || e.PublishDir == "" {
		return fmt.Errorf("catalog entry needs a name and publish dir")
	}
	features, err := json.Marshal(nonNil(e.Features))
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}
	if e.BuiltAt.IsZero() {
		e.BuiltAt = time.Now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO docs (publish_dir, name, version, source_kind, source, features, description, revision, built_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(publish_dir) DO UPDATE SET
			name = excluded.name,
			version = excluded.version,
			source_kind = excluded.source_kind,
			source = excluded.source,
			features = excluded.features,
			description = excluded.description,
			revision = excluded.revision,
			built_at = excluded.built_at`,
		e.PublishDir, e.Name, e.Version, e.SourceKind, e.Source, string(features), e.Description, e.Revision, e.BuiltAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}
	return nil
}

// List returns every entry, by name and then newest version first.
func (c *Catalog) List(ctx context.Context) ([]Entry, error) {
	return c.query(ctx, "")
}

// Versions returns the entries for one package, newest version first.
func (c *Catalog) Versions(ctx context.Context, name string) ([]Entry, error) {
	return c.query(ctx, name)
}

// Count returns the number of entries.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var n int
	if err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM docs").Scan(&n); err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// Close closes the database connection.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Close()
}

func (c *Catalog) query(ctx context.Context, name string) ([]Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	q := "SELECT publish_dir, name, version, source_kind, source, features, description, revision, built_at FROM docs"
	var args []any
	if name != "" {
		q += " WHERE name = ?"
		args = append(args, name)
	}
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var features string
		var builtAt int64
		if err := rows.Scan(&e.PublishDir, &e.Name, &e.Version, &e.SourceKind, &e.Source, &features, &e.Description, &e.Revision, &builtAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if err := json.Unmarshal([]byte(features), &e.Features); err != nil {
			return nil, fmt.Errorf("unmarshal features: %w", err)
		}
		e.BuiltAt = time.Unix(builtAt, 0)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	slices.SortStableFunc(entries, compareEntries)
	return entries, nil
}

// compareEntries orders by name, then by version descending. Unparsable
// versions sort after parsable ones, lexically.
func compareEntries(a, b Entry) int {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	va, erra := semver.NewVersion(a.Version)
	vb, errb := semver.NewVersion(b.Version)
	switch {
	case erra == nil && errb == nil:
		if c := vb.Compare(va); c != 0 {
			return c
		}
	case erra == nil:
		return -1
	case errb == nil:
		return 1
	}
	return cmp.Compare(a.PublishDir, b.PublishDir)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
