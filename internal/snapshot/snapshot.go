// Package snapshot keeps graph documents in a SQLite database. Bodies are
// stored as zstd-compressed YAML under a random UUID.
package snapshot

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/proxygraph/internal/ctxlog"
	"github.com/specialistvlad/proxygraph/internal/gerrors"
	"github.com/specialistvlad/proxygraph/internal/graphfile"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
}

// Info describes a stored snapshot.
type Info struct {
	ID        string
	Name      string
	Kind      string
	Nodes     int
	Edges     int
	CreatedAt time.Time
}

// Store is a snapshot database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w: %w", gerrors.ErrIO, err)
	}
	// One connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s: %w: %w", path, gerrors.ErrIO, err)
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying pragma %q: %w: %w", pragma, gerrors.ErrIO, err)
		}
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w: %w", gerrors.ErrIO, err)
	}
	ctxlog.FromContext(ctx).Debug("Snapshot store opened.", "path", path)
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores doc and returns its new id.
func (s *Store) Save(ctx context.Context, doc *graphfile.Document) (string, error) {
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding snapshot of %q: %w", doc.Name, err)
	}
	body, err := graphfile.Compress(raw)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	stats := doc.Stats()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, name, kind, nodes, edges, created_at, body) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, doc.Name, doc.Kind, stats.Nodes, stats.Edges, s.now().UnixNano(), body,
	)
	if err != nil {
		return "", fmt.Errorf("inserting snapshot: %w: %w", gerrors.ErrIO, err)
	}
	ctxlog.FromContext(ctx).Debug("Snapshot stored.", "id", id, "graph", doc.Name, "bytes", len(body))
	return id, nil
}

// Load returns the document stored under id.
func (s *Store) Load(ctx context.Context, id string) (*graphfile.Document, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM snapshots WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("snapshot %s: %w", id, gerrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying snapshot %s: %w: %w", id, gerrors.ErrIO, err)
	}
	raw, err := graphfile.Decompress(body)
	if err != nil {
		return nil, err
	}
	doc := &graphfile.Document{}
	if err := yaml.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w: %w", id, gerrors.ErrIO, err)
	}
	return doc, nil
}

// List returns every snapshot, newest first.
func (s *Store) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, kind, nodes, edges, created_at FROM snapshots ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w: %w", gerrors.ErrIO, err)
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var info Info
		var created int64
		if err := rows.Scan(&info.ID, &info.Name, &info.Kind, &info.Nodes, &info.Edges, &created); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w: %w", gerrors.ErrIO, err)
		}
		info.CreatedAt = time.Unix(0, created)
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing snapshots: %w: %w", gerrors.ErrIO, err)
	}
	return out, nil
}

// Delete removes snapshot id. Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting snapshot %s: %w: %w", id, gerrors.ErrIO, err)
	}
	return nil
}
