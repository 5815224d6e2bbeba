// Package sqlite implements the staging docstore on a local SQLite
// database file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/vidyalab/vidya/chunk"
	"github.com/vidyalab/vidya/distance"
	"github.com/vidyalab/vidya/docstore"
	"github.com/vidyalab/vidya/internal/conv"
)

var _ docstore.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS chunks (
	seq      INTEGER PRIMARY KEY AUTOINCREMENT,
	id       TEXT NOT NULL UNIQUE,
	text     TEXT NOT NULL,
	hash     TEXT NOT NULL,
	metadata TEXT NOT NULL,
	dim      INTEGER NOT NULL,
	vector   BLOB NOT NULL
);
`

// Store is a SQLite-backed staging store. A single connection pool is
// shared by all operations; SQLite serializes writers internally.
type Store struct {
	db *sql.DB
}

// Open creates or opens the staging database at path. Use ":memory:"
// for an ephemeral store in tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open staging db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Add stages records inside one transaction. An existing row with the
// same chunk id is replaced in place, keeping its original sequence
// position so re-ingestion does not reorder the corpus.
func (s *Store) Add(ctx context.Context, records []docstore.Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, text, hash, metadata, dim, vector)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			hash = excluded.hash,
			metadata = excluded.metadata,
			dim = excluded.dim,
			vector = excluded.vector`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range records {
		meta, err := json.Marshal(rec.Chunk.Meta)
		if err != nil {
			return fmt.Errorf("marshal metadata for %s: %w", rec.Chunk.ID, err)
		}
		blob := conv.Float32SliceToBytes(rec.Vector)
		if _, err := stmt.ExecContext(ctx, rec.Chunk.ID, rec.Chunk.Text, rec.Chunk.Hash, string(meta), len(rec.Vector), blob); err != nil {
			return fmt.Errorf("stage chunk %s: %w", rec.Chunk.ID, err)
		}
	}
	return tx.Commit()
}

// All returns staged records ordered by insertion sequence.
func (s *Store) All(ctx context.Context) ([]docstore.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, text, hash, metadata, vector FROM chunks ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []docstore.Record
	for rows.Next() {
		var (
			c    chunk.Chunk
			meta string
			blob []byte
		)
		if err := rows.Scan(&c.ID, &c.Text, &c.Hash, &meta, &blob); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(meta), &c.Meta); err != nil {
			return nil, fmt.Errorf("decode metadata for %s: %w", c.ID, err)
		}
		vec, err := conv.BytesToFloat32Slice(blob)
		if err != nil {
			return nil, fmt.Errorf("decode vector for %s: %w", c.ID, err)
		}
		records = append(records, docstore.Record{Chunk: c, Vector: vec})
	}
	return records, rows.Err()
}

// Query brute-force scores every staged record by cosine similarity.
// Fine for authoring-time corpora; serve time uses the flat index.
func (s *Store) Query(ctx context.Context, query []float32, k int) ([]docstore.Hit, error) {
	if k <= 0 {
		return nil, nil
	}
	records, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	q, _ := distance.NormalizeL2Copy(query)
	hits := make([]docstore.Hit, 0, len(records))
	for _, rec := range records {
		if len(rec.Vector) != len(q) {
			continue
		}
		v, _ := distance.NormalizeL2Copy(rec.Vector)
		hits = append(hits, docstore.Hit{Record: rec, Score: distance.Dot(q, v)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the staged record count.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}

// Clear removes every staged record.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks`)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
