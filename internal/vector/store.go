package vector

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/sqlrag/internal/models"
)

// StoreFileName is the SQLite file kept inside the index directory.
const StoreFileName = "index.db"

// Metadata keys kept in collection_meta.
const (
	MetaFingerprint    = "fingerprint"
	MetaEmbeddingModel = "embedding_model"
	MetaDimensions     = "dimensions"
)

// Store persists embedded chunks in a SQLite file under a directory.
type Store struct {
	db  *sql.DB
	dir string
}

// HasData reports whether dir already holds at least one persisted chunk. It never creates anything.
func HasData(dir string) (bool, error) {
	path := filepath.Join(dir, StoreFileName)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat vector index: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return false, fmt.Errorf("failed to open vector index: %w", err)
	}
	defer db.Close()
	var n int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM chunks`).Scan(&n); err != nil {
		// A file without the chunks table holds no data.
		return false, nil
	}
	return n > 0, nil
}

// OpenStore opens or creates the store under dir. The directory is created if needed.
func OpenStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vector index directory: %w", err)
	}
	db, err := sql.Open("sqlite3", filepath.Join(dir, StoreFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open vector index: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize vector index schema: %w", err)
	}
	return &Store{db: db, dir: dir}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		source TEXT NOT NULL,
		chunk_index INTEGER NOT NULL,
		content TEXT NOT NULL,
		embedding BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_source ON chunks(source);

	CREATE TABLE IF NOT EXISTS collection_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Dir returns the index directory.
func (s *Store) Dir() string { return s.dir }

// Upsert inserts or replaces chunks by ID in one transaction. Replaced chunks keep their original order.
func (s *Store) Upsert(ctx context.Context, chunks []models.EmbeddedChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (id, source, chunk_index, content, embedding)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			source = excluded.source,
			chunk_index = excluded.chunk_index,
			content = excluded.content,
			embedding = excluded.embedding`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ID, c.Source, c.Index, c.Text, EncodeEmbedding(c.Vector)); err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// All returns every chunk in insertion order.
func (s *Store) All(ctx context.Context) ([]models.EmbeddedChunk, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, chunk_index, content, embedding FROM chunks ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.EmbeddedChunk
	for rows.Next() {
		var c models.EmbeddedChunk
		var blob []byte
		if err := rows.Scan(&c.ID, &c.Source, &c.Index, &c.Text, &blob); err != nil {
			return nil, err
		}
		if c.Vector, err = DecodeEmbedding(blob); err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Count returns the number of persisted chunks.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}

// Meta returns a metadata value, or "" when unset.
func (s *Store) Meta(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM collection_meta WHERE key = ?`, key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return v, err
}

// SetMeta stores a metadata value.
func (s *Store) SetMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collection_meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// Reset deletes every chunk and all metadata.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collection_meta`); err != nil {
		return err
	}
	return tx.Commit()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
