// Package store caches optimised trees in a SQLite database, keyed by a
// hash of the input tree and the pass configuration that produced them.
package store

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/livecodelang/lcl/ast"
	_ "modernc.org/sqlite"
)

// DefaultMaxEntries caps the number of cached trees kept by Put.
const DefaultMaxEntries = 1000

// TreeFormat is hashed into every key. Bump it when the encoded tree
// layout changes so old entries stop matching.
const TreeFormat = "lcl-tree-1"

const schema = `CREATE TABLE IF NOT EXISTS trees (
	key     TEXT PRIMARY KEY,
	tree    BLOB NOT NULL,
	used_at INTEGER NOT NULL
)`

// Store is an open tree cache.
type Store struct {
	db *sql.DB
	// MaxEntries is the number of trees kept after each Put; the least
	// recently used go first. Zero or less disables eviction.
	MaxEntries int
	now        func() time.Time
}

// DefaultPath returns the cache location under the user's cache dir.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", "lcl", "trees.db"), nil
}

// Open opens (creating if needed) the cache database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	return &Store{db: db, MaxEntries: DefaultMaxEntries, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Key returns a hex hash key for an input tree and the passes run on it.
// Callers add anything else that changes the output, such as the binary
// version, to passes.
func Key(input []byte, passes []string) string {
	h := sha256.New()
	h.Write([]byte(TreeFormat))
	h.Write([]byte{0})
	h.Write(input)
	for _, p := range passes {
		h.Write([]byte{0}) // separator
		h.Write([]byte(p))
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:32]
}

// Get returns the tree stored under key. A hit refreshes the entry's LRU
// timestamp.
func (s *Store) Get(key string) (ast.Node, bool, error) {
	var blob []byte
	err := s.db.QueryRow(`SELECT tree FROM trees WHERE key = ?`, key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("store: get: %w", err)
	}
	data, err := decompress(blob)
	if err != nil {
		return nil, false, fmt.Errorf("store: get %s: %w", key, err)
	}
	node, err := ast.Decode(data)
	if err != nil {
		return nil, false, fmt.Errorf("store: get %s: %w", key, err)
	}
	if _, err := s.db.Exec(`UPDATE trees SET used_at = ? WHERE key = ?`, s.now().UnixNano(), key); err != nil {
		return nil, false, fmt.Errorf("store: touch: %w", err)
	}
	return node, true, nil
}

// Put stores node under key, replacing any previous entry, then evicts
// the oldest entries beyond MaxEntries.
func (s *Store) Put(key string, node ast.Node) error {
	data, err := ast.Encode(node)
	if err != nil {
		return fmt.Errorf("store: put: %w", err)
	}
	blob, err := compress(data)
	if err != nil {
		return fmt.Errorf("store: put: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO trees (key, tree, used_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET tree = excluded.tree, used_at = excluded.used_at`,
		key, blob, s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("store: put: %w", err)
	}
	return s.evict()
}

// Len returns the number of cached trees.
func (s *Store) Len() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM trees`).Scan(&n); err != nil {
		return 0, fmt.Errorf("store: count: %w", err)
	}
	return n, nil
}

// evict removes the least recently used entries until at most
// MaxEntries remain.
func (s *Store) evict() error {
	if s.MaxEntries <= 0 {
		return nil
	}
	_, err := s.db.Exec(`DELETE FROM trees WHERE key NOT IN (
		SELECT key FROM trees ORDER BY used_at DESC, rowid DESC LIMIT ?)`, s.MaxEntries)
	if err != nil {
		return fmt.Errorf("store: evict: %w", err)
	}
	return nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&buf, gzip.BestSpeed)
	if err != nil {
		return nil, err
	}
	if _, err := gw.Write(data); err != nil {
		gw.Close()
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decompress(blob []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	return io.ReadAll(gr)
}
