// Package store persists documents under an index directory and
// rebuilds in-memory indexes from them. SQLite provides the document
// storage, a file lock serializes writers, and a filesystem watcher
// detects when an open snapshot has gone stale.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	ferrors "github.com/ferret-go/ferret/internal/errors"
	"github.com/ferret-go/ferret/internal/index"
)

// dbFileName is the SQLite database file inside the index directory.
const dbFileName = "ferret.db"

// Store is a document store backed by one SQLite database. Writers
// must hold the directory write lock; any number of read-only stores
// may be open concurrently thanks to WAL mode.
type Store struct {
	mu       sync.RWMutex
	db       *sql.DB
	dir      string
	lock     *writeLock
	log      *slog.Logger
	closed   bool
	readOnly bool
}

// StoreOption configures an opened store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger used for store diagnostics.
func WithStoreLogger(log *slog.Logger) StoreOption {
	return func(s *Store) { s.log = log }
}

// ReadOnly opens the store without taking the write lock. Mutating
// operations fail.
func ReadOnly() StoreOption {
	return func(s *Store) { s.readOnly = true }
}

// Open opens (creating if necessary) the store in dir. A writable
// store takes the directory write lock and fails fast when another
// writer holds it.
func Open(dir string, opts ...StoreOption) (*Store, error) {
	s := &Store{dir: dir, log: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, ferrors.IOError(fmt.Sprintf("failed to create index directory %s", dir), err)
	}

	if !s.readOnly {
		lock, err := acquireWriteLock(dir)
		if err != nil {
			return nil, err
		}
		s.lock = lock
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, dbFileName))
	if err != nil {
		s.releaseLock()
		return nil, ferrors.IOError("failed to open document database", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			s.releaseLock()
			return nil, ferrors.IOError(fmt.Sprintf("failed to apply %q", pragma), err)
		}
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		s.releaseLock()
		return nil, err
	}

	s.db = db
	s.log.Debug("store opened", slog.String("dir", dir), slog.Bool("read_only", s.readOnly))
	return s, nil
}

func initSchema(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			doc_id  INTEGER PRIMARY KEY,
			boost   REAL NOT NULL DEFAULT 1.0,
			deleted INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS document_fields (
			doc_id INTEGER NOT NULL,
			seq    INTEGER NOT NULL,
			name   TEXT NOT NULL,
			value  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_document_fields_doc ON document_fields(doc_id, seq)`,
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
		`INSERT OR IGNORE INTO meta (key, value) VALUES ('generation', '0')`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return ferrors.New(ferrors.ErrCodeStoreFailed, "failed to initialize schema", err)
		}
	}
	return nil
}

func (s *Store) releaseLock() {
	if s.lock != nil {
		_ = s.lock.Release()
		s.lock = nil
	}
}

// Dir returns the index directory the store lives in.
func (s *Store) Dir() string { return s.dir }

// Path returns the database file path, the file a staleness watcher
// should observe.
func (s *Store) Path() string { return filepath.Join(s.dir, dbFileName) }

func (s *Store) checkWritable() error {
	if s.closed {
		return ferrors.StateError("store is closed", nil)
	}
	if s.readOnly {
		return ferrors.StateError("store is read-only", nil)
	}
	return nil
}

// AddDocument appends a document and returns its id.
func (s *Store) AddDocument(d *index.Document) (int, error) {
	if d == nil || len(d.Fields) == 0 {
		return 0, ferrors.ArgError("document must have at least one field", nil)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkWritable(); err != nil {
		return 0, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, ferrors.New(ferrors.ErrCodeStoreFailed, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	var maxID sql.NullInt64
	if err := tx.QueryRow(`SELECT MAX(doc_id) FROM documents`).Scan(&maxID); err != nil {
		return 0, ferrors.New(ferrors.ErrCodeStoreFailed, "failed to allocate document id", err)
	}
	doc := 0
	if maxID.Valid {
		doc = int(maxID.Int64) + 1
	}

	if _, err := tx.Exec(`INSERT INTO documents (doc_id, boost) VALUES (?, ?)`, doc, d.Boost); err != nil {
		return 0, ferrors.New(ferrors.ErrCodeStoreFailed, "failed to insert document", err)
	}
	for seq, f := range d.Fields {
		if _, err := tx.Exec(`INSERT INTO document_fields (doc_id, seq, name, value) VALUES (?, ?, ?, ?)`,
			doc, seq, f.Name, f.Value); err != nil {
			return 0, ferrors.New(ferrors.ErrCodeStoreFailed, "failed to insert document field", err)
		}
	}
	if err := bumpGeneration(tx); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, ferrors.New(ferrors.ErrCodeStoreFailed, "failed to commit document", err)
	}
	return doc, nil
}

// Delete marks a document deleted. Deleting a deleted or unknown id
// is a no-op.
func (s *Store) Delete(doc int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkWritable(); err != nil {
		return err
	}
	res, err := s.db.Exec(`UPDATE documents SET deleted = 1 WHERE doc_id = ? AND deleted = 0`, doc)
	if err != nil {
		return ferrors.New(ferrors.ErrCodeStoreFailed, "failed to delete document", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		tx, err := s.db.Begin()
		if err != nil {
			return ferrors.New(ferrors.ErrCodeStoreFailed, "failed to begin transaction", err)
		}
		defer tx.Rollback()
		if err := bumpGeneration(tx); err != nil {
			return err
		}
		return tx.Commit()
	}
	return nil
}

// Document fetches a stored document. Deleted documents are still
// readable.
func (s *Store) Document(doc int) (*index.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ferrors.StateError("store is closed", nil)
	}

	var boost float64
	err := s.db.QueryRow(`SELECT boost FROM documents WHERE doc_id = ?`, doc).Scan(&boost)
	if err == sql.ErrNoRows {
		return nil, ferrors.New(ferrors.ErrCodeInvalidDoc, fmt.Sprintf("document %d not found", doc), nil)
	}
	if err != nil {
		return nil, ferrors.New(ferrors.ErrCodeStoreFailed, "failed to load document", err)
	}

	d := index.NewDocument()
	d.Boost = float32(boost)
	rows, err := s.db.Query(`SELECT name, value FROM document_fields WHERE doc_id = ? ORDER BY seq`, doc)
	if err != nil {
		return nil, ferrors.New(ferrors.ErrCodeStoreFailed, "failed to load document fields", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, ferrors.New(ferrors.ErrCodeStoreFailed, "failed to scan document field", err)
		}
		d.Add(name, value)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.New(ferrors.ErrCodeStoreFailed, "failed to iterate document fields", err)
	}
	return d, nil
}

// MaxDoc returns one past the highest allocated document id.
func (s *Store) MaxDoc() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var maxID sql.NullInt64
	if err := s.db.QueryRow(`SELECT MAX(doc_id) FROM documents`).Scan(&maxID); err != nil {
		return 0, ferrors.New(ferrors.ErrCodeStoreFailed, "failed to count documents", err)
	}
	if !maxID.Valid {
		return 0, nil
	}
	return int(maxID.Int64) + 1, nil
}

// NumDocs returns the number of live documents.
func (s *Store) NumDocs() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM documents WHERE deleted = 0`).Scan(&n); err != nil {
		return 0, ferrors.New(ferrors.ErrCodeStoreFailed, "failed to count documents", err)
	}
	return n, nil
}

// Generation returns the store's write generation. It increases on
// every mutation, so a snapshot built at generation g is stale once
// Generation reports a larger value.
func (s *Store) Generation() (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return readGeneration(s.db)
}

func readGeneration(db *sql.DB) (int64, error) {
	var v string
	if err := db.QueryRow(`SELECT value FROM meta WHERE key = 'generation'`).Scan(&v); err != nil {
		return 0, ferrors.New(ferrors.ErrCodeStoreFailed, "failed to read generation", err)
	}
	var gen int64
	if _, err := fmt.Sscanf(strings.TrimSpace(v), "%d", &gen); err != nil {
		return 0, ferrors.New(ferrors.ErrCodeCorruptStore, "generation is not a number", err)
	}
	return gen, nil
}

func bumpGeneration(tx *sql.Tx) error {
	if _, err := tx.Exec(`UPDATE meta SET value = CAST(CAST(value AS INTEGER) + 1 AS TEXT) WHERE key = 'generation'`); err != nil {
		return ferrors.New(ferrors.ErrCodeStoreFailed, "failed to advance generation", err)
	}
	return nil
}

// BuildMemoryIndex replays the stored documents into a fresh in-memory
// index, reapplying deletions so document ids line up with the store.
func (s *Store) BuildMemoryIndex(opts ...index.MemoryIndexOption) (*index.MemoryIndex, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ferrors.StateError("store is closed", nil)
	}

	rows, err := s.db.Query(`SELECT doc_id, deleted FROM documents ORDER BY doc_id`)
	if err != nil {
		return nil, ferrors.New(ferrors.ErrCodeStoreFailed, "failed to list documents", err)
	}
	type docRow struct {
		id      int
		deleted bool
	}
	var ids []docRow
	for rows.Next() {
		var r docRow
		if err := rows.Scan(&r.id, &r.deleted); err != nil {
			_ = rows.Close()
			return nil, ferrors.New(ferrors.ErrCodeStoreFailed, "failed to scan document row", err)
		}
		ids = append(ids, r)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, ferrors.New(ferrors.ErrCodeStoreFailed, "failed to iterate documents", err)
	}

	idx := index.NewMemoryIndex(opts...)
	next := 0
	for _, r := range ids {
		if r.id != next {
			return nil, ferrors.New(ferrors.ErrCodeCorruptStore,
				fmt.Sprintf("document ids are not dense: expected %d, found %d", next, r.id), nil)
		}
		d, err := s.documentLocked(r.id)
		if err != nil {
			return nil, err
		}
		if _, err := idx.AddDocument(d); err != nil {
			return nil, err
		}
		if r.deleted {
			if err := idx.Delete(r.id); err != nil {
				return nil, err
			}
		}
		next++
	}
	return idx, nil
}

// documentLocked is Document without re-taking the read lock.
func (s *Store) documentLocked(doc int) (*index.Document, error) {
	var boost float64
	if err := s.db.QueryRow(`SELECT boost FROM documents WHERE doc_id = ?`, doc).Scan(&boost); err != nil {
		return nil, ferrors.New(ferrors.ErrCodeStoreFailed, "failed to load document", err)
	}
	d := index.NewDocument()
	d.Boost = float32(boost)
	rows, err := s.db.Query(`SELECT name, value FROM document_fields WHERE doc_id = ? ORDER BY seq`, doc)
	if err != nil {
		return nil, ferrors.New(ferrors.ErrCodeStoreFailed, "failed to load document fields", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, ferrors.New(ferrors.ErrCodeStoreFailed, "failed to scan document field", err)
		}
		d.Add(name, value)
	}
	return d, rows.Err()
}

// Close releases the database and the write lock.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.db.Close()
	s.releaseLock()
	if err != nil {
		return ferrors.IOError("failed to close document database", err)
	}
	return nil
}
