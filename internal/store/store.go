package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for the resolved-model index.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS documents (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  namespace       TEXT NOT NULL,
  version         TEXT NOT NULL,
  hash            TEXT,
  last_indexed    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS namespaces (
  id                INTEGER PRIMARY KEY,
  document_id       INTEGER REFERENCES documents(id),
  name              TEXT NOT NULL UNIQUE,
  version           TEXT NOT NULL,
  shared_library    TEXT,
  identifier_prefix TEXT,
  symbol_prefix     TEXT
);

CREATE TABLE IF NOT EXISTS includes (
  id              INTEGER PRIMARY KEY,
  namespace_id    INTEGER NOT NULL REFERENCES namespaces(id),
  name            TEXT NOT NULL,
  version         TEXT
);

CREATE TABLE IF NOT EXISTS symbols (
  id              INTEGER PRIMARY KEY,
  namespace_id    INTEGER NOT NULL REFERENCES namespaces(id),
  name            TEXT NOT NULL,
  managed_name    TEXT NOT NULL,
  kind            TEXT NOT NULL,
  c_type          TEXT,
  abstract        INTEGER NOT NULL DEFAULT 0,
  fundamental     INTEGER NOT NULL DEFAULT 0,
  signature_hash  TEXT
);

CREATE TABLE IF NOT EXISTS members (
  id              INTEGER PRIMARY KEY,
  symbol_id       INTEGER NOT NULL REFERENCES symbols(id),
  name            TEXT NOT NULL,
  managed_name    TEXT NOT NULL,
  c_identifier    TEXT,
  value           INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS type_references (
  id               INTEGER PRIMARY KEY,
  namespace_id     INTEGER NOT NULL REFERENCES namespaces(id),
  name             TEXT NOT NULL,
  c_type           TEXT,
  is_array         INTEGER NOT NULL DEFAULT 0,
  binding          TEXT NOT NULL,
  target_namespace TEXT,
  target_name      TEXT NOT NULL,
  target_kind      TEXT NOT NULL,
  target_symbol_id INTEGER REFERENCES symbols(id)
);

CREATE TABLE IF NOT EXISTS relations (
  id              INTEGER PRIMARY KEY,
  symbol_id       INTEGER NOT NULL REFERENCES symbols(id),
  kind            TEXT NOT NULL,
  reference_id    INTEGER NOT NULL REFERENCES type_references(id)
);

CREATE TABLE IF NOT EXISTS callables (
  id              INTEGER PRIMARY KEY,
  namespace_id    INTEGER NOT NULL REFERENCES namespaces(id),
  symbol_id       INTEGER REFERENCES symbols(id),
  name            TEXT NOT NULL,
  managed_name    TEXT NOT NULL,
  native_name     TEXT,
  kind            TEXT NOT NULL,
  throws          INTEGER NOT NULL DEFAULT 0,
  deprecated      INTEGER NOT NULL DEFAULT 0,
  introspectable  INTEGER NOT NULL DEFAULT 1,
  moved_to        TEXT
);

CREATE TABLE IF NOT EXISTS parameters (
  id               INTEGER PRIMARY KEY,
  callable_id      INTEGER NOT NULL REFERENCES callables(id),
  name             TEXT NOT NULL,
  managed_name     TEXT NOT NULL,
  ordinal          INTEGER NOT NULL,
  is_instance      INTEGER NOT NULL DEFAULT 0,
  is_return        INTEGER NOT NULL DEFAULT 0,
  direction        TEXT,
  transfer         TEXT NOT NULL,
  nullable         INTEGER NOT NULL DEFAULT 0,
  is_pointer       INTEGER NOT NULL DEFAULT 0,
  array_length     INTEGER,
  zero_terminated  INTEGER NOT NULL DEFAULT 0,
  caller_allocates INTEGER NOT NULL DEFAULT 0,
  reference_id     INTEGER REFERENCES type_references(id)
);

CREATE TABLE IF NOT EXISTS type_members (
  id              INTEGER PRIMARY KEY,
  symbol_id       INTEGER NOT NULL REFERENCES symbols(id),
  name            TEXT NOT NULL,
  managed_name    TEXT NOT NULL,
  kind            TEXT NOT NULL,
  transfer        TEXT,
  readable        INTEGER NOT NULL DEFAULT 1,
  writable        INTEGER NOT NULL DEFAULT 0,
  reference_id    INTEGER REFERENCES type_references(id)
);

CREATE TABLE IF NOT EXISTS marshal_decisions (
  id                    INTEGER PRIMARY KEY,
  parameter_id          INTEGER NOT NULL REFERENCES parameters(id),
  direction             TEXT NOT NULL,
  rule                  TEXT,
  strategy              TEXT,
  expr                  TEXT,
  ownership_transferred INTEGER NOT NULL DEFAULT 0,
  placeholder           INTEGER NOT NULL DEFAULT 0,
  element_wise          INTEGER NOT NULL DEFAULT 0,
  error                 TEXT
);

CREATE INDEX IF NOT EXISTS idx_symbols_namespace ON symbols(namespace_id);
CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind);
CREATE INDEX IF NOT EXISTS idx_symbols_hash ON symbols(signature_hash);
CREATE INDEX IF NOT EXISTS idx_members_symbol ON members(symbol_id);
CREATE INDEX IF NOT EXISTS idx_includes_namespace ON includes(namespace_id);
CREATE INDEX IF NOT EXISTS idx_type_refs_namespace ON type_references(namespace_id);
CREATE INDEX IF NOT EXISTS idx_type_refs_target ON type_references(target_namespace, target_name);
CREATE INDEX IF NOT EXISTS idx_type_refs_target_symbol ON type_references(target_symbol_id);
CREATE INDEX IF NOT EXISTS idx_relations_symbol ON relations(symbol_id);
CREATE INDEX IF NOT EXISTS idx_relations_reference ON relations(reference_id);
CREATE INDEX IF NOT EXISTS idx_callables_namespace ON callables(namespace_id);
CREATE INDEX IF NOT EXISTS idx_callables_symbol ON callables(symbol_id);
CREATE INDEX IF NOT EXISTS idx_callables_native ON callables(native_name);
CREATE INDEX IF NOT EXISTS idx_parameters_callable ON parameters(callable_id);
CREATE INDEX IF NOT EXISTS idx_type_members_symbol ON type_members(symbol_id);
CREATE INDEX IF NOT EXISTS idx_marshal_decisions_parameter ON marshal_decisions(parameter_id);
`

// GetMetadata returns the value stored under key, or "" when absent.
func (s *Store) GetMetadata(key string) (string, error) {
	var v string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %s: %w", key, err)
	}
	return v, nil
}

// SetMetadata upserts a metadata value.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %s: %w", key, err)
	}
	return nil
}

// DeleteNamespaceData transactionally removes a namespace and everything it
// owns. References from other namespaces into it are unlinked, not deleted,
// so LinkReferences can rebind them after the namespace is re-indexed.
// Deletes in reverse-dependency order to respect FK constraints.
func (s *Store) DeleteNamespaceData(namespaceID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	symbolIDs, err := queryIDs(tx, "SELECT id FROM symbols WHERE namespace_id = ?", namespaceID)
	if err != nil {
		return fmt.Errorf("query symbols: %w", err)
	}
	callableIDs, err := queryIDs(tx, "SELECT id FROM callables WHERE namespace_id = ?", namespaceID)
	if err != nil {
		return fmt.Errorf("query callables: %w", err)
	}

	if len(symbolIDs) > 0 {
		placeholders := placeholderList(len(symbolIDs))
		args := int64sToArgs(symbolIDs)
		for _, q := range []string{
			"UPDATE type_references SET target_symbol_id = NULL WHERE target_symbol_id IN (" + placeholders + ")",
			"DELETE FROM relations WHERE symbol_id IN (" + placeholders + ")",
			"DELETE FROM type_members WHERE symbol_id IN (" + placeholders + ")",
			"DELETE FROM members WHERE symbol_id IN (" + placeholders + ")",
		} {
			if _, err := tx.Exec(q, args...); err != nil {
				return fmt.Errorf("delete symbol child data: %w", err)
			}
		}
	}

	if len(callableIDs) > 0 {
		placeholders := placeholderList(len(callableIDs))
		args := int64sToArgs(callableIDs)
		for _, q := range []string{
			"DELETE FROM marshal_decisions WHERE parameter_id IN (SELECT id FROM parameters WHERE callable_id IN (" + placeholders + "))",
			"DELETE FROM parameters WHERE callable_id IN (" + placeholders + ")",
		} {
			if _, err := tx.Exec(q, args...); err != nil {
				return fmt.Errorf("delete callable child data: %w", err)
			}
		}
	}

	for _, q := range []string{
		"DELETE FROM callables WHERE namespace_id = ?",
		"DELETE FROM type_references WHERE namespace_id = ?",
		"DELETE FROM symbols WHERE namespace_id = ?",
		"DELETE FROM includes WHERE namespace_id = ?",
		"DELETE FROM namespaces WHERE id = ?",
	} {
		if _, err := tx.Exec(q, namespaceID); err != nil {
			return fmt.Errorf("delete namespace data: %w", err)
		}
	}

	return tx.Commit()
}

type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

func queryIDs(q queryer, query string, args ...any) ([]int64, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
