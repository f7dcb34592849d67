package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"weak"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// pragmas are applied to every new connection.
var pragmas = []string{
	"PRAGMA synchronous = OFF",
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 5000",
}

// Store provides the SQLite database behind one or more selections.
type Store struct {
	db   *sql.DB
	path string
	temp bool
	refs atomic.Int32

	mu      sync.RWMutex
	slots   []slot
	free    []int
	applied map[weak.Pointer[sqlite3.SQLiteConn]]int
}

// Open creates or opens a SQLite database at the given path.
// The returned Store holds one reference.
func Open(path string) (*Store, error) {
	return open(path, false)
}

// OpenTemp creates a Store backed by a fresh file in the temporary
// directory. The file is removed when the last reference is released.
func OpenTemp() (*Store, error) {
	path := filepath.Join(os.TempDir(), "squint-"+uuid.NewString()+".db")
	return open(path, true)
}

func open(path string, temp bool) (*Store, error) {
	s := &Store{
		path:    path,
		temp:    temp,
		applied: make(map[weak.Pointer[sqlite3.SQLiteConn]]int),
	}

	// Each Store gets its own driver registration so the connect hook can
	// reach the Store's function registry.
	driverName := "sqlite3_squint_" + uuid.NewString()
	sql.Register(driverName, &sqlite3.SQLiteDriver{ConnectHook: s.connect})

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection works
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxIdleConns(2)

	s.db = db
	s.refs.Store(1)
	slog.Debug("store opened", "path", path, "temp", temp)
	return s, nil
}

var (
	defaultMu    sync.Mutex
	defaultStore *Store
)

// Default returns the shared temporary store with an added reference.
// Callers release it with Close like any other Store.
func Default() (*Store, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultStore != nil && defaultStore.Retain() != nil {
		return defaultStore, nil
	}

	s, err := OpenTemp()
	if err != nil {
		return nil, err
	}
	defaultStore = s
	return s, nil
}

// Retain adds a reference. It returns nil when the Store has already been
// fully released.
func (s *Store) Retain() *Store {
	for {
		n := s.refs.Load()
		if n <= 0 {
			return nil
		}
		if s.refs.CompareAndSwap(n, n+1) {
			return s
		}
	}
}

// Close releases one reference. The last release closes the database and
// removes temporary files. Extra calls are no-ops.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	for {
		n := s.refs.Load()
		if n <= 0 {
			return nil
		}
		if s.refs.CompareAndSwap(n, n-1) {
			if n > 1 {
				return nil
			}
			break
		}
	}

	err := s.db.Close()
	if s.temp {
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if rmErr := os.Remove(s.path + suffix); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				err = errors.Join(err, rmErr)
			}
		}
	}
	slog.Debug("store closed", "path", s.path)
	return err
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Rows is a cursor pinned to one pooled connection. Close releases both.
type Rows struct {
	*sql.Rows
	conn *sql.Conn
}

// Close closes the cursor and returns its connection to the pool.
func (r *Rows) Close() error {
	return errors.Join(r.Rows.Close(), r.conn.Close())
}

// Query executes a query on a connection that knows every registered
// function. Callers are responsible for closing the returned rows.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*Rows, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &Rows{Rows: rows, conn: conn}, nil
}

// Exec executes a statement on a connection that knows every registered
// function.
func (s *Store) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return conn.ExecContext(ctx, query, args...)
}

// conn reserves a pooled connection and brings its function set up to date.
func (s *Store) conn(ctx context.Context) (*sql.Conn, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	if err := s.syncFunctions(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// connect configures a new driver connection.
func (s *Store) connect(conn *sqlite3.SQLiteConn) error {
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma, nil); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.slots {
		if err := s.register(conn, i); err != nil {
			return err
		}
	}
	s.pruneApplied()
	s.applied[weak.Make(conn)] = len(s.slots)
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
