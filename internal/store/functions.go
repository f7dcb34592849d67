package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"weak"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/squint/internal/predicate"
)

// slot is one SQL function (FUNC0, FUNC1, ...). The SQL side of a slot
// is registered once per connection and looks its matcher up at call
// time, so a released slot can serve a later matcher without registering
// anything new.
type slot struct {
	name string
	m    predicate.Matcher
}

func (s *Store) register(conn *sqlite3.SQLiteConn, idx int) error {
	name := s.slots[idx].name
	impl := func(v any) int64 {
		// The driver hands NULL arguments over as a nil []byte.
		if b, ok := v.([]byte); ok && b == nil {
			v = nil
		}
		m := s.matcher(idx)
		if m != nil && m.Match(v) {
			return 1
		}
		return 0
	}
	if err := conn.RegisterFunc(name, impl, false); err != nil {
		return fmt.Errorf("register function %s: %w", name, err)
	}
	return nil
}

func (s *Store) matcher(idx int) predicate.Matcher {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots[idx].m
}

// RegisterMatcher exposes m to SQL and returns the function name
// (FUNC0, FUNC1, ...). The function is available on every connection used
// by Query and Exec until it is released.
func (s *Store) RegisterMatcher(m predicate.Matcher) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.free); n > 0 {
		idx := s.free[n-1]
		s.free = s.free[:n-1]
		s.slots[idx].m = m
		slog.Debug("reused matcher function", "name", s.slots[idx].name)
		return s.slots[idx].name
	}

	name := fmt.Sprintf("FUNC%d", len(s.slots))
	s.slots = append(s.slots, slot{name: name, m: m})
	slog.Debug("registered matcher function", "name", name)
	return name
}

// ReleaseMatcher frees the function name returned by RegisterMatcher for
// reuse. Statements still calling it must be finished.
func (s *Store) ReleaseMatcher(name string) {
	idx, err := strconv.Atoi(strings.TrimPrefix(name, "FUNC"))
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if idx < 0 || idx >= len(s.slots) || s.slots[idx].m == nil {
		return
	}
	s.slots[idx].m = nil
	s.free = append(s.free, idx)
}

// Functions reports how many matcher functions exist and how many of
// them are in use.
func (s *Store) Functions() (total, inUse int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots), len(s.slots) - len(s.free)
}

// syncFunctions registers on conn every function it has not seen yet.
func (s *Store) syncFunctions(conn *sql.Conn) error {
	return conn.Raw(func(driverConn any) error {
		sc, ok := driverConn.(*sqlite3.SQLiteConn)
		if !ok {
			return fmt.Errorf("unexpected driver connection %T", driverConn)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		key := weak.Make(sc)
		for i := s.applied[key]; i < len(s.slots); i++ {
			if err := s.register(sc, i); err != nil {
				return err
			}
		}
		s.applied[key] = len(s.slots)
		return nil
	})
}

// pruneApplied drops the bookkeeping of connections that no longer exist.
// The caller holds s.mu.
func (s *Store) pruneApplied() {
	for key := range s.applied {
		if key.Value() == nil {
			delete(s.applied, key)
		}
	}
}
