// Package store provides the SQLite database that backs query execution.
//
// A Store wraps a database/sql pool opened through a private
// github.com/mattn/go-sqlite3 driver registration, so that every pooled
// connection is configured the same way:
//
//   - synchronous=OFF: the data is a scratch copy that can be rebuilt
//   - WAL journal: readers never block on the loader
//   - 5-second busy timeout for lock contention
//   - every registered matcher function
//
// # Lifetime
//
// Stores are reference counted. Open and OpenTemp return a Store holding
// one reference; Retain adds one and Close drops one. The last Close closes
// the pool and, for temporary stores, removes the database files.
//
// Default returns the process-wide shared temporary store, opening it on
// first use (or again after it has been fully released).
//
// # Tables
//
// Loaded tables have untyped columns, so values keep the storage class they
// were inserted with. LoadRows merges schemas: columns missing from the
// table are added with an empty-string default, and values missing from the
// incoming rows are stored as the empty string.
//
// # Cursors
//
// Query returns Rows pinned to one pooled connection. Several connections
// may be open at once so a lazily consumed cursor never blocks another
// statement.
package store
