package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/squint/internal/querysql"
)

// LoadRows inserts rows into table, creating the table on first use.
//
// header names the columns of rows. Columns that the table lacks are added
// with an empty-string default (so existing rows read as ""), and table
// columns missing from header are filled with "" for the new rows. Rows
// shorter than header are padded with ""; longer rows are an error.
//
// The whole load runs in one transaction.
func (s *Store) LoadRows(ctx context.Context, table string, header []string, rows [][]any) error {
	if len(header) == 0 {
		return fmt.Errorf("load %s: empty header", table)
	}
	if err := checkHeader(header); err != nil {
		return fmt.Errorf("load %s: %w", table, err)
	}

	existing, err := s.Columns(ctx, table)
	if err != nil {
		return fmt.Errorf("load %s: %w", table, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("load %s: begin: %w", table, err)
	}
	defer tx.Rollback()

	if len(existing) == 0 {
		stmt := fmt.Sprintf("CREATE TABLE %s (%s)", querysql.QuoteIdent(table), quoteAll(header))
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("load %s: create table: %w", table, err)
		}
	} else {
		have := make(map[string]bool, len(existing))
		for _, c := range existing {
			have[c] = true
		}
		for _, c := range header {
			if have[c] {
				continue
			}
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s DEFAULT ''",
				querysql.QuoteIdent(table), querysql.QuoteIdent(c))
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("load %s: add column %q: %w", table, c, err)
			}
		}
	}

	// Table columns absent from header get the column default, which is ''
	// for merged columns. Original columns have no default, so name them
	// explicitly.
	cols := append([]string(nil), header...)
	var fill int
	inHeader := make(map[string]bool, len(header))
	for _, c := range header {
		inHeader[c] = true
	}
	for _, c := range existing {
		if !inHeader[c] {
			cols = append(cols, c)
			fill++
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		querysql.QuoteIdent(table), quoteAll(cols), placeholders)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("load %s: prepare insert: %w", table, err)
	}
	defer stmt.Close()

	args := make([]any, len(cols))
	for i, row := range rows {
		if len(row) > len(header) {
			return fmt.Errorf("load %s: row %d has %d values, header has %d", table, i+1, len(row), len(header))
		}
		for j := range args {
			if j < len(row) {
				args[j] = row[j]
			} else {
				args[j] = ""
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("load %s: insert row %d: %w", table, i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("load %s: commit: %w", table, err)
	}
	slog.Debug("loaded rows", "table", table, "rows", len(rows), "columns", len(header), "filled", fill)
	return nil
}

func checkHeader(header []string) error {
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		if h == "" {
			return fmt.Errorf("empty column name")
		}
		if seen[h] {
			return fmt.Errorf("duplicate column %q", h)
		}
		seen[h] = true
	}
	return nil
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = querysql.QuoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}
