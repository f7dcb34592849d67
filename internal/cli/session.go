package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/roach88/squint/internal/query"
	"github.com/roach88/squint/internal/queryfile"
	"github.com/roach88/squint/internal/selector"
	"github.com/roach88/squint/internal/store"
)

// session is a query file with its sources loaded and its query built.
type session struct {
	file  *queryfile.File
	store *store.Store
	sel   *selector.Select
	query *query.Query
}

// setupLogging installs a text slog handler writing to w.
func setupLogging(verbose bool, w io.Writer) {
	logLevel := slog.LevelWarn
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// openSession loads the query file at path, opens the store and builds the
// query. Failures are reported through formatter and returned as
// ExitErrors.
func openSession(ctx context.Context, opts *RootOptions, formatter *OutputFormatter, path string) (*session, error) {
	slog.Info("loading query file", "path", path)
	f, err := queryfile.Load(path)
	if err != nil {
		_ = formatter.Error(ErrCodeQueryFile, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to load query file", err)
	}

	var st *store.Store
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
	} else {
		st, err = store.OpenTemp()
	}
	if err != nil {
		_ = formatter.Error(ErrCodeSource, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	slog.Debug("store opened", "path", st.Path())

	sel, err := f.Open(ctx, st)
	if err != nil {
		st.Close()
		_ = formatter.Error(ErrCodeSource, err.Error(), map[string]any{"sources": f.Sources})
		return nil, WrapExitError(ExitCommandError, "failed to load sources", err)
	}
	formatter.VerboseLog("Loaded %d source(s) for %s", len(f.Sources), f.Name)

	q, err := f.Query(ctx, sel)
	if err != nil {
		sel.Close()
		st.Close()
		return nil, formatter.QueryError("failed to build query", err)
	}
	return &session{file: f, store: st, sel: sel, query: q}, nil
}

// Close releases the Select and the session's store reference.
func (s *session) Close() {
	s.sel.Close()
	s.store.Close()
}
