package cli

import (
	"encoding/json"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/squint/internal/query"
	"github.com/roach88/squint/internal/value"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	CSV        bool
	NoOptimize bool
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <query.yaml>",
		Short: "Run a query file and print the result",
		Long: `Load the sources named by a query file, run its query and print the
fully fetched result.

Example:
  squint run totals.yaml
  squint run --csv totals.yaml > totals.csv
  squint run --format json --db ./cache.db totals.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.CSV, "csv", false, "write the result as CSV")
	cmd.Flags().BoolVar(&opts.NoOptimize, "no-optimize", false, "run the plan without push-down rewrites")

	return cmd
}

func runQuery(cmd *cobra.Command, opts *RunOptions, path string) error {
	setupLogging(opts.Verbose, cmd.ErrOrStderr())
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	ctx := cmd.Context()
	sess, err := openSession(ctx, opts.RootOptions, formatter, path)
	if err != nil {
		return err
	}
	defer sess.Close()

	execOpts := sess.file.ExecuteOptions()
	if opts.NoOptimize {
		execOpts = append(execOpts, query.WithoutOptimization())
	}

	if opts.CSV {
		if err := sess.query.WriteCSV(ctx, cmd.OutOrStdout(), nil, execOpts...); err != nil {
			return formatter.QueryError("query failed", err)
		}
		return nil
	}

	v, err := sess.query.Fetch(ctx, execOpts...)
	if err != nil {
		return formatter.QueryError("query failed", err)
	}
	slog.Debug("query finished", "query", sess.file.Name)

	if opts.Format == "json" {
		raw, err := value.MarshalJSON(v)
		if err != nil {
			return formatter.QueryError("failed to encode result", err)
		}
		return formatter.Success(json.RawMessage(raw))
	}
	return formatter.Success(value.Repr(v))
}
