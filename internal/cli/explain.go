package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*RootOptions
	NoOptimize bool
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain <query.yaml>",
		Short: "Show the execution plan of a query file",
		Long: `Show the data source and the execution plan of a query file without
running it. Plans are shown after push-down rewrites unless --no-optimize
is given.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(cmd, opts, args[0])
		},
	}

	cmd.Flags().BoolVar(&opts.NoOptimize, "no-optimize", false, "show the plan without push-down rewrites")

	return cmd
}

func runExplain(cmd *cobra.Command, opts *ExplainOptions, path string) error {
	setupLogging(opts.Verbose, cmd.ErrOrStderr())
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	sess, err := openSession(cmd.Context(), opts.RootOptions, formatter, path)
	if err != nil {
		return err
	}
	defer sess.Close()

	text, err := sess.query.Explain(!opts.NoOptimize)
	if err != nil {
		return formatter.QueryError("failed to explain query", err)
	}
	if opts.Format == "json" {
		return formatter.Success(map[string]any{
			"query":   sess.file.Name,
			"explain": text,
		})
	}
	return formatter.Success(strings.TrimSuffix(text, "\n"))
}
