package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/squint/internal/preview"
	"github.com/roach88/squint/internal/result"
	"github.com/roach88/squint/internal/selection"
)

// PreviewOptions holds flags for the preview command.
type PreviewOptions struct {
	*RootOptions
	MaxLines int
}

// NewPreviewCommand creates the preview command.
func NewPreviewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PreviewOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "preview <query.yaml>",
		Short: "Show the first rows of a query result",
		Long: `Run a query file and render the first rows of its result as a markdown
table. Only the rows shown are read from the data source.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd, opts, args[0])
		},
	}

	cmd.Flags().IntVarP(&opts.MaxLines, "lines", "n", preview.NewFormatter().MaxLines, "number of rows to show")

	return cmd
}

func runPreview(cmd *cobra.Command, opts *PreviewOptions, path string) error {
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

	v, err := sess.query.Execute(ctx, sess.file.ExecuteOptions()...)
	if err != nil {
		return formatter.QueryError("query failed", err)
	}
	if r, ok := v.(*result.Result); ok {
		defer r.Close()
	}

	pf := preview.NewFormatter()
	if opts.MaxLines > 0 {
		pf.MaxLines = opts.MaxLines
	}
	text, err := pf.Render(v, selection.Columns(sess.query.Spec()))
	if err != nil {
		return formatter.QueryError("failed to render preview", err)
	}
	if opts.Format == "json" {
		return formatter.Success(map[string]any{
			"query":   sess.file.Name,
			"preview": text,
		})
	}
	return formatter.Success(strings.TrimSuffix(text, "\n"))
}
