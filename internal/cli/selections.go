package cli

import (
	"fmt"
	"io"

	"github.com/haymanh/success/internal/client/reconcile"
	"github.com/spf13/cobra"
)

func newSelectionsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "selections",
		Aliases: []string{"sel"},
		Short:   "Show and change your selected opportunities",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print your selected opportunity IDs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			return runSelections(cmd, opts, nil)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <opportunity-id>",
		Short: "Select an opportunity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			return runSelections(cmd, opts, func(r *reconcile.Reconciler) error {
				return r.Add(cmd.Context(), args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:     "remove <opportunity-id>",
		Aliases: []string{"rm"},
		Short:   "Deselect an opportunity",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			return runSelections(cmd, opts, func(r *reconcile.Reconciler) error {
				return r.Remove(cmd.Context(), args[0])
			})
		},
	})
	return cmd
}

// runSelections signs in, loads the selection set, applies mutate if
// given, waits for the follow-up refresh, and prints the result. Notices
// go to stderr; the mutation's error is the command's error.
func runSelections(cmd *cobra.Command, opts *options, mutate func(*reconcile.Reconciler) error) (err error) {
	c, err := opts.signedInClient(cmd.Context())
	if err != nil {
		return err
	}

	r := reconcile.New(c,
		reconcile.WithRefreshDelay(opts.refreshDelay),
		reconcile.WithLoadTimeout(opts.timeout),
		reconcile.WithLogger(opts.logger),
	)
	defer r.Close()

	// A failed load leaves the set empty and is reported as a notice.
	_ = r.Load(cmd.Context())

	if mutate != nil {
		err = mutate(r)
		r.Wait()
	}

	printNotices(cmd.ErrOrStderr(), r.Notices())
	printIDs(cmd.OutOrStdout(), r.IDs())
	return err
}

func printNotices(w io.Writer, notices []reconcile.Notice) {
	for _, n := range notices {
		fmt.Fprintf(w, "[%s] %s\n", n.Level, n.Message)
	}
}

func printIDs(w io.Writer, ids []string) {
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
	fmt.Fprintf(w, "%d selected\n", len(ids))
}
