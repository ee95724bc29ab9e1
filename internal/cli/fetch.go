package cmd

import (
	"strings"

	"github.com/rohmanhakim/cfcli/internal/auth"
	"github.com/spf13/cobra"
)

const defaultContestLimit = 5

func newFetchCmd() *cobra.Command {
	var limit int

	fetchCmd := &cobra.Command{
		Use:       "fetch [upcoming|running|past]",
		Short:     "List contests",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"upcoming", "running", "past"},
		RunE: func(cmd *cobra.Command, args []string) error {
			phase := "upcoming"
			if len(args) == 1 {
				phase = args[0]
			}

			rt, err := newRuntime(cmd, auth.Credentials{})
			if err != nil {
				return err
			}
			defer rt.close()

			out := cmd.OutOrStdout()
			if !rt.creds.IsComplete() {
				pendingColor.Fprintln(cmd.ErrOrStderr(), "Not authenticated. Using public API access.")
			}

			contests, listErr := rt.judge.ListContests(cmd.Context(), phase, limit)
			if listErr != nil {
				return listErr
			}
			if len(contests) == 0 {
				pendingColor.Fprintf(out, "No %s contests found.\n", phase)
				return nil
			}

			infoColor.Fprintf(out, "== %s Contests ==\n", strings.ToUpper(phase[:1])+phase[1:])
			return writeContestTable(out, contests)
		},
	}

	fetchCmd.Flags().IntVar(&limit, "limit", defaultContestLimit, "number of contests to show (0 for all)")
	return fetchCmd
}
