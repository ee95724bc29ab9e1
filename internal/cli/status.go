package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/rohmanhakim/cfcli/internal/auth"
	"github.com/spf13/cobra"
)

var errStatusTarget = errors.New("provide either a submission id or --contest-id")

func newStatusCmd() *cobra.Command {
	var contestID int

	statusCmd := &cobra.Command{
		Use:   "status [SUBMISSION_ID]",
		Short: "Show the verdict of a submission or a contest's submissions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && contestID <= 0 {
				return errStatusTarget
			}
			var submissionID int64
			if len(args) == 1 {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil || id <= 0 {
					return fmt.Errorf("submission id must be a positive number, got %q", args[0])
				}
				submissionID = id
			}

			rt, err := newRuntime(cmd, auth.Credentials{})
			if err != nil {
				return err
			}
			defer rt.close()

			out := cmd.OutOrStdout()
			if submissionID > 0 {
				return pollAndReport(cmd.Context(), rt.judge, submissionID, out, cmd.ErrOrStderr())
			}

			rows, listErr := rt.judge.ContestSubmissions(cmd.Context(), contestID)
			if listErr != nil {
				return listErr
			}
			if len(rows) == 0 {
				pendingColor.Fprintf(out, "No submissions found for contest %d.\n", contestID)
				return nil
			}
			infoColor.Fprintf(out, "== Submissions for Contest %d ==\n", contestID)
			return writeSubmissionTable(out, rows)
		},
	}

	statusCmd.Flags().IntVar(&contestID, "contest-id", 0, "list your submissions to this contest")
	return statusCmd
}
