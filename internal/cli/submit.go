package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rohmanhakim/cfcli/internal/auth"
	"github.com/rohmanhakim/cfcli/internal/judge"
	"github.com/rohmanhakim/cfcli/internal/scaffold"
	"github.com/rohmanhakim/cfcli/internal/websession"
	"github.com/spf13/cobra"
)

func newSubmitCmd() *cobra.Command {
	var (
		contestID int
		index     string
		wait      bool
	)

	submitCmd := &cobra.Command{
		Use:   "submit FILE",
		Short: "Submit a solution",
		Long: `submit sends FILE as a solution through the website. The contest and
problem are taken from a Contest{id}_{INDEX}.cpp file name unless --contest
and --index are given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			source, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}

			id, idx, err := submitTarget(path, contestID, index)
			if err != nil {
				return err
			}

			rt, err := newRuntime(cmd, auth.Credentials{})
			if err != nil {
				return err
			}
			defer rt.close()

			out := cmd.OutOrStdout()
			infoColor.Fprintf(out, "Submitting solution to problem %s in contest %d...\n", idx, id)
			result, submitErr := rt.judge.SubmitFile(cmd.Context(), id, idx, string(source))
			if submitErr != nil {
				failureColor.Fprintln(out, "Submission failed.")
				return submitErr
			}
			if result.IsDuplicate() {
				pendingColor.Fprintf(out, "Warning: %s\n", result.Duplicate)
				return nil
			}

			successColor.Fprintln(out, "Solution submitted successfully!")
			if result.SubmissionID == 0 {
				infoColor.Fprintf(out, "Run 'cfcli status --contest-id %d' to find the submission.\n", id)
				return nil
			}
			infoColor.Fprintf(out, "Submission ID: %d\n", result.SubmissionID)
			if !wait {
				infoColor.Fprintf(out, "Run 'cfcli status %d' to check the verdict.\n", result.SubmissionID)
				return nil
			}
			return pollAndReport(cmd.Context(), rt.judge, result.SubmissionID, out, cmd.ErrOrStderr())
		},
	}

	submitCmd.Flags().IntVar(&contestID, "contest", 0, "contest id (default from the file name)")
	submitCmd.Flags().StringVar(&index, "index", "", "problem index (default from the file name)")
	submitCmd.Flags().StringVar(&languageID, "lang", "", "programTypeId of the compiler (default from config)")
	submitCmd.Flags().BoolVar(&wait, "wait", false, "wait for the verdict after submitting")
	return submitCmd
}

// submitTarget picks the contest and problem for path, flags first.
func submitTarget(path string, contestID int, index string) (int, string, error) {
	if contestID > 0 && index != "" {
		idx, err := scaffold.NormalizeIndex(index)
		if err != nil {
			return 0, "", err
		}
		return contestID, idx, nil
	}

	fromName, idxFromName, err := scaffold.ParseSourceFileName(path)
	if err != nil {
		return 0, "", fmt.Errorf("%w; pass --contest and --index", err)
	}
	if contestID > 0 {
		fromName = contestID
	}
	if index != "" {
		idx, idxErr := scaffold.NormalizeIndex(index)
		if idxErr != nil {
			return 0, "", idxErr
		}
		idxFromName = idx
	}
	return fromName, idxFromName, nil
}

func pollAndReport(ctx context.Context, j *judge.Judge, submissionID int64, out, progress io.Writer) error {
	infoColor.Fprintf(out, "Checking status for submission %d...\n", submissionID)
	j.WithPollObserver(func(_ int, _ websession.SubmissionStatus) {
		fmt.Fprint(progress, ".")
	})
	outcome, err := j.PollStatus(ctx, submissionID)
	fmt.Fprintln(progress)
	if err != nil {
		return err
	}
	writeVerdict(out, outcome)
	return nil
}
