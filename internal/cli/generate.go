package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/rohmanhakim/cfcli/internal/auth"
	"github.com/rohmanhakim/cfcli/internal/judge"
	"github.com/rohmanhakim/cfcli/internal/scaffold"
	"github.com/rohmanhakim/cfcli/internal/statement"
	"github.com/rohmanhakim/cfcli/pkg/fileutil"
	"github.com/spf13/cobra"
)

var errIndexRequired = errors.New("problem index is required when not using --all")

func newGenerateCmd() *cobra.Command {
	var (
		all           bool
		force         bool
		withStatement bool
	)

	generateCmd := &cobra.Command{
		Use:   "generate CONTEST_ID [PROBLEM_INDEX]",
		Short: "Create solution files from the template",
		Long: `generate writes Contest{id}_{INDEX}.cpp from template.cpp in the template
directory, creating a default C++ template first when there is none. Existing
files are kept unless --force is given.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			contestID, err := strconv.Atoi(args[0])
			if err != nil || contestID <= 0 {
				return fmt.Errorf("contest id must be a positive number, got %q", args[0])
			}
			if !all && len(args) < 2 {
				return errIndexRequired
			}

			rt, err := newRuntime(cmd, auth.Credentials{})
			if err != nil {
				return err
			}
			defer rt.close()

			tmplDir, pathErr := fileutil.ExpandHome(rt.cfg.TemplateDir())
			if pathErr != nil {
				return pathErr
			}
			outDir, pathErr := fileutil.ExpandHome(rt.cfg.OutputDir())
			if pathErr != nil {
				return pathErr
			}
			g := generator{
				judge:         rt.judge,
				scaffolder:    scaffold.NewScaffolder(tmplDir, outDir, rt.sink).WithForce(force),
				withStatement: withStatement,
				out:           cmd.OutOrStdout(),
			}

			if !all {
				index, idxErr := scaffold.NormalizeIndex(args[1])
				if idxErr != nil {
					return idxErr
				}
				return g.generate(cmd.Context(), contestID, index)
			}

			problems, listErr := rt.judge.ContestProblems(cmd.Context(), contestID)
			if listErr != nil {
				return listErr
			}
			if len(problems) == 0 {
				pendingColor.Fprintf(g.out, "No problems found for contest %d.\n", contestID)
				return nil
			}
			infoColor.Fprintf(g.out, "Generating files for %d problems in contest %d...\n", len(problems), contestID)
			// one bad problem does not stop the others
			var errs []error
			for _, p := range problems {
				if err := g.generate(cmd.Context(), contestID, p.Index); err != nil {
					failureColor.Fprintf(g.out, "Problem %s: %v\n", p.Index, err)
					errs = append(errs, err)
				}
			}
			return errors.Join(errs...)
		},
	}

	generateCmd.Flags().BoolVar(&all, "all", false, "generate files for every problem of the contest")
	generateCmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	generateCmd.Flags().BoolVar(&withStatement, "statement", false, "also save the problem statement as Markdown")
	generateCmd.Flags().StringVar(&templateDir, "template-dir", "", "directory containing template.cpp")
	generateCmd.Flags().StringVar(&outputDir, "output-dir", "", "directory the files are written to")
	return generateCmd
}

type generator struct {
	judge         *judge.Judge
	scaffolder    *scaffold.Scaffolder
	withStatement bool
	out           io.Writer
}

func (g generator) generate(ctx context.Context, contestID int, index string) error {
	problemURL := g.judge.ProblemURL(contestID, index)
	res, err := g.scaffolder.Generate(scaffold.Problem{
		ContestID: contestID,
		Index:     index,
		URL:       problemURL,
	})
	if err != nil {
		return err
	}
	name := filepath.Base(res.Path)
	if res.Skipped {
		pendingColor.Fprintf(g.out, "Skipping %s (already exists, use --force to overwrite)\n", name)
	} else {
		successColor.Fprintf(g.out, "Created %s successfully!\n", name)
		infoColor.Fprintf(g.out, "Problem URL: %s\n", problemURL)
	}

	if !g.withStatement {
		return nil
	}
	doc, stErr := g.judge.ProblemStatement(ctx, contestID, index)
	if stErr != nil {
		return stErr
	}
	mdRes, writeErr := g.scaffolder.WriteStatement(contestID, index, statement.Render(doc, problemURL))
	if writeErr != nil {
		return writeErr
	}
	if !mdRes.Skipped {
		successColor.Fprintf(g.out, "Saved statement to %s\n", filepath.Base(mdRes.Path))
	}
	return nil
}
