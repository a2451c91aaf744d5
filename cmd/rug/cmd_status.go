package main

import (
	"fmt"
	"io"

	"github.com/odvcencio/rug/pkg/repo"
	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	var porcelain bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show working tree status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}

			rep, err := r.Status()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if porcelain {
				printPorcelain(out, rep)
				return nil
			}
			return a.printLongStatus(out, r, rep)
		},
	}

	cmd.Flags().BoolVar(&porcelain, "porcelain", false, "machine-readable output")

	return cmd
}

// printPorcelain writes one "XY path" line per change, then "?? path" for
// untracked paths.
func printPorcelain(out io.Writer, rep *repo.StatusReport) {
	for _, e := range rep.Entries {
		fmt.Fprintf(out, "%c%c %s\n", e.IndexStatus.Code(), e.WorkStatus.Code(), e.Path)
	}
	for _, p := range rep.Untracked {
		fmt.Fprintf(out, "?? %s\n", p)
	}
}

func (a *app) printLongStatus(out io.Writer, r *repo.Repo, rep *repo.StatusReport) error {
	branch, err := r.CurrentBranch()
	if err != nil {
		return err
	}
	if branch != "" {
		fmt.Fprintf(out, "On branch %s\n", branch)
	} else {
		fmt.Fprintf(out, "HEAD detached at %s\n", rep.HeadCommit.Short())
	}
	if rep.HeadCommit == "" {
		fmt.Fprintf(out, "\nNo commits yet\n")
	}

	staged := rep.Staged()
	if len(staged) > 0 {
		fmt.Fprintf(out, "\nChanges to be committed:\n\n")
		for _, e := range staged {
			fmt.Fprintf(out, "\t%s\n", a.paint(out, ansiGreen, fmt.Sprintf("%-12s%s", e.IndexStatus.String()+":", e.Path)))
		}
	}

	unstaged := rep.Unstaged()
	if len(unstaged) > 0 {
		fmt.Fprintf(out, "\nChanges not staged for commit:\n\n")
		for _, e := range unstaged {
			fmt.Fprintf(out, "\t%s\n", a.paint(out, ansiRed, fmt.Sprintf("%-12s%s", e.WorkStatus.String()+":", e.Path)))
		}
	}

	if len(rep.Untracked) > 0 {
		fmt.Fprintf(out, "\nUntracked files:\n\n")
		for _, p := range rep.Untracked {
			fmt.Fprintf(out, "\t%s\n", a.paint(out, ansiRed, p))
		}
	}

	switch {
	case len(staged) > 0:
	case len(unstaged) > 0:
		fmt.Fprintf(out, "\nno changes added to commit\n")
	case len(rep.Untracked) > 0:
		fmt.Fprintf(out, "\nnothing added to commit but untracked files present\n")
	default:
		fmt.Fprintf(out, "\nnothing to commit, working tree clean\n")
	}
	return nil
}
