package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/odvcencio/rug/pkg/object"
	"github.com/odvcencio/rug/pkg/repo"
	"github.com/spf13/cobra"
)

const logDateFormat = "Mon Jan 2 15:04:05 2006 -0700"

func newLogCmd(a *app) *cobra.Command {
	var oneline bool
	var limit int
	var showSignature bool

	cmd := &cobra.Command{
		Use:   "log [revision]",
		Short: "Show commit history",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}

			start := "HEAD"
			if len(args) == 1 {
				start = args[0]
			}
			startHash, err := r.ResolveRevision(start)
			if err != nil {
				return err
			}

			entries, err := r.Log(startHash, limit)
			if err != nil {
				return err
			}

			decorations, err := branchDecorations(r)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, entry := range entries {
				h := entry.Hash
				c := entry.Commit
				decoration := ""
				if names := decorations[h]; len(names) > 0 {
					decoration = " (" + strings.Join(names, ", ") + ")"
				}

				if oneline {
					fmt.Fprintf(out, "%s%s %s\n", a.paint(out, ansiYellow, h.Short()), decoration, c.TitleLine())
					continue
				}
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintf(out, "%s%s\n", a.paint(out, ansiYellow, "commit "+string(h)), decoration)
				if showSignature && c.Signature != "" {
					printSignatureCheck(out, c)
				}
				fmt.Fprintf(out, "Author: %s <%s>\n", c.Author.Name, c.Author.Email)
				fmt.Fprintf(out, "Date:   %s\n", c.Author.When.Format(logDateFormat))
				fmt.Fprintln(out)
				for _, line := range strings.Split(strings.TrimRight(c.Message, "\n"), "\n") {
					fmt.Fprintf(out, "    %s\n", line)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&oneline, "oneline", false, "show each commit on one line")
	cmd.Flags().IntVarP(&limit, "max-count", "n", 0, "limit the number of commits (0 = all)")
	cmd.Flags().BoolVar(&showSignature, "show-signature", false, "verify commit signatures")

	return cmd
}

// branchDecorations maps commit ids to the decorations shown after them:
// "HEAD -> main" for the current branch, plain names for the rest.
func branchDecorations(r *repo.Repo) (map[object.Hash][]string, error) {
	branches, err := r.ListBranches()
	if err != nil {
		return nil, err
	}
	out := make(map[object.Hash][]string)
	for _, b := range branches {
		name := b.Name
		if b.Current {
			name = "HEAD -> " + name
			out[b.Hash] = append([]string{name}, out[b.Hash]...)
			continue
		}
		out[b.Hash] = append(out[b.Hash], name)
	}
	if current, err := r.CurrentBranch(); err == nil && current == "" {
		if head, err := r.ReadHeadCommit(); err == nil && head != "" {
			out[head] = append([]string{"HEAD"}, out[head]...)
		}
	}
	return out, nil
}

func printSignatureCheck(out io.Writer, c *object.CommitObj) {
	key, err := verifyCommitSignature(c)
	if err != nil {
		fmt.Fprintf(out, "%v\n", err)
		return
	}
	fmt.Fprintf(out, "Good signature with %s\n", key)
}
