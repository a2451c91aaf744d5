package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBranchCmd(a *app) *cobra.Command {
	var verbose bool
	var deleteBranch bool

	cmd := &cobra.Command{
		Use:   "branch [-d] [<name> [<start-point>]]",
		Short: "List, create, or delete branches",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			// Delete mode.
			if deleteBranch {
				if len(args) == 0 {
					return fmt.Errorf("branch name required")
				}
				for _, name := range args {
					h, err := r.DeleteBranch(name)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Deleted branch %s (was %s).\n", name, h.Short())
				}
				return nil
			}

			// Create mode.
			if len(args) > 0 {
				start := "HEAD"
				if len(args) == 2 {
					start = args[1]
				}
				h, err := r.ResolveRevision(start)
				if err != nil {
					return err
				}
				return r.CreateBranch(args[0], h)
			}

			// List mode.
			branches, err := r.ListBranches()
			if err != nil {
				return err
			}
			arena := r.NewArena()
			for _, b := range branches {
				marker := "  "
				name := b.Name
				if b.Current {
					marker = "* "
					name = a.paint(out, ansiGreen, name)
				}
				if !verbose {
					fmt.Fprintf(out, "%s%s\n", marker, name)
					continue
				}
				title := ""
				if c, err := arena.Commit(b.Hash); err == nil {
					title = c.TitleLine()
				}
				fmt.Fprintf(out, "%s%s %s %s\n", marker, name, b.Hash.Short(), title)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show the commit each branch points to")
	cmd.Flags().BoolVarP(&deleteBranch, "delete", "d", false, "delete the named branches")

	return cmd
}
