package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckoutCmd(a *app) *cobra.Command {
	var createBranch bool

	cmd := &cobra.Command{
		Use:   "checkout <revision>",
		Short: "Switch branches or detach HEAD at a commit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]

			r, err := a.open()
			if err != nil {
				return err
			}

			if createBranch {
				head, err := r.ResolveRevision("HEAD")
				if err != nil {
					return fmt.Errorf("cannot resolve HEAD: %w", err)
				}
				if err := r.CreateBranch(target, head); err != nil {
					return err
				}
			}

			res, err := r.Checkout(target)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case createBranch:
				fmt.Fprintf(out, "Switched to a new branch '%s'\n", target)
			case res.Branch != "":
				fmt.Fprintf(out, "Switched to branch '%s'\n", res.Branch)
			default:
				title := ""
				if c, err := r.NewArena().Commit(res.Hash); err == nil {
					title = c.TitleLine()
				}
				fmt.Fprintf(out, "HEAD is now at %s %s\n", res.Hash.Short(), title)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&createBranch, "branch", "b", false, "create and switch to a new branch")

	return cmd
}
