package main

import (
	"github.com/odvcencio/rug/pkg/diff"
	"github.com/spf13/cobra"
)

func newDiffCmd(a *app) *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Show changes between the workspace, the index and HEAD",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}
			opts, err := r.DiffOptions()
			if err != nil {
				return err
			}

			var patches []*diff.FilePatch
			if cached {
				patches, err = r.DiffCached(nil)
			} else {
				patches, err = r.DiffWorkspace(nil)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			c := a.colorizer(out)
			for _, p := range patches {
				if err := diff.WriteUnified(out, p, diff.Diff(p.Old, p.New, opts), c); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "show staged changes (index vs HEAD)")
	cmd.Flags().BoolVar(&cached, "staged", false, "synonym for --cached")

	return cmd
}
