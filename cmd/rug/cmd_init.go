package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/rug/pkg/repo"
	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Create an empty rug repository",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.dir
			if len(args) > 0 {
				path = args[0]
				if !filepath.IsAbs(path) {
					path = filepath.Join(a.dir, path)
				}
			}

			// Ensure the target directory exists.
			if err := os.MkdirAll(path, 0o755); err != nil {
				return fmt.Errorf("create directory: %w", err)
			}

			r, err := repo.Init(path, a.repoOptions()...)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Initialized empty rug repository in %s\n", r.MetaDir+string(filepath.Separator))
			return nil
		},
	}
}
