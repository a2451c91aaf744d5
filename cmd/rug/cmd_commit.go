package main

import (
	"fmt"

	"github.com/odvcencio/rug/pkg/repo"
	"github.com/spf13/cobra"
)

func newCommitCmd(a *app) *cobra.Command {
	var message string
	var author string
	var sign bool
	var signingKey string

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Record changes to the repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.open()
			if err != nil {
				return err
			}

			var opts repo.CommitOptions
			if author != "" {
				sig, err := repo.ParseIdent(author)
				if err != nil {
					return err
				}
				opts.Author = &sig
			}
			if sign || signingKey != "" {
				signer, keyPath, err := newSSHCommitSigner(signingKey)
				if err != nil {
					return err
				}
				a.logger.Debug("signing commit", "key", keyPath)
				opts.Signer = signer
			}

			var msg repo.MessageSource = repo.StaticMessage(message)
			if !cmd.Flags().Changed("message") {
				msg = &editorMessage{
					repo:   r,
					stdin:  a.stdin,
					stdout: cmd.OutOrStdout(),
					stderr: cmd.ErrOrStderr(),
				}
			}

			res, err := r.Commit(msg, opts)
			if err != nil {
				return err
			}

			branch := res.Branch
			if branch == "" {
				branch = "detached HEAD"
			}
			if res.Initial {
				branch += " (root-commit)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", branch, res.Hash.Short(), res.Commit.TitleLine())
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	cmd.Flags().StringVar(&author, "author", "", `override author ("Name <email>")`)
	cmd.Flags().BoolVarP(&sign, "gpg-sign", "S", false, "sign the commit with an SSH key")
	cmd.Flags().StringVar(&signingKey, "signing-key", "", "SSH private key used with -S (default: ~/.ssh/id_*)")

	return cmd
}
