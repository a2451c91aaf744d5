package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/odvcencio/rug/pkg/repo"
	"github.com/spf13/cobra"
)

const version = "0.1.0-dev"

// app carries the process-level inputs every command reads, so tests can
// drive commands without touching the real environment or cwd.
type app struct {
	dir    string
	getenv func(string) string
	stdin  io.Reader

	verbose bool
	color   string
	logger  *slog.Logger
}

func newApp() *app {
	dir, err := os.Getwd()
	if err != nil {
		dir = "."
	}
	return &app{
		dir:    dir,
		getenv: os.Getenv,
		stdin:  os.Stdin,
		color:  colorAuto,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (a *app) repoOptions() []repo.Option {
	return []repo.Option{repo.WithLogger(a.logger), repo.WithEnv(a.getenv)}
}

func (a *app) open() (*repo.Repo, error) {
	return repo.Open(a.dir, a.repoOptions()...)
}

// paths converts command-line paths, relative to the working directory,
// into repository paths.
func (a *app) paths(r *repo.Repo, args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		p, err := r.RelPath(a.dir, arg)
		if err != nil {
			return nil, err
		}
		if p == "" {
			p = "."
		}
		out = append(out, p)
	}
	return out, nil
}

func main() {
	a := newApp()
	root := newRootCmd(a)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "rug",
		Short:         "A small Git-shaped version control engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch a.color {
			case colorAuto, colorAlways, colorNever:
			default:
				return fmt.Errorf("invalid --color %q: want auto, always or never", a.color)
			}
			level := slog.LevelWarn
			if a.verbose {
				level = slog.LevelDebug
			}
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "enable debug logging")
	root.PersistentFlags().StringVar(&a.color, "color", colorAuto, "colorize output: auto, always or never")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newAddCmd(a))
	root.AddCommand(newRmCmd(a))
	root.AddCommand(newCommitCmd(a))
	root.AddCommand(newStatusCmd(a))
	root.AddCommand(newDiffCmd(a))
	root.AddCommand(newBranchCmd(a))
	root.AddCommand(newLogCmd(a))
	root.AddCommand(newCheckoutCmd(a))
	root.AddCommand(newReflogCmd(a))
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rug %s\n", version)
		},
	}
}
