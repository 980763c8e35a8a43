package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

var runArgs struct {
	repo    string
	archive string
	workDir string
	exclude []string
}

// runCmd documents one project and prints where the archive went.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Document a project from a zip archive or a git repository",
	Example: `  autodoc run --archive project.zip
  autodoc run --repo https://github.com/org/project.git --exclude 'vendor'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("work-dir") {
			cfg.WorkDir = runArgs.workDir
		}
		cfg.Exclude = append(cfg.Exclude, runArgs.exclude...)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runner, err := newRunner(ctx)
		if err != nil {
			return err
		}

		artifact, status := runner.Invoke(ctx, runArgs.repo, runArgs.archive)
		fmt.Fprintln(cmd.OutOrStdout(), status)
		if artifact == "" {
			return errors.New("run failed")
		}
		fmt.Fprintln(cmd.OutOrStdout(), artifact)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVarP(&runArgs.repo, "repo", "r", "", "Git repository URL to clone")
	runCmd.Flags().StringVarP(&runArgs.archive, "archive", "a", "", "Zip archive holding the project")
	runCmd.Flags().StringVarP(&runArgs.workDir, "work-dir", "w", "", "Staging directory, wiped at the start of the run")
	runCmd.Flags().StringSliceVarP(&runArgs.exclude, "exclude", "e", nil, "Extra exclusion globs (repeatable)")
	RootCmd.AddCommand(runCmd)
}
