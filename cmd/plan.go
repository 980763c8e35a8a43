package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"autodoc/pkg/ignore"
	"autodoc/pkg/pipeline"
)

var planExclude []string

// planCmd shows what a run would do to a local directory without calling
// the generation service.
var planCmd = &cobra.Command{
	Use:   "plan [directory]",
	Short: "Show which files of a directory would be documented",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		classifier, err := ignore.NewClassifier(logger, append(cfg.Exclude, planExclude...)...)
		if err != nil {
			return err
		}
		if err := classifier.LoadIgnoreFile(dir); err != nil {
			return err
		}

		tree, pending, err := pipeline.Plan(dir, classifier, cfg.MaxChars, logger)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), tree)
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d files would be documented.\n", pending)
		return nil
	},
}

func init() {
	planCmd.Flags().StringSliceVarP(&planExclude, "exclude", "e", nil, "Extra exclusion globs (repeatable)")
	RootCmd.AddCommand(planCmd)
}
