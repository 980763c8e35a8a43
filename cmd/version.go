// File: cmd/version.go
package cmd

import (
	"fmt"

	"autodoc/pkg/version"

	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

// versionCmd displays the version of autodoc.
// The --short flag prints the bare version string.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the version of autodoc",
	Long:  `Display the current version information of the autodoc CLI tool.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		short, err := cmd.Flags().GetBool("short")
		if err != nil {
			return errors.Errorf("error reading flags: %w", err)
		}

		v := version.Get()
		if short {
			fmt.Fprintln(cmd.OutOrStdout(), v.Version)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), v.String())
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolP("short", "s", false, "Print the version number only")
	RootCmd.AddCommand(versionCmd)
}
