package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"autodoc/pkg/config"
	"autodoc/pkg/logging"
	"autodoc/pkg/version"
)

var (
	configPath string
	debug      bool

	// cfg and logger are set up by RootCmd before any subcommand runs.
	cfg    config.Config
	logger = zap.NewNop()
)

// RootCmd is the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "autodoc",
	Short: "autodoc adds documentation comments to a whole project",
	Long: `autodoc takes a project from a zip archive or a git repository, asks the
Gemini API to document every source file, and packages the result as a zip archive.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		if debug {
			loaded.Debug = true
		}
		cfg = loaded

		logger, err = logging.Setup(cfg.Debug, "autodoc", version.Get().Version)
		return err
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFile, "Path to the YAML config file")
	RootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable development logging")
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return RootCmd.Execute()
}
