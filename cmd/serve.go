package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"autodoc/pkg/server"
)

var listenAddr string

// serveCmd runs the upload form over HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the upload form and run endpoint over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("listen") {
			cfg.Listen = listenAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		runner, err := newRunner(ctx)
		if err != nil {
			return err
		}
		return server.New(runner, cfg.MaxUploadSize, logger).ListenAndServe(ctx, cfg.Listen)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&listenAddr, "listen", "l", "", "Address to listen on (default from config, :7860)")
	RootCmd.AddCommand(serveCmd)
}
