package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/PavelSyomin/oks-checker/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web application",
	Long: `Serve starts the upload-and-review web application together with its
JSON API:

  /             stored document list
  /batch        batch processing over selected documents
  /devplans     REST API, also consumed by the download command

The listen address, working directories and cache behavior come from the
configuration. The config file is watched and reloaded on change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := setup()
		if err != nil {
			return err
		}
		m.WatchConfig()

		srv, err := server.New(m, slog.Default())
		if err != nil {
			return err
		}
		return srv.Start(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
