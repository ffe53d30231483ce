// Package cmd wires the command-line interface: parsing stored permits into
// reports, serving the web application, charting parsed results and fetching
// them from a running server.
package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/PavelSyomin/oks-checker/config"
)

var (
	cfgFile  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "oks-checker",
	Short: "Extract structured data from urban development plans (GPZU)",
	Long: `oks-checker turns semi-structured GPZU permit PDFs into canonical nested
reports: permit particulars, parcel location, permitted-use kinds,
development limits per subzone and aggregate building parameters.

Values are located by fixed anchor phrases, so the parser survives the
known template variants without a machine-readable document schema.`,
	SilenceUsage: true,
}

// Execute runs the CLI under the given signal context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.oks-checker/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (overrides the config)")
}

// setup loads the configuration and installs the process logger. Commands
// that only touch local files run without it.
func setup() (*config.Manager, error) {
	m, err := config.NewManager(cfgFile)
	if err != nil {
		return nil, err
	}

	cfg := m.Get()
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)
	return m, nil
}
