package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PavelSyomin/oks-checker/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration helpers",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a commented default config file",
	Long: `Init writes the default configuration with explanatory comments to
config.yaml in the current directory, or to the given path. Existing
files are left alone.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "config.yaml"
		if len(args) > 0 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
