package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"mrioverlay/pkg/config"
)

// ConfigCmd groups configuration file helpers
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the YAML configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file with default values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := defaultConfigPath
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.CreateDefaultConfigFile(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Default configuration written to %s\n", path)
		return nil
	},
}

func init() {
	ConfigCmd.AddCommand(configInitCmd)
}
