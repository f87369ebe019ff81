package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as yaml",
	Long: `Prints the settings after merging defaults, the config file and
FLOWTRACE_* environment variables.`,
	RunE: runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	_, s, err := loadedConfig()
	if err != nil {
		return err
	}

	data, err := s.YAML()
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	out := cmd.OutOrStdout()
	source := s.ConfigFile
	if source == "" {
		source = "defaults"
	}
	fmt.Fprintf(out, "# source: %s\n", source)
	_, err = out.Write(data)
	return err
}
