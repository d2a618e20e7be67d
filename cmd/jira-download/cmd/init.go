package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-jira-download/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: `init writes a commented config.toml to the per-user config
directory (or the directory given with --config-dir). Edit it to set
your Jira base URL and token.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var initDirFlag string

func init() {
	initCmd.Flags().StringVar(&initDirFlag, "config-dir", "", "Directory to write config.toml into (default per-user config dir)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := initDirFlag
	if dir == "" {
		var err error
		dir, err = config.DefaultConfigDir()
		if err != nil {
			return err
		}
	}
	path, err := config.WriteExample(dir)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", path)
	fmt.Println("Set BaseUrl and Token (or export JIRA_BASE_URL and JIRA_TOKEN) before running 'jira-download get'.")
	return nil
}
