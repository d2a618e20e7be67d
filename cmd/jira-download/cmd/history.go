package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-jira-download/internal/helpers"
	"go-jira-download/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history [ISSUE]",
	Short: "List recorded downloads, optionally for one issue",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	issueKey := ""
	if len(args) == 1 {
		issueKey = args[0]
	}

	restoreLogging := initLogging(globalConfig, false)
	defer restoreLogging()

	store, err := history.Open(globalConfig.HistoryPath)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(issueKey)
	if err != nil {
		return fmt.Errorf("listing history: %w", err)
	}
	if len(entries) == 0 {
		if issueKey != "" {
			fmt.Printf("No recorded downloads for %s.\n", issueKey)
		} else {
			fmt.Println("No recorded downloads.")
		}
		return nil
	}

	fmt.Printf("%-12s %-40s %10s  %-20s %s\n", "Issue", "Filename", "Size", "Downloaded", "Checksum")
	for _, e := range entries {
		checksum := e.Checksum
		if len(checksum) > 12 {
			checksum = checksum[:12]
		}
		fmt.Printf("%-12s %-40s %10s  %-20s %s\n",
			e.IssueKey, e.Filename, helpers.BytesToSize(e.Size), e.DownloadedAt, checksum)
	}
	return nil
}
