package cmd

import (
	"context"
	"fmt"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go-jira-download/internal/api"
	"go-jira-download/internal/catalog"
	"go-jira-download/internal/config"
	"go-jira-download/internal/helpers"
	"go-jira-download/internal/history"
	"go-jira-download/internal/queue"
	"go-jira-download/internal/tui"
)

var getCmd = &cobra.Command{
	Use:   "get ISSUE",
	Short: "Pick and download attachments of an issue interactively",
	Long: `get loads the attachment list of the given issue and opens the
interactive picker. Move with the arrow keys, mark files with space,
and press enter to download the marked subset in list order. Esc
cancels an in-flight download; q quits.`,
	Args: cobra.ExactArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
}

// openHistory returns the history store, or nil when history is
// disabled. A store that fails to open disables history for the
// session rather than aborting the download.
func openHistory(saveHistory bool, path string) *history.Store {
	if !saveHistory {
		return nil
	}
	store, err := history.Open(path)
	if err != nil {
		log.WithError(err).Warn("History store unavailable, downloads will not be recorded")
		return nil
	}
	return store
}

func runGet(cmd *cobra.Command, args []string) error {
	issueKey := args[0]
	cfg := globalConfig

	if err := config.ValidateCredentials(cfg); err != nil {
		return err
	}
	if !helpers.CheckAndMakeDir(cfg.OutputDir) {
		return fmt.Errorf("could not create output directory %s", cfg.OutputDir)
	}

	// Log lines would tear the alternate screen, so they go to a file
	// for the duration of the picker.
	restoreLogging := initLogging(cfg, true)
	defer restoreLogging()

	client := api.NewClient(cfg, &http.Client{Transport: globalHttpTransport})

	attachments, err := client.GetIssueAttachments(context.Background(), issueKey)
	if err != nil {
		return fmt.Errorf("loading attachments for %s: %w", issueKey, err)
	}
	cat := catalog.Load(attachments)

	store := openHistory(cfg.SaveHistory, cfg.HistoryPath)
	var recorder queue.Recorder
	if store != nil {
		recorder = store
		defer store.Close()
	}

	model := tui.NewModel(client, recorder, issueKey, cfg.OutputDir, cat)
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("running picker: %w", err)
	}
	return nil
}
