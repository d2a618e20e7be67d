package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gosuri/uilive"
	"github.com/spf13/cobra"

	"go-jira-download/internal/api"
	"go-jira-download/internal/catalog"
	"go-jira-download/internal/config"
	"go-jira-download/internal/helpers"
	"go-jira-download/internal/queue"
)

var allCmd = &cobra.Command{
	Use:   "all ISSUE",
	Short: "Download every attachment of an issue without the picker",
	Long: `all downloads every attachment of the given issue in list order,
reporting progress on a single updating line. Suited to scripts and
issues where the whole set is wanted anyway. Ctrl+C cancels the
in-flight transfer and leaves the rest untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: runAll,
}

func init() {
	rootCmd.AddCommand(allCmd)
}

func runAll(cmd *cobra.Command, args []string) error {
	issueKey := args[0]
	cfg := globalConfig

	if err := config.ValidateCredentials(cfg); err != nil {
		return err
	}
	if !helpers.CheckAndMakeDir(cfg.OutputDir) {
		return fmt.Errorf("could not create output directory %s", cfg.OutputDir)
	}

	restoreLogging := initLogging(cfg, false)
	defer restoreLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := api.NewClient(cfg, &http.Client{Transport: globalHttpTransport})

	attachments, err := client.GetIssueAttachments(ctx, issueKey)
	if err != nil {
		return fmt.Errorf("loading attachments for %s: %w", issueKey, err)
	}
	cat := catalog.Load(attachments)
	if cat.Len() == 0 {
		fmt.Printf("Issue %s has no attachments.\n", issueKey)
		return nil
	}

	store := openHistory(cfg.SaveHistory, cfg.HistoryPath)
	var recorder queue.Recorder
	if store != nil {
		recorder = store
		defer store.Close()
	}

	q := queue.New(client, recorder, issueKey, cfg.OutputDir, cat.All())
	events := make(chan queue.Event, 64)
	go q.Drain(ctx, events)

	writer := uilive.New()
	writer.Start()

	total := q.Len()
	for event := range events {
		if event.Drained {
			break
		}
		d := q.Items()[event.Index].Descriptor
		switch {
		case event.Finished && event.Status == queue.StatusDone:
			fmt.Fprintf(writer.Bypass(), "Downloaded %s (%s)\n", d.Filename, helpers.BytesToSize(d.Size))
		case event.Finished && event.Status == queue.StatusFailed:
			fmt.Fprintf(writer.Bypass(), "Failed %s: %v\n", d.Filename, event.Err)
		default:
			fmt.Fprintf(writer, "[%d/%d] %s - %s / %s\n",
				event.Index+1, total, d.Filename,
				helpers.BytesToSize(event.Bytes), helpers.BytesToSize(d.Size))
		}
	}
	writer.Stop()

	done, failed := 0, 0
	for _, item := range q.Items() {
		switch item.Status {
		case queue.StatusDone:
			done++
		case queue.StatusFailed:
			failed++
		}
	}
	fmt.Printf("Finished: %d downloaded, %d failed, %d skipped.\n", done, failed, total-done-failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, total)
	}
	return nil
}
