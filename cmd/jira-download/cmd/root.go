package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go-jira-download/internal/config"
	"go-jira-download/internal/models"
)

// Persistent flag values. Cobra fills these before PersistentPreRunE.
var (
	cfgFile       string
	baseURLFlag   string
	userFlag      string
	tokenFlag     string
	outputDirFlag string
	logLevelFlag  string
	logFormatFlag string
	logApiFlag    bool
	noHistoryFlag bool
)

// globalConfig holds the resolved configuration.
var globalConfig models.Config

// globalHttpTransport is the base or logging-wrapped HTTP transport.
var globalHttpTransport http.RoundTripper

var rootCmd = &cobra.Command{
	Use:   "jira-download",
	Short: "Browse and download Jira issue attachments",
	Long: `jira-download lists the attachments of a Jira issue in an
interactive terminal picker and downloads the selected subset, one
file at a time, to a local directory.

Credentials are resolved from a config file, JIRA_* environment
variables, and flags, in increasing precedence.`,
	PersistentPreRunE: loadGlobalConfig,
	PersistentPostRun: closeGlobalTransport,
	SilenceUsage:      true,
}

// closeGlobalTransport flushes and closes the API logging transport, if
// one was wired, once the command is done.
func closeGlobalTransport(cmd *cobra.Command, args []string) {
	if closer, ok := globalHttpTransport.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			log.WithError(err).Warn("Failed to close API logging transport")
		}
	}
}

// Execute runs the root command. Called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Configuration file path (default is ./config.toml or ~/.config/jira-download/config.toml)")
	pf.StringVar(&baseURLFlag, "base-url", "", "Jira base URL, e.g. https://jira.example.com (overrides config)")
	pf.StringVar(&userFlag, "user", "", "Jira user for basic auth; leave empty for bearer tokens (overrides config)")
	pf.StringVar(&tokenFlag, "token", "", "Jira API token (overrides config; prefer JIRA_TOKEN)")
	pf.StringVarP(&outputDirFlag, "output", "o", "", "Directory to save attachments (overrides config)")
	pf.StringVar(&logLevelFlag, "log-level", "", "Logging level (trace, debug, info, warn, error)")
	pf.StringVar(&logFormatFlag, "log-format", "", "Logging format (text, json)")
	pf.BoolVar(&logApiFlag, "log-api", false, "Log API requests/responses to api.log (overrides config)")
	pf.BoolVar(&noHistoryFlag, "no-history", false, "Do not record completed downloads in the history store")
}

// stringFlag returns a pointer only when the flag was actually set, so
// empty flags never mask config-file or environment values.
func stringFlag(cmd *cobra.Command, name string, value *string) *string {
	if cmd.Flags().Changed(name) {
		return value
	}
	return nil
}

func boolFlag(cmd *cobra.Command, name string, value *bool) *bool {
	if cmd.Flags().Changed(name) {
		return value
	}
	return nil
}

// loadGlobalConfig resolves the layered configuration before any
// command runs. The init command is exempt: it has to work before a
// config exists.
func loadGlobalConfig(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "init" {
		return nil
	}

	flags := config.CliFlags{
		ConfigFilePath: stringFlag(cmd, "config", &cfgFile),
		BaseURL:        stringFlag(cmd, "base-url", &baseURLFlag),
		User:           stringFlag(cmd, "user", &userFlag),
		Token:          stringFlag(cmd, "token", &tokenFlag),
		OutputDir:      stringFlag(cmd, "output", &outputDirFlag),
		LogLevel:       stringFlag(cmd, "log-level", &logLevelFlag),
		LogFormat:      stringFlag(cmd, "log-format", &logFormatFlag),
		LogApiRequests: boolFlag(cmd, "log-api", &logApiFlag),
		NoHistory:      boolFlag(cmd, "no-history", &noHistoryFlag),
	}

	cfg, transport, err := config.Initialize(flags)
	if err != nil {
		return err
	}
	globalConfig = cfg
	globalHttpTransport = transport
	return nil
}

// initLogging configures logrus from the resolved config. When toFile
// is true (the interactive picker), log lines go to the configured log
// file so they cannot corrupt the terminal UI.
func initLogging(cfg models.Config, toFile bool) func() {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	if !toFile {
		return func() {}
	}
	// #nosec G304
	f, err := os.OpenFile(cfg.LogFilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		log.SetOutput(os.Stderr)
		log.WithError(err).Warnf("Could not open log file %s, logging to stderr", cfg.LogFilePath)
		return func() {}
	}
	log.SetOutput(f)
	return func() {
		log.SetOutput(os.Stderr)
		_ = f.Close()
	}
}
