// Package config resolves the layered application configuration:
// defaults, then config file, then JIRA_* environment variables, then
// command-line flags. The core packages only ever see the resolved
// models.Config.
package config

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go-jira-download/internal/api"
	"go-jira-download/internal/models"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Default values for configuration.
const (
	DefaultOutputDir           = "attachments"
	DefaultHistoryPath         = "history.db" // Relative to OutputDir
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "text"
	DefaultLogFilePath         = "jira-download.log"
	DefaultAPIClientTimeoutSec = 900
	DefaultLogApiRequests      = false
	DefaultSaveHistory         = true

	// EnvPrefix is the prefix for environment overrides, e.g.
	// JIRA_BASE_URL, JIRA_USER, JIRA_TOKEN.
	EnvPrefix = "JIRA"

	configName = "config"
	configType = "toml"
	appDirName = "jira-download"
)

// CliFlags holds pointers to values received from command-line flags.
// Nil fields indicate the flag was not provided by the user.
type CliFlags struct {
	ConfigFilePath *string
	BaseURL        *string
	User           *string
	Token          *string
	OutputDir      *string
	LogLevel       *string
	LogFormat      *string
	LogApiRequests *bool
	NoHistory      *bool
}

func setViperDefaults(v *viper.Viper) {
	v.SetDefault("baseurl", "")
	v.SetDefault("user", "")
	v.SetDefault("token", "")
	v.SetDefault("outputdir", DefaultOutputDir)
	v.SetDefault("historypath", DefaultHistoryPath)
	v.SetDefault("loglevel", DefaultLogLevel)
	v.SetDefault("logformat", DefaultLogFormat)
	v.SetDefault("logfilepath", DefaultLogFilePath)
	v.SetDefault("apiclienttimeoutsec", DefaultAPIClientTimeoutSec)
	v.SetDefault("logapirequests", DefaultLogApiRequests)
	v.SetDefault("savehistory", DefaultSaveHistory)
}

// DefaultConfigDir returns the per-user config directory for the tool,
// e.g. ~/.config/jira-download on Linux.
func DefaultConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user config directory: %w", err)
	}
	return filepath.Join(base, appDirName), nil
}

// Initialize loads configuration with precedence
// flags > environment > config file > defaults, and returns the
// resolved config plus the HTTP transport (wrapped for API logging
// when enabled).
func Initialize(flags CliFlags) (models.Config, http.RoundTripper, error) {
	v := viper.New()
	setViperDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only resolves keys viper already knows about on
	// Unmarshal; bind the ones we depend on explicitly.
	for _, key := range []string{
		"base_url", "user", "token", "output_dir", "history_path",
		"log_level", "log_format", "log_file_path",
		"api_client_timeout_sec", "log_api_requests", "save_history",
	} {
		_ = v.BindEnv(strings.ReplaceAll(key, "_", ""), EnvPrefix+"_"+strings.ToUpper(key))
	}

	if flags.ConfigFilePath != nil && *flags.ConfigFilePath != "" {
		v.SetConfigFile(*flags.ConfigFilePath)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		v.AddConfigPath(".")
		if dir, err := DefaultConfigDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && flags.ConfigFilePath == nil {
			log.Debug("No config file found, using defaults, environment, and flags")
		} else {
			return models.Config{}, nil, fmt.Errorf("error reading config file: %w", err)
		}
	} else {
		log.Debugf("Using config file: %s", v.ConfigFileUsed())
	}

	var cfg models.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return models.Config{}, nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyFlagOverrides(&cfg, flags)

	// HistoryPath defaults relative to the resolved output directory.
	if cfg.HistoryPath == "" {
		cfg.HistoryPath = DefaultHistoryPath
	}
	if !filepath.IsAbs(cfg.HistoryPath) {
		cfg.HistoryPath = filepath.Join(cfg.OutputDir, cfg.HistoryPath)
	}

	if cfg.OutputDir == "" {
		return models.Config{}, nil, fmt.Errorf("output directory cannot be empty")
	}

	transport := buildTransport(cfg)
	return cfg, transport, nil
}

func applyFlagOverrides(cfg *models.Config, flags CliFlags) {
	if flags.BaseURL != nil && *flags.BaseURL != "" {
		cfg.BaseURL = *flags.BaseURL
	}
	if flags.User != nil && *flags.User != "" {
		cfg.User = *flags.User
	}
	if flags.Token != nil && *flags.Token != "" {
		cfg.Token = *flags.Token
	}
	if flags.OutputDir != nil && *flags.OutputDir != "" {
		cfg.OutputDir = *flags.OutputDir
	}
	if flags.LogLevel != nil && *flags.LogLevel != "" {
		cfg.LogLevel = *flags.LogLevel
	}
	if flags.LogFormat != nil && *flags.LogFormat != "" {
		cfg.LogFormat = *flags.LogFormat
	}
	if flags.LogApiRequests != nil {
		cfg.LogApiRequests = *flags.LogApiRequests
	}
	if flags.NoHistory != nil && *flags.NoHistory {
		cfg.SaveHistory = false
	}
}

// ValidateCredentials checks the fields the Jira client needs. Only
// commands that talk to Jira call this; history and init run without
// credentials.
func ValidateCredentials(cfg models.Config) error {
	if cfg.BaseURL == "" {
		return fmt.Errorf("base_url is required (set BaseUrl in config, JIRA_BASE_URL, or --base-url)")
	}
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return fmt.Errorf("base_url must start with http:// or https://, got %q", cfg.BaseURL)
	}
	if cfg.Token == "" {
		return fmt.Errorf("token is required (set Token in config or JIRA_TOKEN)")
	}
	return nil
}

// buildTransport returns the base transport, wrapped with the API
// request logger when enabled. The api.log lands next to the
// downloads.
func buildTransport(cfg models.Config) http.RoundTripper {
	base := http.DefaultTransport
	if !cfg.LogApiRequests {
		return base
	}
	logFilePath := "api.log"
	if cfg.OutputDir != "" {
		if _, err := os.Stat(cfg.OutputDir); err == nil {
			logFilePath = filepath.Join(cfg.OutputDir, logFilePath)
		}
	}
	log.Infof("API logging to file: %s", logFilePath)
	loggingTransport, err := api.NewLoggingTransport(base, logFilePath)
	if err != nil {
		log.WithError(err).Error("Failed to initialize API logging transport, logging disabled.")
		return base
	}
	return loggingTransport
}

// exampleConfig is what `jira-download init` writes out.
type exampleConfig struct {
	BaseUrl             string
	User                string
	Token               string
	OutputDir           string
	LogLevel            string
	LogFormat           string
	ApiClientTimeoutSec int
	LogApiRequests      bool
	SaveHistory         bool
}

// WriteExample writes a commented starter config.toml to dir, failing
// if one already exists. Returns the written path.
func WriteExample(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, configName+"."+configType)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("config file already exists at %s", path)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create config file %s: %w", path, err)
	}
	defer f.Close()

	header := `# jira-download configuration.
# Values here are overridden by JIRA_* environment variables and flags,
# e.g. JIRA_TOKEN overrides Token below.

`
	if _, err := f.WriteString(header); err != nil {
		return "", fmt.Errorf("failed to write config header: %w", err)
	}

	example := exampleConfig{
		BaseUrl:             "https://jira.example.com",
		User:                "you@example.com",
		Token:               "",
		OutputDir:           DefaultOutputDir,
		LogLevel:            DefaultLogLevel,
		LogFormat:           DefaultLogFormat,
		ApiClientTimeoutSec: DefaultAPIClientTimeoutSec,
		LogApiRequests:      DefaultLogApiRequests,
		SaveHistory:         DefaultSaveHistory,
	}
	if err := toml.NewEncoder(f).Encode(example); err != nil {
		return "", fmt.Errorf("failed to encode example config: %w", err)
	}
	return path, nil
}
