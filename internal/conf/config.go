// config.go: settings struct for the GreeNest tracker and the viper-backed
// loader that populates it from config file and environment.
package conf

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// ServerSettings holds the HTTP listener configuration.
type ServerSettings struct {
	Host string // listen address, empty for all interfaces
	Port int    // listen port
}

// LogSettings controls the per-service rotating log files.
type LogSettings struct {
	Enabled bool   // true to write per-service log files
	Path    string // directory for log files
}

// SheetSettings identifies the spreadsheet backing the tray dashboard.
type SheetSettings struct {
	ID              string // spreadsheet id
	Tab             string // worksheet (tab) name
	CredentialsFile string // path to a service-account JSON key file
	CredentialsJSON string // inline service-account JSON, takes precedence over the file
}

// TelegramSettings configures the bot transport.
type TelegramSettings struct {
	Token         string // bot API token
	ChatID        int64  // default destination for summaries and scheduled pushes
	APIBase       string // override for tests, defaults to https://api.telegram.org
	DedupeTTLSecs int    // webhook update dedupe window in seconds
}

// AnalyzerSettings configures the external image analysis collaborator.
// An empty endpoint enables the built-in stub analyzer.
type AnalyzerSettings struct {
	Endpoint    string // analysis service URL, empty for stub results
	TimeoutSecs int    // request timeout in seconds
}

// RelaySettings configures the transparent forwarding endpoint.
type RelaySettings struct {
	BackendURL  string // direct-push endpoint of the downstream instance
	TimeoutSecs int    // forward timeout in seconds
}

// TriggerSettings protects the scheduled-summary endpoint.
type TriggerSettings struct {
	Secret string // shared bearer secret for POST /trigger_summary
}

// NotifySettings configures additional notification sinks.
type NotifySettings struct {
	ShoutrrrURLs []string // shoutrrr service URLs fanned out alongside Telegram
}

// Settings is the root configuration for the tracker.
type Settings struct {
	Debug bool // true to enable debug logging

	Main struct {
		Name string      // instance name used in log and notification headers
		Log  LogSettings // file logging configuration
	}

	Server   ServerSettings
	Sheet    SheetSettings
	Telegram TelegramSettings
	Analyzer AnalyzerSettings
	Relay    RelaySettings
	Trigger  TriggerSettings
	Notify   NotifySettings
}

// AnalyzerTimeout returns the analyzer timeout as a duration.
func (s *Settings) AnalyzerTimeout() time.Duration {
	if s.Analyzer.TimeoutSecs <= 0 {
		return 45 * time.Second
	}
	return time.Duration(s.Analyzer.TimeoutSecs) * time.Second
}

// RelayTimeout returns the relay forward timeout as a duration.
func (s *Settings) RelayTimeout() time.Duration {
	if s.Relay.TimeoutSecs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(s.Relay.TimeoutSecs) * time.Second
}

// DedupeTTL returns the webhook dedupe window as a duration.
func (s *Settings) DedupeTTL() time.Duration {
	if s.Telegram.DedupeTTLSecs <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(s.Telegram.DedupeTTLSecs) * time.Second
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration file and environment variables into a new
// Settings instance and installs it as the package singleton.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper initializes viper with defaults, env bindings and the optional
// config file. A missing config file is not an error: deployments on
// container platforms configure everything through the environment.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/greenest")
	viper.AddConfigPath("/etc/greenest")

	setDefaultConfig()

	if err := bindEnvVars(); err != nil {
		return err
	}

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// ValidateSettings checks invariants that would otherwise fail at first use.
func ValidateSettings(s *Settings) error {
	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", s.Server.Port)
	}
	if s.Telegram.DedupeTTLSecs < 0 {
		return fmt.Errorf("telegram dedupe TTL must not be negative")
	}
	if s.Analyzer.TimeoutSecs < 0 {
		return fmt.Errorf("analyzer timeout must not be negative")
	}
	return nil
}

// GetSettings returns the current settings instance
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Setting returns the current settings instance, initializing it if necessary
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("Error loading settings: %v", err)
			}
		}
	})
	return GetSettings()
}
