// env.go - Environment variable configuration and validation for the tracker.
// All secrets and deployment-specific identifiers are supplied through the
// environment; nothing is hard-coded in source.
package conf

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns all environment variable bindings with validation
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "GREENEST_DEBUG", validateEnvBool},

		{"server.host", "GREENEST_HOST", nil},
		{"server.port", "GREENEST_PORT", validateEnvPort},

		// Tabular store
		{"sheet.id", "SHEET_ID", nil},
		{"sheet.tab", "SHEET_TAB_NAME", nil},
		{"sheet.credentialsfile", "GOOGLE_CREDENTIALS_FILE", validateEnvPath},
		{"sheet.credentialsjson", "GOOGLE_CREDENTIALS_JSON", nil},

		// Bot transport
		{"telegram.token", "TELEGRAM_BOT_TOKEN", nil},
		{"telegram.chatid", "TELEGRAM_CHAT_ID", validateEnvInt64},

		// External collaborators
		{"analyzer.endpoint", "ANALYZER_URL", validateEnvURL},
		{"analyzer.timeoutsecs", "ANALYZER_TIMEOUT_SECS", validateEnvSeconds},
		{"relay.backendurl", "GREENEST_BACKEND_URL", validateEnvURL},

		// Scheduled trigger
		{"trigger.secret", "TRIGGER_SECRET", nil},

		// Extra notification sinks, comma separated shoutrrr URLs
		{"notify.shoutrrrurls", "NOTIFY_SHOUTRRR_URLS", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars() error {
	bindings := getEnvBindings()
	var warnings []string

	for _, binding := range bindings {
		if err := viper.BindEnv(binding.ConfigKey, binding.EnvVar); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", binding.EnvVar, err))
			continue
		}

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}

	return nil
}

// Environment variable validation functions

// validateEnvBool validates boolean environment variables
func validateEnvBool(value string) error {
	_, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean value '%s': must be true/false, 1/0, t/f, TRUE/FALSE, T/F", value)
	}
	return nil
}

// validateEnvInt64 validates signed integer environment variables
func validateEnvInt64(value string) error {
	if _, err := strconv.ParseInt(value, 10, 64); err != nil {
		return fmt.Errorf("invalid integer value '%s'", value)
	}
	return nil
}

// validateEnvPort validates TCP port environment variables
func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid port value '%s'", value)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port %d out of range 1-65535", port)
	}
	return nil
}

// validateEnvSeconds validates non-negative duration-in-seconds variables
func validateEnvSeconds(value string) error {
	secs, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid seconds value '%s'", value)
	}
	if secs < 0 {
		return fmt.Errorf("seconds value must not be negative")
	}
	return nil
}

// validateEnvURL validates that the value parses as an absolute http(s) URL
func validateEnvURL(value string) error {
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL must use http or https scheme")
	}
	if u.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}

// validateEnvPath validates that the path exists and is readable
func validateEnvPath(value string) error {
	if _, err := os.Stat(value); err != nil {
		return fmt.Errorf("path not accessible: %w", err)
	}
	return nil
}
