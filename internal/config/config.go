package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// PlaceholderEndpoint is the value shipped in place of a real endpoint URL.
const PlaceholderEndpoint = "YOUR_WEB_APP_URL_HERE"

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Remote wash API
	APIURL        string
	RemoteTimeout time.Duration

	// Pages
	LandingPath   string
	RedirectDelay time.Duration
	ViewTTL       time.Duration

	// Backend selection
	DataBackend string
	DataDir     string

	// SQLite
	SQLiteDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Mirror worker
	MirrorInterval time.Duration

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
}

var defaults = map[string]any{
	"port":                        "8081",
	"log_level":                   "info",
	"wash_api_url":                PlaceholderEndpoint,
	"remote_timeout":              "0s",
	"landing_path":                "/",
	"redirect_delay":              "3s",
	"view_ttl":                    "30m",
	"data_backend":                "remote",
	"data_dir":                    "data",
	"sqlite_db_path":              "./data/washlog.db",
	"amqp_url":                    "",
	"amqp_exchange":               "washlog",
	"amqp_queue":                  "wash_events",
	"mirror_interval":             "15m",
	"google_spreadsheet_id":       "",
	"google_sheet_name":           "Washes",
	"google_service_account_json": "",
	"google_service_account_file": "",
}

// Load reads configuration from the environment, falling back to defaults.
// When CONFIG_FILE is set its values sit between defaults and the environment.
func Load() (*Config, error) {
	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()

	if file := strings.TrimSpace(os.Getenv("CONFIG_FILE")); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	return &Config{
		Port:     v.GetString("port"),
		LogLevel: v.GetString("log_level"),

		APIURL:        strings.TrimSpace(v.GetString("wash_api_url")),
		RemoteTimeout: v.GetDuration("remote_timeout"),

		LandingPath:   v.GetString("landing_path"),
		RedirectDelay: v.GetDuration("redirect_delay"),
		ViewTTL:       v.GetDuration("view_ttl"),

		DataBackend: v.GetString("data_backend"),
		DataDir:     v.GetString("data_dir"),

		SQLiteDBPath: v.GetString("sqlite_db_path"),

		AMQPURL:      v.GetString("amqp_url"),
		AMQPExchange: v.GetString("amqp_exchange"),
		AMQPQueue:    v.GetString("amqp_queue"),

		MirrorInterval: v.GetDuration("mirror_interval"),

		GoogleSpreadsheetID:      v.GetString("google_spreadsheet_id"),
		GoogleSheetName:          v.GetString("google_sheet_name"),
		GoogleServiceAccountJSON: v.GetString("google_service_account_json"),
		GoogleServiceAccountFile: v.GetString("google_service_account_file"),
	}, nil
}

// EndpointConfigured reports whether APIURL holds a real endpoint.
func (c *Config) EndpointConfigured() bool {
	return c.APIURL != "" && !strings.Contains(c.APIURL, PlaceholderEndpoint)
}

// BackendConfigured reports whether the selected backend can serve requests.
// Only the remote backend depends on an endpoint URL.
func (c *Config) BackendConfigured() bool {
	return c.DataBackend != "remote" || c.EndpointConfigured()
}

// Validate validates the configuration and returns an error if invalid.
// An unconfigured endpoint is not an error here: the pages report it.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"remote", "memory", "sheets", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "remote" && c.EndpointConfigured() {
		if u, err := url.Parse(c.APIURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid WASH_API_URL '%s': %v", c.APIURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid WASH_API_URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}
	}

	if c.RemoteTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid remote timeout %v: must not be negative", c.RemoteTimeout))
	}
	if c.RedirectDelay < 0 || c.RedirectDelay > time.Minute {
		errors = append(errors, fmt.Sprintf("invalid redirect delay %v: must be between 0 and 1 minute", c.RedirectDelay))
	}
	if c.ViewTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid view TTL %v: must be at least 1 minute", c.ViewTTL))
	}
	if !strings.HasPrefix(c.LandingPath, "/") {
		errors = append(errors, fmt.Sprintf("invalid landing path '%s': must start with '/'", c.LandingPath))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}

		if c.AMQPURL != "" {
			if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
				errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
			} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
				errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
			}
			if c.AMQPExchange == "" {
				errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
			}
			if c.AMQPQueue == "" {
				errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
			}
		}
	}

	if c.DataBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}
		if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
			errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateMirror checks the settings the mirror worker needs: the local
// SQLite store, the broker and the target spreadsheet.
func (c *Config) ValidateMirror() error {
	var errors []string
	if c.SQLiteDBPath == "" {
		errors = append(errors, "SQLITE_DB_PATH is required for the mirror worker")
	}
	if c.AMQPURL == "" {
		errors = append(errors, "AMQP_URL is required for the mirror worker")
	}
	if c.GoogleSpreadsheetID == "" {
		errors = append(errors, "GOOGLE_SPREADSHEET_ID is required for the mirror worker")
	}
	if c.GoogleServiceAccountJSON == "" && c.GoogleServiceAccountFile == "" {
		errors = append(errors, "either GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE must be provided for the mirror worker")
	}
	if c.MirrorInterval <= 0 {
		errors = append(errors, fmt.Sprintf("invalid mirror interval %s: must be positive", c.MirrorInterval))
	}
	if len(errors) > 0 {
		return fmt.Errorf("mirror configuration invalid:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
