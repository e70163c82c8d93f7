// Package config handles the XDG configuration directory and client
// settings.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	// AppName is the application directory name.
	AppName = "taskdeck"

	// CredentialFile is the stored bearer credential filename.
	CredentialFile = "credential"

	// DefaultBaseURL is the API base URL used when neither the settings
	// file nor the environment overrides it.
	DefaultBaseURL = "http://localhost:8000"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// BaseURL is the task API base URL.
	BaseURL string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// New creates a Config rooted at the default or specified config directory
// and loads settings from config.yaml in that directory. The TASKDECK_API_URL
// environment variable overrides the file's base_url.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	if err := v.BindEnv("base_url", "TASKDECK_API_URL"); err != nil {
		return nil, fmt.Errorf("bind environment: %w", err)
	}

	// A missing settings file is fine; defaults and environment apply.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}

	return &Config{Dir: dir, BaseURL: v.GetString("base_url")}, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// CredentialPath returns the path to the stored credential file.
func (c *Config) CredentialPath() string {
	return filepath.Join(c.Dir, CredentialFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasCredential checks if a credential file exists.
func (c *Config) HasCredential() bool {
	_, err := os.Stat(c.CredentialPath())
	return err == nil
}

// Logger returns the client logger writing to w. Debug selects debug level,
// otherwise only warnings and errors are emitted.
func (c *Config) Logger(w io.Writer) zerolog.Logger {
	level := zerolog.WarnLevel
	if c.Debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
