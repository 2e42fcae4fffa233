package domain

import (
	"bytes"
	_ "embed"
	"fmt"
	"path/filepath"
	"text/template"
	"time"
)

//go:embed config_template.toml
var configTemplateContent string

// Config represents the application configuration.
// Fields are ordered to minimize memory padding.
type Config struct {
	Warnings []string       `toml:"-"`
	Store    StoreConfig    `toml:"store"`
	Schedule ScheduleConfig `toml:"schedule"`
	Log      LogConfig      `toml:"log"`
	Notify   NotifyConfig   `toml:"notify"`
}

// StoreConfig holds settings for the backing store from [store] section.
type StoreConfig struct {
	Driver string `toml:"driver,omitempty"` // "json" (default) or "postgres"
	Path   string `toml:"path,omitempty"`   // JSON store file (default: <data dir>/store.json)
	DSN    string `toml:"dsn,omitempty"`    // PostgreSQL connection string
}

// ScheduleConfig holds settings for schedule queries from [schedule] section.
type ScheduleConfig struct {
	Timezone     string `toml:"timezone,omitempty"`      // Reference timezone for calendar dates
	UpcomingDays int    `toml:"upcoming_days,omitempty"` // Size of the upcoming window in days
}

// Location loads the reference timezone, falling back to UTC on error.
func (c ScheduleConfig) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// NotifyConfig holds notification settings from [notify] section.
type NotifyConfig struct {
	Async bool `toml:"async,omitempty"` // Deliver notifications off the request path
}

// LogConfig holds logging settings from [log] section.
type LogConfig struct {
	Level string `toml:"level,omitempty"` // Log level: debug, info, warn, error
}

// Store drivers.
const (
	StoreDriverJSON     = "json"
	StoreDriverPostgres = "postgres"
)

// Default configuration values.
const (
	DefaultLogLevel     = "info"
	DefaultTimezone     = "America/Chicago"
	DefaultUpcomingDays = 14
)

// Directory and file names.
const (
	AppDirName     = "fieldops"      // Directory name for global config
	DataDirName    = ".fieldops"     // Data directory name under the working directory
	ConfigFileName = "fieldops.toml" // Config file name
	StoreFileName  = "store.json"    // JSON store file name
	LogsDirName    = "logs"          // Log directory under the data dir
)

// GlobalConfigDir returns the global config directory.
// configHome is typically XDG_CONFIG_HOME or ~/.config (resolved by caller).
func GlobalConfigDir(configHome string) string {
	return filepath.Join(configHome, AppDirName)
}

// DataConfigPath returns the config path inside a data directory.
func DataConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFileName)
}

// DefaultStorePath returns the JSON store path inside a data directory.
func DefaultStorePath(dataDir string) string {
	return filepath.Join(dataDir, StoreFileName)
}

// GlobalLogPath returns the global log file path.
func GlobalLogPath(dataDir string) string {
	return filepath.Join(dataDir, LogsDirName, "fieldops.log")
}

// TaskLogPath returns the per-task log file path.
func TaskLogPath(dataDir, taskID string) string {
	return filepath.Join(dataDir, LogsDirName, "task-"+taskID+".log")
}

// NewDefaultConfig returns a Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver: StoreDriverJSON,
		},
		Schedule: ScheduleConfig{
			Timezone:     DefaultTimezone,
			UpcomingDays: DefaultUpcomingDays,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// RenderConfigTemplate renders the starter config written by init.
func RenderConfigTemplate(cfg *Config) string {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	tmpl := template.Must(template.New("config").Parse(configTemplateContent))
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, cfg); err != nil {
		return configTemplateContent
	}
	return buf.String()
}

// ConfigInfo contains information about a config file.
type ConfigInfo struct {
	Path    string // File path
	Content string // File content (empty if not exists)
	Exists  bool   // Whether the file exists
}

// ConfigLoader loads configuration from files.
type ConfigLoader interface {
	// Load returns the merged configuration (data dir + global).
	Load() (*Config, error)
	// LoadGlobal returns only the global configuration.
	LoadGlobal() (*Config, error)
	// LoadData returns only the data directory configuration.
	LoadData() (*Config, error)
}

// ConfigManager manages configuration files.
type ConfigManager interface {
	// GetDataConfigInfo returns information about the data directory config file.
	GetDataConfigInfo() ConfigInfo
	// GetGlobalConfigInfo returns information about the global config file.
	GetGlobalConfigInfo() ConfigInfo
	// InitDataConfig creates a data directory config file with the default template.
	InitDataConfig(cfg *Config) error
	// InitGlobalConfig creates a global config file with the default template.
	InitGlobalConfig(cfg *Config) error
}
