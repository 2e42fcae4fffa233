// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/fieldlab/fieldops/internal/domain"
)

// Environment variables that override file configuration.
const (
	EnvDatabaseURL = "FIELDOPS_DATABASE_URL"
	EnvHome        = "FIELDOPS_HOME"
)

// Ensure Loader implements domain.ConfigLoader.
var _ domain.ConfigLoader = (*Loader)(nil)

// Loader loads configuration from TOML files.
type Loader struct {
	getenv        func(string) string
	dataDir       string // Path to the data directory (e.g., ./.fieldops)
	globalConfDir string // Path to global config directory (e.g., ~/.config/fieldops)
}

// NewLoader creates a new Loader.
func NewLoader(dataDir string) *Loader {
	return &Loader{
		getenv:        os.Getenv,
		dataDir:       dataDir,
		globalConfDir: defaultGlobalConfigDir(),
	}
}

// NewLoaderWithGlobalDir creates a new Loader with a custom global config directory.
// This is useful for testing.
func NewLoaderWithGlobalDir(dataDir, globalConfDir string) *Loader {
	return &Loader{
		getenv:        os.Getenv,
		dataDir:       dataDir,
		globalConfDir: globalConfDir,
	}
}

// WithGetenv replaces the environment lookup. This is useful for testing.
func (l *Loader) WithGetenv(getenv func(string) string) *Loader {
	l.getenv = getenv
	return l
}

// defaultGlobalConfigDir returns the default global config directory.
func defaultGlobalConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return domain.GlobalConfigDir(configHome)
}

// ResolveDataDir returns FIELDOPS_HOME if set, otherwise .fieldops under workDir.
func ResolveDataDir(workDir string) string {
	if home := os.Getenv(EnvHome); home != "" {
		return home
	}
	return filepath.Join(workDir, domain.DataDirName)
}

// Load returns the merged configuration (data dir + global + environment).
// Data directory config takes precedence over global config; the
// environment takes precedence over both.
func (l *Loader) Load() (*domain.Config, error) {
	global, err := l.LoadGlobal()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	data, err := l.LoadData()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	// Merge: default <- global <- data (later takes precedence)
	base := domain.NewDefaultConfig()
	if global != nil {
		base = mergeConfigs(base, global)
	}
	if data != nil {
		base = mergeConfigs(base, data)
	}

	if dsn := l.getenv(EnvDatabaseURL); dsn != "" {
		base.Store.DSN = dsn
	}
	if base.Store.Path == "" && l.dataDir != "" {
		base.Store.Path = domain.DefaultStorePath(l.dataDir)
	}

	if err := validate(base); err != nil {
		return nil, err
	}
	return base, nil
}

// LoadGlobal returns only the global configuration.
func (l *Loader) LoadGlobal() (*domain.Config, error) {
	if l.globalConfDir == "" {
		return nil, os.ErrNotExist
	}
	return l.loadFile(filepath.Join(l.globalConfDir, domain.ConfigFileName))
}

// LoadData returns only the data directory configuration.
func (l *Loader) LoadData() (*domain.Config, error) {
	if l.dataDir == "" {
		return nil, os.ErrNotExist
	}
	return l.loadFile(domain.DataConfigPath(l.dataDir))
}

// loadFile loads a configuration from a file.
func (l *Loader) loadFile(path string) (*domain.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return convertRawToDomainConfig(raw), nil
}

// validate checks values that cannot be fixed up by defaults.
func validate(cfg *domain.Config) error {
	switch cfg.Store.Driver {
	case domain.StoreDriverJSON, domain.StoreDriverPostgres:
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedStoreDriver, cfg.Store.Driver)
	}
	if cfg.Schedule.UpcomingDays < 0 {
		return fmt.Errorf("%w: schedule.upcoming_days must be positive", domain.ErrValidation)
	}
	return nil
}

// convertRawToDomainConfig converts the raw map to domain config and collects warnings.
func convertRawToDomainConfig(raw map[string]any) *domain.Config {
	res := &domain.Config{}
	var warnings []string
	unknown := func(section, key string) {
		warnings = append(warnings, fmt.Sprintf("unknown key in [%s]: %s", section, key))
	}

	for section, value := range raw {
		m, ok := value.(map[string]any)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("unknown section: %s", section))
			continue
		}
		switch section {
		case "store":
			for k, v := range m {
				switch k {
				case "driver":
					if s, ok := v.(string); ok {
						res.Store.Driver = s
					}
				case "path":
					if s, ok := v.(string); ok {
						res.Store.Path = s
					}
				case "dsn":
					if s, ok := v.(string); ok {
						res.Store.DSN = s
					}
				default:
					unknown(section, k)
				}
			}
		case "schedule":
			for k, v := range m {
				switch k {
				case "timezone":
					if s, ok := v.(string); ok {
						res.Schedule.Timezone = s
					}
				case "upcoming_days":
					if n, ok := v.(int64); ok {
						res.Schedule.UpcomingDays = int(n)
					}
				default:
					unknown(section, k)
				}
			}
		case "notify":
			for k, v := range m {
				switch k {
				case "async":
					if b, ok := v.(bool); ok {
						res.Notify.Async = b
					}
				default:
					unknown(section, k)
				}
			}
		case "log":
			for k, v := range m {
				switch k {
				case "level":
					if s, ok := v.(string); ok {
						res.Log.Level = s
					}
				default:
					unknown(section, k)
				}
			}
		default:
			warnings = append(warnings, fmt.Sprintf("unknown section: %s", section))
		}
	}

	sort.Strings(warnings)
	res.Warnings = warnings
	return res
}

// mergeConfigs merges two configs, with override taking precedence.
func mergeConfigs(base, override *domain.Config) *domain.Config {
	result := &domain.Config{
		Store:    base.Store,
		Schedule: base.Schedule,
		Log:      base.Log,
		Notify:   base.Notify,
		Warnings: append([]string{}, base.Warnings...),
	}
	result.Warnings = append(result.Warnings, override.Warnings...)

	if override.Store.Driver != "" {
		result.Store.Driver = override.Store.Driver
	}
	if override.Store.Path != "" {
		result.Store.Path = override.Store.Path
	}
	if override.Store.DSN != "" {
		result.Store.DSN = override.Store.DSN
	}
	if override.Schedule.Timezone != "" {
		result.Schedule.Timezone = override.Schedule.Timezone
	}
	if override.Schedule.UpcomingDays != 0 {
		result.Schedule.UpcomingDays = override.Schedule.UpcomingDays
	}
	if override.Notify.Async {
		result.Notify.Async = override.Notify.Async
	}
	if override.Log.Level != "" {
		result.Log.Level = override.Log.Level
	}

	return result
}
