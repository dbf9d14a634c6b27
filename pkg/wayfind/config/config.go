package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/viper"
)

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Daily      bool   `mapstructure:"daily"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// SearchConfig configures search behavior.
type SearchConfig struct {
	Limit    int      `mapstructure:"limit"`
	Fuzzy    bool     `mapstructure:"fuzzy"`
	Workers  int      `mapstructure:"workers"`
	MaxDepth int      `mapstructure:"max_depth"`
	Excludes []string `mapstructure:"excludes"`
}

// CacheConfig configures the directory-listing cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Dir     string `mapstructure:"dir"` // Empty means use default XDG path
}

// HistoryConfig configures search history recording.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Dir           string `mapstructure:"dir"` // Empty means use default XDG path
	RetentionDays int    `mapstructure:"retention_days"`
}

// DaemonConfig configures the background index daemon.
type DaemonConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	AutoStart  bool   `mapstructure:"auto_start"`
	BinaryPath string `mapstructure:"binary_path"` // Path to wayfindd binary (auto-discovered if empty)
	SocketPath string `mapstructure:"socket_path"`
	PIDPath    string `mapstructure:"pid_path"`
	DataDir    string `mapstructure:"data_dir"`
}

// OutputConfig configures result formatting.
type OutputConfig struct {
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}

// Config represents the application configuration.
type Config struct {
	SettingsPath string        `mapstructure:"settings_path"`
	Output       OutputConfig  `mapstructure:"output"`
	Search       SearchConfig  `mapstructure:"search"`
	Cache        CacheConfig   `mapstructure:"cache"`
	History      HistoryConfig `mapstructure:"history"`
	Daemon       DaemonConfig  `mapstructure:"daemon"`
	Logging      LoggingConfig `mapstructure:"logging"`
}

// Load loads configuration from file and environment variables.
// Config file locations (in order of precedence):
//   - $XDG_CONFIG_HOME/wayfind/config.yaml
//   - $HOME/.config/wayfind/config.yaml
//
// Environment variables are prefixed with WAYFIND_ (e.g., WAYFIND_SEARCH_LIMIT).
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		v.AddConfigPath(filepath.Join(xdgConfigHome, "wayfind"))
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}
	v.AddConfigPath(filepath.Join(homeDir, ".config", "wayfind"))

	v.SetEnvPrefix("WAYFIND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (ignore if not found).
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Expand ~ in user-supplied paths.
	for _, p := range []*string{&cfg.SettingsPath, &cfg.Cache.Dir, &cfg.History.Dir, &cfg.Daemon.DataDir, &cfg.Logging.Path} {
		expanded, expandErr := ExpandPath(*p)
		if expandErr != nil {
			return nil, expandErr
		}
		*p = expanded
	}

	return &cfg, nil
}

// setDefaults registers every configuration key with its default value.
func setDefaults(v *viper.Viper) {
	v.SetDefault("settings_path", "") // Empty means use default XDG path

	v.SetDefault("output.format", DefaultFormat)
	v.SetDefault("output.color", true)

	v.SetDefault("search.limit", DefaultLimit)
	v.SetDefault("search.fuzzy", false)
	v.SetDefault("search.workers", 0) // 0 = auto-detect
	v.SetDefault("search.max_depth", 0)
	v.SetDefault("search.excludes", DefaultExcludes)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.dir", "")

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.dir", "")
	v.SetDefault("history.retention_days", DefaultHistoryRetentionDays)

	v.SetDefault("daemon.enabled", false)
	v.SetDefault("daemon.auto_start", false)
	v.SetDefault("daemon.socket_path", "")
	v.SetDefault("daemon.pid_path", "")
	v.SetDefault("daemon.data_dir", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.path", "") // Empty means use DefaultLogPath
	v.SetDefault("logging.rotation.max_size", "10MB")
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.rotation.daily", true)
	v.SetDefault("logging.components", map[string]string{
		"daemon":  "info",
		"watcher": "warn",
		"walker":  "info",
		"match":   "info",
		"tui":     "info",
	})
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "wayfind"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "wayfind"), nil
}

// EnsureConfigDir creates the config directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// WriteDefault writes a default config file if none exists.
// Returns nil if a config file already exists.
func WriteDefault() error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}

	configDir, err := ConfigDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(configDir, "config.yaml")

	if _, err := os.Stat(configPath); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# Wayfind Configuration

# Settings file with search profiles (empty means use default:
# $XDG_CONFIG_HOME/wayfind/settings.json)
settings_path: ""

# Output configuration
output:
  # Format: paths, plain, json, yaml, table, template, pretty, tree
  format: %s
  color: true

# Search configuration
search:
  # Maximum number of results printed
  limit: %d
  # Enable fuzzy subsequence matching in addition to substring matching
  fuzzy: false
  # Walk workers (0 = auto-detect from CPU count)
  workers: 0
  # Maximum depth below the root (0 = unlimited)
  max_depth: 0
  # Glob patterns excluded from every search
  excludes:
    - .git
    - .svn
    - node_modules
    - __pycache__
    - .DS_Store

# Directory-listing cache for repeat searches
cache:
  enabled: true
  # Cache directory (empty means use default: $XDG_CACHE_HOME/wayfind)
  dir: ""

# Search history
history:
  enabled: true
  # History directory (empty means use default: $XDG_DATA_HOME/wayfind/history)
  dir: ""
  retention_days: %d

# Background index daemon
daemon:
  # Serve candidates from the wayfindd index when available
  enabled: false
  # Automatically start wayfindd when needed
  auto_start: false
  # Unix socket path (empty means use default: $XDG_DATA_HOME/wayfind/wayfind.sock)
  socket_path: ""
  # PID file path (empty means use default: $XDG_STATE_HOME/wayfind/wayfindd.pid)
  pid_path: ""
  # Index database directory (empty means use default: $XDG_DATA_HOME/wayfind/index)
  data_dir: ""

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: info
  # Log file path (empty means use default: $XDG_STATE_HOME/wayfind/wayfind.log)
  path: ""
  rotation:
    max_size: 10MB
    max_age: 30       # days
    max_backups: 5
    daily: true
  # Per-component log levels
  components:
    daemon: info
    watcher: warn
    walker: info
    match: info
    tui: info
`, DefaultFormat, DefaultLimit, DefaultHistoryRetentionDays)

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// DataDir returns $XDG_DATA_HOME/wayfind/ for the index database and socket.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "wayfind")
}

// StateDir returns $XDG_STATE_HOME/wayfind/ for log, pid and status files.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "wayfind")
}

// CacheDir returns $XDG_CACHE_HOME/wayfind/ for the walk cache.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "wayfind")
}

// DefaultSettingsPath returns the default profile settings file path.
func DefaultSettingsPath() string {
	return filepath.Join(xdg.ConfigHome, "wayfind", "settings.json")
}

// DefaultSocketPath returns the default Unix socket path.
func DefaultSocketPath() string {
	return filepath.Join(DataDir(), "wayfind.sock")
}

// DefaultPIDPath returns the default PID file path.
func DefaultPIDPath() string {
	return filepath.Join(StateDir(), "wayfindd.pid")
}

// DefaultIndexDir returns the default index database directory.
func DefaultIndexDir() string {
	return filepath.Join(DataDir(), "index")
}

// DefaultCachePath returns the default walk cache directory.
func DefaultCachePath() string {
	return filepath.Join(CacheDir(), "walks")
}

// DefaultHistoryDir returns the default search history directory.
func DefaultHistoryDir() string {
	return filepath.Join(DataDir(), "history")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(StateDir(), "wayfind.log")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func EnsureDataDir() error {
	if err := os.MkdirAll(DataDir(), 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	return nil
}

// EnsureStateDir creates the state directory if it doesn't exist.
func EnsureStateDir() error {
	if err := os.MkdirAll(StateDir(), 0o755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}
	return nil
}

// EnsureCacheDir creates the cache directory if it doesn't exist.
func EnsureCacheDir() error {
	if err := os.MkdirAll(CacheDir(), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	return nil
}
