// Package config loads pagetrack settings from an optional YAML file and
// PAGETRACK_* environment variables. Environment values win over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	DataDir     string `koanf:"data_dir"`
	DBPath      string `koanf:"db_path"`
	VaultPath   string `koanf:"vault_path"`
	PluginsPath string `koanf:"plugins_path"`

	IdleTimeout           time.Duration `koanf:"idle_timeout"`
	AutosaveInterval      time.Duration `koanf:"autosave_interval"`
	MinSession            time.Duration `koanf:"min_session"`
	PageDwellThreshold    time.Duration `koanf:"page_dwell_threshold"`
	ClosingDwellThreshold time.Duration `koanf:"closing_dwell_threshold"`
	PositionDebounce      time.Duration `koanf:"position_debounce"`
	LinesPerPage          int           `koanf:"lines_per_page"`
	RecentSessions        int           `koanf:"recent_sessions"`

	LogLevel    string `koanf:"log_level"`
	LogFormat   string `koanf:"log_format"`
	LogFile     string `koanf:"log_file"`
	MetricsAddr string `koanf:"metrics_addr"`
}

const (
	DefaultIdleTimeout           = 120 * time.Second
	DefaultAutosaveInterval      = 30 * time.Second
	DefaultMinSession            = 5 * time.Second
	DefaultPageDwellThreshold    = 2 * time.Second
	DefaultClosingDwellThreshold = time.Second
	DefaultPositionDebounce      = 750 * time.Millisecond
	DefaultLinesPerPage          = 40
	DefaultRecentSessions        = 10
	DefaultLogLevel              = "info"
	DefaultLogFormat             = "text"
)

var (
	ErrMissingDataDir    = errors.New("data_dir is required")
	ErrNonPositiveTimer  = errors.New("timer durations must be positive")
	ErrThresholdOrdering = errors.New("closing_dwell_threshold must not exceed page_dwell_threshold")
	ErrInvalidPageSize   = errors.New("lines_per_page must be positive")
)

// Load reads configFilePath when non-empty, applies environment overrides and
// defaults, and returns the config with every validation error found.
func Load(configFilePath, dataDirOverride string) (Config, []error) {
	k := koanf.New(".")
	if configFilePath != "" {
		if err := k.Load(file.Provider(configFilePath), yaml.Parser()); err != nil {
			return Config{}, []error{fmt.Errorf("load config file %s: %w", configFilePath, err)}
		}
	}

	var errs []error
	duration := func(envKey, key string, fallback time.Duration) time.Duration {
		d, err := envDuration(envKey, k, key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}
	integer := func(envKey, key string, fallback int) int {
		n, err := envInt(envKey, k, key, fallback)
		if err != nil {
			errs = append(errs, err)
		}
		return n
	}

	dataDir := dataDirOverride
	if dataDir == "" {
		dataDir = envOr("PAGETRACK_DATA_DIR", k.String("data_dir"), defaultDataDir())
	}

	cfg := Config{
		DataDir:               dataDir,
		DBPath:                envOr("PAGETRACK_DB_PATH", k.String("db_path"), filepath.Join(dataDir, "pagetrack.db")),
		VaultPath:             envOr("PAGETRACK_VAULT_PATH", k.String("vault_path"), ""),
		PluginsPath:           envOr("PAGETRACK_PLUGINS_PATH", k.String("plugins_path"), dataDir),
		IdleTimeout:           duration("PAGETRACK_IDLE_TIMEOUT", "idle_timeout", DefaultIdleTimeout),
		AutosaveInterval:      duration("PAGETRACK_AUTOSAVE_INTERVAL", "autosave_interval", DefaultAutosaveInterval),
		MinSession:            duration("PAGETRACK_MIN_SESSION", "min_session", DefaultMinSession),
		PageDwellThreshold:    duration("PAGETRACK_PAGE_DWELL_THRESHOLD", "page_dwell_threshold", DefaultPageDwellThreshold),
		ClosingDwellThreshold: duration("PAGETRACK_CLOSING_DWELL_THRESHOLD", "closing_dwell_threshold", DefaultClosingDwellThreshold),
		PositionDebounce:      duration("PAGETRACK_POSITION_DEBOUNCE", "position_debounce", DefaultPositionDebounce),
		LinesPerPage:          integer("PAGETRACK_LINES_PER_PAGE", "lines_per_page", DefaultLinesPerPage),
		RecentSessions:        integer("PAGETRACK_RECENT_SESSIONS", "recent_sessions", DefaultRecentSessions),
		LogLevel:              envOr("PAGETRACK_LOG_LEVEL", k.String("log_level"), DefaultLogLevel),
		LogFormat:             envOr("PAGETRACK_LOG_FORMAT", k.String("log_format"), DefaultLogFormat),
		LogFile:               envOr("PAGETRACK_LOG_FILE", k.String("log_file"), filepath.Join(dataDir, "pagetrack.log")),
		MetricsAddr:           envOr("PAGETRACK_METRICS_ADDR", k.String("metrics_addr"), ""),
	}
	return cfg, append(errs, cfg.Validate()...)
}

func (c Config) Validate() []error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, ErrMissingDataDir)
	}
	for _, d := range []time.Duration{c.IdleTimeout, c.AutosaveInterval, c.MinSession, c.PositionDebounce} {
		if d <= 0 {
			errs = append(errs, ErrNonPositiveTimer)
			break
		}
	}
	if c.ClosingDwellThreshold > c.PageDwellThreshold {
		errs = append(errs, ErrThresholdOrdering)
	}
	if c.LinesPerPage <= 0 {
		errs = append(errs, ErrInvalidPageSize)
	}
	return errs
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "pagetrack")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "share", "pagetrack")
}

func envOr(envKey, koanfVal, fallback string) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if koanfVal != "" {
		return koanfVal
	}
	return fallback
}

func envDuration(envKey string, k *koanf.Koanf, key string, fallback time.Duration) (time.Duration, error) {
	if val := os.Getenv(envKey); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return fallback, fmt.Errorf("%s must be a duration: %w", envKey, err)
		}
		return d, nil
	}
	if k.Exists(key) {
		return k.Duration(key), nil
	}
	return fallback, nil
}

func envInt(envKey string, k *koanf.Koanf, key string, fallback int) (int, error) {
	if val := os.Getenv(envKey); val != "" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fallback, fmt.Errorf("%s must be an integer: %w", envKey, err)
		}
		return n, nil
	}
	if k.Exists(key) {
		return k.Int(key), nil
	}
	return fallback, nil
}
