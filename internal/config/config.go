package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Config holds all configuration for wirewizard.
type Config struct {
	Tunnels  TunnelsConfig  `koanf:"tunnels"`
	WGQuick  WGQuickConfig  `koanf:"wgquick"`
	Activity ActivityConfig `koanf:"activity"`
	Stats    StatsConfig    `koanf:"stats"`
	History  HistoryConfig  `koanf:"history"`
	Logging  LoggingConfig  `koanf:"logging"`
	DevMode  bool           `koanf:"dev_mode"`
}

// TunnelsConfig holds where tunnel definitions live.
type TunnelsConfig struct {
	// Dirs are searched in order; the first existing one receives
	// new tunnel files.
	Dirs []string `koanf:"dirs"`
}

// WGQuickConfig holds external command settings.
type WGQuickConfig struct {
	Path    string `koanf:"path"`
	Timeout string `koanf:"timeout"`
}

// ActivityConfig holds the in-memory command log settings.
type ActivityConfig struct {
	Capacity int `koanf:"capacity"`
}

// StatsConfig holds live traffic readout settings.
type StatsConfig struct {
	PollInterval string `koanf:"poll_interval"`
}

// HistoryConfig holds the optional SQLite audit archive settings.
// An empty Path disables the archive entirely.
type HistoryConfig struct {
	Path string `koanf:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// CommandTimeout parses the wg-quick timeout, falling back to 20s on
// an unparsable or missing value.
func (c *Config) CommandTimeout() time.Duration {
	d, err := time.ParseDuration(c.WGQuick.Timeout)
	if err != nil || d <= 0 {
		return 20 * time.Second
	}
	return d
}

// StatsPollInterval parses the stats refresh interval, falling back
// to 60s.
func (c *Config) StatsPollInterval() time.Duration {
	d, err := time.ParseDuration(c.Stats.PollInterval)
	if err != nil || d <= 0 {
		return time.Minute
	}
	return d
}

// Load reads configuration with priority: flags > env > yaml file > defaults.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults.
	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	// 2. Load YAML config file (if exists).
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	// 3. Load environment variables (WIREWIZARD_ prefix).
	if err := k.Load(env.Provider("WIREWIZARD_", ".", func(s string) string {
		return strings.Replace(
			strings.ToLower(strings.TrimPrefix(s, "WIREWIZARD_")),
			"_", ".", -1,
		)
	}), nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	// 4. Load CLI flags (highest priority).
	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"tunnels.dirs":        []string{"/etc/wireguard", "/usr/local/etc/wireguard"},
		"wgquick.path":        "wg-quick",
		"wgquick.timeout":     "20s",
		"activity.capacity":   6_000_000,
		"stats.poll_interval": "60s",
		"history.path":        "",
		"logging.level":       "info",
		"logging.format":      "json",
		"dev_mode":            false,
	}

	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}
