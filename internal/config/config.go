package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. GITSYNC_TAB_WIDTH.
const EnvPrefix = "GITSYNC"

// Config holds the resolved application configuration.
type Config struct {
	// CommandTimeout bounds every git command.
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
	// ReconcileMaxPasses caps the unstage/re-query loop for paths whose
	// index and worktree columns both changed.
	ReconcileMaxPasses int `mapstructure:"reconcile_max_passes"`
	// DiffMaxLines is the size above which a diff is not rendered.
	DiffMaxLines int  `mapstructure:"diff_max_lines"`
	DiffVerbose  bool `mapstructure:"diff_verbose"`
	TabWidth     int  `mapstructure:"tab_width"`
	// AuthorName and AuthorEmail override the commit author when both are set.
	AuthorName  string `mapstructure:"author_name"`
	AuthorEmail string `mapstructure:"author_email"`
	// WatchDebounce is the quiet period before git state changes refresh.
	WatchDebounce time.Duration `mapstructure:"watch_debounce"`
	// CacheTTL is how long diff, branch and remote reads are reused.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// RemoteURL switches command execution to a websocket endpoint.
	RemoteURL string `mapstructure:"remote_url"`
	// Theme is "dark" (default) or "light".
	Theme string      `mapstructure:"theme"`
	Keys  KeyBindings `mapstructure:"keys"`
}

// Load reads configuration from file, or when file is empty from
// $XDG_CONFIG_HOME/gitsync/config.yaml (falling back to ~/.config/gitsync,
// then the working directory). A missing file is not an error.
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if file != "" {
		if _, err := os.Stat(file); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(configDirectory())
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("command_timeout", 30*time.Second)
	v.SetDefault("reconcile_max_passes", 5)
	v.SetDefault("diff_max_lines", 2000)
	v.SetDefault("diff_verbose", false)
	v.SetDefault("tab_width", 4)
	v.SetDefault("author_name", "")
	v.SetDefault("author_email", "")
	v.SetDefault("watch_debounce", 500*time.Millisecond)
	v.SetDefault("cache_ttl", 2*time.Second)
	v.SetDefault("remote_url", "")
	v.SetDefault("theme", "dark")

	keys := DefaultKeyBindings()
	v.SetDefault("keys.quit", keys.Quit)
	v.SetDefault("keys.up", keys.Up)
	v.SetDefault("keys.down", keys.Down)
	v.SetDefault("keys.stage", keys.Stage)
	v.SetDefault("keys.diff", keys.Diff)
	v.SetDefault("keys.discard", keys.Discard)
	v.SetDefault("keys.refresh", keys.Refresh)
	v.SetDefault("keys.back", keys.Back)
}

func (c *Config) validate() error {
	switch {
	case c.CommandTimeout <= 0:
		return fmt.Errorf("config: command_timeout must be positive, got %s", c.CommandTimeout)
	case c.ReconcileMaxPasses < 1:
		return fmt.Errorf("config: reconcile_max_passes must be at least 1, got %d", c.ReconcileMaxPasses)
	case c.DiffMaxLines < 1:
		return fmt.Errorf("config: diff_max_lines must be at least 1, got %d", c.DiffMaxLines)
	case c.TabWidth < 1:
		return fmt.Errorf("config: tab_width must be at least 1, got %d", c.TabWidth)
	}
	return nil
}

func configDirectory() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gitsync")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "gitsync")
}
