package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kerbaras/mangamirror/pkg/sources"
	"github.com/kerbaras/mangamirror/pkg/utils"
	"github.com/spf13/viper"
)

const EnvPrefix = "MANGAMIRROR"

// Config is the resolved runtime configuration.
type Config struct {
	BaseDir      string        `mapstructure:"base_dir"`
	Workers      int           `mapstructure:"workers"`
	ResolveDelay time.Duration `mapstructure:"resolve_delay"`
	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`
	UserAgent    string        `mapstructure:"user_agent"`
	CatalogURL   string        `mapstructure:"catalog_url"`
	AniListURL   string        `mapstructure:"anilist_url"`
	LogLevel     string        `mapstructure:"log_level"`
	LogFormat    string        `mapstructure:"log_format"`
	LibraryDB    string        `mapstructure:"library_db"`
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	v.SetDefault("base_dir", filepath.Join(home, "mangas"))
	v.SetDefault("workers", 1)
	v.SetDefault("resolve_delay", 50*time.Millisecond)
	v.SetDefault("http_timeout", 60*time.Second)
	v.SetDefault("user_agent", utils.DefaultUserAgent)
	v.SetDefault("catalog_url", sources.DefaultMangapillURL)
	v.SetDefault("anilist_url", sources.DefaultAniListURL)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("library_db", filepath.Join(home, ".mangamirror", "library.db"))
}

// New returns a viper instance with defaults, environment binding and the
// config search path set up. cfgFile overrides the search path.
func New(cfgFile string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".mangamirror"))
		}
	}

	return v
}

// Load reads the config file, if any, and decodes v into a Config.
// A missing file in the search path is not an error; a missing explicit
// file is.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || v.ConfigFileUsed() != "" {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.BaseDir == "" {
		return errors.New("base_dir must be set")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.ResolveDelay < 0 {
		return fmt.Errorf("resolve_delay must not be negative, got %s", c.ResolveDelay)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout must not be negative, got %s", c.HTTPTimeout)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// ClientOptions derives the HTTP client settings.
func (c *Config) ClientOptions() utils.ClientOptions {
	return utils.ClientOptions{Timeout: c.HTTPTimeout, UserAgent: c.UserAgent}
}
