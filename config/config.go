package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/adrg/xdg"
)

type ListFormat = string

var (
	JSON = ListFormat("json")
	RSS  = ListFormat("rss")
)

type StoreKind = string

var (
	Files  = StoreKind("files")
	SQLite = StoreKind("sqlite")
)

const (
	appName     = "articleviewer"
	baseCfgPath = appName + "/config.toml"

	DefaultListURL      = "http://androidtest3.apiary.io/articles"
	DefaultMaxDimension = 1024
)

type Config struct {
	ListURL           string            `toml:"list_url"`
	ListFormat        ListFormat        `toml:"list_format"`         // "json" or "rss"
	Store             StoreKind         `toml:"store"`               // "files" or "sqlite"
	CacheDirectory    string            `toml:"cache_directory"`     // Used by the files store
	DatabasePath      string            `toml:"database_path"`       // Used by the sqlite store
	MaxImageDimension int               `toml:"max_image_dimension"` // Decoded images never exceed this on either axis
	MaxSourcePixels   int               `toml:"max_source_pixels"`   // Larger sources are refused before decoding
	Network           NetworkConfig     `toml:"network"`
	Filters           map[string]Filter `toml:"filters"`      // Named title filters
	ViewFilters       []string          `toml:"view_filters"` // Filters applied to the browsed list, in order
}

type NetworkConfig struct {
	TimeoutMillis         int            `toml:"timeout_ms"`
	UserAgent             string         `toml:"user_agent"`
	MaxBodyBytes          int64          `toml:"max_body_bytes"`
	PerHostIntervalMillis map[string]int `toml:"per_host_interval_ms"` // 0 or missing = unlimited
}

// Filter hides articles from the browsed list
type Filter struct {
	MinTitleLength  int      `toml:"min_title_length"` // Minimum character count (0 = no limit)
	MinWords        int      `toml:"min_words"`        // Minimum word count (0 = no limit)
	ExcludePatterns []string `toml:"exclude_patterns"` // Regex patterns matched against the title
}

func Read(path string) (Config, error) {
	conf := Default()
	dat, err := os.ReadFile(path)
	if err != nil {
		return conf, err
	}
	_, err = toml.Decode(string(dat), &conf)
	if err != nil {
		return conf, fmt.Errorf("failed to decode config at %s with %w", path, err)
	}
	if err := conf.Validate(); err != nil {
		return conf, fmt.Errorf("invalid config at %s: %w", path, err)
	}
	return conf, nil
}

func Write(cfgPath string, cfg Config) error {
	blob, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config with %w", err)
	}
	basePath := filepath.Dir(cfgPath)
	err = os.MkdirAll(basePath, os.ModePerm)
	if err != nil {
		return fmt.Errorf("failed to create base config directory at '%s' with %w", basePath, err)
	}
	err = os.WriteFile(cfgPath, blob, 0644)
	if err != nil {
		return fmt.Errorf("failed to write into config file at '%s' with %w", cfgPath, err)
	}
	slog.Info("config written", "at", cfgPath)
	return nil
}

// Validate reports settings the loaders cannot work with
func (c Config) Validate() error {
	if c.ListURL == "" {
		return fmt.Errorf("list_url is empty")
	}
	switch c.ListFormat {
	case JSON, RSS:
	default:
		return fmt.Errorf("unknown list_format %q", c.ListFormat)
	}
	switch c.Store {
	case Files, SQLite:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.MaxImageDimension <= 0 {
		return fmt.Errorf("max_image_dimension must be positive, got %d", c.MaxImageDimension)
	}
	for _, name := range c.ViewFilters {
		if _, ok := c.Filters[name]; !ok {
			return fmt.Errorf("view filter %q is not defined", name)
		}
	}
	return nil
}

func Default() Config {
	return Config{
		ListURL:           DefaultListURL,
		ListFormat:        JSON,
		Store:             Files,
		CacheDirectory:    filepath.Join(xdg.CacheHome, appName),
		DatabasePath:      filepath.Join(xdg.DataHome, appName, "cache.db"),
		MaxImageDimension: DefaultMaxDimension,
		MaxSourcePixels:   64 << 20,
		Network: NetworkConfig{
			TimeoutMillis: 30_000,
			UserAgent:     appName,
			MaxBodyBytes:  32 << 20,
		},
	}
}

func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, baseCfgPath)
}
