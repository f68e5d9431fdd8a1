package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRead_Missing(t *testing.T) {
	conf, err := Read(filepath.Join(t.TempDir(), "absent.toml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("Expected os.ErrNotExist, got %v", err)
	}
	if conf.ListURL != DefaultListURL {
		t.Errorf("Expected defaults on missing config, got list_url %q", conf.ListURL)
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	want := Default()
	want.ListURL = "https://example.com/articles.json"
	want.Store = SQLite
	want.MaxImageDimension = 512
	want.Network.PerHostIntervalMillis = map[string]int{"example.com": 250}

	if err := Write(path, want); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.ListURL != want.ListURL {
		t.Errorf("list_url: got %q, want %q", got.ListURL, want.ListURL)
	}
	if got.Store != SQLite {
		t.Errorf("store: got %q, want %q", got.Store, SQLite)
	}
	if got.MaxImageDimension != 512 {
		t.Errorf("max_image_dimension: got %d, want 512", got.MaxImageDimension)
	}
	if got.Network.PerHostIntervalMillis["example.com"] != 250 {
		t.Errorf("per_host_interval_ms not preserved: %v", got.Network.PerHostIntervalMillis)
	}
}

func TestRead_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := []byte(`list_url = "https://example.com/feed.xml"
list_format = "rss"
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	conf, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if conf.ListFormat != RSS {
		t.Errorf("Expected rss format, got %q", conf.ListFormat)
	}
	if conf.MaxImageDimension != DefaultMaxDimension {
		t.Errorf("Expected default max dimension, got %d", conf.MaxImageDimension)
	}
	if conf.Store != Files {
		t.Errorf("Expected default store, got %q", conf.Store)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "empty url", mutate: func(c *Config) { c.ListURL = "" }, wantErr: true},
		{name: "unknown format", mutate: func(c *Config) { c.ListFormat = "xml" }, wantErr: true},
		{name: "unknown store", mutate: func(c *Config) { c.Store = "redis" }, wantErr: true},
		{name: "zero dimension", mutate: func(c *Config) { c.MaxImageDimension = 0 }, wantErr: true},
		{name: "undefined view filter", mutate: func(c *Config) { c.ViewFilters = []string{"nope"} }, wantErr: true},
		{
			name: "defined view filter",
			mutate: func(c *Config) {
				c.Filters = map[string]Filter{"short": {MinTitleLength: 3}}
				c.ViewFilters = []string{"short"}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := Default()
			tt.mutate(&conf)
			err := conf.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
