// Package config loads inkpress settings from a YAML file.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"inkpress/internal/render"

	"github.com/goccy/go-yaml"
)

// DefaultFile is read when no path is given. Its absence is not an error.
const DefaultFile = "inkpress.yaml"

// MaxFileSize limits the config file size.
const MaxFileSize = 1 << 20

var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
	ErrInvalid        = errors.New("invalid config")
)

type Config struct {
	Content  ContentConfig `yaml:"content"`
	Server   ServerConfig  `yaml:"server"`
	Renderer string        `yaml:"renderer"`
	Timeout  time.Duration `yaml:"timeout"`
	Cache    CacheConfig   `yaml:"cache"`
}

type ContentConfig struct {
	// Dir holds the source documents.
	Dir string `yaml:"dir"`
	// Extension selects documents by filename suffix, case-sensitive.
	Extension string `yaml:"extension"`
	// Index is where the summary collection is written.
	Index string `yaml:"index"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// Root is the URL path documents are served and fetched under.
	Root string `yaml:"root"`
	// BaseURL is the origin documents are fetched from. Empty means the
	// server itself.
	BaseURL string `yaml:"base_url"`
}

type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	RedisAddr  string        `yaml:"redis_addr"`
	BadgerPath string        `yaml:"badger_path"`
	TTL        time.Duration `yaml:"ttl"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Content: ContentConfig{
			Dir:       "content/blog",
			Extension: ".md",
			Index:     "content/blog-index.json",
		},
		Server: ServerConfig{
			Addr: ":8080",
			Root: "/blog",
		},
		Renderer: string(render.PolicyStructural),
		Timeout:  10 * time.Second,
		Cache: CacheConfig{
			RedisAddr:  "localhost:6379",
			BadgerPath: "./badger-data",
			TTL:        10 * time.Minute,
		},
	}
}

// Load reads path over the defaults. An empty path tries DefaultFile and
// falls back to the defaults when it does not exist.
func Load(path string) (*Config, error) {
	optional := path == ""
	if optional {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if optional {
				return Default(), nil
			}
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// fields are rejected.
func Parse(data []byte) (*Config, error) {
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrConfigParse, len(data), MaxFileSize)
	}

	cfg := Default()
	if len(strings.TrimSpace(string(data))) > 0 {
		if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.Content.Dir == "" {
		return fmt.Errorf("%w: content.dir is required", ErrInvalid)
	}
	if !strings.HasPrefix(c.Content.Extension, ".") || len(c.Content.Extension) < 2 {
		return fmt.Errorf("%w: content.extension %q must start with a dot", ErrInvalid, c.Content.Extension)
	}
	if c.Content.Index == "" {
		return fmt.Errorf("%w: content.index is required", ErrInvalid)
	}
	if !strings.HasPrefix(c.Server.Root, "/") {
		return fmt.Errorf("%w: server.root %q must start with /", ErrInvalid, c.Server.Root)
	}
	if c.Server.BaseURL != "" {
		u, err := url.Parse(c.Server.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: server.base_url %q must be an http(s) URL", ErrInvalid, c.Server.BaseURL)
		}
	}
	if _, err := render.ParsePolicy(c.Renderer); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive", ErrInvalid)
	}
	if c.Cache.Enabled && c.Cache.RedisAddr == "" {
		return fmt.Errorf("%w: cache.redis_addr is required when the cache is enabled", ErrInvalid)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("%w: cache.ttl must not be negative", ErrInvalid)
	}
	return nil
}

// Policy returns the validated renderer policy.
func (c *Config) Policy() render.Policy {
	p, _ := render.ParsePolicy(c.Renderer)
	return p
}

// FetchBase returns the origin the loader fetches documents from.
func (c *Config) FetchBase() string {
	if c.Server.BaseURL != "" {
		return strings.TrimRight(c.Server.BaseURL, "/")
	}
	host, port, err := net.SplitHostPort(c.Server.Addr)
	if err != nil {
		return "http://" + c.Server.Addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}
