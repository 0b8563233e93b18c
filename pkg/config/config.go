// Package config loads rwadmin settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	version   = "1"
	envPrefix = "RWADMIN_"
)

var (
	// ErrUnsupportedVersion is returned for config files of another format version.
	ErrUnsupportedVersion = errors.New("config: unsupported version")
	// ErrInvalid is returned when a loaded config fails validation.
	ErrInvalid = errors.New("config: invalid")
)

// Config is the full rwadmin configuration.
type Config struct {
	Version string        `yaml:"version"`
	Server  ServerConfig  `yaml:"server"`
	API     APIConfig     `yaml:"api"`
	Preview PreviewConfig `yaml:"preview"`
	Listing ListingConfig `yaml:"listing"`
	Drafts  DraftsConfig  `yaml:"drafts"`
	Source  string        `yaml:"-"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	BasePath    string `yaml:"base_path"`
	MetricsAddr string `yaml:"metrics_addr"`
	MetricsPath string `yaml:"metrics_path"`
	// PromptTTL bounds how long a mode confirmation waits for an answer.
	PromptTTL time.Duration `yaml:"prompt_ttl"`
}

// APIConfig points at the Resource Watch API.
type APIConfig struct {
	BaseURL     string        `yaml:"base_url"`
	Token       string        `yaml:"token"`
	Application string        `yaml:"application"`
	Env         string        `yaml:"env"`
	Timeout     time.Duration `yaml:"timeout"`
}

// PreviewConfig configures chart previews. An empty theme uses the renderer
// default.
type PreviewConfig struct {
	Theme          string        `yaml:"theme"`
	ResizeDebounce time.Duration `yaml:"resize_debounce"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	LayerSchema    string        `yaml:"layer_schema"`
	Templates      string        `yaml:"templates"`
}

// ListingConfig configures paginated lists.
type ListingConfig struct {
	PageSize       int           `yaml:"page_size"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	SearchDebounce time.Duration `yaml:"search_debounce"`
}

// DraftsConfig configures draft persistence. An empty path keeps drafts in memory.
type DraftsConfig struct {
	Path   string        `yaml:"path"`
	MaxAge time.Duration `yaml:"max_age"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Version: version,
		Server: ServerConfig{
			Addr:        ":8080",
			BasePath:    "/admin",
			MetricsAddr: ":9090",
			MetricsPath: "/metrics",
			PromptTTL:   5 * time.Minute,
		},
		API: APIConfig{
			BaseURL:     "https://api.resourcewatch.org",
			Application: "rw",
			Env:         "production,preproduction",
			Timeout:     10 * time.Second,
		},
		Preview: PreviewConfig{
			ResizeDebounce: 250 * time.Millisecond,
			CacheTTL:       5 * time.Minute,
		},
		Listing: ListingConfig{
			PageSize:       20,
			CacheTTL:       30 * time.Second,
			SearchDebounce: 250 * time.Millisecond,
		},
		Drafts: DraftsConfig{
			MaxAge: 7 * 24 * time.Hour,
		},
	}
}

// Load reads path over the defaults and applies environment overrides. An
// empty path yields the defaults plus overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		f, err := os.Open(path) //nolint:gosec
		if err != nil {
			return Config{}, fmt.Errorf("config: open %s: %w", path, err)
		}
		defer f.Close()
		cfg, err = Decode(f)
		if err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
		cfg.Source = path
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Decode parses YAML over the defaults. Unknown keys are rejected.
func Decode(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	if cfg.Version != version {
		return Config{}, fmt.Errorf("%w: %q", ErrUnsupportedVersion, cfg.Version)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from RWADMIN_* variables resolved through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		return nil
	}
	strs := map[string]*string{
		"ADDR":          &c.Server.Addr,
		"BASE_PATH":     &c.Server.BasePath,
		"METRICS_ADDR":  &c.Server.MetricsAddr,
		"METRICS_PATH":  &c.Server.MetricsPath,
		"API_URL":       &c.API.BaseURL,
		"API_TOKEN":     &c.API.Token,
		"APPLICATION":   &c.API.Application,
		"ENV":           &c.API.Env,
		"PREVIEW_THEME": &c.Preview.Theme,
		"LAYER_SCHEMA":  &c.Preview.LayerSchema,
		"TEMPLATES":     &c.Preview.Templates,
		"DRAFTS_PATH":   &c.Drafts.Path,
	}
	for key, dst := range strs {
		if v, ok := lookup(envPrefix + key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	durations := map[string]*time.Duration{
		"API_TIMEOUT":       &c.API.Timeout,
		"PROMPT_TTL":        &c.Server.PromptTTL,
		"RESIZE_DEBOUNCE":   &c.Preview.ResizeDebounce,
		"PREVIEW_CACHE_TTL": &c.Preview.CacheTTL,
		"LIST_CACHE_TTL":    &c.Listing.CacheTTL,
		"SEARCH_DEBOUNCE":   &c.Listing.SearchDebounce,
		"DRAFTS_MAX_AGE":    &c.Drafts.MaxAge,
	}
	for key, dst := range durations {
		v, ok := lookup(envPrefix + key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s%s: %w", envPrefix, key, err)
		}
		*dst = d
	}
	if v, ok := lookup(envPrefix + "PAGE_SIZE"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %sPAGE_SIZE: %w", envPrefix, err)
		}
		c.Listing.PageSize = n
	}
	return nil
}

// Validate checks the values the rest of the program relies on.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if strings.TrimSpace(c.API.BaseURL) == "" {
		errs = append(errs, errors.New("api.base_url is required"))
	}
	if c.Listing.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("listing.page_size must be positive, got %d", c.Listing.PageSize))
	}
	for name, d := range map[string]time.Duration{
		"api.timeout":             c.API.Timeout,
		"server.prompt_ttl":       c.Server.PromptTTL,
		"preview.resize_debounce": c.Preview.ResizeDebounce,
		"preview.cache_ttl":       c.Preview.CacheTTL,
		"listing.cache_ttl":       c.Listing.CacheTTL,
		"listing.search_debounce": c.Listing.SearchDebounce,
		"drafts.max_age":          c.Drafts.MaxAge,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative", name))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}
