// Package config manages the datamap.toml configuration file: endpoint
// selection, label language, view defaults, concept visibility, client and
// cache settings.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/coolbeans/datamap/pkg/cache"
	"github.com/coolbeans/datamap/pkg/label"
	"github.com/coolbeans/datamap/pkg/sparql"
)

const (
	// FileName is the configuration file searched for.
	FileName = "datamap.toml"
	// UserDir is the directory under the user config dir holding FileName.
	UserDir = "datamap"
)

// ErrNoConfig is returned when no configuration file is found.
var ErrNoConfig = errors.New("no datamap.toml found in current directory, its parents or user config directory")

// Duration is a time.Duration written as a string such as "30s".
type Duration time.Duration

// UnmarshalText parses a Go duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Endpoints holds the named SPARQL endpoints and the selected one.
type Endpoints struct {
	Selected string            `toml:"selected"`
	URLs     map[string]string `toml:"urls"`
}

// HiddenConcept toggles the visibility of one class.
type HiddenConcept struct {
	URI    string `toml:"uri"`
	Hidden bool   `toml:"hidden"`
}

// Client configures HTTP access to the endpoint.
type Client struct {
	Timeout   Duration `toml:"timeout"`
	RateLimit Duration `toml:"rate_limit"`
	UserAgent string   `toml:"user_agent"`
}

// Cache configures the response cache.
type Cache struct {
	Kind string   `toml:"kind"`
	Path string   `toml:"path"`
	TTL  Duration `toml:"ttl"`
}

// Config is the datamap configuration.
type Config struct {
	Endpoints          Endpoints       `toml:"endpoints"`
	Language           string          `toml:"language"`
	Debug              bool            `toml:"debug"`
	DisplaySchema      bool            `toml:"display_schema"`
	InstanceGraph      string          `toml:"instance_graph"`
	HiddenConcepts     []HiddenConcept `toml:"hidden_concepts"`
	HighlightConcepts  []string        `toml:"highlight_concepts"`
	PriorityProperties []string        `toml:"priority_properties"`
	Client             Client          `toml:"client"`
	Cache              Cache           `toml:"cache"`
	path               string          // file the config was loaded from
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Endpoints: Endpoints{
			Selected: "remote",
			URLs: map[string]string{
				"local":  "http://localhost:3030/pz",
				"remote": "https://triplestore.lavbic.net/pz",
			},
		},
		Language:      string(label.Slovenian),
		DisplaySchema: true,
		HiddenConcepts: []HiddenConcept{
			{URI: "http://www.w3.org/ns/duv#RatingFeedback", Hidden: true},
			{URI: "http://www.w3.org/ns/csvw#uriTemplate", Hidden: true},
			{URI: "http://www.w3.org/ns/adms#Identifier", Hidden: true},
			{URI: "http://purl.org/dc/terms/Location", Hidden: true},
			{URI: "http://www.w3.org/ns/duv#UserFeedback", Hidden: true},
			{URI: "http://www.w3.org/ns/duv#UsageTool", Hidden: true},
			{URI: "http://www.w3.org/ns/duv#Usage", Hidden: true},
			{URI: "http://www.w3.org/ns/csvw#Column", Hidden: false},
			{URI: "http://www.w3.org/ns/dqv#Dimension", Hidden: true},
			{URI: "http://www.w3.org/ns/prov#Agent", Hidden: true},
			{URI: "http://xmlns.com/foaf/0.1/Organization", Hidden: true},
			{URI: "http://www.w3.org/ns/csvw#Table", Hidden: true},
			{URI: "http://onto.mju.gov.si/centralni-besednjak-core#UpravnaEnota", Hidden: true},
		},
		HighlightConcepts: []string{
			"http://www.w3.org/ns/dcat#Catalog",
			"http://www.w3.org/ns/dcat#Distribution",
			"http://www.w3.org/ns/dcat#Dataset",
			"http://www.w3.org/ns/csvw#Schema",
		},
		PriorityProperties: []string{
			"http://purl.org/dc/terms/title",
			"http://purl.org/dc/terms/description",
			"http://purl.org/dc/terms/publisher",
		},
		Client: Client{
			Timeout:   Duration(sparql.DefaultTimeout),
			UserAgent: sparql.DefaultUserAgent,
		},
		Cache: Cache{
			Kind: string(cache.KindMemory),
			TTL:  Duration(cache.DefaultTTL),
		},
	}
}

// Find returns the path of the configuration file: the first FileName in
// the working directory or its parents, then the user config directory.
func Find() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	if userDir, err := os.UserConfigDir(); err == nil {
		candidate := filepath.Join(userDir, UserDir, FileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", ErrNoConfig
}

// Load finds and loads the configuration file. It returns ErrNoConfig when
// there is none; callers may fall back to Default.
func Load() (*Config, error) {
	path, err := Find()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the configuration at path over the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	defaults := *cfg
	// Lists in the file replace the defaults instead of extending them.
	cfg.HiddenConcepts, cfg.HighlightConcepts, cfg.PriorityProperties = nil, nil, nil
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.HiddenConcepts == nil {
		cfg.HiddenConcepts = defaults.HiddenConcepts
	}
	if cfg.HighlightConcepts == nil {
		cfg.HighlightConcepts = defaults.HighlightConcepts
	}
	if cfg.PriorityProperties == nil {
		cfg.PriorityProperties = defaults.PriorityProperties
	}

	cfg.path = path
	return cfg, nil
}

// Save writes the configuration back to the file it was loaded from.
func (c *Config) Save() error {
	if c.path == "" {
		return fmt.Errorf("config has no file path")
	}
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(c.path, data, 0644)
}

// Path returns the file the configuration was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

// Initialize writes a default configuration file into dir.
func Initialize(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("%s already exists", path)
	}

	cfg := Default()
	cfg.path = path
	if err := cfg.Save(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the tool cannot use.
func (c *Config) Validate() error {
	if _, ok := label.ParseLanguage(c.Language); !ok {
		return fmt.Errorf("unsupported language %q", c.Language)
	}
	if _, err := c.SelectedEndpoint(); err != nil {
		return err
	}
	switch cache.Kind(c.Cache.Kind) {
	case "", cache.KindNone, cache.KindMemory:
	case cache.KindSQLite, cache.KindBolt:
		if c.Cache.Path == "" {
			return fmt.Errorf("cache kind %q requires a path", c.Cache.Kind)
		}
	default:
		return fmt.Errorf("unknown cache kind %q", c.Cache.Kind)
	}
	if c.Client.Timeout < 0 || c.Client.RateLimit < 0 || c.Cache.TTL < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	return nil
}

// SelectedEndpoint returns the URL of the selected endpoint.
func (c *Config) SelectedEndpoint() (string, error) {
	endpoint, ok := c.Endpoints.URLs[c.Endpoints.Selected]
	if !ok {
		return "", fmt.Errorf("selected endpoint %q is not configured", c.Endpoints.Selected)
	}
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("endpoint %q has invalid URL %q", c.Endpoints.Selected, endpoint)
	}
	return endpoint, nil
}

// OverrideEndpoint points the remote endpoint at endpoint and selects it.
func (c *Config) OverrideEndpoint(endpoint string) {
	if c.Endpoints.URLs == nil {
		c.Endpoints.URLs = make(map[string]string)
	}
	c.Endpoints.URLs["remote"] = endpoint
	c.Endpoints.Selected = "remote"
}

// LabelLanguage returns the surfacing language, defaulting to Slovenian.
func (c *Config) LabelLanguage() label.Language {
	if language, ok := label.ParseLanguage(c.Language); ok {
		return language
	}
	return label.Slovenian
}

// HiddenURIs returns the concepts currently marked hidden.
func (c *Config) HiddenURIs() []string {
	var hidden []string
	for _, concept := range c.HiddenConcepts {
		if concept.Hidden {
			hidden = append(hidden, concept.URI)
		}
	}
	return hidden
}

// SetHidden marks uri hidden or visible, adding it when missing.
func (c *Config) SetHidden(uri string, hidden bool) {
	for i := range c.HiddenConcepts {
		if c.HiddenConcepts[i].URI == uri {
			c.HiddenConcepts[i].Hidden = hidden
			return
		}
	}
	c.HiddenConcepts = append(c.HiddenConcepts, HiddenConcept{URI: uri, Hidden: hidden})
}

// ClientConfig returns the SPARQL client settings for the selected endpoint.
func (c *Config) ClientConfig() (sparql.ClientConfig, error) {
	endpoint, err := c.SelectedEndpoint()
	if err != nil {
		return sparql.ClientConfig{}, err
	}
	clientConfig := sparql.DefaultConfig(endpoint)
	if c.Client.Timeout > 0 {
		clientConfig.Timeout = time.Duration(c.Client.Timeout)
	}
	clientConfig.RateLimit = time.Duration(c.Client.RateLimit)
	if c.Client.UserAgent != "" {
		clientConfig.UserAgent = c.Client.UserAgent
	}
	return clientConfig, nil
}

// CacheConfig returns the response cache settings. A relative path is
// resolved against the directory of the configuration file.
func (c *Config) CacheConfig() cache.Config {
	path := c.Cache.Path
	if path != "" && !filepath.IsAbs(path) && c.path != "" {
		path = filepath.Join(filepath.Dir(c.path), path)
	}
	return cache.Config{
		Kind: cache.Kind(c.Cache.Kind),
		Path: path,
		TTL:  time.Duration(c.Cache.TTL),
	}
}
