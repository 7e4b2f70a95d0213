package config

import (
	"errors"
	"fmt"
	neturl "net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	apihttp "github.com/abdul-hamid-achik/apidriver/packages/http"
)

// EnvPrefix is prepended to every key when reading overrides from the
// environment.
const EnvPrefix = "APIDRIVER"

// ErrInvalid is wrapped by every error Validate returns.
var ErrInvalid = errors.New("invalid configuration")

// Config represents the apidriver configuration
type Config struct {
	BaseURL         string   `mapstructure:"base_url" json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Timeout         int      `mapstructure:"timeout" json:"timeout,omitempty" yaml:"timeout,omitempty"` // milliseconds
	FollowRedirects *bool    `mapstructure:"follow_redirects" json:"follow_redirects,omitempty" yaml:"follow_redirects,omitempty"`
	MaxRedirects    int      `mapstructure:"max_redirects" json:"max_redirects,omitempty" yaml:"max_redirects,omitempty"`
	ValidateSSL     *bool    `mapstructure:"validate_ssl" json:"validate_ssl,omitempty" yaml:"validate_ssl,omitempty"`
	Proxy           string   `mapstructure:"proxy" json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Headers         []string `mapstructure:"headers" json:"headers,omitempty" yaml:"headers,omitempty"` // "Name: value", names keep their case
	Transport       string   `mapstructure:"transport" json:"transport,omitempty" yaml:"transport,omitempty"`
	RateLimit       float64  `mapstructure:"rate_limit" json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"` // requests per second
	LogLevel        string   `mapstructure:"log_level" json:"log_level,omitempty" yaml:"log_level,omitempty"`
	FixtureStore    string   `mapstructure:"fixture_store" json:"fixture_store,omitempty" yaml:"fixture_store,omitempty"`
	FixturePath     string   `mapstructure:"fixture_path" json:"fixture_path,omitempty" yaml:"fixture_path,omitempty"`
	NoColor         *bool    `mapstructure:"no_color" json:"no_color,omitempty" yaml:"no_color,omitempty"`
}

// Header is one parsed entry of Config.Headers.
type Header struct {
	Name  string
	Value string
}

// BoolPtr returns a pointer to b, for filling the optional flags.
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// AppHost returns the base URL every request path is resolved against.
func (c *Config) AppHost() string {
	return c.BaseURL
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// TimeoutDuration converts Timeout to a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// ParsedHeaders splits Headers into name/value pairs, keeping their order.
func (c *Config) ParsedHeaders() ([]Header, error) {
	headers := make([]Header, 0, len(c.Headers))
	for _, raw := range c.Headers {
		h, err := ParseHeader(raw)
		if err != nil {
			return nil, err
		}
		headers = append(headers, h)
	}
	return headers, nil
}

// ParseHeader parses a "Name: value" string.
func ParseHeader(raw string) (Header, error) {
	name, value, ok := strings.Cut(raw, ":")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return Header{}, fmt.Errorf("%w: header %q must look like \"Name: value\"", ErrInvalid, raw)
	}
	return Header{Name: name, Value: strings.TrimSpace(value)}, nil
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".apidriver.yaml",
	"apidriver.yaml",
	".apidriver.json",
	"apidriver.json",
}

// LoadOptions controls where Load looks.
type LoadOptions struct {
	// Path is an explicit config file. When empty, Dir is searched.
	Path string
	// Dir is searched for ConfigFilenames. Defaults to the working directory.
	Dir string
	// EnvFile is a dotenv file loaded before the environment is read. When
	// empty, a .env in Dir is loaded if present.
	EnvFile string
}

// Load reads defaults, then a config file, then APIDRIVER_ environment
// variables, each layer overriding the previous one.
func Load(opts LoadOptions) (*Config, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	if opts.EnvFile != "" {
		if err := godotenv.Load(opts.EnvFile); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	} else {
		_ = godotenv.Load(filepath.Join(dir, ".env"))
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := opts.Path
	if path == "" {
		path = findConfigFile(dir)
	}
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// findConfigFile returns the first of ConfigFilenames present in dir.
func findConfigFile(dir string) string {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}
	return ""
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy
	result.Headers = append([]string(nil), c.Headers...)

	if other.BaseURL != "" {
		result.BaseURL = other.BaseURL
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.Transport != "" {
		result.Transport = other.Transport
	}
	if other.RateLimit > 0 {
		result.RateLimit = other.RateLimit
	}
	if other.LogLevel != "" {
		result.LogLevel = other.LogLevel
	}
	if other.FixtureStore != "" {
		result.FixtureStore = other.FixtureStore
	}
	if other.FixturePath != "" {
		result.FixturePath = other.FixturePath
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	// Headers from other come later so they win when profiles apply them
	result.Headers = append(result.Headers, other.Headers...)

	return &result
}

// Validate reports the first problem that would stop a client from being
// built from c.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("%w: base_url is required", ErrInvalid)
	}
	u, err := neturl.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: base_url %q must be an absolute http(s) URL", ErrInvalid, c.BaseURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalid)
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("%w: max_redirects must not be negative", ErrInvalid)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("%w: rate_limit must not be negative", ErrInvalid)
	}

	if c.Proxy != "" {
		if _, err := apihttp.ParseProxyURL(c.Proxy); err != nil {
			return fmt.Errorf("%w: proxy: %v", ErrInvalid, err)
		}
	}

	switch c.Transport {
	case "", TransportNet, TransportResty:
	default:
		return fmt.Errorf("%w: unknown transport %q", ErrInvalid, c.Transport)
	}

	switch strings.ToLower(c.FixtureStore) {
	case "", "none", "disabled":
	case "sqlite", "sqlite3", "bbolt", "bolt":
		if strings.TrimSpace(c.FixturePath) == "" {
			return fmt.Errorf("%w: fixture_path is required for the %s store", ErrInvalid, c.FixtureStore)
		}
	default:
		return fmt.Errorf("%w: unknown fixture store %q", ErrInvalid, c.FixtureStore)
	}

	_, err = c.ParsedHeaders()
	return err
}
