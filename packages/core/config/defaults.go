package config

import "github.com/spf13/viper"

const (
	TransportNet   = "net"
	TransportResty = "resty"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:         30000, // 30 seconds
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    10,
		ValidateSSL:     BoolPtr(true),
		Transport:       TransportNet,
		LogLevel:        "warn",
		FixtureStore:    "none",
		NoColor:         BoolPtr(false),
	}
}

// setDefaults registers every key with viper so environment overrides are
// picked up by Unmarshal.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("timeout", d.Timeout)
	v.SetDefault("follow_redirects", d.GetFollowRedirects())
	v.SetDefault("max_redirects", d.MaxRedirects)
	v.SetDefault("validate_ssl", d.GetValidateSSL())
	v.SetDefault("proxy", d.Proxy)
	v.SetDefault("headers", []string{})
	v.SetDefault("transport", d.Transport)
	v.SetDefault("rate_limit", d.RateLimit)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("fixture_store", d.FixtureStore)
	v.SetDefault("fixture_path", d.FixturePath)
	v.SetDefault("no_color", d.GetNoColor())
}
