package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends for campaign and linkage persistence.
const (
	StoreChutney  = "chutney"
	StorePostgres = "postgres"
)

// Config holds the configuration for the application.
type Config struct {
	Environment   string `mapstructure:"environment"`
	DevModeBypass bool   `mapstructure:"dev_mode_bypass"`
	Server        struct {
		Addr         string        `mapstructure:"addr"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
		IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	} `mapstructure:"server"`
	Chutney struct {
		BaseURL string        `mapstructure:"base_url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"chutney"`
	Store struct {
		Backend string `mapstructure:"backend"`
	} `mapstructure:"store"`
	DB struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"db"`
	Auth struct {
		OktaDomain      string `mapstructure:"okta_domain"`
		ClientID        string `mapstructure:"client_id"`
		ClientSecret    string `mapstructure:"client_secret"`
		RedirectURL     string `mapstructure:"redirect_url"`
		SwaggerClientID string `mapstructure:"swagger_client_id"`
	} `mapstructure:"auth"`
	TLS struct {
		Enable    bool     `mapstructure:"enable"`
		CertFile  string   `mapstructure:"cert_file"`
		KeyFile   string   `mapstructure:"key_file"`
		Hostnames []string `mapstructure:"hostnames"`
	} `mapstructure:"tls"`
	Editor struct {
		FetchConcurrency   int           `mapstructure:"fetch_concurrency"`
		SessionIdleTimeout time.Duration `mapstructure:"session_idle_timeout"`
	} `mapstructure:"editor"`
	Log struct {
		Level       string `mapstructure:"level"`
		Development bool   `mapstructure:"development"`
	} `mapstructure:"log"`
}

// LoadConfig loads the configuration from a file and the environment. When
// configFile is empty, config.yaml is searched in . and ./config; a missing
// file is not an error in that case.
func LoadConfig(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CAMPAIGN_EDITOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Auth.OktaDomain = normalizeURL(config.Auth.OktaDomain)
	config.Chutney.BaseURL = normalizeURL(config.Chutney.BaseURL)

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "DEV")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("chutney.base_url", "http://localhost:8081")
	v.SetDefault("chutney.timeout", 10*time.Second)
	v.SetDefault("store.backend", StoreChutney)
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("editor.fetch_concurrency", 4)
	v.SetDefault("editor.session_idle_timeout", 30*time.Minute)
	v.SetDefault("log.level", "info")
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case StoreChutney, StorePostgres:
	default:
		return errors.New("store.backend must be one of chutney, postgres")
	}
	if c.Chutney.BaseURL == "" {
		return errors.New("chutney.base_url is required")
	}
	if c.Editor.FetchConcurrency < 1 {
		return errors.New("editor.fetch_concurrency must be positive")
	}
	return nil
}

// normalizeURL strips surrounding spaces and trailing slashes so callers can
// append paths without producing double separators.
func normalizeURL(input string) string {
	return strings.TrimRight(strings.TrimSpace(input), "/")
}
