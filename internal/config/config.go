package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/noahxzhu/lighthouse/internal/storage"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Storage StorageConfig `mapstructure:"storage"`
	Mail    MailConfig    `mapstructure:"mail"`
	Client  ClientConfig  `mapstructure:"client"`
}

type ServerConfig struct {
	Addr  string `mapstructure:"addr"`
	Debug bool   `mapstructure:"debug"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type AuthConfig struct {
	// Token is the shared bearer secret. Empty disables auth.
	Token string `mapstructure:"token"`
}

type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
	Key     string `mapstructure:"key"`
}

type MailConfig struct {
	APIURL       string        `mapstructure:"api_url"`
	From         string        `mapstructure:"from"`
	FromName     string        `mapstructure:"from_name"`
	Subject      string        `mapstructure:"subject"`
	SenderDomain string        `mapstructure:"sender_domain"`
	Timeout      time.Duration `mapstructure:"timeout"`
	DKIM         DKIMConfig    `mapstructure:"dkim"`
}

type DKIMConfig struct {
	Domain     string `mapstructure:"domain"`
	Selector   string `mapstructure:"selector"`
	PrivateKey string `mapstructure:"private_key"`
}

// ClientConfig drives the CLI's storage adapter.
type ClientConfig struct {
	Remote    bool   `mapstructure:"remote"`
	URL       string `mapstructure:"url"`
	Token     string `mapstructure:"token"`
	LocalPath string `mapstructure:"local_path"`
}

// FromAddress falls back to noreply@<sender domain>.
func (m MailConfig) FromAddress() string {
	if m.From != "" {
		return m.From
	}
	return "noreply@" + m.SenderDomain
}

// Environment names used by existing deployments.
var envAliases = map[string]string{
	"auth.token":            "RELAY_TOKEN",
	"mail.from":             "MAIL_FROM",
	"mail.from_name":        "MAIL_FROM_NAME",
	"mail.subject":          "MAIL_SUBJECT",
	"mail.sender_domain":    "SENDER_DOMAIN",
	"mail.dkim.domain":      "DKIM_DOMAIN",
	"mail.dkim.selector":    "DKIM_SELECTOR",
	"mail.dkim.private_key": "DKIM_PRIVATE_KEY",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8788")
	v.SetDefault("server.debug", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("auth.token", "")
	v.SetDefault("storage.backend", storage.BackendMemory)
	v.SetDefault("storage.path", "data/lighthouse.json")
	v.SetDefault("storage.key", "sos_data_v1")
	v.SetDefault("mail.api_url", "https://api.mailchannels.net/tx/v1/send")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.from_name", "Save Our Souls")
	v.SetDefault("mail.subject", "SOS alert: urgent attention needed")
	v.SetDefault("mail.sender_domain", "example.com")
	v.SetDefault("mail.timeout", "15s")
	v.SetDefault("mail.dkim.domain", "")
	v.SetDefault("mail.dkim.selector", "")
	v.SetDefault("mail.dkim.private_key", "")
	v.SetDefault("client.remote", false)
	v.SetDefault("client.url", "http://localhost:8788")
	v.SetDefault("client.token", "")
	v.SetDefault("client.local_path", "data/local.json")
}

// LoadConfig reads the YAML file at path, if it exists, then applies
// LIGHTHOUSE_* environment overrides and the deployment aliases above.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LIGHTHOUSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		if err := v.BindEnv(key, "LIGHTHOUSE_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case storage.BackendMemory:
	case storage.BackendFile, storage.BackendBadger, storage.BackendSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for backend %q", c.Storage.Backend)
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Key == "" {
		return errors.New("storage.key must not be empty")
	}
	if c.Client.Remote && c.Client.URL == "" {
		return errors.New("client.url is required when client.remote is enabled")
	}
	return nil
}
