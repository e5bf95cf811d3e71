package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix              = "MYDIARY"
	defaultHTTPAddress     = "0.0.0.0:3000"
	defaultDatabasePath    = "mydiary.db"
	defaultLogLevel        = "info"
	defaultTokenTTLMinutes = 120
)

// AppConfig captures runtime configuration for the API server and the reminder job.
type AppConfig struct {
	HTTPAddress     string
	DatabasePath    string
	LogLevel        string
	SigningSecret   string
	TokenTTL        time.Duration
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	PushSubscriber  string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("token.ttl_minutes", defaultTokenTTLMinutes)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:     configViper.GetString("http.address"),
		DatabasePath:    configViper.GetString("database.path"),
		LogLevel:        configViper.GetString("log.level"),
		SigningSecret:   configViper.GetString("auth.signing_secret"),
		TokenTTL:        time.Duration(configViper.GetInt("token.ttl_minutes")) * time.Minute,
		VAPIDPublicKey:  configViper.GetString("push.vapid_public_key"),
		VAPIDPrivateKey: configViper.GetString("push.vapid_private_key"),
		PushSubscriber:  configViper.GetString("push.subscriber"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token.ttl_minutes must be positive")
	}
	return nil
}

// ValidatePush checks the web-push settings the reminder sweep needs.
// The HTTP server runs without them.
func (c AppConfig) ValidatePush() error {
	if strings.TrimSpace(c.VAPIDPublicKey) == "" {
		return fmt.Errorf("push.vapid_public_key is required")
	}
	if strings.TrimSpace(c.VAPIDPrivateKey) == "" {
		return fmt.Errorf("push.vapid_private_key is required")
	}
	if strings.TrimSpace(c.PushSubscriber) == "" {
		return fmt.Errorf("push.subscriber is required")
	}
	return nil
}
