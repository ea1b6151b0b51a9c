package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	DB        DBConfig        `mapstructure:"db"`
	OIDC      OIDCConfig      `mapstructure:"oidc"`
	Log       LogConfig       `mapstructure:"log"`
	Session   SessionConfig   `mapstructure:"session"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Lock      LockConfig      `mapstructure:"lock"`
	Revisions RevisionsConfig `mapstructure:"revisions"`
	Content   ContentConfig   `mapstructure:"content"`
}

// ServerConfig holds server-specific configuration.
type ServerConfig struct {
	Port string    `mapstructure:"port"`
	TLS  TLSConfig `mapstructure:"tls"`
}

// TLSConfig holds TLS-specific configuration.
type TLSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
}

// DBConfig holds database-specific configuration.
type DBConfig struct {
	Driver string `mapstructure:"driver"` // "mysql" or "sqlite3"
	DSN    string `mapstructure:"dsn"`
}

// OIDCConfig holds OIDC client configuration.
type OIDCConfig struct {
	IssuerURL    string `mapstructure:"issuer_url"`
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // e.g., "debug", "info", "warn", "error"
	Format string `mapstructure:"format"` // e.g., "json", "console"
}

// SessionConfig holds session cookie configuration.
type SessionConfig struct {
	SecretKey string `mapstructure:"secretkey"`
	Lifetime  int    `mapstructure:"lifetime"` // hours
}

// CacheConfig holds the SQLite tally cache configuration.
type CacheConfig struct {
	FilePath string        `mapstructure:"filepath"`
	TallyTTL time.Duration `mapstructure:"tally_ttl"`
}

// LockConfig selects the keyed lock backend. An empty RedisURL means in-process locks.
type LockConfig struct {
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RevisionsConfig controls revision history policy.
type RevisionsConfig struct {
	// SnapshotOnRestore appends a new revision carrying the restored content,
	// so the rollback itself shows up in the history.
	SnapshotOnRestore bool `mapstructure:"snapshot_on_restore"`
}

// ContentConfig holds validation limits for user-submitted content.
type ContentConfig struct {
	MaxTitleLength int `mapstructure:"max_title_length"`
	MaxBodyLength  int `mapstructure:"max_body_length"`
}

// Default returns a Config populated with the same defaults LoadConfig applies.
// Tests use it to build services without touching the filesystem.
func Default() Config {
	return Config{
		Server:    ServerConfig{Port: "8080"},
		DB:        DBConfig{Driver: "sqlite3", DSN: "community.db?_foreign_keys=on"},
		Log:       LogConfig{Level: "info", Format: "console"},
		Session:   SessionConfig{Lifetime: 24},
		Cache:     CacheConfig{FilePath: "cache.db", TallyTTL: time.Minute},
		Lock:      LockConfig{TTL: 10 * time.Second},
		Revisions: RevisionsConfig{SnapshotOnRestore: true},
		Content:   ContentConfig{MaxTitleLength: 200, MaxBodyLength: 50000},
	}
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	d := Default()
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.tls.enabled", false)
	v.SetDefault("db.driver", d.DB.Driver)
	v.SetDefault("db.dsn", d.DB.DSN)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("session.secretkey", "")
	v.SetDefault("session.lifetime", d.Session.Lifetime)
	v.SetDefault("cache.filepath", d.Cache.FilePath)
	v.SetDefault("cache.tally_ttl", d.Cache.TallyTTL)
	v.SetDefault("lock.redis_url", "")
	v.SetDefault("lock.ttl", d.Lock.TTL)
	v.SetDefault("revisions.snapshot_on_restore", d.Revisions.SnapshotOnRestore)
	v.SetDefault("content.max_title_length", d.Content.MaxTitleLength)
	v.SetDefault("content.max_body_length", d.Content.MaxBodyLength)
	v.SetDefault("oidc.issuer_url", "")
	v.SetDefault("oidc.client_id", "")
	v.SetDefault("oidc.client_secret", "")
	v.SetDefault("oidc.redirect_url", "")

	// Set up viper to read from config file
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/go-community-app/")
	v.AddConfigPath("$HOME/.go-community-app")

	// Attempt to read the config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
		// Config file not found; proceed with defaults and env vars
	}

	// Set up viper to read from environment variables
	v.SetEnvPrefix("COMMUNITY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal the config into the Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
