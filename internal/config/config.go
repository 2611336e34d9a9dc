package config

import (
	"fmt"
	"strings"

	"github.com/hardng/arca/internal/domain"
	"github.com/spf13/viper"
)

// Source kinds understood by the backup manager.
const (
	KindMongo = "mongo"
	KindRedis = "redis"
	KindNginx = "nginx"
	KindNacos = "nacos"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Source   SourceConfig   `mapstructure:"source"`
	Backup   BackupConfig   `mapstructure:"backup"`
	S3       S3Config       `mapstructure:"s3"`
	Mirrors  []MirrorConfig `mapstructure:"mirrors"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type AppConfig struct {
	LogLevel    string `mapstructure:"log_level"`
	LogFile     string `mapstructure:"log_file"`
	Schedule    string `mapstructure:"schedule"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// SourceConfig carries the connection settings of one data source. For the
// database kinds a non-empty URI overrides the discrete fields; for the
// directory kinds only Dir is consulted.
type SourceConfig struct {
	Kind     string `mapstructure:"kind"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	URI      string `mapstructure:"uri"`
	Dir      string `mapstructure:"dir"`
}

type RetentionConfig struct {
	MaxAgeDays int `mapstructure:"max_age_days"`
	MaxCount   int `mapstructure:"max_count"`
}

// Policy converts the file/flag representation into the domain policy.
func (r RetentionConfig) Policy() domain.RetentionPolicy {
	return domain.RetentionPolicy{MaxAgeDays: r.MaxAgeDays, MaxCount: r.MaxCount}
}

type BackupConfig struct {
	Dir       string          `mapstructure:"dir"`
	Retention RetentionConfig `mapstructure:"retention"`
}

type S3Config struct {
	Enabled      bool            `mapstructure:"enabled"`
	URL          string          `mapstructure:"url"`
	Alias        string          `mapstructure:"alias"`
	Bucket       string          `mapstructure:"bucket"`
	Path         string          `mapstructure:"path"`
	AccessKey    string          `mapstructure:"access_key"`
	SecretKey    string          `mapstructure:"secret_key"`
	Retention    RetentionConfig `mapstructure:"retention"`
	CleanupLocal bool            `mapstructure:"cleanup_local"`
	MCCommand    string          `mapstructure:"mc_command"`
	UseSDK       bool            `mapstructure:"use_sdk"`
}

type MirrorConfig struct {
	Type    string `mapstructure:"type"`
	Enabled bool   `mapstructure:"enabled"`

	// Google Drive
	CredentialsFile string `mapstructure:"credentials_file"`
	FolderID        string `mapstructure:"folder_id"`
}

type TelegramConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
	SendFile bool   `mapstructure:"send_file"`
}

// Load builds the config for one source kind, reading the optional YAML
// file at path and ARCA_-prefixed environment variables. Flag values are
// layered on top by the caller.
func Load(kind, path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, kind)

	v.SetEnvPrefix("ARCA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range []string{
		"source.password", "source.uri",
		"s3.access_key", "s3.secret_key",
		"telegram.bot_token",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Source.Kind = kind

	return &cfg, nil
}

func setDefaults(v *viper.Viper, kind string) {
	v.SetDefault("app.log_level", "info")
	v.SetDefault("source.kind", kind)
	v.SetDefault("backup.dir", "/data/backup/"+kind)
	v.SetDefault("backup.retention.max_age_days", 7)
	v.SetDefault("backup.retention.max_count", 0)
	v.SetDefault("s3.retention.max_age_days", 0)
	v.SetDefault("s3.retention.max_count", 0)
	v.SetDefault("s3.mc_command", "mc")

	switch kind {
	case KindMongo:
		v.SetDefault("source.host", "localhost")
		v.SetDefault("source.port", 27017)
	case KindRedis:
		v.SetDefault("source.host", "localhost")
		v.SetDefault("source.port", 6379)
		v.SetDefault("source.dir", "/var/lib/redis")
	case KindNginx:
		v.SetDefault("source.dir", "/etc/nginx")
	case KindNacos:
		v.SetDefault("source.dir", "/opt/nacos/data")
	}
}

func (c *Config) Validate() error {
	switch c.Source.Kind {
	case KindMongo, KindRedis, KindNginx, KindNacos:
	default:
		return &domain.ConfigError{Reason: fmt.Sprintf("unknown source kind %q", c.Source.Kind)}
	}

	if c.Backup.Dir == "" {
		return &domain.ConfigError{Reason: "backup directory is required"}
	}
	if err := validRetention("local", c.Backup.Retention); err != nil {
		return err
	}
	if err := validRetention("s3", c.S3.Retention); err != nil {
		return err
	}

	if (c.Source.Kind == KindNginx || c.Source.Kind == KindNacos) && c.Source.Dir == "" {
		return &domain.ConfigError{Reason: c.Source.Kind + ": source directory is required"}
	}

	if c.S3.Enabled {
		if c.S3.URL == "" {
			return &domain.ConfigError{Reason: "s3: endpoint url is required"}
		}
		if c.S3.AccessKey == "" || c.S3.SecretKey == "" {
			return &domain.ConfigError{Reason: "s3: access key and secret key are required"}
		}
		if c.S3.Bucket == "" {
			return &domain.ConfigError{Reason: "s3: bucket is required"}
		}
	}
	if !c.S3.Enabled && c.S3.CleanupLocal {
		return &domain.ConfigError{Reason: "s3: cleanup_local requires s3 upload to be enabled"}
	}

	for i, m := range c.Mirrors {
		if !m.Enabled {
			continue
		}
		if m.Type != "gdrive" {
			return &domain.ConfigError{Reason: fmt.Sprintf("mirrors[%d]: unknown type %q", i, m.Type)}
		}
		if m.CredentialsFile == "" {
			return &domain.ConfigError{Reason: fmt.Sprintf("mirrors[%d]: credentials_file is required", i)}
		}
	}

	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" || c.Telegram.ChatID == 0 {
			return &domain.ConfigError{Reason: "telegram: bot_token and chat_id are required"}
		}
	}

	return nil
}

func validRetention(scope string, r RetentionConfig) error {
	if r.MaxAgeDays < 0 {
		return &domain.ConfigError{Reason: scope + ": retention days must not be negative"}
	}
	if r.MaxCount < 0 {
		return &domain.ConfigError{Reason: scope + ": keep count must not be negative"}
	}
	return nil
}

// EnabledMirrors filters the configured mirror targets down to the active
// ones.
func (c *Config) EnabledMirrors() []MirrorConfig {
	var enabled []MirrorConfig
	for _, m := range c.Mirrors {
		if m.Enabled {
			enabled = append(enabled, m)
		}
	}
	return enabled
}
