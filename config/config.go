package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	JWT        JWTConfig        `yaml:"jwt"`
	Accounting AccountingConfig `yaml:"accounting"`
	Pagination PaginationConfig `yaml:"pagination"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Host     string `yaml:"host"`
	LogLevel string `yaml:"log_level"`
}

type DatabaseConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	Database     string `yaml:"database"`
	Charset      string `yaml:"charset"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type RedisConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	EventChannel string `yaml:"event_channel"`
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours"`
}

// AccountingConfig controls the storage ledger: default quota for lazily
// created accounts, cache TTL, per-type upload ceilings, alert dedup window
// and the background maintenance schedule.
type AccountingConfig struct {
	DefaultQuotaBytes       int64 `yaml:"default_quota_bytes"`
	CacheTTLSeconds         int   `yaml:"cache_ttl_seconds"`
	MaxImageBytes           int64 `yaml:"max_image_bytes"`
	MaxDocumentBytes        int64 `yaml:"max_document_bytes"`
	MaxArticleBytes         int64 `yaml:"max_article_bytes"`
	AlertCooldownHours      int   `yaml:"alert_cooldown_hours"`
	AlertRetentionDays      int   `yaml:"alert_retention_days"`
	SnapshotRetentionDays   int   `yaml:"snapshot_retention_days"`
	SnapshotIntervalSeconds int   `yaml:"snapshot_interval"`
	CleanupIntervalSeconds  int   `yaml:"cleanup_interval"`
	DefaultHistoryDays      int   `yaml:"default_history_days"`
}

type PaginationConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

var AppConfig *Config

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	AppConfig = &cfg
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Redis.EventChannel == "" {
		cfg.Redis.EventChannel = "storage.events"
	}
	if cfg.JWT.ExpireHours == 0 {
		cfg.JWT.ExpireHours = 24
	}
	if cfg.Accounting.DefaultQuotaBytes == 0 {
		cfg.Accounting.DefaultQuotaBytes = 10 * 1024 * 1024 * 1024 // 10GB
	}
	if cfg.Accounting.CacheTTLSeconds == 0 {
		cfg.Accounting.CacheTTLSeconds = 300
	}
	if cfg.Accounting.MaxImageBytes == 0 {
		cfg.Accounting.MaxImageBytes = 50 * 1024 * 1024
	}
	if cfg.Accounting.MaxDocumentBytes == 0 {
		cfg.Accounting.MaxDocumentBytes = 100 * 1024 * 1024
	}
	if cfg.Accounting.MaxArticleBytes == 0 {
		cfg.Accounting.MaxArticleBytes = 10 * 1024 * 1024
	}
	if cfg.Accounting.AlertCooldownHours == 0 {
		cfg.Accounting.AlertCooldownHours = 24
	}
	if cfg.Accounting.AlertRetentionDays == 0 {
		cfg.Accounting.AlertRetentionDays = 90
	}
	if cfg.Accounting.SnapshotRetentionDays == 0 {
		cfg.Accounting.SnapshotRetentionDays = 365
	}
	if cfg.Accounting.SnapshotIntervalSeconds == 0 {
		cfg.Accounting.SnapshotIntervalSeconds = 24 * 60 * 60
	}
	if cfg.Accounting.CleanupIntervalSeconds == 0 {
		cfg.Accounting.CleanupIntervalSeconds = 24 * 60 * 60
	}
	if cfg.Accounting.DefaultHistoryDays == 0 {
		cfg.Accounting.DefaultHistoryDays = 30
	}
	if cfg.Pagination.DefaultPageSize == 0 {
		cfg.Pagination.DefaultPageSize = 20
	}
	if cfg.Pagination.MaxPageSize == 0 {
		cfg.Pagination.MaxPageSize = 100
	}
}
