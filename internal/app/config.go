// Package app provides the application container wiring all components.
package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/haierkeys/unified-backup-service/pkg/logger"
	"github.com/haierkeys/unified-backup-service/pkg/util"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig is the whole service configuration.
type AppConfig struct {
	File     string         `yaml:"-"`
	Server   ServerConfig   `yaml:"server"`
	Log      logger.Config  `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Security SecurityConfig `yaml:"security"`
	Backup   BackupConfig   `yaml:"backup"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// ServerConfig holds process-level settings.
type ServerConfig struct {
	// RunMode switches gorm statement logging on when set to debug
	RunMode string `yaml:"run-mode" default:"release"`
}

// SecurityConfig holds the credential encryption settings.
type SecurityConfig struct {
	// EncryptionKey protects stored database passwords. It is dedicated to
	// credential encryption and must not be shared with any session or
	// token secret.
	EncryptionKey string `yaml:"encryption-key"`
}

// DatabaseConfig holds the relational store connection settings.
type DatabaseConfig struct {
	// Type database type, sqlite, mysql or postgres
	Type string `yaml:"type" default:"sqlite"`
	// Path sqlite database file path
	Path string `yaml:"path" default:"storage/database/db.sqlite3"`
	// UserName user name
	UserName string `yaml:"username"`
	// Password password
	Password string `yaml:"password"`
	// Host host
	Host string `yaml:"host"`
	// Name database name
	Name string `yaml:"name"`
	// TablePrefix table prefix
	TablePrefix string `yaml:"table-prefix"`
	// AutoMigrate whether schema migration runs at startup
	AutoMigrate bool `yaml:"auto-migrate" default:"true"`
	// Charset character set, mysql only
	Charset string `yaml:"charset" default:"utf8mb4"`
	// ParseTime whether the mysql driver parses time columns
	ParseTime bool `yaml:"parse-time" default:"true"`
	// MaxIdleConns max idle connections, default 10
	MaxIdleConns int `yaml:"max-idle-conns" default:"10"`
	// MaxOpenConns max open connections, default 100
	MaxOpenConns int `yaml:"max-open-conns" default:"100"`
	// ConnMaxLifetime connection lifetime, formats like 30m or 1h
	ConnMaxLifetime string `yaml:"conn-max-lifetime" default:"30m"`
}

// BackupConfig holds the dump pipeline and loop cadence settings.
type BackupConfig struct {
	// TempPath holds dump artifacts between subprocess and upload
	TempPath string `yaml:"temp-path" default:"storage/temp"`
	// Namespace is the top level storage prefix for all artifacts
	Namespace string `yaml:"namespace" default:"backups"`
	// DumpTool, RestoreTool and SQLTool are the external command names
	DumpTool    string `yaml:"dump-tool" default:"pg_dump"`
	RestoreTool string `yaml:"restore-tool" default:"pg_restore"`
	SQLTool     string `yaml:"sql-tool" default:"psql"`
	// ResyncInterval is the scheduler job set reload cadence
	ResyncInterval string `yaml:"resync-interval" default:"5m"`
	// PollInterval is the agent reconciliation cadence
	PollInterval string `yaml:"poll-interval" default:"60s"`
	// ReportInterval is the report should-fire evaluation cadence
	ReportInterval string `yaml:"report-interval" default:"1m"`
	// CheckInterval is the storage health probe cadence
	CheckInterval string `yaml:"check-interval" default:"24h"`
	// FolderSyncInterval is the agent config convergence cadence
	FolderSyncInterval string `yaml:"folder-sync-interval" default:"10m"`
}

// NotifyConfig holds the webhook fallback. The settings table overrides it
// at runtime.
type NotifyConfig struct {
	WebhookURL string `yaml:"webhook-url"`
}

// LoadConfig loads configuration from a file, returning the config and the
// file's absolute path.
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	c := new(AppConfig)
	c.File = realpath

	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "set default config failed")
	}

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	err = yaml.Unmarshal(file, c)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "parse config file failed")
	}

	// Set defaults again to fill fields present in the YAML with empty
	// values. defaults.Set only fills zero-value fields.
	if err := defaults.Set(c); err != nil {
		return nil, realpath, errors.Wrap(err, "re-set default config failed")
	}

	return c, realpath, nil
}

// Save writes the configuration back to its file.
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	err = os.WriteFile(c.File, data, 0644)
	if err != nil {
		return errors.Wrap(err, "write config file failed")
	}

	return nil
}

// duration parses a config duration string, falling back when it is empty
// or malformed.
func duration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := util.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetResyncInterval returns the scheduler resync cadence.
func (c *AppConfig) GetResyncInterval() time.Duration {
	return duration(c.Backup.ResyncInterval, 5*time.Minute)
}

// GetPollInterval returns the agent poll cadence.
func (c *AppConfig) GetPollInterval() time.Duration {
	return duration(c.Backup.PollInterval, time.Minute)
}

// GetReportInterval returns the report evaluation cadence.
func (c *AppConfig) GetReportInterval() time.Duration {
	return duration(c.Backup.ReportInterval, time.Minute)
}

// GetCheckInterval returns the storage check cadence.
func (c *AppConfig) GetCheckInterval() time.Duration {
	return duration(c.Backup.CheckInterval, 24*time.Hour)
}

// GetFolderSyncInterval returns the agent config convergence cadence.
func (c *AppConfig) GetFolderSyncInterval() time.Duration {
	return duration(c.Backup.FolderSyncInterval, 10*time.Minute)
}

// GetConnMaxLifetime returns the database connection lifetime.
func (c *AppConfig) GetConnMaxLifetime() time.Duration {
	return duration(c.Database.ConnMaxLifetime, 30*time.Minute)
}
