// Package config loads process configuration from the environment, optionally
// preloaded from a .env file.
package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	pkgerrors "github.com/pkg/errors"
)

// Environment variables read by Load.
const (
	EnvStorageDriver     = "PROGRAM_STORAGE_DRIVER"
	EnvSQLitePath        = "PROGRAM_SQLITE_PATH"
	EnvPostgresDSN       = "PROGRAM_POSTGRES_DSN"
	EnvTemplateCatalog   = "PROGRAM_TEMPLATE_CATALOG"
	EnvLogLevel          = "PROGRAM_LOG_LEVEL"
	EnvLogDevelopment    = "PROGRAM_LOG_DEVELOPMENT"
	EnvArchiveDriver     = "PROGRAM_ARCHIVE_DRIVER"
	EnvArchiveDir        = "PROGRAM_ARCHIVE_DIR"
	EnvArchiveS3Bucket   = "PROGRAM_ARCHIVE_S3_BUCKET"
	EnvArchiveS3Region   = "PROGRAM_ARCHIVE_S3_REGION"
	EnvArchiveS3Endpoint = "PROGRAM_ARCHIVE_S3_ENDPOINT"
	EnvArchiveS3Style    = "PROGRAM_ARCHIVE_S3_PATH_STYLE"
	EnvArchiveS3Key      = "PROGRAM_ARCHIVE_S3_ACCESS_KEY_ID"
	EnvArchiveS3Secret   = "PROGRAM_ARCHIVE_S3_SECRET_ACCESS_KEY"
	EnvMetricsFile       = "PROGRAM_METRICS_FILE"
)

// Config is the resolved process configuration.
type Config struct {
	Storage Storage
	Archive Archive
	Log     Log
	// TemplateCatalog is a YAML catalog path; empty selects the embedded one.
	TemplateCatalog string
	// MetricsFile receives the Prometheus text exposition on exit when set.
	MetricsFile string
}

// Storage selects the persistent store backend.
type Storage struct {
	Driver      string `validate:"oneof=memory sqlite postgres"`
	SQLitePath  string
	PostgresDSN string `validate:"required_if=Driver postgres"`
}

// Archive selects the blob store used for snapshot archives.
type Archive struct {
	Driver            string `validate:"oneof=fs s3 memory"`
	Dir               string `validate:"required_if=Driver fs"`
	S3Bucket          string `validate:"required_if=Driver s3"`
	S3Region          string
	S3Endpoint        string `validate:"omitempty,url"`
	S3PathStyle       bool
	S3AccessKeyID     string `validate:"required_with=S3SecretAccessKey"`
	S3SecretAccessKey string `validate:"required_with=S3AccessKeyID"`
}

// Log configures the process logger.
type Log struct {
	Level       string `validate:"oneof=debug info warn error"`
	Development bool
}

// Default returns the configuration used when no variable is set.
func Default() Config {
	return Config{
		Storage: Storage{Driver: "sqlite", SQLitePath: "program.db"},
		Archive: Archive{Driver: "fs", Dir: "snapshots", S3Region: "us-east-1"},
		Log:     Log{Level: "info"},
	}
}

// Load preloads envFile (or ./.env when envFile is empty and the file exists)
// and resolves the configuration from the environment. Variables already set
// in the process win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, pkgerrors.Wrapf(err, "load %s", envFile)
		}
	} else if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, pkgerrors.Wrap(err, "load .env")
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv resolves the configuration through lookup.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	str := func(key string, target *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*target = strings.TrimSpace(v)
		}
	}
	flag := func(key string, target *bool) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return pkgerrors.Wrapf(err, "parse %s", key)
		}
		*target = parsed
		return nil
	}

	str(EnvStorageDriver, &cfg.Storage.Driver)
	str(EnvSQLitePath, &cfg.Storage.SQLitePath)
	str(EnvPostgresDSN, &cfg.Storage.PostgresDSN)
	str(EnvTemplateCatalog, &cfg.TemplateCatalog)
	str(EnvMetricsFile, &cfg.MetricsFile)
	str(EnvLogLevel, &cfg.Log.Level)
	str(EnvArchiveDriver, &cfg.Archive.Driver)
	str(EnvArchiveDir, &cfg.Archive.Dir)
	str(EnvArchiveS3Bucket, &cfg.Archive.S3Bucket)
	str(EnvArchiveS3Region, &cfg.Archive.S3Region)
	str(EnvArchiveS3Endpoint, &cfg.Archive.S3Endpoint)
	str(EnvArchiveS3Key, &cfg.Archive.S3AccessKeyID)
	str(EnvArchiveS3Secret, &cfg.Archive.S3SecretAccessKey)
	if err := flag(EnvArchiveS3Style, &cfg.Archive.S3PathStyle); err != nil {
		return Config{}, err
	}
	if err := flag(EnvLogDevelopment, &cfg.Log.Development); err != nil {
		return Config{}, err
	}
	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)
	cfg.Archive.Driver = strings.ToLower(cfg.Archive.Driver)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return pkgerrors.Wrap(err, "invalid configuration")
	}
	return nil
}
