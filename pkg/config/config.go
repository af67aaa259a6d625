package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// devExportsSecret signs export links outside production only.
const devExportsSecret = "dev_exports_secret"

// Supported record store drivers.
const (
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite"
)

// Supported upload archive backends.
const (
	ArchiveLocal = "local"
	ArchiveS3    = "s3"
)

// Config is the process configuration, read from the environment and an optional .env file.
type Config struct {
	Env       string
	Port      int    `validate:"min=1,max=65535"`
	APIPrefix string `validate:"startswith=/"`

	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	CORS     CORSConfig
	Log      LogConfig
	KPI      KPIConfig
	Uploads  UploadsConfig
	Archive  ArchiveConfig
	Exports  ExportsConfig
}

type DatabaseConfig struct {
	Driver       string `validate:"oneof=postgres pgx sqlite"`
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	Path         string
	AutoMigrate  bool
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig governs KPI payload caching.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string `validate:"oneof=json console"`
}

// KPIConfig holds the CGPA thresholds used by the student metrics.
// The overall summary and the student page historically disagree on the pass mark,
// so both are kept.
type KPIConfig struct {
	OverallPassCGPA  float64 `validate:"gte=0,lte=10"`
	StudentPassCGPA  float64 `validate:"gte=0,lte=10"`
	AtRiskCGPA       float64 `validate:"gte=0,lte=10"`
	HighAchieverCGPA float64 `validate:"gte=0,lte=10"`
	HistogramBins    int     `validate:"min=1,max=200"`
}

// UploadsConfig bounds bulk spreadsheet uploads.
type UploadsConfig struct {
	MaxFileSizeBytes int64
	PreviewRows      int `validate:"min=0"`
}

// ArchiveConfig selects where raw uploaded spreadsheets are kept.
type ArchiveConfig struct {
	Driver     string `validate:"oneof=local s3"`
	StorageDir string
	S3         S3Config
}

// S3Config configures the S3 compatible archive backend.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// ExportsConfig controls persisted report exports.
type ExportsConfig struct {
	StorageDir      string
	SignedURLSecret string        `validate:"required"`
	SignedURLTTL    time.Duration `validate:"gt=0"`
}

// Load reads the configuration and validates it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		Path:         v.GetString("DB_PATH"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_CACHE"),
		TTL:     parseDuration(v.GetString("KPI_CACHE_TTL"), 5*time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.KPI = KPIConfig{
		OverallPassCGPA:  v.GetFloat64("KPI_OVERALL_PASS_CGPA"),
		StudentPassCGPA:  v.GetFloat64("KPI_STUDENT_PASS_CGPA"),
		AtRiskCGPA:       v.GetFloat64("KPI_AT_RISK_CGPA"),
		HighAchieverCGPA: v.GetFloat64("KPI_HIGH_ACHIEVER_CGPA"),
		HistogramBins:    v.GetInt("KPI_HISTOGRAM_BINS"),
	}

	maxUpload := v.GetInt64("UPLOAD_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		MaxFileSizeBytes: maxUpload,
		PreviewRows:      v.GetInt("UPLOAD_PREVIEW_ROWS"),
	}

	cfg.Archive = ArchiveConfig{
		Driver:     strings.ToLower(v.GetString("ARCHIVE_DRIVER")),
		StorageDir: v.GetString("ARCHIVE_DIR"),
		S3: S3Config{
			Bucket:          v.GetString("S3_BUCKET"),
			Region:          v.GetString("S3_REGION"),
			Endpoint:        v.GetString("S3_ENDPOINT"),
			PathStyle:       v.GetBool("S3_PATH_STYLE"),
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
		},
	}

	cfg.Exports = ExportsConfig{
		StorageDir:      v.GetString("EXPORTS_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges and the cross-field rules the struct tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Archive.Driver == ArchiveS3 && c.Archive.S3.Bucket == "" {
		return errors.New("invalid config: S3_BUCKET is required when ARCHIVE_DRIVER=s3")
	}
	if c.Env == EnvProduction && c.Exports.SignedURLSecret == devExportsSecret {
		return errors.New("invalid config: EXPORTS_SIGNED_URL_SECRET must be set in production")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "scas")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_PATH", "datascas.db")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("KPI_CACHE_TTL", "5m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("KPI_OVERALL_PASS_CGPA", 6.0)
	v.SetDefault("KPI_STUDENT_PASS_CGPA", 2.0)
	v.SetDefault("KPI_AT_RISK_CGPA", 7.0)
	v.SetDefault("KPI_HIGH_ACHIEVER_CGPA", 3.5)
	v.SetDefault("KPI_HISTOGRAM_BINS", 20)

	v.SetDefault("UPLOAD_MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("UPLOAD_PREVIEW_ROWS", 5)

	v.SetDefault("ARCHIVE_DRIVER", ArchiveLocal)
	v.SetDefault("ARCHIVE_DIR", "./archives")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_PATH_STYLE", false)
	v.SetDefault("S3_ACCESS_KEY_ID", "")
	v.SetDefault("S3_SECRET_ACCESS_KEY", "")

	v.SetDefault("EXPORTS_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", devExportsSecret)
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
}

// parseDuration falls back on empty or malformed input rather than failing startup.
func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
