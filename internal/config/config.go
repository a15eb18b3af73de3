package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Log      LogConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Render   RenderConfig
	Invoice  InvoiceConfig
}

type AppConfig struct {
	Env              string
	Port             string
	CORSAllowOrigins []string
}

type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

type DatabaseConfig struct {
	Driver   string // postgres, sqlite
	DSN      string // overrides the individual fields when set
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type StorageConfig struct {
	Driver       string // s3, memory
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
	EnsureBucket bool
}

type RenderConfig struct {
	BinaryPath       string
	ScratchDir       string
	Timeout          time.Duration
	IgnoreExitStatus bool
}

type InvoiceConfig struct {
	DuplicatePolicy string // overwrite, reject
}

// Load reads .env (if present) and the process environment on top of built-in defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Env:              v.GetString("app.env"),
			Port:             v.GetString("app.port"),
			CORSAllowOrigins: splitList(v.GetString("cors.allow.origins")),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("database.driver")),
			DSN:      v.GetString("database.dsn"),
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			Name:     v.GetString("database.name"),
			SSLMode:  v.GetString("database.sslmode"),
		},
		Storage: StorageConfig{
			Driver:       strings.ToLower(v.GetString("storage.driver")),
			Bucket:       v.GetString("s3.bucket"),
			Region:       v.GetString("s3.region"),
			Endpoint:     v.GetString("s3.endpoint"),
			AccessKey:    v.GetString("s3.access.key"),
			SecretKey:    v.GetString("s3.secret.key"),
			UsePathStyle: v.GetBool("s3.use.path.style"),
			EnsureBucket: v.GetBool("s3.ensure.bucket"),
		},
		Render: RenderConfig{
			BinaryPath:       v.GetString("wkhtmltopdf.path"),
			ScratchDir:       v.GetString("render.scratch.dir"),
			Timeout:          v.GetDuration("render.timeout"),
			IgnoreExitStatus: v.GetBool("render.ignore.exit.status"),
		},
		Invoice: InvoiceConfig{
			DuplicatePolicy: strings.ToLower(v.GetString("invoice.duplicate.policy")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cors.allow.origins", "http://localhost:3000")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "invoices")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("storage.driver", "s3")
	v.SetDefault("s3.bucket", "lwbespokeinvoices")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("wkhtmltopdf.path", "wkhtmltopdf")
	v.SetDefault("render.scratch.dir", "/tmp")
	v.SetDefault("render.timeout", "60s")
	v.SetDefault("invoice.duplicate.policy", "overwrite")
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER is s3")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}
	switch c.Invoice.DuplicatePolicy {
	case "overwrite", "reject":
	default:
		return fmt.Errorf("unsupported INVOICE_DUPLICATE_POLICY %q", c.Invoice.DuplicatePolicy)
	}
	if c.Render.Timeout < 0 {
		return fmt.Errorf("RENDER_TIMEOUT must not be negative")
	}
	return nil
}

// PostgresDSN builds a libpq keyword/value connection string.
func (d DatabaseConfig) PostgresDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
