package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Port      string `mapstructure:"port"`
	AppName   string `mapstructure:"app_name"`
	PublicURL string `mapstructure:"public_url"` // prefix of signed file links
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres | sqlite
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	TimeZone string `mapstructure:"timezone"`
	LogLevel string `mapstructure:"log_level"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Root     string        `mapstructure:"root"`
	URLTTL   time.Duration `mapstructure:"url_ttl"`
	MaxBytes int64         `mapstructure:"max_bytes"`
}

type LedgerConfig struct {
	DefaultRodLength float64 `mapstructure:"default_rod_length"`
	TallyTolerance   string  `mapstructure:"tally_tolerance"`
}

type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

type Config struct {
	Env      string         `mapstructure:"env"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Log      struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
}

// EnvPrefix namespaces environment overrides, e.g. SITEINV_HTTP_PORT=8080.
const EnvPrefix = "SITEINV"

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "prod")
	v.SetDefault("http.port", "3000")
	v.SetDefault("http.app_name", "Site Inventory v1.0")
	v.SetDefault("http.public_url", "http://localhost:3000")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.url", "")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "site_inventory")
	v.SetDefault("database.timezone", "Asia/Kolkata")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("jwt.secret", "your-super-secret-key-change-in-production")
	v.SetDefault("jwt.issuer", "go-site-inventory")
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("storage.root", "./data/files")
	v.SetDefault("storage.url_ttl", time.Hour)
	v.SetDefault("storage.max_bytes", 10<<20)
	v.SetDefault("ledger.default_rod_length", 12.0)
	v.SetDefault("ledger.tally_tolerance", "0.001")
	v.SetDefault("admin.email", "admin@example.com")
	v.SetDefault("admin.password", "admin123")
	v.SetDefault("log.level", "info")
	v.SetDefault("metrics.enabled", true)
}

// Load reads configuration from the environment (after godotenv has
// populated it) and an optional config file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// unprefixed names used by hosting platforms
	_ = v.BindEnv("http.port", EnvPrefix+"_HTTP_PORT", "PORT")
	_ = v.BindEnv("database.url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("jwt.secret", EnvPrefix+"_JWT_SECRET", "JWT_SECRET")

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.Storage.MaxBytes <= 0 {
		return nil, fmt.Errorf("storage.max_bytes must be positive")
	}
	return &c, nil
}

// DSN builds the postgres connection string when no URL is configured.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		d.Host, d.User, d.Password, d.Name, d.Port, d.TimeZone,
	)
}
