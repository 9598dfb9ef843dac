package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	DB       *DBconfig       `yaml:"db"`
	RabbitMq *RabbitMqconfig `yaml:"rabbitmq"`
	Redis    *Redisconfig    `yaml:"redis"`
	Srv      *Serviceconfig  `yaml:"server"`
	App      *Appconfig      `yaml:"app"`
	Log      *Loggerconfig   `yaml:"log"`
}

type DBconfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
}

// DSN renders the postgres connection url.
func (c DBconfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Database,
		RawQuery: "sslmode=" + c.SSLMode,
	}
	return u.String()
}

type RabbitMqconfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	VHost    string `yaml:"vhost"`
}

// Enabled reports whether a broker should be dialed at all.
func (c RabbitMqconfig) Enabled() bool {
	return c.Host != ""
}

type Redisconfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Serviceconfig struct {
	RideServicePort string        `yaml:"ride_service"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Appconfig struct {
	PublicJwtSecret string        `yaml:"jwt_secret"`
	TokenTTL        time.Duration `yaml:"token_ttl"`
	OtpTTL          time.Duration `yaml:"otp_ttl"`
	OtpMaxAttempts  int           `yaml:"otp_max_attempts"`
	PaymentKeyId    string        `yaml:"payment_key_id"`
	PaymentSecret   string        `yaml:"payment_secret"`
	StoreDriver     string        `yaml:"store_driver"`
	AdminEmail      string        `yaml:"admin_email"`
	AdminPassword   string        `yaml:"admin_password"`
}

type Loggerconfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

func defaults() *Config {
	return &Config{
		DB: &DBconfig{
			Host:     "localhost",
			Port:     5432,
			User:     "travelo_user",
			Password: "travelo_pass",
			Database: "travelo_db",
			SSLMode:  "disable",
			MaxConns: 10,
		},
		RabbitMq: &RabbitMqconfig{
			Host:     "localhost",
			Port:     5672,
			User:     "guest",
			Password: "guest",
		},
		Redis: &Redisconfig{
			Addr: "localhost:6379",
		},
		Srv: &Serviceconfig{
			RideServicePort: "3000",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		App: &Appconfig{
			PublicJwtSecret: "change-me",
			TokenTTL:        24 * time.Hour,
			OtpTTL:          5 * time.Minute,
			OtpMaxAttempts:  5,
			StoreDriver:     StorePostgres,
		},
		Log: &Loggerconfig{
			Level: "INFO",
		},
	}
}

// New loads an optional .env, overlays the yaml file named by CONFIG_FILE
// and finally applies environment variables, which always win.
func New() (*Config, error) {
	_ = godotenv.Load()

	cnf := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cnf.overlayYAML(path); err != nil {
			return nil, err
		}
	}

	getEnv := func(key, def string) string {
		val, ok := os.LookupEnv(key)
		if !ok {
			return def
		}
		return val
	}

	getEnvInt := func(key string, def int) int {
		valStr := os.Getenv(key)
		if valStr == "" {
			return def
		}
		val, err := strconv.Atoi(valStr)
		if err != nil {
			fmt.Printf("invalid %s, using default %v\n", key, def)
			return def
		}
		return val
	}

	getEnvDuration := func(key string, def time.Duration) time.Duration {
		valStr := os.Getenv(key)
		if valStr == "" {
			return def
		}
		val, err := time.ParseDuration(valStr)
		if err != nil {
			fmt.Printf("invalid %s, using default %v\n", key, def)
			return def
		}
		return val
	}

	cnf.DB.Host = getEnv("DB_HOST", cnf.DB.Host)
	cnf.DB.Port = getEnvInt("DB_PORT", cnf.DB.Port)
	cnf.DB.User = getEnv("DB_USER", cnf.DB.User)
	cnf.DB.Password = getEnv("DB_PASSWORD", cnf.DB.Password)
	cnf.DB.Database = getEnv("DB_NAME", cnf.DB.Database)
	cnf.DB.SSLMode = getEnv("DB_SSLMODE", cnf.DB.SSLMode)
	cnf.DB.MaxConns = getEnvInt("DB_MAX_CONNS", cnf.DB.MaxConns)

	cnf.RabbitMq.Host = getEnv("RABBITMQ_HOST", cnf.RabbitMq.Host)
	cnf.RabbitMq.Port = getEnvInt("RABBITMQ_PORT", cnf.RabbitMq.Port)
	cnf.RabbitMq.User = getEnv("RABBITMQ_USER", cnf.RabbitMq.User)
	cnf.RabbitMq.Password = getEnv("RABBITMQ_PASSWORD", cnf.RabbitMq.Password)
	cnf.RabbitMq.VHost = getEnv("RABBITMQ_VHOST", cnf.RabbitMq.VHost)

	cnf.Redis.Addr = getEnv("REDIS_ADDR", cnf.Redis.Addr)
	cnf.Redis.Password = getEnv("REDIS_PASSWORD", cnf.Redis.Password)
	cnf.Redis.DB = getEnvInt("REDIS_DB", cnf.Redis.DB)

	cnf.Srv.RideServicePort = getEnv("RIDE_SERVICE_PORT", cnf.Srv.RideServicePort)
	cnf.Srv.ReadTimeout = getEnvDuration("HTTP_READ_TIMEOUT", cnf.Srv.ReadTimeout)
	cnf.Srv.WriteTimeout = getEnvDuration("HTTP_WRITE_TIMEOUT", cnf.Srv.WriteTimeout)
	cnf.Srv.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", cnf.Srv.ShutdownTimeout)

	cnf.App.PublicJwtSecret = getEnv("JWT_SECRET", cnf.App.PublicJwtSecret)
	cnf.App.TokenTTL = getEnvDuration("JWT_TTL", cnf.App.TokenTTL)
	cnf.App.OtpTTL = getEnvDuration("OTP_TTL", cnf.App.OtpTTL)
	cnf.App.OtpMaxAttempts = getEnvInt("OTP_MAX_ATTEMPTS", cnf.App.OtpMaxAttempts)
	cnf.App.PaymentKeyId = getEnv("PAYMENT_KEY_ID", cnf.App.PaymentKeyId)
	cnf.App.PaymentSecret = getEnv("PAYMENT_KEY_SECRET", cnf.App.PaymentSecret)
	cnf.App.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", cnf.App.StoreDriver))
	cnf.App.AdminEmail = getEnv("ADMIN_EMAIL", cnf.App.AdminEmail)
	cnf.App.AdminPassword = getEnv("ADMIN_PASSWORD", cnf.App.AdminPassword)

	cnf.Log.Level = strings.ToUpper(getEnv("LOG_LEVEL", cnf.Log.Level))
	cnf.Log.File = getEnv("LOG_FILE", cnf.Log.File)

	if err := cnf.validate(); err != nil {
		return nil, err
	}
	return cnf, nil
}

func (c *Config) overlayYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) validate() error {
	switch c.App.StoreDriver {
	case StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q, want postgres or memory", c.App.StoreDriver)
	}
	if c.App.PublicJwtSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.App.TokenTTL <= 0 || c.App.OtpTTL <= 0 {
		return fmt.Errorf("token and otp ttl must be positive")
	}
	if c.App.OtpMaxAttempts < 1 {
		return fmt.Errorf("OTP_MAX_ATTEMPTS must be at least 1")
	}
	return nil
}
