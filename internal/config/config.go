package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type StorageDriver string

const (
	DriverMemory   StorageDriver = "memory"
	DriverRedis    StorageDriver = "redis"
	DriverPostgres StorageDriver = "postgres"
)

type Config struct {
	Server   ServerConfig
	API      APIConfig
	Storage  StorageDriver
	Postgres PostgresConfig
	Redis    RedisConfig
	Admin    AdminConfig
	Login    LoginConfig
	Checkout CheckoutConfig
	LogLevel slog.Level
}

type ServerConfig struct {
	Host string
	Port int

	// CORSOrigins may call the API with credentials.
	CORSOrigins []string
}

// APIConfig points at the ticketing backend.
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type PostgresConfig struct {
	User     string
	Password string
	Name     string
	Host     string
	Port     int
	SSLMode  string
}

// AdminConfig holds the back-office credentials. Admin sign-in is disabled
// unless both are set.
type AdminConfig struct {
	Email    string
	Password string
}

// LoginConfig throttles sign-in attempts. It only applies with the redis
// driver.
type LoginConfig struct {
	RateLimit  int
	RateWindow time.Duration
}

type CheckoutConfig struct {
	LockTTL time.Duration
}

func New() (*Config, error) {
	const op = "config.New"

	_ = godotenv.Load()

	serverPort, err := envInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	origins, err := envOrigins("CORS_ORIGINS", "http://localhost:5173")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	serverCfg := ServerConfig{
		Host:        envOr("SERVER_HOST", "localhost"),
		Port:        serverPort,
		CORSOrigins: origins,
	}

	apiTimeout, err := envDuration("API_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	apiCfg := APIConfig{
		BaseURL: strings.TrimRight(envOr("API_BASE_URL", "http://localhost:4000"), "/"),
		Timeout: apiTimeout,
	}

	driver := StorageDriver(strings.ToLower(envOr("STORAGE_DRIVER", string(DriverRedis))))
	switch driver {
	case DriverMemory, DriverRedis, DriverPostgres:
	default:
		return nil, fmt.Errorf("%s: invalid STORAGE_DRIVER %q", op, driver)
	}

	var postgresCfg PostgresConfig
	if driver == DriverPostgres {
		postgresCfg, err = loadPostgres()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	redisDB, err := envInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	redisCfg := RedisConfig{
		Addr:     envOr("REDIS_ADDR", "localhost:6380"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       redisDB,
	}

	rateLimit, err := envInt("LOGIN_RATE_LIMIT", 10)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rateWindow, err := envDuration("LOGIN_RATE_WINDOW", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lockTTL, err := envDuration("CHECKOUT_LOCK_TTL", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(envOr("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("%s: invalid LOG_LEVEL: %w", op, err)
	}

	return &Config{
		Server:   serverCfg,
		API:      apiCfg,
		Storage:  driver,
		Postgres: postgresCfg,
		Redis:    redisCfg,
		Admin: AdminConfig{
			Email:    strings.TrimSpace(os.Getenv("ADMIN_EMAIL")),
			Password: os.Getenv("ADMIN_PASSWORD"),
		},
		Login: LoginConfig{
			RateLimit:  rateLimit,
			RateWindow: rateWindow,
		},
		Checkout: CheckoutConfig{LockTTL: lockTTL},
		LogLevel: level,
	}, nil
}

func loadPostgres() (PostgresConfig, error) {
	port, err := envInt("POSTGRES_PORT", 5432)
	if err != nil {
		return PostgresConfig{}, err
	}

	postgresUser := os.Getenv("POSTGRES_USER")
	if postgresUser == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_USER")
	}

	postgresPassword := os.Getenv("POSTGRES_PASSWORD")
	if postgresPassword == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_PASSWORD")
	}

	postgresDB := os.Getenv("POSTGRES_DB")
	if postgresDB == "" {
		return PostgresConfig{}, fmt.Errorf("missing POSTGRES_DB")
	}

	return PostgresConfig{
		User:     postgresUser,
		Password: postgresPassword,
		Name:     postgresDB,
		Host:     envOr("POSTGRES_HOST", "localhost"),
		Port:     port,
		SSLMode:  envOr("POSTGRES_SSLMODE", "disable"),
	}, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

// envOrigins reads a comma separated origin list. A wildcard is refused
// since the API is called with credentials.
func envOrigins(key, def string) ([]string, error) {
	var out []string
	for _, o := range strings.Split(envOr(key, def), ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch {
		case o == "":
			continue
		case o == "*":
			return nil, fmt.Errorf("invalid %s: wildcard origin not allowed with credentials", key)
		case !strings.HasPrefix(o, "http://") && !strings.HasPrefix(o, "https://"):
			return nil, fmt.Errorf("invalid %s: origin %q needs a scheme", key, o)
		}
		out = append(out, o)
	}
	return out, nil
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
