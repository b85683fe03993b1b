package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ServiceOrder    = "order-api"
	ServiceCatalog  = "catalog-api"
	ServiceIdentity = "identity-api"
)

// Configはサービス共通の設定
type Config struct {
	Service string

	Port     string // サーバーポート（8080）
	GoEnv    string // dev/prod
	LogLevel string // debug/info/warn/error

	DatabaseURL      string // あれば最優先
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	// order-apiだけが使う
	CatalogURL     string
	IdentityURL    string
	ClientTimeout  time.Duration
	RedisAddr      string
	IdempotencyTTL time.Duration
	KafkaBrokers   []string
	KafkaTopic     string

	OtelEndpoint string
}

// LoadEnvFile は .env を読む（無ければ何もしない）
func LoadEnvFile(paths ...string) error {
	for _, p := range paths {
		err := godotenv.Load(p)
		if err == nil {
			return nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Loadは環境変数からサービスの設定を読む
func Load(service string) (Config, error) {
	pgPort, err := atoiDefault("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Service: service,

		Port:     getenv("PORT", defaultPort(service)),
		GoEnv:    getenv("GO_ENV", "dev"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", defaultDB(service)),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		OtelEndpoint: os.Getenv("OTEL_ENDPOINT"),
	}

	switch cfg.GoEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("GO_ENV must be dev or prod")
	}

	if service != ServiceOrder {
		return cfg, nil
	}

	//order-apiは相手サービスのURLが必須
	cfg.CatalogURL = strings.TrimRight(os.Getenv("CATALOG_URL"), "/")
	cfg.IdentityURL = strings.TrimRight(os.Getenv("IDENTITY_URL"), "/")
	if cfg.CatalogURL == "" {
		return Config{}, fmt.Errorf("CATALOG_URL is required")
	}
	if cfg.IdentityURL == "" {
		return Config{}, fmt.Errorf("IDENTITY_URL is required")
	}

	if cfg.ClientTimeout, err = durationDefault("CLIENT_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationDefault("IDEMPOTENCY_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.KafkaBrokers = splitList(os.Getenv("KAFKA_BROKERS"))
	cfg.KafkaTopic = getenv("KAFKA_TOPIC", "order.events")

	return cfg, nil
}

// DSN は gorm(postgres) 用の接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

// Addr は echo に渡す ":8080" 形式
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod"
}

func defaultPort(service string) string {
	switch service {
	case ServiceCatalog:
		return "8081"
	case ServiceIdentity:
		return "8082"
	default:
		return "8080"
	}
}

func defaultDB(service string) string {
	switch service {
	case ServiceCatalog:
		return "catalog"
	case ServiceIdentity:
		return "identity"
	default:
		return "orders"
	}
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiDefault(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationDefault(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
