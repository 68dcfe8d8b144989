package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/shelfy/internal/tokens"
)

const (
	DeliveryCookie = "cookie"
	DeliveryJSON   = "json"
	DeliveryBoth   = "both"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	DatabaseURL string

	JWTSecret     []byte
	JWTIssuer     string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	TokenDelivery string
	CookieSecure  bool

	CORSAllowedOrigins []string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers      []string
	KafkaProductTopic string
	KafkaUserTopic    string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	// BootstrapAdmin* provision one ADMIN credential at startup when both
	// are set.
	BootstrapAdminUser     string
	BootstrapAdminPassword string
}

// Load reads .env (if any) and the process environment. The returned value is
// never mutated afterwards.
func Load() Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found: %v. Using system environment variables", err)
	}

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "shelfy"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:     []byte(os.Getenv("JWT_SECRET")),
		JWTIssuer:     EnvDefault("JWT_ISSUER", "shelfy"),
		AccessTTL:     EnvDurationDefault("JWT_ACCESS_TTL", 15*time.Minute),
		RefreshTTL:    EnvDurationDefault("JWT_REFRESH_TTL", 7*24*time.Hour),
		TokenDelivery: strings.ToLower(EnvDefault("TOKEN_DELIVERY", DeliveryCookie)),
		CookieSecure:  EnvBoolDefault("COOKIE_SECURE", true),

		CORSAllowedOrigins: CSV(EnvDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       EnvIntDefault("REDIS_DB", 0),

		KafkaBrokers:      CSV(os.Getenv("KAFKA_BROKERS")),
		KafkaProductTopic: EnvDefault("KAFKA_PRODUCT_TOPIC", "product_events"),
		KafkaUserTopic:    EnvDefault("KAFKA_USER_TOPIC", "user_events"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),
		ESIndex:    EnvDefault("ES_INDEX", "products"),

		BootstrapAdminUser:     os.Getenv("BOOTSTRAP_ADMIN_USERNAME"),
		BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if len(c.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes"))
	}
	if c.JWTIssuer == "" {
		errs = append(errs, errors.New("JWT_ISSUER must not be empty"))
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	switch c.TokenDelivery {
	case DeliveryCookie, DeliveryJSON, DeliveryBoth:
	default:
		errs = append(errs, fmt.Errorf("TOKEN_DELIVERY %q is not one of cookie, json, both", c.TokenDelivery))
	}
	return errors.Join(errs...)
}

// JWTConfig is the subset handed to the token service.
func (c Config) JWTConfig() tokens.Config {
	return tokens.Config{
		Secret:     c.JWTSecret,
		Issuer:     c.JWTIssuer,
		AccessTTL:  c.AccessTTL,
		RefreshTTL: c.RefreshTTL,
	}
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.ServerPort)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
