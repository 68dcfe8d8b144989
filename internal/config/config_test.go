package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite://shelfy.db")
	t.Setenv("JWT_SECRET", strings.Repeat("k", 32))
	t.Setenv("JWT_ISSUER", "")
	t.Setenv("JWT_ACCESS_TTL", "")
	t.Setenv("JWT_REFRESH_TTL", "")
	t.Setenv("TOKEN_DELIVERY", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg := Load()

	assert.Equal(t, "shelfy", cfg.JWTIssuer)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, DeliveryCookie, cfg.TokenDelivery)
	assert.Nil(t, cfg.KafkaBrokers)
	require.NoError(t, cfg.Validate())

	jwtCfg := cfg.JWTConfig()
	assert.Equal(t, cfg.JWTSecret, jwtCfg.Secret)
	assert.Equal(t, cfg.JWTIssuer, jwtCfg.Issuer)
	assert.Equal(t, cfg.AccessTTL, jwtCfg.AccessTTL)
	assert.Equal(t, cfg.RefreshTTL, jwtCfg.RefreshTTL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "5m")
	t.Setenv("JWT_REFRESH_TTL", "not-a-duration")
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092")
	t.Setenv("COOKIE_SECURE", "false")
	t.Setenv("TOKEN_DELIVERY", "JSON")

	cfg := Load()

	assert.Equal(t, 5*time.Minute, cfg.AccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTTL)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, DeliveryJSON, cfg.TokenDelivery)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Config{
		JWTSecret:     []byte("short"),
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		TokenDelivery: "carrier-pigeon",
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "JWT_ISSUER")
	assert.Contains(t, err.Error(), "TOKEN_DELIVERY")
}
