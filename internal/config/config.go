package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. JWTSecret may be empty: the server still starts,
// but token issuance is refused until a secret is configured.
type Config struct {
	Env         string        // application environment (dev, test, prod)
	Port        string        // HTTP port to listen on
	DBUser      string        // database username
	DBPass      string        // database password (optional)
	DBHost      string        // database host address
	DBPort      string        // database port number
	DBName      string        // database name
	JWTSecret   string        // secret used to sign JWTs
	TokenTTL    time.Duration // lifetime of issued tokens
	BcryptCost  int           // bcrypt cost for password hashing
	CORSOrigins []string      // allowed CORS origins
	RabbitURL   string        // AMQP url for domain events; empty disables publishing

	AdminInitName     string
	AdminInitUsername string
	AdminInitEmail    string
	AdminInitPhone    string
	AdminInitPassword string
}

// Load reads configuration values from environment variables. Missing
// required variables are collected and reported together.
func Load() (Config, error) {
	var missing []string
	required := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}

	cfg := Config{
		Env:         envStr("APP_ENV", "dev"),
		Port:        envStr("APP_PORT", "5000"),
		DBUser:      required("DB_USER"),
		DBPass:      os.Getenv("DB_PASS"),
		DBHost:      required("DB_HOST"),
		DBPort:      envStr("DB_PORT", "3306"),
		DBName:      required("DB_NAME"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		TokenTTL:    envDur("TOKEN_TTL", 7*24*time.Hour),
		BcryptCost:  envInt("BCRYPT_COST", bcrypt.DefaultCost),
		CORSOrigins: splitList(envStr("CORS_ORIGINS", "*")),
		RabbitURL:   rabbitURL(),

		AdminInitName:     envStr("ADMIN_INIT_NAME", "Administrator"),
		AdminInitUsername: os.Getenv("ADMIN_INIT_USERNAME"),
		AdminInitEmail:    os.Getenv("ADMIN_INIT_EMAIL"),
		AdminInitPhone:    os.Getenv("ADMIN_INIT_PHONE"),
		AdminInitPassword: os.Getenv("ADMIN_INIT_PASSWORD"),
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return Config{}, fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cfg.BcryptCost)
	}
	if cfg.TokenTTL <= 0 {
		return Config{}, errors.New("TOKEN_TTL must be positive")
	}
	return cfg, nil
}

// IsProd reports whether the service runs in production mode.
func (c Config) IsProd() bool {
	return strings.EqualFold(c.Env, "prod") || strings.EqualFold(c.Env, "production")
}

// rabbitURL honors both RABBITMQ_URL and the older AMQP_URL name.
func rabbitURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envStr(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
