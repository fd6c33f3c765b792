package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds environment-driven configuration.
type Config struct {
	Addr    string
	Env     string
	BaseURL string

	DatabaseURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	AllowedOrigins      string
	WSConnectsPerMinute int

	Store StoreDefaults

	UploadDir     string
	MaxUploadMB   int
	CloudinaryURL string

	PayPalMeLink       string
	PayPalInstantGrant bool

	DownloadSecret   string
	DownloadTokenTTL time.Duration

	LogLevel        string
	ShutdownTimeout time.Duration
}

// StoreDefaults seed the settings singleton the first time it is read.
type StoreDefaults struct {
	AppTitle    string
	AppSubtitle string
	Accent      string
	Wallets     map[string]string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	addr := getEnv("APP_ADDR", "")
	if addr == "" {
		addr = ":" + getEnv("PORT", "8080")
	}

	cfg := Config{
		Addr:                addr,
		Env:                 getEnv("APP_ENV", "development"),
		BaseURL:             strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		MaxOpenConns:        getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:        getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime:     getEnvAsDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		AllowedOrigins:      getEnv("CORS_ALLOWED_ORIGINS", "*"),
		WSConnectsPerMinute: getEnvAsInt("WS_CONNECTS_PER_MINUTE", 60),
		Store: StoreDefaults{
			AppTitle:    getEnv("APP_TITLE", "Digital Goods"),
			AppSubtitle: getEnv("APP_SUBTITLE", "Premium digital downloads"),
			Accent:      getEnv("APP_ACCENT", "#F0B90B"),
			Wallets:     walletsFromEnv(),
		},
		UploadDir:          getEnv("UPLOAD_DIR", "./uploads"),
		MaxUploadMB:        getEnvAsInt("MAX_UPLOAD_MB", 50),
		CloudinaryURL:      os.Getenv("CLOUDINARY_URL"),
		PayPalMeLink:       strings.TrimRight(getEnv("PAYPAL_ME_LINK", "https://paypal.me/premiumrays"), "/"),
		PayPalInstantGrant: getEnvAsBool("PAYPAL_INSTANT_GRANT", true),
		DownloadSecret:     getEnv("DOWNLOAD_TOKEN_SECRET", os.Getenv("JWT_SECRET")),
		DownloadTokenTTL:   getEnvAsDuration("DOWNLOAD_TOKEN_TTL", 15*time.Minute),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		ShutdownTimeout:    getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration that would keep the server from working.
func (c Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is not set")
	}
	if c.DownloadSecret == "" {
		return errors.New("DOWNLOAD_TOKEN_SECRET is not set")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	return nil
}

// walletsFromEnv collects WALLET_<SYMBOL> variables, e.g. WALLET_USDT_TRC20,
// into a map keyed by currency symbol (USDT-TRC20).
func walletsFromEnv() map[string]string {
	wallets := map[string]string{}
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(key, "WALLET_") || value == "" {
			continue
		}
		symbol := strings.ReplaceAll(strings.TrimPrefix(key, "WALLET_"), "_", "-")
		wallets[symbol] = value
	}
	return wallets
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return defaultValue
}
