package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Ledger store backends selectable through LEDGER_STORE.
const (
	StorePostgres = "postgres"
	StoreBadger   = "badger"
	StoreMemory   = "memory"
)

const defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	Port          string
	IsProduction  bool
	EnableDBCheck bool
	JWTSecret     string
	JWTIssuer     string // Empty disables the issuer check

	// Ledger storage
	LedgerStore           string
	BadgerPath            string // Empty runs badger in memory
	MigrationsPath        string
	LedgerLockTimeout     time.Duration
	LedgerMutationTimeout time.Duration

	// Game and quiz economy
	GameCatalogPath       string // Empty uses the built-in catalog
	CoinsPerCorrectAnswer int64
	PerfectScoreBonus     int64

	// Ledger events; no brokers disables publishing
	KafkaBrokers     []string
	KafkaLedgerTopic string

	// HTTP
	RateLimit          string // ulule/limiter format, e.g. "100-M"
	CORSAllowedOrigins []string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", defaultJWTSecret)
	viper.SetDefault("JWT_ISSUER", "")
	viper.SetDefault("LEDGER_STORE", StorePostgres)
	viper.SetDefault("BADGER_PATH", "./data/ledger")
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("LEDGER_LOCK_TIMEOUT", "5s")
	viper.SetDefault("LEDGER_MUTATION_TIMEOUT", "10s")
	viper.SetDefault("GAME_CATALOG_PATH", "")
	viper.SetDefault("COINS_PER_CORRECT_ANSWER", 10)
	viper.SetDefault("PERFECT_SCORE_BONUS", 50)
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_LEDGER_TOPIC", "study-coins.ledger")
	viper.SetDefault("RATE_LIMIT", "600-M")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")

	viper.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:        viper.GetString("PGSQL_URL"),
		Port:               viper.GetString("PORT"),
		IsProduction:       viper.GetBool("IS_PRODUCTION"),
		EnableDBCheck:      viper.GetBool("ENABLE_DB_CHECK"),
		JWTSecret:          viper.GetString("JWT_SECRET"),
		JWTIssuer:          viper.GetString("JWT_ISSUER"),
		LedgerStore:        strings.ToLower(strings.TrimSpace(viper.GetString("LEDGER_STORE"))),
		BadgerPath:         viper.GetString("BADGER_PATH"),
		MigrationsPath:     viper.GetString("MIGRATIONS_PATH"),
		GameCatalogPath:    viper.GetString("GAME_CATALOG_PATH"),
		KafkaBrokers:       splitList(viper.GetString("KAFKA_BROKERS")),
		KafkaLedgerTopic:   viper.GetString("KAFKA_LEDGER_TOPIC"),
		RateLimit:          viper.GetString("RATE_LIMIT"),
		CORSAllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
		slog.Warn("PORT environment variable not set, using default", slog.String("port", cfg.Port))
	}

	if cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret {
		if cfg.IsProduction {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = defaultJWTSecret
		slog.Warn("JWT_SECRET environment variable not set. Using default insecure key.")
	}

	cfg.LedgerLockTimeout = durationOrDefault("LEDGER_LOCK_TIMEOUT", 5*time.Second)
	cfg.LedgerMutationTimeout = durationOrDefault("LEDGER_MUTATION_TIMEOUT", 10*time.Second)

	switch cfg.LedgerStore {
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("PGSQL_URL is required when LEDGER_STORE=%s", StorePostgres)
		}
	case StoreBadger, StoreMemory:
	default:
		return nil, fmt.Errorf("invalid LEDGER_STORE %q: must be one of %s, %s, %s", cfg.LedgerStore, StorePostgres, StoreBadger, StoreMemory)
	}

	cfg.CoinsPerCorrectAnswer = viper.GetInt64("COINS_PER_CORRECT_ANSWER")
	cfg.PerfectScoreBonus = viper.GetInt64("PERFECT_SCORE_BONUS")
	if cfg.CoinsPerCorrectAnswer < 0 || cfg.PerfectScoreBonus < 0 {
		return nil, fmt.Errorf("COINS_PER_CORRECT_ANSWER and PERFECT_SCORE_BONUS must not be negative")
	}

	if len(cfg.KafkaBrokers) == 0 {
		slog.Info("KAFKA_BROKERS not set. Ledger events will not be published.")
	}

	return cfg, nil
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		if raw != "" {
			slog.Warn("Invalid duration, using default", slog.String("key", key), slog.String("value", raw), slog.String("default", def.String()))
		}
		return def
	}
	return d
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
