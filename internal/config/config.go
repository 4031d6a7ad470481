package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	DatabaseURL     string
	DBMaxOpenConns  int
	DBMaxIdleConns  int
	DBConnLifetime  time.Duration
	RedisURL        string
	KafkaBrokers    []string
	CORSOrigins     []string
	LoginRateLimit  RateLimitConfig
	Session         SessionConfig
	Storage         StorageConfig
	AI              AIConfig
	Languages       []string
	FieldEncryption []byte
	SeedAdmin       SeedAdminConfig
}

type SessionConfig struct {
	Secret string
	Issuer string
}

type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	UseSSL       bool
	PublicDomain string
}

type AIConfig struct {
	APIKey           string
	BaseURL          string
	TranslationModel string
	TTSModel         string
	TTSVoice         string
}

type RateLimitConfig struct {
	PerSecond float64
	Burst     int
}

type SeedAdminConfig struct {
	EmployeeID string
	Password   string
	FullName   string
}

// IsProduction reports whether cookies must be marked secure.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SourceLanguage is the language slides are authored in.
func (c *Config) SourceLanguage() string {
	if len(c.Languages) == 0 {
		return "en"
	}
	return c.Languages[0]
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       parseLogLevel(getEnv("LOG_LEVEL", "info")),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 10),
		DBConnLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		RedisURL:       os.Getenv("REDIS_URL"),
		KafkaBrokers:   splitList(os.Getenv("KAFKA_BROKERS")),
		CORSOrigins:    splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		LoginRateLimit: RateLimitConfig{
			PerSecond: getEnvFloat("LOGIN_RATE_PER_SECOND", 1),
			Burst:     getEnvInt("LOGIN_RATE_BURST", 5),
		},
		Session: SessionConfig{
			Secret: os.Getenv("SESSION_SECRET"),
			Issuer: getEnv("SESSION_ISSUER", "prodriver"),
		},
		Storage: StorageConfig{
			Endpoint:     os.Getenv("STORAGE_ENDPOINT"),
			AccessKey:    os.Getenv("STORAGE_ACCESS_KEY"),
			SecretKey:    os.Getenv("STORAGE_SECRET_KEY"),
			Bucket:       os.Getenv("STORAGE_BUCKET"),
			Region:       getEnv("STORAGE_REGION", "auto"),
			UseSSL:       getEnvBool("STORAGE_USE_SSL", true),
			PublicDomain: strings.TrimRight(os.Getenv("STORAGE_PUBLIC_DOMAIN"), "/"),
		},
		AI: AIConfig{
			APIKey:           os.Getenv("OPENAI_API_KEY"),
			BaseURL:          os.Getenv("OPENAI_BASE_URL"),
			TranslationModel: getEnv("TRANSLATION_MODEL", "gpt-4o-mini"),
			TTSModel:         getEnv("TTS_MODEL", "tts-1"),
			TTSVoice:         getEnv("TTS_VOICE", "alloy"),
		},
		Languages: normalizeLanguages(splitList(getEnv("SUPPORTED_LANGUAGES", "en,hi,bn,ta,te,ml,ur,ne"))),
		SeedAdmin: SeedAdminConfig{
			EmployeeID: os.Getenv("ADMIN_EMPLOYEE_ID"),
			Password:   os.Getenv("ADMIN_PASSWORD"),
			FullName:   getEnv("ADMIN_NAME", "Administrator"),
		},
	}

	if key := os.Getenv("FIELD_ENCRYPTION_KEY"); key != "" {
		raw, err := hex.DecodeString(key)
		if err != nil || len(raw) != 32 {
			return nil, fmt.Errorf("FIELD_ENCRYPTION_KEY must be 64 hex characters")
		}
		cfg.FieldEncryption = raw
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters")
	}
	if len(c.Languages) == 0 {
		return fmt.Errorf("SUPPORTED_LANGUAGES must list at least one language")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
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

func normalizeLanguages(langs []string) []string {
	seen := make(map[string]struct{}, len(langs))
	out := make([]string, 0, len(langs))
	for _, l := range langs {
		l = strings.ToLower(l)
		if len(l) != 2 {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
