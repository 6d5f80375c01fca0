package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	APIPort string
	JWTKey  []byte
	JWTExp  time.Duration

	LogLevel  string
	LogPretty bool

	StorageDriver string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MongoURI string
	MongoDB  string

	KafkaBrokers     []string
	KafkaTopicPrefix string

	PaymentGatewayURL     string
	PaymentStoreID        string
	PaymentStorePassword  string
	PaymentCallbackSecret string
	PaymentCallbackURL    string
	PaymentSuccessURL     string
	PaymentFailURL        string
	PaymentStaleAfter     time.Duration
	PaymentSweepInterval  time.Duration
	PaymentSweepLockKey   string
	PaymentSweepLockTTL   time.Duration

	CloudinaryURL     string
	MediaUploadPreset string
	MediaMaxBytes     int64

	RateLimitRPS   int
	RateLimitBurst int
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, relying on environment variables")
	}

	AppConfig = &Config{
		APIPort:   getEnv("API_PORT", "8080"),
		JWTKey:    []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:    time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 72)) * time.Hour,
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),

		StorageDriver: getEnv("STORAGE_DRIVER", StoragePostgres),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "user"),
		DBPassword:    getEnv("DB_PASSWORD", "password"),
		DBName:        getEnv("DB_NAME", "creativerse"),
		DBSslMode:     getEnv("DB_SSLMODE", "disable"),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),
		MongoURI:      getEnv("MONGO_URI", ""),
		MongoDB:       getEnv("MONGO_DB", "creativerse"),

		KafkaBrokers:     getEnvAsList("KAFKA_BROKERS"),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", "creativerse"),

		PaymentGatewayURL:     getEnv("PAYMENT_GATEWAY_URL", ""),
		PaymentStoreID:        getEnv("PAYMENT_STORE_ID", ""),
		PaymentStorePassword:  getEnv("PAYMENT_STORE_PASSWORD", ""),
		PaymentCallbackSecret: getEnv("PAYMENT_CALLBACK_SECRET", ""),
		PaymentCallbackURL:    getEnv("PAYMENT_CALLBACK_URL", "http://localhost:8080/api/v1/payments/callback"),
		PaymentSuccessURL:     getEnv("PAYMENT_SUCCESS_URL", "http://localhost:5173/payment/success"),
		PaymentFailURL:        getEnv("PAYMENT_FAIL_URL", "http://localhost:5173/payment/fail"),
		PaymentStaleAfter:     getEnvAsDuration("PAYMENT_STALE_AFTER", 2*time.Hour),
		PaymentSweepInterval:  getEnvAsDuration("PAYMENT_SWEEP_INTERVAL", 10*time.Minute),
		PaymentSweepLockKey:   getEnv("PAYMENT_SWEEP_LOCK_KEY", "payment_sweep_lock"),
		PaymentSweepLockTTL:   getEnvAsDuration("PAYMENT_SWEEP_LOCK_TTL", 5*time.Minute),

		CloudinaryURL:     getEnv("CLOUDINARY_URL", ""),
		MediaUploadPreset: getEnv("MEDIA_UPLOAD_PRESET", ""),
		MediaMaxBytes:     int64(getEnvAsInt("MEDIA_MAX_BYTES", 5<<20)),

		RateLimitRPS:   getEnvAsInt("RATE_LIMIT_RPS", 20),
		RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 40),
	}

	AppConfig.DBConnStr = "host=" + AppConfig.DBHost +
		" port=" + AppConfig.DBPort +
		" user=" + AppConfig.DBUser +
		" password=" + AppConfig.DBPassword +
		" dbname=" + AppConfig.DBName +
		" sslmode=" + AppConfig.DBSslMode
}

// Validate rejects configurations that would run insecurely.
func (c *Config) Validate() error {
	if c.PaymentGatewayURL != "" && c.PaymentCallbackSecret == "" {
		return errors.New("PAYMENT_CALLBACK_SECRET is required when PAYMENT_GATEWAY_URL is set")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

// Durations use Go syntax, e.g. "90s" or "2h".
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
