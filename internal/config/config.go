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

// Config holds every runtime setting of the api and worker binaries.
type Config struct {
	Port     string
	RunLocal bool

	DatabaseType string // postgres | sqlite
	DatabaseURL  string
	DatabaseLog  bool

	LogMode string // development | production
	LogFile string

	RequestTimeout   time.Duration
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration

	EventBackend string // none | sqs | kafka
	EventTimeout time.Duration
	QueueURL     string
	KafkaBrokers string
	KafkaTopic   string
	KafkaGroupID string

	IdempotencyTable string
	IdempotencyTTL   time.Duration
	ReceiptsDir      string
	MetricsNamespace string
	MailFrom         string

	StoreName            string
	CurrencySymbol       string
	DefaultPaymentMethod string
}

// Load reads an optional .env file and then the process environment.
// A missing .env is normal; any other problem with it is returned next to a
// Config built from the environment alone.
func Load() (Config, error) {
	return loadFrom(".env")
}

func loadFrom(path string) (Config, error) {
	var envErr error
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		envErr = fmt.Errorf("load %s: %w", path, err)
	}
	return FromEnv(), envErr
}

// FromEnv builds a Config from the current environment only.
func FromEnv() Config {
	return Config{
		Port:     getEnvOrDefault("PORT", "8080"),
		RunLocal: getBoolEnv("RUN_LOCAL", false),

		DatabaseType: strings.ToLower(getEnvOrDefault("DB_TYPE", "postgres")),
		DatabaseURL:  getEnvOrDefault("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=store port=5432 sslmode=disable"),
		DatabaseLog:  getBoolEnv("DB_DEBUG", false),

		LogMode: getEnvOrDefault("LOG_MODE", "development"),
		LogFile: getEnvOrDefault("LOG_FILE", ""),

		RequestTimeout:   getDurationEnv("REQUEST_TIMEOUT_MS", 5000, time.Millisecond),
		HTTPReadTimeout:  getDurationEnv("HTTP_READ_TIMEOUT_MS", 10000, time.Millisecond),
		HTTPWriteTimeout: getDurationEnv("HTTP_WRITE_TIMEOUT_MS", 15000, time.Millisecond),

		EventBackend: strings.ToLower(getEnvOrDefault("EVENT_BACKEND", "none")),
		EventTimeout: getDurationEnv("EVENT_TIMEOUT_MS", 3000, time.Millisecond),
		QueueURL:     getEnvOrDefault("ORDERS_QUEUE_URL", ""),
		KafkaBrokers: getEnvOrDefault("KAFKA_BROKERS", ""),
		KafkaTopic:   getEnvOrDefault("KAFKA_TOPIC", "orders.created"),
		KafkaGroupID: getEnvOrDefault("KAFKA_GROUP_ID", "receipt-worker"),

		IdempotencyTable: getEnvOrDefault("IDEMPOTENCY_TABLE", "receipt-idempotency"),
		IdempotencyTTL:   getDurationEnv("IDEMPOTENCY_TTL_HOURS", 48, time.Hour),
		ReceiptsDir:      getEnvOrDefault("RECEIPTS_DIR", "receipts"),
		MetricsNamespace: getEnvOrDefault("METRICS_NAMESPACE", "StoreReceipts"),
		MailFrom:         getEnvOrDefault("RECEIPT_MAIL_FROM", "no-reply@store.local"),

		StoreName:            getEnvOrDefault("STORE_NAME", "Store"),
		CurrencySymbol:       getEnvOrDefault("CURRENCY_SYMBOL", "R$"),
		DefaultPaymentMethod: getEnvOrDefault("DEFAULT_PAYMENT_METHOD", "Not informed"),
	}
}

// Addr is the listen address of the local HTTP server.
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
