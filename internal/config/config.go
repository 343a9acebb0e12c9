package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	LogLevel    string
	HTTPAddr    string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	SnowflakeNode int64

	MercadoPago MercadoPagoConfig
	Jobs        JobsConfig
	Invoice     InvoiceConfig
	S3          S3Config

	GatewayConfigPath string

	OTLPEndpoint       string
	OTLPProtocol       string
	TraceSamplingRatio float64
}

type MercadoPagoConfig struct {
	BaseURL     string
	AccessToken string
	Timeout     time.Duration
}

type JobsConfig struct {
	Enabled     bool
	ImportCron  string
	InvoiceCron string
	Timeout     time.Duration
}

type InvoiceConfig struct {
	From         time.Time
	SellingPoint int
	BatchLimit   int
	OrgName      string
	OrgAddress   string
	OrgEmail     string
}

type S3Config struct {
	Bucket string
	Region string
	Prefix string
}

// defaultInvoicesFrom is when automatic invoicing started; older payments were invoiced by hand.
var defaultInvoicesFrom = time.Date(2018, time.August, 1, 3, 0, 0, 0, time.UTC)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getenv("APP_SERVICE", "asocmembers"),
		AppVersion:        getenv("APP_VERSION", "0.1.0"),
		Environment:       getenv("ENVIRONMENT", "development"),
		LogLevel:          strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "asocmembers"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		SnowflakeNode:     getenvInt64("SNOWFLAKE_NODE", 1),
		MercadoPago: MercadoPagoConfig{
			BaseURL:     strings.TrimRight(getenv("MERCADOPAGO_BASE_URL", "https://api.mercadopago.com"), "/"),
			AccessToken: strings.TrimSpace(getenv("MERCADOPAGO_ACCESS_TOKEN", "")),
			Timeout:     getenvDuration("MERCADOPAGO_TIMEOUT", 30*time.Second),
		},
		Jobs: JobsConfig{
			Enabled:     getenvBool("JOBS_ENABLED", true),
			ImportCron:  getenv("IMPORT_CRON", "0 6 * * *"),
			InvoiceCron: getenv("INVOICE_CRON", "30 6 * * *"),
			Timeout:     getenvDuration("JOBS_TIMEOUT", 10*time.Minute),
		},
		Invoice: InvoiceConfig{
			From:         getenvTime("INVOICES_FROM", defaultInvoicesFrom),
			SellingPoint: getenvInt("INVOICE_SELLING_POINT", 6),
			BatchLimit:   getenvInt("INVOICE_BATCH_LIMIT", 20),
			OrgName:      getenv("INVOICE_ORG_NAME", "Asociación Civil Python Argentina"),
			OrgAddress:   getenv("INVOICE_ORG_ADDRESS", ""),
			OrgEmail:     getenv("INVOICE_ORG_EMAIL", ""),
		},
		S3: S3Config{
			Bucket: strings.TrimSpace(getenv("S3_BUCKET", "")),
			Region: getenv("S3_REGION", "us-east-1"),
			Prefix: strings.Trim(getenv("S3_PREFIX", "invoices"), "/"),
		},
		GatewayConfigPath:  getenv("GATEWAY_CONFIG_PATH", "."),
		OTLPEndpoint:       strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")),
		OTLPProtocol:       strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
		TraceSamplingRatio: getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewGatewayConfigHolder),
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvTime(key string, def time.Time) time.Time {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return def
	}
	return parsed.UTC()
}
