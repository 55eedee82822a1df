package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	LogLevel    string

	SnowflakeNode int64

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

	Tax     TaxConfig
	Posting PostingConfig
	Otel    OtelConfig
}

// TaxConfig controls catalog validation.
type TaxConfig struct {
	// StrictTypes rejects unknown tax types when a catalog is loaded
	// instead of letting them compute a zero amount.
	StrictTypes bool
}

// PostingConfig controls ledger generation.
type PostingConfig struct {
	BalanceTolerance   string
	TemplateUnresolved string
	TotalsUnresolved   string
	AccountSource      string
	AccountFile        string
}

type OtelConfig struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
}

const (
	UnresolvedFail = "fail"
	UnresolvedSkip = "skip"

	AccountSourceDatabase = "db"
	AccountSourceFile     = "file"
)

// Module provides Config loaded from the environment.
var Module = fx.Module("config",
	fx.Provide(Load),
)

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppName:       getenv("APP_SERVICE", "taxledger"),
		AppVersion:    getenv("APP_VERSION", "0.1.0"),
		Environment:   getenv("ENVIRONMENT", "development"),
		LogLevel:      strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
		SnowflakeNode: getenvInt64("SNOWFLAKE_NODE", 1),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "taxledger"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),

		Tax: TaxConfig{
			StrictTypes: getenvBool("TAX_STRICT_TYPES", false),
		},
		Posting: PostingConfig{
			BalanceTolerance:   getenv("POSTING_BALANCE_TOLERANCE", "0.01"),
			TemplateUnresolved: normalizeUnresolved(getenv("POSTING_TEMPLATE_UNRESOLVED", UnresolvedFail), UnresolvedFail),
			TotalsUnresolved:   normalizeUnresolved(getenv("POSTING_TOTALS_UNRESOLVED", UnresolvedSkip), UnresolvedSkip),
			AccountSource:      normalizeAccountSource(getenv("POSTING_ACCOUNT_SOURCE", AccountSourceDatabase)),
			AccountFile:        strings.TrimSpace(getenv("POSTING_ACCOUNT_FILE", "")),
		},
		Otel: OtelConfig{
			Enabled:          getenvBool("OTEL_ENABLED", false),
			ExporterEndpoint: strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")),
			ExporterProtocol: strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
		},
	}
}

func normalizeUnresolved(raw, def string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case UnresolvedFail:
		return UnresolvedFail
	case UnresolvedSkip:
		return UnresolvedSkip
	default:
		return def
	}
}

func normalizeAccountSource(raw string) string {
	if strings.ToLower(strings.TrimSpace(raw)) == AccountSourceFile {
		return AccountSourceFile
	}
	return AccountSourceDatabase
}

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
	return int(getenvInt64(key, int64(def)))
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
