package config // package config loads application configuration from environment variables

import (
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings"
	"time"

	"github.com/sirupsen/logrus" // fatal configuration errors halt startup
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMySQL  = "mysql"
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Durations are parsed with time.ParseDuration.
type Config struct {
	Env         string // application environment (e.g. "dev", "prod")
	Port        string // HTTP port to listen on
	StoreDriver string // persistence backend: mysql, mongo or memory

	DBUser        string // database username
	DBPass        string // database password (optional)
	DBHost        string // database host address
	DBPort        string // database port number
	DBName        string // database name
	DBAutoMigrate bool   // apply pending migrations at startup

	MongoURI string // MongoDB connection string
	MongoDB  string // MongoDB database name

	JWTSecret  string        // secret used to sign session tokens
	SessionTTL time.Duration // lifetime of a login session
	BcryptCost int           // bcrypt cost for password hashing

	LogLevel  string // logrus level name
	LogFormat string // "text" or "json"

	AMQPURL               string // RabbitMQ URL; empty disables events
	EventsEnabled         bool   // publish domain events
	EventsConsumerEnabled bool   // run the in-process event log consumer
	EventsLogDir          string // directory of the consumer's log file

	UploadMaxBytes int64  // largest accepted bulk upload
	TenantGrants   string // operator tenant allow-list, see tenant.ParseGrants
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	cfg := LoadStore()
	cfg.Env = must("APP_ENV")   // environment (dev/test/prod)
	cfg.Port = must("APP_PORT") // port to bind the HTTP server

	cfg.JWTSecret = must("JWT_SECRET") // secret used for signing tokens
	cfg.SessionTTL = envDur("SESSION_TTL", 7*24*time.Hour)

	cfg.LogLevel = envStr("LOG_LEVEL", "info")
	cfg.LogFormat = envStr("LOG_FORMAT", "text")

	cfg.AMQPURL = envStr("RABBITMQ_URL", os.Getenv("AMQP_URL"))
	cfg.EventsEnabled = envBool("EVENTS_ENABLED", true) && cfg.AMQPURL != ""
	cfg.EventsConsumerEnabled = envBool("EVENTS_CONSUMER_ENABLED", false) && cfg.AMQPURL != ""
	cfg.EventsLogDir = envStr("EVENTS_LOG_DIR", "logs")

	cfg.UploadMaxBytes = int64(envInt("UPLOAD_MAX_BYTES", 10<<20))
	cfg.TenantGrants = os.Getenv("OPERATOR_TENANT_GRANTS")
	return cfg
}

// LoadStore reads only what opening the store needs: the driver, its
// connection settings and the bcrypt cost.  Database settings are only
// required by the driver that uses them.  Used by invoicectl.
func LoadStore() Config {
	cfg := Config{
		StoreDriver:   strings.ToLower(envStr("STORE_DRIVER", DriverMySQL)),
		DBAutoMigrate: envBool("DB_AUTO_MIGRATE", false),
		BcryptCost:    mustInt("BCRYPT_COST"), // bcrypt cost factor
	}
	switch cfg.StoreDriver {
	case DriverMySQL:
		cfg.DBUser = must("DB_USER")      // database user
		cfg.DBPass = os.Getenv("DB_PASS") // database password (empty allowed)
		cfg.DBHost = must("DB_HOST")      // database host
		cfg.DBPort = must("DB_PORT")      // database port
		cfg.DBName = must("DB_NAME")      // database name
	case DriverMongo:
		cfg.MongoURI = must("MONGO_URI")
		cfg.MongoDB = envStr("MONGO_DB", "invoicing")
	case DriverMemory:
	default:
		logrus.Fatalf("unknown STORE_DRIVER: %q", cfg.StoreDriver)
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		logrus.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		logrus.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
