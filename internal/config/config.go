package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gitlab.com/dirk.krummacker/contacts-app/internal/logger"
)

// Supported values of the DBDRIVER environment variable.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Config holds everything the service needs to start. It is read from the environment.
//
// Usage example:
// > PORT=8080 DBDRIVER=mysql DBHOST=localhost DBUSER=dirk DBPWD=bullo92 go run ./cmd/service
type Config struct {
	Port            int
	DBDriver        string
	DBUser          string
	DBPassword      string
	DBHost          string
	DBName          string
	DBFile          string
	Seed            bool
	SeedFile        string
	HTTPLogging     bool
	LogMode         string
	CORSOrigins     []string
	ShutdownTimeout time.Duration
}

// Load reads the configuration from the environment. Missing variables fall back to their
// defaults; values that are present but unusable are reported as an error.
func Load(log *logger.Logger) (Config, error) {
	cfg := Config{
		DBDriver:    strings.ToLower(GetEnv("DBDRIVER", DriverSQLite, log)),
		DBUser:      GetEnv("DBUSER", "", log),
		DBPassword:  os.Getenv("DBPWD"),
		DBHost:      GetEnv("DBHOST", "localhost", log),
		DBName:      GetEnv("DBNAME", "test", log),
		DBFile:      GetEnv("DBFILE", "contacts.db", log),
		SeedFile:    GetEnv("SEED_FILE", "", log),
		HTTPLogging: !strings.EqualFold(GetEnv("GIN_LOGGING", "on", log), "off"),
		LogMode:     GetEnv("LOG_MODE", "dev", log),
	}

	port, err := strconv.Atoi(GetEnv("PORT", "8080", log))
	if err != nil || port < 1 || port > 65535 {
		return Config{}, fmt.Errorf("could not parse PORT env variable: %q", os.Getenv("PORT"))
	}
	cfg.Port = port

	switch cfg.DBDriver {
	case DriverSQLite, DriverMySQL:
	default:
		return Config{}, fmt.Errorf("unsupported DBDRIVER %q", cfg.DBDriver)
	}

	seed, err := strconv.ParseBool(GetEnv("SEED", "true", log))
	if err != nil {
		return Config{}, fmt.Errorf("could not parse SEED env variable: %w", err)
	}
	cfg.Seed = seed

	for _, origin := range strings.Split(GetEnv("CORS_ORIGINS", "", log), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	cfg.ShutdownTimeout = time.Duration(GetEnvAsInt("SHUTDOWN_TIMEOUT", 5, log)) * time.Second
	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// GetEnv returns the value of the environment variable key, or defaultVal if it is not set.
func GetEnv(key, defaultVal string, log *logger.Logger) string {
	if log != nil {
		log = log.With("env_var", key)
	}
	val, ok := os.LookupEnv(key)
	if !ok {
		if log != nil {
			log.Debug("Environment variable not found, using default", "default", defaultVal)
		}
		return defaultVal
	}
	if log != nil {
		log.Debug("Environment variable found, using environment", "environment", val)
	}
	return val
}

// GetEnvAsInt is like GetEnv for integers. Values that do not parse fall back to defaultVal.
func GetEnvAsInt(key string, defaultVal int, log *logger.Logger) int {
	if log != nil {
		log = log.With("env_var", key)
	}
	valStr, ok := os.LookupEnv(key)
	if !ok {
		if log != nil {
			log.Debug("Environment variable not found, using default", "default", defaultVal)
		}
		return defaultVal
	}
	i, err := strconv.Atoi(strings.TrimSpace(valStr))
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as int, using default", "providedVal", valStr, "defaultVal", defaultVal, "error", err)
		}
		return defaultVal
	}
	return i
}
