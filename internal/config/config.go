package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	IdentifierEmail    = "email"
	IdentifierUsername = "username"
)

// ErrMissingJWTSecret is returned by Validate when no signing secret is configured.
var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

type Config struct {
	Port            string
	GinMode         string
	DBDriver        string
	DBHost          string
	DBPort          string
	DBUser          string
	DBPassword      string
	DBName          string
	DBSSLMode       string
	SQLitePath      string
	JWTSecret       string
	LoginIdentifier string
	AllowedOrigins  []string
}

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		DBDriver:        strings.ToLower(getEnv("DB_DRIVER", DriverMySQL)),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnv("DB_PORT", "3306"),
		DBUser:          getEnv("DB_USER", "taskuser"),
		DBPassword:      getEnv("DB_PASSWORD", "taskpassword"),
		DBName:          getEnv("DB_NAME", "task_tracker"),
		DBSSLMode:       getEnv("DB_SSLMODE", "disable"),
		SQLitePath:      getEnv("SQLITE_PATH", "task_tracker.db"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		LoginIdentifier: strings.ToLower(getEnv("LOGIN_IDENTIFIER", IdentifierEmail)),
		AllowedOrigins:  splitList(getEnv("FRONTEND_URL", "http://localhost:3000")),
	}
}

// Validate reports configuration that must stop the process at boot.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return ErrMissingJWTSecret
	}

	switch c.DBDriver {
	case DriverMySQL, DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.LoginIdentifier {
	case IdentifierEmail, IdentifierUsername:
	default:
		return fmt.Errorf("unsupported LOGIN_IDENTIFIER %q", c.LoginIdentifier)
	}

	return nil
}

// IsProduction reports whether cookies must be marked Secure.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}
