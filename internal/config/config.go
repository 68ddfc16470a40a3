package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Mongo contains the connection parameters for MongoDB.
type Mongo struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// Bootstrap holds configuration for the one-shot schema bootstrapper.
type Bootstrap struct {
	Mongo
	ConnectAttempts int
	RetryDelay      time.Duration
	Timeout         time.Duration
}

// LoadBootstrap builds a Bootstrap config from environment variables.
func LoadBootstrap() (*Bootstrap, error) {
	c := &Bootstrap{
		Mongo: Mongo{
			URI:            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGODB_DATABASE", "market_data"),
			ConnectTimeout: getDuration("MONGODB_CONNECT_TIMEOUT", "10s"),
		},
		ConnectAttempts: getInt("MONGODB_CONNECT_ATTEMPTS", 1),
		RetryDelay:      getDuration("MONGODB_RETRY_DELAY", "2s"),
		Timeout:         getDuration("BOOTSTRAP_TIMEOUT", "1m"),
	}

	if !strings.HasPrefix(c.URI, "mongodb://") && !strings.HasPrefix(c.URI, "mongodb+srv://") {
		return nil, fmt.Errorf("MONGODB_URI must use the mongodb:// or mongodb+srv:// scheme")
	}
	if strings.TrimSpace(c.Database) == "" {
		return nil, fmt.Errorf("MONGODB_DATABASE cannot be blank")
	}
	if c.ConnectTimeout <= 0 {
		return nil, fmt.Errorf("MONGODB_CONNECT_TIMEOUT must be positive")
	}
	if c.ConnectAttempts <= 0 {
		return nil, fmt.Errorf("MONGODB_CONNECT_ATTEMPTS must be positive")
	}
	if c.RetryDelay <= 0 {
		return nil, fmt.Errorf("MONGODB_RETRY_DELAY must be positive")
	}
	if c.Timeout <= 0 {
		return nil, fmt.Errorf("BOOTSTRAP_TIMEOUT must be positive")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	d, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}
