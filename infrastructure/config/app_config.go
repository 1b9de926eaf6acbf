package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"spoadmin/application"
	"spoadmin/database"
	"spoadmin/infrastructure/graph"
	"spoadmin/logging"
)

// AppConfig is everything the server reads from the environment apart from SP_* credentials.
type AppConfig struct {
	HTTPAddr    string
	HTTPLogPath string
	Database    *database.Config
	Logging     *logging.Config
	Graph       graph.Config
	Commit      application.CommitOptions
}

// LoadAppConfigFromEnv reads the process environment. Unset or unparsable values keep their defaults.
func LoadAppConfigFromEnv() *AppConfig {
	graphDefaults := graph.DefaultConfig()

	return &AppConfig{
		HTTPAddr:    envOr("HTTP_ADDR", ":8080", asString),
		HTTPLogPath: envOr("HTTP_LOG_PATH", "", asString),
		Database: &database.Config{
			Path:            envOr("DB_PATH", "./spoadmin.db", asString),
			MaxOpenConns:    envOr("DB_MAX_OPEN_CONNS", 10, strconv.Atoi),
			MaxIdleConns:    envOr("DB_MAX_IDLE_CONNS", 2, strconv.Atoi),
			ConnMaxLifetime: envOr("DB_CONN_MAX_LIFETIME", time.Hour, time.ParseDuration),
			BusyTimeoutMs:   envOr("DB_BUSY_TIMEOUT_MS", 5000, strconv.Atoi),
			EnableWAL:       envOr("DB_ENABLE_WAL", true, asBool),
		},
		Logging: &logging.Config{
			Level:  envOr("LOG_LEVEL", "info", asString),
			Format: envOr("LOG_FORMAT", "json", asString),
			Output: envOr("LOG_OUTPUT", "stdout", asString),
		},
		Graph: graph.Config{
			BaseURL:           envOr("GRAPH_BASE_URL", graphDefaults.BaseURL, asString),
			Scope:             envOr("GRAPH_SCOPE", graphDefaults.Scope, asString),
			PublishAfterWrite: envOr("PUBLISH_AFTER_WRITE", graphDefaults.PublishAfterWrite, asBool),
			FetchConcurrency:  envOr("FETCH_CONCURRENCY", graphDefaults.FetchConcurrency, strconv.Atoi),
			RequestTimeout:    envOr("GRAPH_REQUEST_TIMEOUT", graphDefaults.RequestTimeout, time.ParseDuration),
		},
		Commit: application.CommitOptions{
			WriteTimeout: envOr("COMMIT_WRITE_TIMEOUT", time.Duration(0), time.ParseDuration),
		},
	}
}

// envOr parses key with parse and returns def when the variable is unset or invalid.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return def
	}
	v, err := parse(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	return v
}

func asString(s string) (string, error) { return s, nil }

type badBool string

func (b badBool) Error() string { return "not a boolean: " + string(b) }

func asBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	}
	return false, badBool(s)
}
