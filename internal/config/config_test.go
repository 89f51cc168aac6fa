package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoadDefaultsForDevProfile(t *testing.T) {
	lookup := mapLookup(map[string]string{})
	cfg, err := Load("dbchat-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileDev {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileDev)
	}
	if cfg.HTTP.Address != ":8080" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.Observability.LogLevel != slog.LevelDebug {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Auth.Required {
		t.Fatal("Auth.Required should default to false in dev")
	}
	if cfg.Database.Driver != "postgres" {
		t.Fatalf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.Database.MaxOpenConns != 10 {
		t.Fatalf("Database.MaxOpenConns = %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Schema.SampleRows != 3 {
		t.Fatalf("Schema.SampleRows = %d", cfg.Schema.SampleRows)
	}
	if cfg.LLM.Provider != "openai" {
		t.Fatalf("LLM.Provider = %q", cfg.LLM.Provider)
	}
	if cfg.LLM.Timeout != 30*time.Second {
		t.Fatalf("LLM.Timeout = %s", cfg.LLM.Timeout)
	}
	if cfg.Pipeline.MaxAttempts != 3 {
		t.Fatalf("Pipeline.MaxAttempts = %d", cfg.Pipeline.MaxAttempts)
	}
	if cfg.Pipeline.RowLimit != 200 {
		t.Fatalf("Pipeline.RowLimit = %d", cfg.Pipeline.RowLimit)
	}
	if cfg.Pipeline.StatementTimeout != 10*time.Second {
		t.Fatalf("Pipeline.StatementTimeout = %s", cfg.Pipeline.StatementTimeout)
	}
	if cfg.Session.Store != "memory" {
		t.Fatalf("Session.Store = %q", cfg.Session.Store)
	}
	if cfg.Artifacts.Backend != "local" {
		t.Fatalf("Artifacts.Backend = %q", cfg.Artifacts.Backend)
	}
	if cfg.Artifacts.Endpoint != "localhost:9000" {
		t.Fatalf("Artifacts.Endpoint = %q", cfg.Artifacts.Endpoint)
	}
}

func TestLoadProdProfileDefaults(t *testing.T) {
	lookup := mapLookup(map[string]string{"DBCHAT_PROFILE": "prod"})
	cfg, err := Load("dbchat-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Profile != ProfileProd {
		t.Fatalf("Profile = %q, want %q", cfg.Profile, ProfileProd)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required should default to true in prod")
	}
	if cfg.Observability.LogLevel != slog.LevelInfo {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if cfg.Session.Store != "postgres" {
		t.Fatalf("Session.Store = %q", cfg.Session.Store)
	}
	if cfg.Artifacts.Backend != "s3" {
		t.Fatalf("Artifacts.Backend = %q", cfg.Artifacts.Backend)
	}
	if !cfg.Artifacts.UseSSL {
		t.Fatal("Artifacts.UseSSL should default to true in prod")
	}
	if cfg.Artifacts.AutoCreateBucket {
		t.Fatal("Artifacts.AutoCreateBucket should default to false in prod")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	lookup := mapLookup(map[string]string{
		"DBCHAT_PROFILE":                      "test",
		"DBCHAT_SERVICE_NAME":                 "dbchat-custom",
		"DBCHAT_HTTP_ADDR":                    ":9999",
		"DBCHAT_HTTP_READ_TIMEOUT":            "2s",
		"DBCHAT_HTTP_WRITE_TIMEOUT":           "3s",
		"DBCHAT_LOG_LEVEL":                    "error",
		"DBCHAT_AUTH_REQUIRED":                "true",
		"DBCHAT_AUTH_STATIC_KEYS":             "k1:analyst",
		"DBCHAT_DB_DRIVER":                    "mysql",
		"DBCHAT_DB_DSN":                       "user:pass@tcp(db:3306)/shop",
		"DBCHAT_DB_HOST":                      "db.internal",
		"DBCHAT_DB_PORT":                      "3307",
		"DBCHAT_DB_USER":                      "reader",
		"DBCHAT_DB_PASSWORD":                  "secret",
		"DBCHAT_DB_NAME":                      "shop",
		"DBCHAT_DB_MAX_OPEN_CONNS":            "42",
		"DBCHAT_DB_MAX_IDLE_CONNS":            "17",
		"DBCHAT_SCHEMA_SAMPLE_ROWS":           "7",
		"DBCHAT_SCHEMA_CACHE_TTL":             "90s",
		"DBCHAT_LLM_PROVIDER":                 "deepseek",
		"DBCHAT_LLM_BASE_URL":                 "https://api.deepseek.com",
		"DBCHAT_LLM_API_KEY":                  "secret-key",
		"DBCHAT_LLM_MODEL":                    "deepseek-chat",
		"DBCHAT_LLM_TEMPERATURE":              "0.3",
		"DBCHAT_LLM_MAX_TOKENS":               "2048",
		"DBCHAT_LLM_TIMEOUT":                  "21s",
		"DBCHAT_PIPELINE_MAX_ATTEMPTS":        "5",
		"DBCHAT_PIPELINE_ROW_LIMIT":           "123",
		"DBCHAT_PIPELINE_STATEMENT_TIMEOUT":   "4s",
		"DBCHAT_PIPELINE_CONNECT_RETRY_DELAY": "900ms",
		"DBCHAT_PIPELINE_HISTORY_LIMIT":       "9",
		"DBCHAT_SESSION_STORE":                "postgres",
		"DBCHAT_SESSION_DSN":                  "postgres://example",
		"DBCHAT_SESSION_MAX_TURNS":            "11",
		"DBCHAT_ARTIFACTS_BACKEND":            "s3",
		"DBCHAT_ARTIFACTS_ENDPOINT":           "s3.example.com",
		"DBCHAT_ARTIFACTS_BUCKET":             "dbchat-prod",
		"DBCHAT_ARTIFACTS_REGION":             "us-west-2",
		"DBCHAT_ARTIFACTS_ACCESS_KEY":         "abc",
		"DBCHAT_ARTIFACTS_SECRET_KEY":         "def",
		"DBCHAT_ARTIFACTS_USE_SSL":            "true",
		"DBCHAT_ARTIFACTS_PREFIX":             "tenant-root",
		"DBCHAT_ARTIFACTS_AUTO_CREATE_BUCKET": "false",
		"DBCHAT_ARTIFACTS_RETENTION_INTERVAL": "11m",
		"DBCHAT_ARTIFACTS_RETENTION_MAX_AGE":  "2h",
	})
	cfg, err := Load("dbchat-api", lookup)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service.Name != "dbchat-custom" {
		t.Fatalf("Service.Name = %q", cfg.Service.Name)
	}
	if cfg.HTTP.Address != ":9999" {
		t.Fatalf("HTTP.Address = %q", cfg.HTTP.Address)
	}
	if cfg.HTTP.ReadTimeout != 2*time.Second {
		t.Fatalf("HTTP.ReadTimeout = %s", cfg.HTTP.ReadTimeout)
	}
	if cfg.HTTP.WriteTimeout != 3*time.Second {
		t.Fatalf("HTTP.WriteTimeout = %s", cfg.HTTP.WriteTimeout)
	}
	if cfg.Observability.LogLevel != slog.LevelError {
		t.Fatalf("LogLevel = %v", cfg.Observability.LogLevel)
	}
	if !cfg.Auth.Required {
		t.Fatal("Auth.Required = false, want true")
	}
	if cfg.Auth.StaticKeys != "k1:analyst" {
		t.Fatalf("StaticKeys = %q", cfg.Auth.StaticKeys)
	}
	if cfg.Database.Driver != "mysql" {
		t.Fatalf("Database.Driver = %q", cfg.Database.Driver)
	}
	if cfg.Database.DSN != "user:pass@tcp(db:3306)/shop" {
		t.Fatalf("Database.DSN = %q", cfg.Database.DSN)
	}
	if cfg.Database.Host != "db.internal" {
		t.Fatalf("Database.Host = %q", cfg.Database.Host)
	}
	if cfg.Database.Port != 3307 {
		t.Fatalf("Database.Port = %d", cfg.Database.Port)
	}
	if cfg.Database.MaxOpenConns != 42 {
		t.Fatalf("Database.MaxOpenConns = %d", cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns != 17 {
		t.Fatalf("Database.MaxIdleConns = %d", cfg.Database.MaxIdleConns)
	}
	if cfg.Schema.SampleRows != 7 {
		t.Fatalf("Schema.SampleRows = %d", cfg.Schema.SampleRows)
	}
	if cfg.Schema.CacheTTL != 90*time.Second {
		t.Fatalf("Schema.CacheTTL = %s", cfg.Schema.CacheTTL)
	}
	if cfg.LLM.Provider != "deepseek" {
		t.Fatalf("LLM.Provider = %q", cfg.LLM.Provider)
	}
	if cfg.LLM.BaseURL != "https://api.deepseek.com" {
		t.Fatalf("LLM.BaseURL = %q", cfg.LLM.BaseURL)
	}
	if cfg.LLM.APIKey != "secret-key" {
		t.Fatalf("LLM.APIKey = %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "deepseek-chat" {
		t.Fatalf("LLM.Model = %q", cfg.LLM.Model)
	}
	if cfg.LLM.Temperature != 0.3 {
		t.Fatalf("LLM.Temperature = %f", cfg.LLM.Temperature)
	}
	if cfg.LLM.MaxTokens != 2048 {
		t.Fatalf("LLM.MaxTokens = %d", cfg.LLM.MaxTokens)
	}
	if cfg.LLM.Timeout != 21*time.Second {
		t.Fatalf("LLM.Timeout = %s", cfg.LLM.Timeout)
	}
	if cfg.Pipeline.MaxAttempts != 5 {
		t.Fatalf("Pipeline.MaxAttempts = %d", cfg.Pipeline.MaxAttempts)
	}
	if cfg.Pipeline.RowLimit != 123 {
		t.Fatalf("Pipeline.RowLimit = %d", cfg.Pipeline.RowLimit)
	}
	if cfg.Pipeline.StatementTimeout != 4*time.Second {
		t.Fatalf("Pipeline.StatementTimeout = %s", cfg.Pipeline.StatementTimeout)
	}
	if cfg.Pipeline.ConnectRetryDelay != 900*time.Millisecond {
		t.Fatalf("Pipeline.ConnectRetryDelay = %s", cfg.Pipeline.ConnectRetryDelay)
	}
	if cfg.Pipeline.HistoryLimit != 9 {
		t.Fatalf("Pipeline.HistoryLimit = %d", cfg.Pipeline.HistoryLimit)
	}
	if cfg.Session.Store != "postgres" {
		t.Fatalf("Session.Store = %q", cfg.Session.Store)
	}
	if cfg.Session.DSN != "postgres://example" {
		t.Fatalf("Session.DSN = %q", cfg.Session.DSN)
	}
	if cfg.Session.MaxTurns != 11 {
		t.Fatalf("Session.MaxTurns = %d", cfg.Session.MaxTurns)
	}
	if cfg.Artifacts.Backend != "s3" {
		t.Fatalf("Artifacts.Backend = %q", cfg.Artifacts.Backend)
	}
	if cfg.Artifacts.Endpoint != "s3.example.com" {
		t.Fatalf("Artifacts.Endpoint = %q", cfg.Artifacts.Endpoint)
	}
	if cfg.Artifacts.Bucket != "dbchat-prod" {
		t.Fatalf("Artifacts.Bucket = %q", cfg.Artifacts.Bucket)
	}
	if !cfg.Artifacts.UseSSL {
		t.Fatal("Artifacts.UseSSL = false, want true")
	}
	if cfg.Artifacts.AutoCreateBucket {
		t.Fatal("Artifacts.AutoCreateBucket = true, want false")
	}
	if cfg.Artifacts.RetentionInterval != 11*time.Minute {
		t.Fatalf("Artifacts.RetentionInterval = %s", cfg.Artifacts.RetentionInterval)
	}
	if cfg.Artifacts.RetentionMaxAge != 2*time.Hour {
		t.Fatalf("Artifacts.RetentionMaxAge = %s", cfg.Artifacts.RetentionMaxAge)
	}
}

func TestLoadErrorsOnInvalidValues(t *testing.T) {
	tests := []map[string]string{
		{"DBCHAT_PROFILE": "oops"},
		{"DBCHAT_HTTP_READ_TIMEOUT": "NaN"},
		{"DBCHAT_DB_DRIVER": "oracle"},
		{"DBCHAT_DB_MAX_OPEN_CONNS": "oops"},
		{"DBCHAT_LLM_PROVIDER": "bard"},
		{"DBCHAT_LLM_TEMPERATURE": "bad"},
		{"DBCHAT_PIPELINE_MAX_ATTEMPTS": "0"},
		{"DBCHAT_PIPELINE_ROW_LIMIT": "0"},
		{"DBCHAT_SESSION_STORE": "redis"},
		{"DBCHAT_ARTIFACTS_BACKEND": "ftp"},
		{"DBCHAT_AUTH_REQUIRED": "not-bool"},
		{"DBCHAT_LOG_LEVEL": "verbose"},
	}
	for _, env := range tests {
		_, err := Load("dbchat-api", mapLookup(env))
		if err == nil {
			t.Fatalf("Load() expected error for env %#v", env)
		}
	}
}

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}
