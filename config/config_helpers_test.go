package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestExpandString tests the expandString function with various scenarios
func TestExpandString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		envVars  map[string]string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			envVars:  map[string]string{},
			expected: "",
		},
		{
			name:     "string without placeholders",
			input:    "simple-string",
			envVars:  map[string]string{},
			expected: "simple-string",
		},
		{
			name:     "simple variable expansion",
			input:    "${API_KEY}",
			envVars:  map[string]string{"API_KEY": "sk-12345"},
			expected: "sk-12345",
		},
		{
			name:     "variable in middle of string",
			input:    "prefix-${API_KEY}-suffix",
			envVars:  map[string]string{"API_KEY": "sk-12345"},
			expected: "prefix-sk-12345-suffix",
		},
		{
			name:     "multiple variables",
			input:    "${SCHEME}://${HOST}:${PORT}",
			envVars:  map[string]string{"SCHEME": "https", "HOST": "api.example.com", "PORT": "8080"},
			expected: "https://api.example.com:8080",
		},
		{
			name:     "variable with default value - env var exists",
			input:    "${API_KEY:-default-key}",
			envVars:  map[string]string{"API_KEY": "sk-real-key"},
			expected: "sk-real-key",
		},
		{
			name:     "variable with default value - env var missing",
			input:    "${API_KEY:-default-key}",
			envVars:  map[string]string{},
			expected: "default-key",
		},
		{
			name:     "variable with default value - env var empty",
			input:    "${API_KEY:-default-key}",
			envVars:  map[string]string{"API_KEY": ""},
			expected: "default-key",
		},
		{
			name:     "unresolved variable - no default",
			input:    "${MISSING_VAR}",
			envVars:  map[string]string{},
			expected: "${MISSING_VAR}",
		},
		{
			name:     "partially resolved string",
			input:    "${RESOLVED}-${UNRESOLVED}",
			envVars:  map[string]string{"RESOLVED": "value1"},
			expected: "value1-${UNRESOLVED}",
		},
		{
			name:     "mixed resolved and unresolved with defaults",
			input:    "${RESOLVED}:${UNRESOLVED:-fallback}:${MISSING}",
			envVars:  map[string]string{"RESOLVED": "value1"},
			expected: "value1:fallback:${MISSING}",
		},
		{
			name:     "default value with special characters",
			input:    "${API_KEY:-https://api.example.com/v1}",
			envVars:  map[string]string{},
			expected: "https://api.example.com/v1",
		},
		{
			name:     "default value with colon in it",
			input:    "${URL:-http://localhost:8080}",
			envVars:  map[string]string{},
			expected: "http://localhost:8080",
		},
		{
			name:     "complex real-world example",
			input:    "${BASE_URL:-https://api.openai.com}/v1/chat/completions",
			envVars:  map[string]string{},
			expected: "https://api.openai.com/v1/chat/completions",
		},
		{
			name:     "environment variable set to empty string (no default)",
			input:    "${EMPTY_VAR}",
			envVars:  map[string]string{"EMPTY_VAR": ""},
			expected: "${EMPTY_VAR}",
		},
		{
			name:     "empty default value - env var missing",
			input:    "${OPTIONAL_VAR:-}",
			envVars:  map[string]string{},
			expected: "",
		},
		{
			name:     "empty default value - env var set",
			input:    "${OPTIONAL_VAR:-}",
			envVars:  map[string]string{"OPTIONAL_VAR": "actual-value"},
			expected: "actual-value",
		},
		{
			name:     "empty default value - env var empty",
			input:    "${OPTIONAL_VAR:-}",
			envVars:  map[string]string{"OPTIONAL_VAR": ""},
			expected: "",
		},
		{
			name:     "master key pattern - not set should be empty",
			input:    "${CLAIMRESOLVER_MASTER_KEY:-}",
			envVars:  map[string]string{},
			expected: "",
		},
		{
			name:     "master key pattern - set to value",
			input:    "${CLAIMRESOLVER_MASTER_KEY:-}",
			envVars:  map[string]string{"CLAIMRESOLVER_MASTER_KEY": "secret-key"},
			expected: "secret-key",
		},
		{
			name:     "multiple placeholders some resolved some not",
			input:    "prefix-${VAR1}-${VAR2}-${VAR3}-suffix",
			envVars:  map[string]string{"VAR1": "a", "VAR3": "c"},
			expected: "prefix-a-${VAR2}-c-suffix",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			result := expandString(tt.input)
			if result != tt.expected {
				t.Errorf("expandString(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}


func TestApplyEnvOverrides(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name:    "PORT override",
			envVars: map[string]string{"PORT": "3000"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "3000", cfg.Server.Port)
			},
		},
		{
			name:    "master key override",
			envVars: map[string]string{"CLAIMRESOLVER_MASTER_KEY": "my-secret"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "my-secret", cfg.Server.MasterKey)
			},
		},
		{
			name: "engine overrides",
			envVars: map[string]string{
				"ENGINE_MODE":                "live",
				"RATE_LIMIT_MIN_INTERVAL_MS": "2500",
				"RATE_LIMIT_REDIS_URL":       "redis://localhost:6379/0",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, ModeLive, cfg.Engine.Mode)
				assert.Equal(t, 2500, cfg.Engine.MinIntervalMs)
				assert.Equal(t, "redis://localhost:6379/0", cfg.Engine.RateLimit.URL)
			},
		},
		{
			name: "backend overrides",
			envVars: map[string]string{
				"BACKEND_PROVIDER":        "openai",
				"BACKEND_BASE_URL":        "https://claims.openai.azure.com",
				"AZURE_OPENAI_DEPLOYMENT": "claims-gpt",
				"AZURE_OPENAI_API_KEY":    "azure-key",
				"BACKEND_TEMPERATURE":     "0.2",
				"BACKEND_MAX_TOKENS":      "300",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "claims-gpt", cfg.Backend.Deployment)
				assert.Equal(t, "azure-key", cfg.Backend.APIKey)
				assert.InDelta(t, 0.2, cfg.Backend.Temperature, 1e-9)
				assert.Equal(t, 300, cfg.Backend.MaxTokens)
			},
		},
		{
			name:    "anthropic key fallback",
			envVars: map[string]string{"BACKEND_PROVIDER": "anthropic", "ANTHROPIC_API_KEY": "sk-ant"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "sk-ant", cfg.Backend.APIKey)
			},
		},
		{
			name:    "explicit backend key wins",
			envVars: map[string]string{"BACKEND_API_KEY": "sk-explicit", "OPENAI_API_KEY": "sk-openai"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "sk-explicit", cfg.Backend.APIKey)
			},
		},
		{
			name:    "phi lists",
			envVars: map[string]string{"PHI_ALLOWED_FIELDS": "payer, payerId,,errorCode", "PHI_EXTRA_FIELD_NAMES": "groupNumber"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, []string{"payer", "payerId", "errorCode"}, cfg.PHI.AllowedFields)
				assert.Equal(t, []string{"groupNumber"}, cfg.PHI.ExtraFieldNames)
			},
		},
		{
			name:    "storage overrides",
			envVars: map[string]string{"STORAGE_TYPE": "postgresql", "POSTGRES_URL": "postgres://localhost/test", "POSTGRES_MAX_CONNS": "20"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "postgresql", cfg.Storage.Type)
				assert.Equal(t, "postgres://localhost/test", cfg.Storage.PostgreSQL.URL)
				assert.Equal(t, 20, cfg.Storage.PostgreSQL.MaxConns)
			},
		},
		{
			name:    "bool overrides",
			envVars: map[string]string{"METRICS_ENABLED": "true", "LOGGING_ENABLED": "1", "LOGGING_STORE_PAYLOADS": "false", "SWAGGER_ENABLED": "true"},
			check: func(t *testing.T, cfg *Config) {
				assert.True(t, cfg.Server.SwaggerEnabled)
				assert.True(t, cfg.Metrics.Enabled)
				assert.True(t, cfg.Logging.Enabled)
				assert.False(t, cfg.Logging.StorePayloads)
			},
		},
		{
			name:    "HTTP timeout overrides",
			envVars: map[string]string{"HTTP_TIMEOUT": "30", "HTTP_RESPONSE_HEADER_TIMEOUT": "45"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 30, cfg.HTTP.Timeout)
				assert.Equal(t, 45, cfg.HTTP.ResponseHeaderTimeout)
			},
		},
		{
			name:    "no env vars set preserves defaults",
			envVars: map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "8080", cfg.Server.Port)
				assert.Equal(t, ModeMock, cfg.Engine.Mode)
				assert.Equal(t, 1000, cfg.Engine.MinIntervalMs)
				assert.Equal(t, 60, cfg.HTTP.Timeout)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := buildDefaultConfig()
			require.NoError(t, applyEnvOverrides(cfg))
			tt.check(t, cfg)
		})
	}
}

func TestApplyEnvOverrides_Malformed(t *testing.T) {
	tests := map[string]string{
		"RATE_LIMIT_MIN_INTERVAL_MS": "soon",
		"METRICS_ENABLED":            "maybe",
		"BACKEND_TEMPERATURE":        "warm",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			err := applyEnvOverrides(buildDefaultConfig())
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestValidateBodySizeLimit(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expectError bool
	}{
		{"empty string is valid", "", false},
		{"plain number", "1048576", false},
		{"kilobytes lowercase", "100k", false},
		{"kilobytes with B suffix", "100KB", false},
		{"megabytes uppercase", "10M", false},
		{"megabytes with B suffix", "10MB", false},
		{"whitespace trimmed", "  10M  ", false},
		{"minimum valid (1KB)", "1K", false},
		{"maximum valid (100MB)", "100M", false},

		{"invalid format with letters", "abc", true},
		{"invalid unit", "10X", true},
		{"negative number", "-10M", true},
		{"decimal number", "10.5M", true},
		{"empty unit with B", "10B", true},
		{"below minimum (100 bytes)", "100", true},
		{"above maximum (200MB)", "200M", true},
		{"gigabytes unsupported", "1G", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBodySizeLimit(tt.input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseBodySizeLimit(t *testing.T) {
	n, err := ParseBodySizeLimit("512K")
	require.NoError(t, err)
	assert.Equal(t, int64(512<<10), n)

	n, err = ParseBodySizeLimit("2MB")
	require.NoError(t, err)
	assert.Equal(t, int64(2<<20), n)
}
