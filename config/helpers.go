package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandString replaces ${VAR} and ${VAR:-default} placeholders. A variable
// that is unset or empty takes the default when one is given; without a
// default the placeholder is left in place.
func expandString(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := placeholderRe.FindStringSubmatch(m)
		if v := os.Getenv(sub[1]); v != "" {
			return v
		}
		if sub[2] != "" {
			return sub[3]
		}
		return m
	})
}

// applyEnvOverrides overlays environment variables on cfg. Unset variables
// leave the current value alone; malformed numbers are errors.
func applyEnvOverrides(cfg *Config) error {
	overrideString("PORT", &cfg.Server.Port)
	overrideString("CLAIMRESOLVER_MASTER_KEY", &cfg.Server.MasterKey)
	overrideString("BODY_SIZE_LIMIT", &cfg.Server.BodySizeLimit)

	overrideString("ENGINE_MODE", &cfg.Engine.Mode)
	overrideString("RATE_LIMIT_REDIS_URL", &cfg.Engine.RateLimit.URL)
	overrideString("RATE_LIMIT_REDIS_KEY", &cfg.Engine.RateLimit.Key)

	overrideString("BACKEND_PROVIDER", &cfg.Backend.Provider)
	overrideString("BACKEND_BASE_URL", &cfg.Backend.BaseURL)
	overrideString("BACKEND_MODEL", &cfg.Backend.Model)
	overrideString("AZURE_OPENAI_DEPLOYMENT", &cfg.Backend.Deployment)
	overrideString("AZURE_OPENAI_API_VERSION", &cfg.Backend.APIVersion)
	overrideString("BACKEND_API_KEY", &cfg.Backend.APIKey)
	if cfg.Backend.APIKey == "" {
		cfg.Backend.APIKey = providerAPIKey(cfg.Backend)
	}

	overrideString("PHI_VOCABULARY_FILE", &cfg.PHI.VocabularyFile)
	overrideList("PHI_EXTRA_FIELD_NAMES", &cfg.PHI.ExtraFieldNames)
	overrideList("PHI_ALLOWED_FIELDS", &cfg.PHI.AllowedFields)

	overrideString("METRICS_ENDPOINT", &cfg.Metrics.Endpoint)
	overrideString("METRICS_ROLLUP_SCHEDULE", &cfg.Metrics.RollupSchedule)

	overrideString("STORAGE_TYPE", &cfg.Storage.Type)
	overrideString("SQLITE_PATH", &cfg.Storage.SQLite.Path)
	overrideString("POSTGRES_URL", &cfg.Storage.PostgreSQL.URL)
	overrideString("MONGODB_URL", &cfg.Storage.MongoDB.URL)
	overrideString("MONGODB_DATABASE", &cfg.Storage.MongoDB.Database)

	bools := []struct {
		key string
		dst *bool
	}{
		{"SWAGGER_ENABLED", &cfg.Server.SwaggerEnabled},
		{"METRICS_ENABLED", &cfg.Metrics.Enabled},
		{"LOGGING_ENABLED", &cfg.Logging.Enabled},
		{"LOGGING_STORE_PAYLOADS", &cfg.Logging.StorePayloads},
	}
	for _, b := range bools {
		if err := overrideBool(b.key, b.dst); err != nil {
			return err
		}
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"RATE_LIMIT_MIN_INTERVAL_MS", &cfg.Engine.MinIntervalMs},
		{"MOCK_LATENCY_MS", &cfg.Engine.MockLatencyMs},
		{"BACKEND_MAX_TOKENS", &cfg.Backend.MaxTokens},
		{"LOGGING_BUFFER_SIZE", &cfg.Logging.BufferSize},
		{"LOGGING_FLUSH_INTERVAL", &cfg.Logging.FlushInterval},
		{"LOGGING_RETENTION_DAYS", &cfg.Logging.RetentionDays},
		{"POSTGRES_MAX_CONNS", &cfg.Storage.PostgreSQL.MaxConns},
		{"HTTP_TIMEOUT", &cfg.HTTP.Timeout},
		{"HTTP_RESPONSE_HEADER_TIMEOUT", &cfg.HTTP.ResponseHeaderTimeout},
	}
	for _, i := range ints {
		if err := overrideInt(i.key, i.dst); err != nil {
			return err
		}
	}

	if v := os.Getenv("BACKEND_TEMPERATURE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid BACKEND_TEMPERATURE %q: %w", v, err)
		}
		cfg.Backend.Temperature = f
	}
	return nil
}

// providerAPIKey falls back to the vendor's conventional variable.
func providerAPIKey(b BackendConfig) string {
	switch {
	case strings.EqualFold(b.Provider, "anthropic"):
		return os.Getenv("ANTHROPIC_API_KEY")
	case b.Deployment != "" || strings.EqualFold(b.Provider, "azure-openai"):
		return os.Getenv("AZURE_OPENAI_API_KEY")
	default:
		return os.Getenv("OPENAI_API_KEY")
	}
}

func overrideString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func overrideList(key string, dst *[]string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*dst = out
}

func overrideBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = b
	return nil
}

func overrideInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

const (
	minBodySize = 1 << 10
	maxBodySize = 100 << 20
)

var bodySizeRe = regexp.MustCompile(`^(\d+)([KkMm][Bb]?)?$`)

// ParseBodySizeLimit converts "512K", "10MB" or a plain byte count to bytes.
func ParseBodySizeLimit(s string) (int64, error) {
	s = strings.TrimSpace(s)
	m := bodySizeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid body size limit %q: use a byte count or a K/M suffix", s)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid body size limit %q: %w", s, err)
	}
	switch strings.ToUpper(m[2][:min(len(m[2]), 1)]) {
	case "K":
		n <<= 10
	case "M":
		n <<= 20
	}
	return n, nil
}

// ValidateBodySizeLimit accepts an empty value (the default applies) or a
// size between 1K and 100M.
func ValidateBodySizeLimit(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	n, err := ParseBodySizeLimit(s)
	if err != nil {
		return err
	}
	if n < minBodySize || n > maxBodySize {
		return fmt.Errorf("body size limit %q out of range: must be between 1K and 100M", s)
	}
	return nil
}
