package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies KITE_<SECTION>_<KEY> variables, for example
// KITE_ANALYSIS_SCOPING=lexical.
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Project.Root, "KITE_PROJECT_ROOT")
	setEnvString(&cfg.Project.ProviderDir, "KITE_PROJECT_PROVIDER_DIR")
	setEnvString(&cfg.Project.GlobalProviderDir, "KITE_PROJECT_GLOBAL_PROVIDER_DIR")

	setEnvString(&cfg.Analysis.Scoping, "KITE_ANALYSIS_SCOPING")
	setEnvInt(&cfg.Analysis.CacheSize, "KITE_ANALYSIS_CACHE_SIZE")

	setEnvDuration(&cfg.Watch.Debounce, "KITE_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.Rate, "KITE_WATCH_RATE")

	setEnvBool(&cfg.DB.Enabled, "KITE_DB_ENABLED")
	setEnvString(&cfg.DB.Path, "KITE_DB_PATH")

	setEnvString(&cfg.Observability.MetricsAddr, "KITE_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "KITE_OBSERVABILITY_OTLP_ENDPOINT")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
