package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ACP_"

// LookupFunc reads an environment variable.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields from ACP_* variables read through lookup
// (os.LookupEnv when nil). Empty values are ignored.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		v = strings.TrimSpace(v)

		return v, ok && v != ""
	}

	str := func(key string, dst *string) {
		if v, ok := get(key); ok {
			*dst = v
		}
	}

	num := func(key string, dst *int) error {
		v, ok := get(key)
		if !ok {
			return nil
		}

		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}

		*dst = n

		return nil
	}

	dur := func(key string, dst *time.Duration) error {
		v, ok := get(key)
		if !ok {
			return nil
		}

		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}

		*dst = d

		return nil
	}

	str("HOST", &c.Server.Host)
	str("API_PREFIX", &c.Server.APIPrefix)
	str("PROVIDER", &c.Agents.Provider)
	str("MODEL", &c.Agents.Model)
	str("API_KEY_ENV", &c.Agents.APIKeyEnv)
	str("STORE_DRIVER", &c.Store.Driver)
	str("STORE_DSN", &c.Store.DSN)
	str("LOG_LEVEL", &c.Logging.Level)
	str("LOG_FORMAT", &c.Logging.Format)

	if v, ok := get("ALLOWED_ORIGINS"); ok {
		c.Server.AllowedOrigins = splitList(v)
	}

	for _, err := range []error{
		num("PORT", &c.Server.Port),
		num("MAX_CONCURRENT_RUNS", &c.Engine.MaxConcurrentRuns),
		num("MAX_PROVIDER_CALLS", &c.Engine.MaxProviderCalls),
		dur("RUN_TIMEOUT", &c.Engine.RunTimeout),
		dur("STEP_DELAY", &c.Agents.StepDelay),
	} {
		if err != nil {
			return err
		}
	}

	return nil
}

func splitList(s string) []string {
	var out []string

	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}

	return out
}

// LoadDotEnv loads .env files without overwriting variables already set.
//
// Search order: the explicit paths, .env in the working directory, then
// ~/.env. Missing files are skipped; earlier files win.
func LoadDotEnv(paths ...string) error {
	candidates := append([]string(nil), paths...)
	candidates = append(candidates, ".env")

	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".env"))
	}

	for _, path := range candidates {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	return nil
}
