package dbclient

import (
	"os"
	"strconv"

	"github.com/helixdata/dbridge/v1/postgres"
	"github.com/helixdata/dbridge/v1/supabase"
)

// Provider names accepted by Config.Provider.
const (
	ProviderSupabase = "supabase"
	ProviderPostgres = "postgres"
)

// Config selects a backend and carries its settings.
// Use one of the helper functions (SupabaseConfig, PostgresConfig) to create it.
type Config struct {
	// Provider is the backend name ("supabase" or "postgres").
	Provider string

	// Supabase configuration (used when Provider = "supabase")
	Supabase *supabase.Config

	// Postgres configuration (used when Provider = "postgres")
	Postgres *postgres.Config
}

// SupabaseConfig creates a dbclient.Config for the hosted backend.
func SupabaseConfig(cfg supabase.Config) Config {
	return Config{
		Provider: ProviderSupabase,
		Supabase: &cfg,
	}
}

// PostgresConfig creates a dbclient.Config for the direct-SQL backend.
func PostgresConfig(cfg postgres.Config) Config {
	return Config{
		Provider: ProviderPostgres,
		Postgres: &cfg,
	}
}

// FromEnv assembles a Config from process environment variables.
//
// DB_PROVIDER picks the backend and defaults to "supabase". The hosted
// backend reads SUPABASE_URL, SUPABASE_SERVICE_KEY and SUPABASE_SCHEMA;
// the direct backend reads POSTGRES_DSN, POSTGRES_POOL_MIN and
// POSTGRES_POOL_MAX. Missing required values are not an error here; New
// rejects incomplete configurations when the client is built.
func FromEnv() Config {
	provider := os.Getenv("DB_PROVIDER")
	if provider == "" {
		provider = ProviderSupabase
	}

	switch provider {
	case ProviderPostgres:
		cfg := postgres.DefaultConfig()
		cfg.DSN = os.Getenv("POSTGRES_DSN")
		if v, ok := envInt32("POSTGRES_POOL_MIN"); ok {
			cfg.PoolMinConns = v
		}
		if v, ok := envInt32("POSTGRES_POOL_MAX"); ok {
			cfg.PoolMaxConns = v
		}
		return PostgresConfig(cfg)
	default:
		return Config{
			Provider: provider,
			Supabase: &supabase.Config{
				URL:        os.Getenv("SUPABASE_URL"),
				ServiceKey: os.Getenv("SUPABASE_SERVICE_KEY"),
				Schema:     os.Getenv("SUPABASE_SCHEMA"),
			},
		}
	}
}

func envInt32(key string) (int32, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(v), true
}
