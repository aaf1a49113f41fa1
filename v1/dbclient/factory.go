package dbclient

import (
	"fmt"

	"github.com/helixdata/dbridge/v1/postgres"
	"github.com/helixdata/dbridge/v1/supabase"
)

// New builds the backend named by cfg.Provider and fails fast on incomplete
// configuration. Both constructors verify connectivity before returning, so
// a non-nil Client is ready to use.
func New(cfg Config, log Logger) (Client, error) {
	switch cfg.Provider {
	case ProviderSupabase:
		if cfg.Supabase == nil {
			return nil, fmt.Errorf("supabase config is required when provider=%s", ProviderSupabase)
		}
		client, err := supabase.NewClient(*cfg.Supabase, log)
		if err != nil {
			return nil, err
		}
		return client, nil

	case ProviderPostgres:
		if cfg.Postgres == nil {
			return nil, fmt.Errorf("postgres config is required when provider=%s", ProviderPostgres)
		}
		client, err := postgres.NewClient(*cfg.Postgres, log)
		if err != nil {
			return nil, err
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unsupported database provider: %q (must be %q or %q)",
			cfg.Provider, ProviderSupabase, ProviderPostgres)
	}
}
