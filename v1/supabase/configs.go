package supabase

// Config holds the hosted-service endpoint and credential, resolved once at
// process startup.
type Config struct {
	// URL is the project base URL, e.g. https://abcdefgh.supabase.co.
	// The adapter appends the REST path itself.
	URL string `yaml:"url" env:"SUPABASE_URL"`

	// ServiceKey is the service-role API key.
	ServiceKey string `yaml:"service_key" env:"SUPABASE_SERVICE_KEY"`

	// Schema is the exposed database schema. Defaults to "public".
	Schema string `yaml:"schema" env:"SUPABASE_SCHEMA"`
}

// withDefaults fills unset fields with the documented defaults.
func (c Config) withDefaults() Config {
	if c.Schema == "" {
		c.Schema = "public"
	}
	return c
}
