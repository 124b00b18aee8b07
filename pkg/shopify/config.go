package shopify

// Config represents the configuration for the Shopify Admin client
type Config struct {
	// APIKey is the app client id; session tokens carry it as audience
	APIKey string

	// APISecret signs session tokens, OAuth callbacks, webhooks and proxy requests
	APISecret string

	// Scopes requested on install
	Scopes []string

	// APIVersion of the Admin GraphQL API, e.g. 2025-10
	APIVersion string

	// BaseURL overrides https://{shop} for every call. Tests point it at an httptest server.
	BaseURL string
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return ErrInvalidConfig
	}
	if c.APISecret == "" {
		return ErrInvalidConfig
	}
	if c.APIVersion == "" {
		return ErrInvalidConfig
	}
	return nil
}
