package instagram

import "strings"

// Scopes requested in the Facebook login dialog
var Scopes = []string{"instagram_basic", "pages_show_list", "instagram_manage_insights"}

// Config represents the configuration for the Instagram Graph client
type Config struct {
	AppID        string
	AppSecret    string
	GraphBaseURL string // e.g. https://graph.facebook.com/v18.0
	DialogURL    string // e.g. https://www.facebook.com/v18.0/dialog/oauth
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.AppID == "" || c.AppSecret == "" {
		return ErrInvalidConfig
	}
	if c.GraphBaseURL == "" || c.DialogURL == "" {
		return ErrInvalidConfig
	}
	return nil
}

func (c *Config) graphURL(path string) string {
	return strings.TrimRight(c.GraphBaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}
