package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ikkim/ugcfy-backend/pkg/logger"
)

// Client talks to the Shopify Admin API on behalf of installed shops
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new Shopify client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// GetConfig returns the client configuration
func (c *Client) GetConfig() Config {
	return c.config
}

func (c *Client) shopURL(shop string) string {
	if c.config.BaseURL != "" {
		return strings.TrimRight(c.config.BaseURL, "/")
	}
	return "https://" + shop
}

// AuthorizeURL is where the merchant approves the install
func (c *Client) AuthorizeURL(shop, redirectURI, state string) string {
	q := url.Values{}
	q.Set("client_id", c.config.APIKey)
	q.Set("scope", strings.Join(c.config.Scopes, ","))
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	return fmt.Sprintf("%s/admin/oauth/authorize?%s", c.shopURL(shop), q.Encode())
}

// ExchangeCode trades the OAuth callback code for an offline access token
func (c *Client) ExchangeCode(ctx context.Context, shop, code string) (*AccessTokenResponse, error) {
	payload, err := json.Marshal(map[string]string{
		"client_id":     c.config.APIKey,
		"client_secret": c.config.APISecret,
		"code":          code,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/admin/oauth/access_token", c.shopURL(shop))
	body, err := c.do(ctx, endpoint, "", payload)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	var tokenResp AccessTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrAPIError)
	}
	return &tokenResp, nil
}

// GraphQL runs query against the Admin API and decodes data into out
func (c *Client) GraphQL(ctx context.Context, shop, accessToken, query string, variables map[string]interface{}, out interface{}) error {
	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	endpoint := fmt.Sprintf("%s/admin/api/%s/graphql.json", c.shopURL(shop), c.config.APIVersion)
	body, err := c.do(ctx, endpoint, accessToken, payload)
	if err != nil {
		return err
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal(body, &gqlResp); err != nil {
		return fmt.Errorf("failed to unmarshal graphql response: %w", err)
	}
	if len(gqlResp.Errors) > 0 {
		return fmt.Errorf("%w: %s", ErrAPIError, gqlResp.Errors[0].Message)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(gqlResp.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal graphql data: %w", err)
	}
	return nil
}

// do performs a JSON POST and maps error statuses to package errors
func (c *Client) do(ctx context.Context, endpoint, accessToken string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set("X-Shopify-Access-Token", accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		logger.Warn("Shopify API returned an error status", map[string]interface{}{
			"status":   resp.StatusCode,
			"endpoint": endpoint,
		})
		return nil, fmt.Errorf("%w: status %d: %s", ErrAPIError, resp.StatusCode, truncate(string(body), 200))
	}

	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
