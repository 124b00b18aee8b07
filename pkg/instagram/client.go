package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ikkim/ugcfy-backend/pkg/logger"
)

// tokenExpiredCode is the Graph API OAuthException code for invalid or expired tokens
const tokenExpiredCode = 190

// Client calls the Facebook Graph API for Instagram business accounts
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new Instagram client with the given configuration
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

// OAuthURL builds the Facebook login dialog URL
func (c *Client) OAuthURL(redirectURI, state string) string {
	q := url.Values{}
	q.Set("client_id", c.config.AppID)
	q.Set("redirect_uri", redirectURI)
	q.Set("scope", strings.Join(Scopes, ","))
	q.Set("response_type", "code")
	q.Set("state", state)
	return c.config.DialogURL + "?" + q.Encode()
}

// ExchangeCode trades the dialog code for a short-lived user token
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI string) (*TokenResponse, error) {
	q := url.Values{}
	q.Set("client_id", c.config.AppID)
	q.Set("client_secret", c.config.AppSecret)
	q.Set("redirect_uri", redirectURI)
	q.Set("code", code)

	var token TokenResponse
	if err := c.get(ctx, "oauth/access_token", q, &token); err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}
	return &token, nil
}

// ExchangeLongLived trades a short-lived token for a 60 day token
func (c *Client) ExchangeLongLived(ctx context.Context, shortLived string) (*TokenResponse, error) {
	q := url.Values{}
	q.Set("grant_type", "fb_exchange_token")
	q.Set("client_id", c.config.AppID)
	q.Set("client_secret", c.config.AppSecret)
	q.Set("fb_exchange_token", shortLived)

	var token TokenResponse
	if err := c.get(ctx, "oauth/access_token", q, &token); err != nil {
		return nil, fmt.Errorf("failed to get long-lived token: %w", err)
	}
	return &token, nil
}

func (c *Client) ListPages(ctx context.Context, userToken string) ([]Page, error) {
	q := url.Values{}
	q.Set("access_token", userToken)

	var resp struct {
		Data []Page `json:"data"`
	}
	if err := c.get(ctx, "me/accounts", q, &resp); err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	return resp.Data, nil
}

// PageInstagramAccount returns the business account id linked to the page, or "" when none
func (c *Client) PageInstagramAccount(ctx context.Context, page Page) (string, error) {
	q := url.Values{}
	q.Set("fields", "instagram_business_account")
	q.Set("access_token", page.AccessToken)

	var resp struct {
		InstagramBusinessAccount *struct {
			ID string `json:"id"`
		} `json:"instagram_business_account"`
	}
	if err := c.get(ctx, page.ID, q, &resp); err != nil {
		return "", fmt.Errorf("failed to load page %s: %w", page.ID, err)
	}
	if resp.InstagramBusinessAccount == nil {
		return "", nil
	}
	return resp.InstagramBusinessAccount.ID, nil
}

func (c *Client) AccountDetails(ctx context.Context, accountID, pageToken string) (*Account, error) {
	q := url.Values{}
	q.Set("fields", "id,username,profile_picture_url")
	q.Set("access_token", pageToken)

	var account Account
	if err := c.get(ctx, accountID, q, &account); err != nil {
		return nil, fmt.Errorf("failed to get instagram account details: %w", err)
	}
	return &account, nil
}

// ListMedia returns the account's most recent posts
func (c *Client) ListMedia(ctx context.Context, accountID, accessToken string, limit int) ([]Media, error) {
	q := url.Values{}
	q.Set("fields", MediaFields)
	q.Set("access_token", accessToken)
	q.Set("limit", strconv.Itoa(limit))

	var resp struct {
		Data []Media `json:"data"`
	}
	if err := c.get(ctx, accountID+"/media", q, &resp); err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	return resp.Data, nil
}

// Connect runs the post-dialog flow: code, long-lived token, first page with a business account, account details
func (c *Client) Connect(ctx context.Context, code, redirectURI string, tokenTTL time.Duration) (*Connection, error) {
	short, err := c.ExchangeCode(ctx, code, redirectURI)
	if err != nil {
		return nil, err
	}

	long, err := c.ExchangeLongLived(ctx, short.AccessToken)
	if err != nil {
		return nil, err
	}

	pages, err := c.ListPages(ctx, long.AccessToken)
	if err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	var accountID string
	var page Page
	for _, p := range pages {
		id, err := c.PageInstagramAccount(ctx, p)
		if err != nil {
			return nil, err
		}
		if id != "" {
			accountID, page = id, p
			break
		}
	}
	if accountID == "" {
		return nil, ErrNoBusinessAccount
	}

	account, err := c.AccountDetails(ctx, accountID, page.AccessToken)
	if err != nil {
		return nil, err
	}

	logger.Info("Instagram business account resolved", map[string]interface{}{
		"account_id": account.ID,
		"username":   account.Username,
		"page_id":    page.ID,
	})

	return &Connection{
		Account:         *account,
		PageAccessToken: page.AccessToken,
		ExpiresAt:       time.Now().Add(tokenTTL),
	}, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.config.graphURL(path) + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return classify(envelope.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrAPIError, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

func classify(e *graphError) error {
	msg := strings.ToLower(e.Message)
	if e.Code == tokenExpiredCode || strings.Contains(msg, "expired") {
		return fmt.Errorf("%w: %s", ErrTokenExpired, e.Message)
	}
	return fmt.Errorf("%w: %s", ErrAPIError, e.Message)
}
