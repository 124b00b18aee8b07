package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupClientTest(t *testing.T, handler http.HandlerFunc) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		APIKey:     "key",
		APISecret:  "secret",
		Scopes:     []string{"read_products", "write_products"},
		APIVersion: "2025-10",
		BaseURL:    server.URL,
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{name: "Missing key", config: Config{APISecret: "s", APIVersion: "2025-10"}},
		{name: "Missing secret", config: Config{APIKey: "k", APIVersion: "2025-10"}},
		{name: "Missing version", config: Config{APIKey: "k", APISecret: "s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.config)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Nil(t, client)
		})
	}
}

func TestClient_AuthorizeURL(t *testing.T) {
	client, err := NewClient(Config{APIKey: "key", APISecret: "secret", APIVersion: "2025-10", Scopes: []string{"read_products", "write_products"}})
	require.NoError(t, err)

	raw := client.AuthorizeURL("demo.myshopify.com", "https://app.example.com/auth/callback", "state-1")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "demo.myshopify.com", u.Host)
	assert.Equal(t, "/admin/oauth/authorize", u.Path)
	assert.Equal(t, "key", u.Query().Get("client_id"))
	assert.Equal(t, "read_products,write_products", u.Query().Get("scope"))
	assert.Equal(t, "state-1", u.Query().Get("state"))
}

func TestClient_ExchangeCode(t *testing.T) {
	client := setupClientTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/oauth/access_token", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "key", body["client_id"])
		assert.Equal(t, "secret", body["client_secret"])
		assert.Equal(t, "abc", body["code"])

		w.Write([]byte(`{"access_token":"shpat_1","scope":"read_products"}`))
	})

	resp, err := client.ExchangeCode(context.Background(), "demo.myshopify.com", "abc")
	require.NoError(t, err)
	assert.Equal(t, "shpat_1", resp.AccessToken)
	assert.Equal(t, "read_products", resp.Scope)
}

func TestClient_ExchangeCode_Rejected(t *testing.T) {
	client := setupClientTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_request"}`))
	})

	_, err := client.ExchangeCode(context.Background(), "demo.myshopify.com", "bad")
	assert.ErrorIs(t, err, ErrAPIError)
}

func TestClient_SearchProducts(t *testing.T) {
	client := setupClientTest(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/api/2025-10/graphql.json", r.URL.Path)
		assert.Equal(t, "shpat_1", r.Header.Get("X-Shopify-Access-Token"))

		var req graphqlRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "title:*bag*", req.Variables["query"])
		assert.EqualValues(t, 10, req.Variables["first"])

		w.Write([]byte(`{"data":{"products":{"edges":[
			{"node":{"id":"gid://shopify/Product/1","title":"Tote bag","handle":"tote","featuredImage":{"url":"https://cdn/tote.jpg"}}},
			{"node":{"id":"gid://shopify/Product/2","title":"Bag strap","handle":"strap","featuredImage":null}}
		]}}}`))
	})

	products, err := client.SearchProducts(context.Background(), "demo.myshopify.com", "shpat_1", "bag", 10)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, Product{ID: "gid://shopify/Product/1", Title: "Tote bag", Handle: "tote", Image: "https://cdn/tote.jpg"}, products[0])
	assert.Empty(t, products[1].Image)
}

func TestClient_SearchProducts_EmptyTerm(t *testing.T) {
	called := false
	client := setupClientTest(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	products, err := client.SearchProducts(context.Background(), "demo.myshopify.com", "shpat_1", "  ", 10)
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.False(t, called)
}

func TestClient_GetProducts_SkipsMissingNodes(t *testing.T) {
	client := setupClientTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"nodes":[{"id":"gid://shopify/Product/1","title":"Tote"},null,{}]}}`))
	})

	products, err := client.GetProducts(context.Background(), "demo.myshopify.com", "t", []string{"gid://shopify/Product/1", "gid://shopify/Product/9", "gid://shopify/Collection/1"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "Tote", products[0].Title)
}

func TestClient_GraphQL_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "Unauthorized", status: http.StatusUnauthorized, body: `{}`, wantErr: ErrUnauthorized},
		{name: "Server error", status: http.StatusInternalServerError, body: `oops`, wantErr: ErrAPIError},
		{name: "GraphQL errors", status: http.StatusOK, body: `{"errors":[{"message":"Throttled"}]}`, wantErr: ErrAPIError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := setupClientTest(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.SearchProducts(context.Background(), "demo.myshopify.com", "t", "bag", 10)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_NetworkError(t *testing.T) {
	client, err := NewClient(Config{APIKey: "k", APISecret: "s", APIVersion: "2025-10", BaseURL: "http://127.0.0.1:1"})
	require.NoError(t, err)

	_, err = client.ActiveSubscriptions(context.Background(), "demo.myshopify.com", "t")
	assert.True(t, errors.Is(err, ErrNetworkError))
}

func TestClient_CreateAppSubscription(t *testing.T) {
	client := setupClientTest(t, func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		assert.True(t, strings.Contains(string(raw), "appSubscriptionCreate"))
		assert.True(t, strings.Contains(string(raw), `"interval":"EVERY_30_DAYS"`))

		w.Write([]byte(`{"data":{"appSubscriptionCreate":{
			"confirmationUrl":"https://demo.myshopify.com/admin/charges/1/confirm",
			"appSubscription":{"id":"gid://shopify/AppSubscription/1"},
			"userErrors":[]}}}`))
	})

	result, err := client.CreateAppSubscription(context.Background(), "demo.myshopify.com", "t", SubscriptionRequest{
		Name:      "Pro",
		Price:     199,
		Currency:  "USD",
		Interval:  "EVERY_30_DAYS",
		TrialDays: 14,
		ReturnURL: "https://app.example.com/api/billing/confirm",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://demo.myshopify.com/admin/charges/1/confirm", result.ConfirmationURL)
	assert.Equal(t, "gid://shopify/AppSubscription/1", result.SubscriptionID)
}

func TestClient_CreateAppSubscription_UserErrors(t *testing.T) {
	client := setupClientTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"appSubscriptionCreate":{"confirmationUrl":null,"appSubscription":null,
			"userErrors":[{"field":["returnUrl"],"message":"Return url is invalid"}]}}}`))
	})

	_, err := client.CreateAppSubscription(context.Background(), "demo.myshopify.com", "t", SubscriptionRequest{Name: "Pro"})
	assert.ErrorIs(t, err, ErrUserError)
}

func TestClient_ActiveSubscriptions(t *testing.T) {
	client := setupClientTest(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"currentAppInstallation":{"activeSubscriptions":[
			{"id":"gid://shopify/AppSubscription/1","name":"Pro","status":"ACTIVE"}]}}}`))
	})

	subs, err := client.ActiveSubscriptions(context.Background(), "demo.myshopify.com", "t")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "Pro", subs[0].Name)
	assert.Equal(t, "ACTIVE", subs[0].Status)
}
