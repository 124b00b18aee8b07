package service

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/internal/db"
	"github.com/ikkim/ugcfy-backend/pkg/shopify"
	"github.com/ikkim/ugcfy-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAPISecret = "shpss_test_secret"

func setupShopTest(t *testing.T) (*testRepos, *fakeAdmin, ShopService) {
	repos := setupRepos(t)
	admin := &fakeAdmin{token: "shpat_offline"}
	sealer := util.NewTokenSealerFromSecret("test")
	return repos, admin, NewShopService(repos.shops, repos.tags, admin, sealer, testAPISecret, "https://ugc.example.com")
}

// callbackQuery builds a signed OAuth callback for shop
func callbackQuery(t *testing.T, shop string) url.Values {
	state, err := util.GenerateStateToken(shop, installStatePurpose, testAPISecret, stateTokenExpiry)
	require.NoError(t, err)

	query := url.Values{
		"shop":      {shop},
		"code":      {"auth-code"},
		"state":     {state},
		"timestamp": {"1700000000"},
	}
	query.Set("hmac", shopify.SignOAuthQuery(query, testAPISecret))
	return query
}

func TestShopService_InstallURL(t *testing.T) {
	_, _, svc := setupShopTest(t)

	_, err := svc.InstallURL("evil.example.com")
	assert.ErrorIs(t, err, ErrInvalidShopDomain)

	authURL, err := svc.InstallURL(testShop)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(authURL, "https://"+testShop+"/admin/oauth/authorize"))
	assert.Contains(t, authURL, "https://ugc.example.com/auth/callback")
}

func TestShopService_CompleteInstall(t *testing.T) {
	repos, _, svc := setupShopTest(t)

	record, err := svc.CompleteInstall(context.Background(), callbackQuery(t, testShop))
	require.NoError(t, err)
	assert.True(t, record.Installed)
	assert.NotEqual(t, "shpat_offline", record.AccessToken, "token is stored sealed")

	token, err := svc.AccessToken(testShop)
	require.NoError(t, err)
	assert.Equal(t, "shpat_offline", token)

	tags, err := repos.tags.FindWithFilter(testShop, "", 0)
	require.NoError(t, err)
	assert.Len(t, tags, len(db.DefaultTags), "first install seeds tags")

	// reinstall does not duplicate tags
	_, err = svc.CompleteInstall(context.Background(), callbackQuery(t, testShop))
	require.NoError(t, err)
	tags, err = repos.tags.FindWithFilter(testShop, "", 0)
	require.NoError(t, err)
	assert.Len(t, tags, len(db.DefaultTags))
}

func TestShopService_CompleteInstall_Rejects(t *testing.T) {
	_, admin, svc := setupShopTest(t)

	tampered := callbackQuery(t, testShop)
	tampered.Set("code", "other-code")

	otherState := callbackQuery(t, testShop)
	state, err := util.GenerateStateToken(otherShop, installStatePurpose, testAPISecret, stateTokenExpiry)
	require.NoError(t, err)
	otherState.Set("state", state)
	otherState.Set("hmac", shopify.SignOAuthQuery(otherState, testAPISecret))

	wrongPurpose := callbackQuery(t, testShop)
	state, err = util.GenerateStateToken(testShop, "instagram", testAPISecret, stateTokenExpiry)
	require.NoError(t, err)
	wrongPurpose.Set("state", state)
	wrongPurpose.Set("hmac", shopify.SignOAuthQuery(wrongPurpose, testAPISecret))

	badShop := url.Values{"shop": {"not a shop"}}

	tests := []struct {
		name    string
		query   url.Values
		wantErr error
	}{
		{name: "Invalid shop", query: badShop, wantErr: ErrInvalidShopDomain},
		{name: "Tampered query", query: tampered, wantErr: ErrInvalidHMAC},
		{name: "State for another shop", query: otherState, wantErr: ErrInvalidOAuthState},
		{name: "State for another purpose", query: wrongPurpose, wantErr: ErrInvalidOAuthState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := svc.CompleteInstall(context.Background(), tt.query)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, record)
		})
	}

	admin.err = shopify.ErrUnauthorized
	_, err = svc.CompleteInstall(context.Background(), callbackQuery(t, testShop))
	assert.ErrorIs(t, err, shopify.ErrUnauthorized)
}

func TestShopService_AccessToken(t *testing.T) {
	repos, _, svc := setupShopTest(t)

	_, err := svc.AccessToken(testShop)
	assert.ErrorIs(t, err, ErrShopNotFound)

	_, err = svc.CompleteInstall(context.Background(), callbackQuery(t, testShop))
	require.NoError(t, err)
	require.NoError(t, svc.Uninstall(testShop))

	_, err = svc.AccessToken(testShop)
	assert.ErrorIs(t, err, ErrShopNotInstalled)

	record, err := repos.shops.FindByDomain(testShop)
	require.NoError(t, err)
	assert.False(t, record.Installed)
	assert.NotNil(t, record.UninstalledAt)

	assert.NoError(t, svc.Uninstall(otherShop), "uninstalling an unknown shop is a no-op")
}

func TestShopService_Redact(t *testing.T) {
	repos, _, svc := setupShopTest(t)

	_, err := svc.CompleteInstall(context.Background(), callbackQuery(t, testShop))
	require.NoError(t, err)
	repos.createMedia(t, testShop, "https://cdn.example.com/a.jpg", model.MediaStatusApproved)
	kept := repos.createMedia(t, otherShop, "https://cdn.example.com/b.jpg", model.MediaStatusApproved)

	require.NoError(t, svc.Redact(testShop))

	count, err := repos.media.Count(testShop)
	require.NoError(t, err)
	assert.Zero(t, count)

	tags, err := repos.tags.FindWithFilter(testShop, "", 0)
	require.NoError(t, err)
	assert.Empty(t, tags)

	_, err = repos.media.FindByID(otherShop, kept.ID)
	assert.NoError(t, err, "other shops are untouched")
}
