package service

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/ikkim/ugcfy-backend/internal/app/model"
	"github.com/ikkim/ugcfy-backend/internal/app/repository"
	"github.com/ikkim/ugcfy-backend/internal/db"
	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"github.com/ikkim/ugcfy-backend/pkg/shopify"
	"github.com/ikkim/ugcfy-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrShopNotFound       = errors.New("shop not found")
	ErrShopNotInstalled   = errors.New("shop is not installed")
	ErrInvalidShopDomain  = errors.New("invalid shop domain")
	ErrInvalidHMAC        = errors.New("invalid hmac")
	ErrInvalidOAuthState  = errors.New("invalid oauth state")
	ErrMissingAccessToken = errors.New("shop has no access token")
)

const (
	installStatePurpose = "install"
	stateTokenExpiry    = 10 * time.Minute
)

// AccessTokenSource resolves the decrypted offline token of an installed shop
type AccessTokenSource interface {
	AccessToken(shop string) (string, error)
}

// InstallAdmin is the part of the Shopify client used by the install flow
type InstallAdmin interface {
	AuthorizeURL(shop, redirectURI, state string) string
	ExchangeCode(ctx context.Context, shop, code string) (*shopify.AccessTokenResponse, error)
}

type ShopService interface {
	AccessTokenSource
	InstallURL(shop string) (string, error)
	CompleteInstall(ctx context.Context, query url.Values) (*model.Shop, error)
	Uninstall(shop string) error
	Redact(shop string) error
}

type shopService struct {
	shopRepo  repository.ShopRepository
	tagRepo   repository.TagRepository
	admin     InstallAdmin
	sealer    *util.TokenSealer
	apiSecret string
	appURL    string
}

func NewShopService(
	shopRepo repository.ShopRepository,
	tagRepo repository.TagRepository,
	admin InstallAdmin,
	sealer *util.TokenSealer,
	apiSecret, appURL string,
) ShopService {
	return &shopService{
		shopRepo:  shopRepo,
		tagRepo:   tagRepo,
		admin:     admin,
		sealer:    sealer,
		apiSecret: apiSecret,
		appURL:    appURL,
	}
}

func (s *shopService) redirectURI() string {
	return s.appURL + "/auth/callback"
}

// InstallURL returns the Shopify authorize URL carrying a signed state for shop
func (s *shopService) InstallURL(shop string) (string, error) {
	if !util.IsValidShopDomain(shop) {
		return "", ErrInvalidShopDomain
	}

	state, err := util.GenerateStateToken(shop, installStatePurpose, s.apiSecret, stateTokenExpiry)
	if err != nil {
		logger.Error("Failed to sign install state", err, map[string]interface{}{
			"shop": shop,
		})
		return "", err
	}

	return s.admin.AuthorizeURL(shop, s.redirectURI(), state), nil
}

// CompleteInstall verifies the OAuth callback and stores the offline token
func (s *shopService) CompleteInstall(ctx context.Context, query url.Values) (*model.Shop, error) {
	shop := query.Get("shop")
	if !util.IsValidShopDomain(shop) {
		return nil, ErrInvalidShopDomain
	}

	if !shopify.VerifyOAuthHMAC(query, s.apiSecret) {
		logger.Warn("OAuth callback with invalid hmac", map[string]interface{}{
			"shop": shop,
		})
		return nil, ErrInvalidHMAC
	}

	claims, err := util.ValidateStateToken(query.Get("state"), installStatePurpose, s.apiSecret)
	if err != nil || claims.Shop != shop {
		logger.Warn("OAuth callback with invalid state", map[string]interface{}{
			"shop": shop,
		})
		return nil, ErrInvalidOAuthState
	}

	token, err := s.admin.ExchangeCode(ctx, shop, query.Get("code"))
	if err != nil {
		logger.Error("Failed to exchange OAuth code", err, map[string]interface{}{
			"shop": shop,
		})
		return nil, err
	}

	sealed, err := s.sealer.Seal(token.AccessToken)
	if err != nil {
		return nil, err
	}

	existing, err := s.shopRepo.FindByDomain(shop)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	firstInstall := existing == nil

	record := &model.Shop{
		Domain:      shop,
		AccessToken: sealed,
		Scopes:      token.Scope,
		Installed:   true,
	}
	if err := s.shopRepo.Install(record); err != nil {
		logger.Error("Failed to store shop install", err, map[string]interface{}{
			"shop": shop,
		})
		return nil, err
	}

	if firstInstall {
		s.seedTags(shop)
	}

	logger.Info("Shop installed", map[string]interface{}{
		"shop":          shop,
		"first_install": firstInstall,
		"scopes":        token.Scope,
	})
	return record, nil
}

func (s *shopService) seedTags(shop string) {
	for _, name := range db.DefaultTags {
		tag := &model.Tag{ShopDomain: shop, Name: name, Slug: util.Slugify(name)}
		if err := s.tagRepo.Upsert(tag); err != nil {
			logger.Warn("Failed to seed default tag", map[string]interface{}{
				"shop":  shop,
				"tag":   name,
				"error": err.Error(),
			})
		}
	}
}

func (s *shopService) AccessToken(shop string) (string, error) {
	record, err := s.shopRepo.FindByDomain(shop)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrShopNotFound
		}
		return "", err
	}
	if !record.Installed {
		return "", ErrShopNotInstalled
	}
	if record.AccessToken == "" {
		return "", ErrMissingAccessToken
	}
	return s.sealer.Open(record.AccessToken)
}

// Uninstall keeps the shop's content but drops its token and plan
func (s *shopService) Uninstall(shop string) error {
	err := s.shopRepo.MarkUninstalled(shop, time.Now())
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error("Failed to mark shop uninstalled", err, map[string]interface{}{
			"shop": shop,
		})
		return err
	}

	logger.Info("Shop uninstalled", map[string]interface{}{
		"shop": shop,
	})
	return nil
}

// Redact deletes every row owned by shop
func (s *shopService) Redact(shop string) error {
	if err := s.shopRepo.DeleteAllData(shop); err != nil {
		logger.Error("Failed to redact shop data", err, map[string]interface{}{
			"shop": shop,
		})
		return err
	}

	logger.Info("Shop data redacted", map[string]interface{}{
		"shop": shop,
	})
	return nil
}
