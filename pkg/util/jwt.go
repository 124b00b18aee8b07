package util

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidShop  = errors.New("invalid shop domain")
)

var shopDomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.myshopify\.com$`)

// IsValidShopDomain reports whether shop is a bare *.myshopify.com host
func IsValidShopDomain(shop string) bool {
	return shopDomainPattern.MatchString(shop)
}

// SessionClaims are the claims of a Shopify App Bridge session token
type SessionClaims struct {
	Dest      string `json:"dest"`
	SessionID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// Shop returns the shop domain from the dest claim
func (c *SessionClaims) Shop() string {
	u, err := url.Parse(c.Dest)
	if err != nil {
		return ""
	}
	return u.Host
}

// ValidateSessionToken verifies an HS256 session token signed with the app secret
// and issued for apiKey. The shop in dest must be a myshopify.com domain.
func ValidateSessionToken(tokenString, apiKey, apiSecret string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(apiSecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(apiKey),
		jwt.WithLeeway(5*time.Second),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if !IsValidShopDomain(claims.Shop()) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrInvalidShop)
	}
	if claims.Issuer != "" && !strings.HasPrefix(claims.Issuer, claims.Dest) {
		return nil, fmt.Errorf("%w: issuer does not match destination", ErrInvalidToken)
	}

	return claims, nil
}

// GenerateSessionToken signs a session token the way App Bridge does. Used by tests and local tooling.
func GenerateSessionToken(shop, userID, apiKey, apiSecret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Dest:      "https://" + shop,
		SessionID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://" + shop + "/admin",
			Subject:   userID,
			Audience:  jwt.ClaimStrings{apiKey},
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			NotBefore: jwt.NewNumericDate(now.Add(-time.Second)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(apiSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// StateClaims carry the shop through an OAuth round trip
type StateClaims struct {
	Shop    string `json:"shop"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// GenerateStateToken returns a signed, short lived OAuth state for shop
func GenerateStateToken(shop, purpose, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := StateClaims{
		Shop:    shop,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return signed, nil
}

// ValidateStateToken verifies state and that it was issued for purpose
func ValidateStateToken(state, purpose, secret string) (*StateClaims, error) {
	claims := &StateClaims{}
	token, err := jwt.ParseWithClaims(state, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Purpose != purpose {
		return nil, ErrInvalidToken
	}
	if !IsValidShopDomain(claims.Shop) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrInvalidShop)
	}
	return claims, nil
}
