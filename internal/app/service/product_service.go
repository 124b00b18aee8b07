package service

import (
	"context"
	"strings"

	"github.com/ikkim/ugcfy-backend/pkg/logger"
	"github.com/ikkim/ugcfy-backend/pkg/shopify"
)

// ProductSearchLimit is the number of products returned by the picker
const ProductSearchLimit = 10

// ProductAdmin is the part of the Shopify Admin API used for product lookups
type ProductAdmin interface {
	SearchProducts(ctx context.Context, shop, accessToken, term string, first int) ([]shopify.Product, error)
	GetProducts(ctx context.Context, shop, accessToken string, ids []string) ([]shopify.Product, error)
}

type ProductService interface {
	Search(ctx context.Context, shop, query string) ([]shopify.Product, error)
	// Lookup resolves product ids to details, keyed by id
	Lookup(ctx context.Context, shop string, ids []string) (map[string]shopify.Product, error)
}

type productService struct {
	tokens AccessTokenSource
	admin  ProductAdmin
}

func NewProductService(tokens AccessTokenSource, admin ProductAdmin) ProductService {
	return &productService{tokens: tokens, admin: admin}
}

func (s *productService) Search(ctx context.Context, shop, query string) ([]shopify.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []shopify.Product{}, nil
	}

	token, err := s.tokens.AccessToken(shop)
	if err != nil {
		return nil, err
	}

	products, err := s.admin.SearchProducts(ctx, shop, token, query, ProductSearchLimit)
	if err != nil {
		logger.Error("Product search failed", err, map[string]interface{}{
			"shop":  shop,
			"query": query,
		})
		return nil, err
	}
	return products, nil
}

func (s *productService) Lookup(ctx context.Context, shop string, ids []string) (map[string]shopify.Product, error) {
	out := make(map[string]shopify.Product)
	unique := uniqueStrings(ids)
	if len(unique) == 0 {
		return out, nil
	}

	token, err := s.tokens.AccessToken(shop)
	if err != nil {
		return out, err
	}

	products, err := s.admin.GetProducts(ctx, shop, token, unique)
	if err != nil {
		return out, err
	}
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
