package shopify

import (
	"context"
	"fmt"
	"strings"
)

const searchProductsQuery = `query searchProducts($first: Int!, $query: String!) {
  products(first: $first, query: $query) {
    edges {
      node {
        id
        title
        handle
        featuredImage { url }
      }
    }
  }
}`

const productNodesQuery = `query productNodes($ids: [ID!]!) {
  nodes(ids: $ids) {
    ... on Product {
      id
      title
      handle
      featuredImage { url }
    }
  }
}`

// SearchProducts finds up to first products whose title contains term
func (c *Client) SearchProducts(ctx context.Context, shop, accessToken, term string, first int) ([]Product, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []Product{}, nil
	}

	var data struct {
		Products struct {
			Edges []struct {
				Node productNode `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	}

	vars := map[string]interface{}{
		"first": first,
		"query": fmt.Sprintf("title:*%s*", escapeSearchTerm(term)),
	}
	if err := c.GraphQL(ctx, shop, accessToken, searchProductsQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	products := make([]Product, 0, len(data.Products.Edges))
	for _, e := range data.Products.Edges {
		products = append(products, e.Node.toProduct())
	}
	return products, nil
}

// GetProducts resolves product GIDs; ids that are not products are skipped
func (c *Client) GetProducts(ctx context.Context, shop, accessToken string, ids []string) ([]Product, error) {
	if len(ids) == 0 {
		return []Product{}, nil
	}

	var data struct {
		Nodes []*productNode `json:"nodes"`
	}
	vars := map[string]interface{}{"ids": ids}
	if err := c.GraphQL(ctx, shop, accessToken, productNodesQuery, vars, &data); err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	products := make([]Product, 0, len(data.Nodes))
	for _, n := range data.Nodes {
		if n == nil || n.ID == "" {
			continue
		}
		products = append(products, n.toProduct())
	}
	return products, nil
}

// escapeSearchTerm keeps the term inside a single search token
func escapeSearchTerm(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, ":", `\:`, "(", `\(`, ")", `\)`)
	return r.Replace(term)
}
