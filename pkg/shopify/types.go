package shopify

import "encoding/json"

// Product is the slim product shape used by pickers and analytics
type Product struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Handle string `json:"handle,omitempty"`
	Image  string `json:"image,omitempty"`
}

// AccessTokenResponse is returned by the OAuth token exchange
type AccessTokenResponse struct {
	AccessToken string `json:"access_token"`
	Scope       string `json:"scope"`
}

type SubscriptionRequest struct {
	Name      string
	Price     float64
	Currency  string
	Interval  string
	TrialDays int
	ReturnURL string
	Test      bool
}

type SubscriptionResult struct {
	ConfirmationURL string `json:"confirmation_url"`
	SubscriptionID  string `json:"subscription_id"`
}

type AppSubscription struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

type productNode struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Handle        string `json:"handle"`
	FeaturedImage *struct {
		URL string `json:"url"`
	} `json:"featuredImage"`
}

func (n productNode) toProduct() Product {
	p := Product{ID: n.ID, Title: n.Title, Handle: n.Handle}
	if n.FeaturedImage != nil {
		p.Image = n.FeaturedImage.URL
	}
	return p
}
