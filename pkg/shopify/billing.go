package shopify

import (
	"context"
	"fmt"
)

const appSubscriptionCreateMutation = `mutation appSubscriptionCreate($name: String!, $returnUrl: URL!, $trialDays: Int, $test: Boolean, $lineItems: [AppSubscriptionLineItemInput!]!) {
  appSubscriptionCreate(name: $name, returnUrl: $returnUrl, trialDays: $trialDays, test: $test, lineItems: $lineItems) {
    confirmationUrl
    appSubscription { id }
    userErrors { field message }
  }
}`

const activeSubscriptionsQuery = `query activeSubscriptions {
  currentAppInstallation {
    activeSubscriptions { id name status }
  }
}`

// CreateAppSubscription starts a recurring charge; the merchant must visit ConfirmationURL
func (c *Client) CreateAppSubscription(ctx context.Context, shop, accessToken string, req SubscriptionRequest) (*SubscriptionResult, error) {
	vars := map[string]interface{}{
		"name":      req.Name,
		"returnUrl": req.ReturnURL,
		"trialDays": req.TrialDays,
		"test":      req.Test,
		"lineItems": []map[string]interface{}{
			{
				"plan": map[string]interface{}{
					"appRecurringPricingDetails": map[string]interface{}{
						"price":    map[string]interface{}{"amount": req.Price, "currencyCode": req.Currency},
						"interval": req.Interval,
					},
				},
			},
		},
	}

	var data struct {
		AppSubscriptionCreate struct {
			ConfirmationURL string `json:"confirmationUrl"`
			AppSubscription *struct {
				ID string `json:"id"`
			} `json:"appSubscription"`
			UserErrors []UserError `json:"userErrors"`
		} `json:"appSubscriptionCreate"`
	}
	if err := c.GraphQL(ctx, shop, accessToken, appSubscriptionCreateMutation, vars, &data); err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	result := data.AppSubscriptionCreate
	if len(result.UserErrors) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrUserError, result.UserErrors[0].Message)
	}
	if result.ConfirmationURL == "" {
		return nil, fmt.Errorf("%w: missing confirmation url", ErrAPIError)
	}

	out := &SubscriptionResult{ConfirmationURL: result.ConfirmationURL}
	if result.AppSubscription != nil {
		out.SubscriptionID = result.AppSubscription.ID
	}
	return out, nil
}

// ActiveSubscriptions lists the app's active recurring charges on shop
func (c *Client) ActiveSubscriptions(ctx context.Context, shop, accessToken string) ([]AppSubscription, error) {
	var data struct {
		CurrentAppInstallation struct {
			ActiveSubscriptions []AppSubscription `json:"activeSubscriptions"`
		} `json:"currentAppInstallation"`
	}
	if err := c.GraphQL(ctx, shop, accessToken, activeSubscriptionsQuery, nil, &data); err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	return data.CurrentAppInstallation.ActiveSubscriptions, nil
}
