package shopify

import "errors"

var (
	// ErrInvalidConfig is returned when the client configuration is incomplete
	ErrInvalidConfig = errors.New("invalid shopify config")

	// ErrNetworkError is returned when there's a network communication error
	ErrNetworkError = errors.New("network error")

	// ErrUnauthorized is returned when the shop access token is rejected
	ErrUnauthorized = errors.New("unauthorized: invalid access token")

	// ErrAPIError is returned for non-success responses and GraphQL errors
	ErrAPIError = errors.New("shopify api error")

	// ErrUserError is returned when a mutation reports userErrors
	ErrUserError = errors.New("shopify user error")
)
