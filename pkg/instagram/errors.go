package instagram

import "errors"

var (
	// ErrInvalidConfig is returned when the app id or secret is missing
	ErrInvalidConfig = errors.New("invalid instagram config")

	// ErrNetworkError is returned when there's a network communication error
	ErrNetworkError = errors.New("network error")

	// ErrTokenExpired is returned when the Graph API rejects the access token
	ErrTokenExpired = errors.New("instagram access token expired")

	// ErrAPIError is returned for any other Graph API error
	ErrAPIError = errors.New("instagram api error")

	// ErrNoPages is returned when the user manages no Facebook pages
	ErrNoPages = errors.New("no facebook pages found; create a page and connect it to your instagram business account")

	// ErrNoBusinessAccount is returned when none of the pages has an instagram business account
	ErrNoBusinessAccount = errors.New("no instagram business account found; connect one to a facebook page")
)
