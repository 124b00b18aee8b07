package instagram

import "time"

// Media types returned by the Graph API
const (
	MediaTypeImage    = "IMAGE"
	MediaTypeVideo    = "VIDEO"
	MediaTypeCarousel = "CAROUSEL_ALBUM"
)

// MediaFields are requested for every listed post
const MediaFields = "id,caption,media_type,media_url,thumbnail_url,permalink,timestamp,username"

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Page is a Facebook page managed by the user, with its own access token
type Page struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
}

type Account struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	ProfilePictureURL string `json:"profile_picture_url"`
}

// Connection is the outcome of the OAuth flow
type Connection struct {
	Account         Account
	PageAccessToken string
	ExpiresAt       time.Time
}

type Media struct {
	ID           string `json:"id"`
	Caption      string `json:"caption"`
	MediaType    string `json:"media_type"`
	MediaURL     string `json:"media_url"`
	ThumbnailURL string `json:"thumbnail_url"`
	Permalink    string `json:"permalink"`
	Timestamp    string `json:"timestamp"`
	Username     string `json:"username"`
}

// Importable reports whether the post is an image, video or carousel
func (m Media) Importable() bool {
	switch m.MediaType {
	case MediaTypeImage, MediaTypeVideo, MediaTypeCarousel:
		return true
	}
	return false
}

// DisplayURL is media_url for videos, otherwise the thumbnail when present
func (m Media) DisplayURL() string {
	if m.MediaType == MediaTypeVideo {
		return m.MediaURL
	}
	if m.ThumbnailURL != "" {
		return m.ThumbnailURL
	}
	return m.MediaURL
}

type graphError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

type errorEnvelope struct {
	Error *graphError `json:"error"`
}
