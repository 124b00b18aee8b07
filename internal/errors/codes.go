package errors

// Error code constants
// Format: CATEGORY_SPECIFIC_DETAIL
// The admin UI maps these codes to localized messages

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized    = "AUTH_UNAUTHORIZED"      // session token missing
	AuthTokenExpired    = "AUTH_TOKEN_EXPIRED"     // session token expired
	AuthTokenInvalid    = "AUTH_TOKEN_INVALID"     // bad signature, audience or destination
	AuthInvalidShop     = "AUTH_INVALID_SHOP"      // shop domain is not a myshopify.com domain
	AuthInvalidHMAC     = "AUTH_INVALID_HMAC"      // OAuth callback or webhook signature mismatch
	AuthInvalidState    = "AUTH_INVALID_STATE"     // OAuth state does not verify
	AuthShopNotFound    = "AUTH_SHOP_NOT_FOUND"    // app not installed on the shop
	AuthInvalidProxySig = "AUTH_INVALID_PROXY_SIG" // app proxy signature mismatch

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden        = "AUTHZ_FORBIDDEN"         // missing permission
	AuthzMemberInactive   = "AUTHZ_MEMBER_INACTIVE"   // team member deactivated
	AuthzPermissionDenied = "AUTHZ_PERMISSION_DENIED" // permission not granted

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"
	ValidationRequired      = "VALIDATION_REQUIRED"
	ValidationInvalidStatus = "VALIDATION_INVALID_STATUS"

	// ==================== Resource (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Media (MEDIA_) ====================
	MediaNotFound     = "MEDIA_NOT_FOUND"
	MediaNotAvailable = "MEDIA_NOT_AVAILABLE" // exists but not approved

	// ==================== Tag (TAG_) ====================
	TagNotFound = "TAG_NOT_FOUND"

	// ==================== Hotspot (HOTSPOT_) ====================
	HotspotNotFound = "HOTSPOT_NOT_FOUND"

	// ==================== Channel (CHANNEL_) ====================
	ChannelNotFound     = "CHANNEL_NOT_FOUND"
	ChannelNotConnected = "CHANNEL_NOT_CONNECTED"
	ChannelTokenExpired = "CHANNEL_TOKEN_EXPIRED"
	ChannelNoBusiness   = "CHANNEL_NO_BUSINESS_ACCOUNT"

	// ==================== Team (TEAM_) ====================
	TeamMemberNotFound = "TEAM_MEMBER_NOT_FOUND"
	TeamMemberExists   = "TEAM_MEMBER_EXISTS"

	// ==================== Widget (WIDGET_) ====================
	WidgetNotFound    = "WIDGET_NOT_FOUND"
	WidgetInvalidType = "WIDGET_INVALID_TYPE"

	// ==================== Billing (BILLING_) ====================
	BillingLimitReached = "BILLING_LIMIT_REACHED"
	BillingInvalidPlan  = "BILLING_INVALID_PLAN"
	BillingNotActive    = "BILLING_NOT_ACTIVE"

	// ==================== Upload (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadNoFiles         = "UPLOAD_NO_FILES"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"
)
