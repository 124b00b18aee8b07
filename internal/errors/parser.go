package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo pairs a machine code with a merchant facing message
type ErrorInfo struct {
	Code    string // see codes.go
	Message string
}

// ParseError converts a database or client error into a code and message.
// Raw driver text never reaches the response.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Code:    InternalServerError,
			Message: "Something went wrong",
		}
	}

	errStr := err.Error()
	errStrLower := strings.ToLower(errStr)

	// 1. GORM sentinels
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: getNotFoundMessage(context),
		}
	}

	// 2. Constraint violations (postgres and sqlite wording)

	// 2-1. Unique constraint (23505)
	if strings.Contains(errStrLower, "duplicate key") || strings.Contains(errStrLower, "unique constraint") {
		return parseDuplicateKeyError(errStr, context)
	}

	// 2-2. Foreign key constraint (23503)
	if strings.Contains(errStrLower, "foreign key constraint") {
		return parseForeignKeyError(errStr, context)
	}

	// 2-3. Not null constraint (23502)
	if strings.Contains(errStrLower, "not-null constraint") || strings.Contains(errStrLower, "not null constraint") {
		return parseNotNullError(errStr, context)
	}

	// 3. Network errors from Shopify or Instagram calls
	if strings.Contains(errStrLower, "connection refused") ||
		strings.Contains(errStrLower, "no such host") ||
		strings.Contains(errStrLower, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "Could not reach an external service, please try again",
		}
	}

	// 4. Fallback
	return ErrorInfo{
		Code:    InternalServerError,
		Message: getDefaultErrorMessage(context),
	}
}

func parseDuplicateKeyError(errStr string, context string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "idx_team_shop_email") || strings.Contains(errLower, "team_members.email") {
		return ErrorInfo{
			Code:    TeamMemberExists,
			Message: "This email is already on the team",
		}
	}

	if strings.Contains(errLower, "idx_tags_shop_slug") || strings.Contains(errLower, "tags.slug") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "A tag with this name already exists",
		}
	}

	if strings.Contains(errLower, "media_tags") {
		return ErrorInfo{
			Code:    ResourceAlreadyExists,
			Message: "Tag is already attached to this media",
		}
	}

	return ErrorInfo{
		Code:    ResourceAlreadyExists,
		Message: "This record already exists",
	}
}

func parseForeignKeyError(errStr string, context string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "media_id") || strings.Contains(errLower, "fk_media") {
		return ErrorInfo{
			Code:    MediaNotFound,
			Message: "Media not found",
		}
	}
	if strings.Contains(errLower, "tag_id") || strings.Contains(errLower, "fk_tags") {
		return ErrorInfo{
			Code:    TagNotFound,
			Message: "Tag not found",
		}
	}

	return ErrorInfo{
		Code:    ResourceNotFound,
		Message: "Referenced record not found",
	}
}

func parseNotNullError(errStr string, context string) ErrorInfo {
	errLower := strings.ToLower(errStr)

	if strings.Contains(errLower, "email") {
		return ErrorInfo{Code: ValidationRequired, Message: "Email is required"}
	}
	if strings.Contains(errLower, "url") {
		return ErrorInfo{Code: ValidationRequired, Message: "URL is required"}
	}
	if strings.Contains(errLower, "name") {
		return ErrorInfo{Code: ValidationRequired, Message: "Name is required"}
	}

	return ErrorInfo{
		Code:    ValidationRequired,
		Message: "A required field is missing",
	}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "media"):
		return "Media not found"
	case strings.Contains(contextLower, "hotspot"):
		return "Hotspot not found"
	case strings.Contains(contextLower, "tag"):
		return "Tag not found"
	case strings.Contains(contextLower, "channel"):
		return "Channel not found"
	case strings.Contains(contextLower, "team"), strings.Contains(contextLower, "member"):
		return "Team member not found"
	case strings.Contains(contextLower, "widget"):
		return "Widget not found"
	case strings.Contains(contextLower, "shop"):
		return "Shop not found"
	}

	return "The requested record was not found"
}

func getDefaultErrorMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "create"):
		return "Failed to create, please try again"
	case strings.Contains(contextLower, "update"):
		return "Failed to update, please try again"
	case strings.Contains(contextLower, "delete"):
		return "Failed to delete, please try again"
	case strings.Contains(contextLower, "import"):
		return "Import failed, please try again"
	}

	return "Something went wrong, please try again"
}

// ParseAndRespond writes the parsed error as the response body
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}
