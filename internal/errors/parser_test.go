package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		context  string
		wantCode string
	}{
		{
			name:     "Nil error",
			err:      nil,
			wantCode: InternalServerError,
		},
		{
			name:     "Record not found",
			err:      fmt.Errorf("load: %w", gorm.ErrRecordNotFound),
			context:  "media lookup",
			wantCode: ResourceNotFound,
		},
		{
			name:     "Duplicate team email on postgres",
			err:      errors.New(`ERROR: duplicate key value violates unique constraint "idx_team_shop_email" (SQLSTATE 23505)`),
			wantCode: TeamMemberExists,
		},
		{
			name:     "Duplicate team email on sqlite",
			err:      errors.New("UNIQUE constraint failed: team_members.shop_domain, team_members.email"),
			wantCode: TeamMemberExists,
		},
		{
			name:     "Foreign key on media",
			err:      errors.New(`insert or update on table "media_tags" violates foreign key constraint "fk_media_tags_media" on media_id`),
			wantCode: MediaNotFound,
		},
		{
			name:     "Not null",
			err:      errors.New(`null value in column "url" violates not-null constraint`),
			wantCode: ValidationRequired,
		},
		{
			name:     "Network",
			err:      errors.New("dial tcp: connection refused"),
			wantCode: InternalExternalAPI,
		},
		{
			name:     "Unknown",
			err:      errors.New("boom"),
			context:  "create media",
			wantCode: InternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, tt.context)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.NotEmpty(t, info.Message)
		})
	}
}

func TestParseError_NotFoundMessageUsesContext(t *testing.T) {
	info := ParseError(gorm.ErrRecordNotFound, "hotspot update")
	assert.Equal(t, "Hotspot not found", info.Message)
}
