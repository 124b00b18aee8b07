package model

import (
	"time"

	"gorm.io/datatypes"
)

// TeamMember is a staff member invited to the app with a granular permission list
type TeamMember struct {
	ID            uint                        `gorm:"primarykey" json:"id"`
	ShopDomain    string                      `gorm:"type:varchar(255);uniqueIndex:idx_team_shop_email;not null" json:"-"`
	Email         string                      `gorm:"type:varchar(255);uniqueIndex:idx_team_shop_email;not null" json:"email"`
	Name          string                      `gorm:"type:varchar(255)" json:"name"`
	Permissions   datatypes.JSONSlice[string] `json:"permissions"`
	IsActive      bool                        `gorm:"not null;default:false" json:"is_active"`
	ShopifyUserID string                      `gorm:"type:varchar(64);index" json:"shopify_user_id,omitempty"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

func (TeamMember) TableName() string {
	return "team_members"
}

func (m *TeamMember) HasPermission(permission string) bool {
	for _, p := range m.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
