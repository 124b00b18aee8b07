package model

import (
	"time"

	"gorm.io/datatypes"
)

type ChannelType string

const (
	ChannelInstagram ChannelType = "INSTAGRAM"
	ChannelTikTok    ChannelType = "TIKTOK"
)

type ChannelStatus string

const (
	ChannelConnected    ChannelStatus = "CONNECTED"
	ChannelError        ChannelStatus = "ERROR"
	ChannelExpired      ChannelStatus = "EXPIRED"
	ChannelDisconnected ChannelStatus = "DISCONNECTED"
)

// ChannelMetadata is provider specific data kept alongside the connection
type ChannelMetadata struct {
	InstagramAccountID string `json:"instagram_account_id,omitempty"`
	ProfilePicture     string `json:"profile_picture,omitempty"`
	PageID             string `json:"page_id,omitempty"`
}

// Channel is an OAuth connection to a social content source
type Channel struct {
	ID           uint                                `gorm:"primarykey" json:"id"`
	ShopDomain   string                              `gorm:"type:varchar(255);index;not null" json:"-"`
	Name         string                              `gorm:"type:varchar(255);not null" json:"name"`
	Type         ChannelType                         `gorm:"type:varchar(20);not null" json:"type"`
	Status       ChannelStatus                       `gorm:"type:varchar(20);index;not null" json:"status"`
	Username     string                              `gorm:"type:varchar(255)" json:"username"`
	AccessToken  string                              `gorm:"type:text" json:"-"` // sealed with util.TokenSealer
	ExpiresAt    *time.Time                          `json:"expires_at"`
	Metadata     datatypes.JSONType[ChannelMetadata] `json:"metadata"`
	AutoImport   bool                                `gorm:"not null;default:false" json:"auto_import"`
	LastSyncedAt *time.Time                          `json:"last_synced_at"`
	CreatedAt    time.Time                           `json:"created_at"`
	UpdatedAt    time.Time                           `json:"updated_at"`
}

func (Channel) TableName() string {
	return "channels"
}

// IsExpired reports whether the access token is past its expiry at now
func (c *Channel) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && !now.Before(*c.ExpiresAt)
}
