package model

import (
	"regexp"
	"time"
)

type MediaStatus string

const (
	MediaStatusDraft    MediaStatus = "DRAFT"
	MediaStatusApproved MediaStatus = "APPROVED"
	MediaStatusRejected MediaStatus = "REJECTED"
)

// IsValid reports whether s is one of the moderation states
func (s MediaStatus) IsValid() bool {
	switch s {
	case MediaStatusDraft, MediaStatusApproved, MediaStatusRejected:
		return true
	}
	return false
}

type SourceType string

const (
	SourceUpload    SourceType = "UPLOAD"
	SourceURL       SourceType = "URL"
	SourceInstagram SourceType = "INSTAGRAM"
	SourceTikTok    SourceType = "TIKTOK"
)

func (s SourceType) IsValid() bool {
	switch s {
	case SourceUpload, SourceURL, SourceInstagram, SourceTikTok:
		return true
	}
	return false
}

// IsImport reports whether media from this source counts against the monthly import quota
func (s SourceType) IsImport() bool {
	return s == SourceInstagram || s == SourceTikTok
}

var videoURLPattern = regexp.MustCompile(`(?i)\.(mp4|webm|mov)$`)

// Media is a single piece of user-generated content owned by a shop
type Media struct {
	ID         uint        `gorm:"primarykey" json:"id"`
	ShopDomain string      `gorm:"type:varchar(255);index;not null" json:"shop_domain"`
	URL        string      `gorm:"type:text;not null" json:"url"`
	Caption    string      `gorm:"type:text" json:"caption"`
	Status     MediaStatus `gorm:"type:varchar(20);index;not null;default:'DRAFT'" json:"status"`
	SourceType SourceType  `gorm:"type:varchar(20);index;not null" json:"source_type"`
	ProductID  *string     `gorm:"type:varchar(255);index" json:"product_id"` // Shopify product GID
	StorageKey string      `gorm:"type:varchar(512)" json:"-"`                // S3 key for uploaded files
	ExternalID string      `gorm:"type:varchar(255);index" json:"external_id,omitempty"`
	CreatedAt  time.Time   `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`

	// Relationships
	MediaTags []MediaTag       `gorm:"foreignKey:MediaID" json:"-"`
	Hotspots  []ProductHotspot `gorm:"foreignKey:MediaID" json:"hotspots,omitempty"`
}

func (Media) TableName() string {
	return "media"
}

// IsVideo is derived from the URL extension
func (m *Media) IsVideo() bool {
	return videoURLPattern.MatchString(m.URL)
}

// TagList flattens the preloaded join rows
func (m *Media) TagList() []Tag {
	tags := make([]Tag, 0, len(m.MediaTags))
	for _, mt := range m.MediaTags {
		tags = append(tags, mt.Tag)
	}
	return tags
}

// TagNames returns the names of the preloaded tags
func (m *Media) TagNames() []string {
	names := make([]string, 0, len(m.MediaTags))
	for _, mt := range m.MediaTags {
		names = append(names, mt.Tag.Name)
	}
	return names
}
