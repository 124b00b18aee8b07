package model

import (
	"time"
)

// Tag is a merchant-defined label; the slug is unique per shop
type Tag struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	ShopDomain string    `gorm:"type:varchar(255);uniqueIndex:idx_tags_shop_slug;not null" json:"-"`
	Name       string    `gorm:"type:varchar(100);not null" json:"name"`
	Slug       string    `gorm:"type:varchar(100);uniqueIndex:idx_tags_shop_slug;not null" json:"slug"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Tag) TableName() string {
	return "tags"
}

// MediaTag represents the many-to-many relationship between media and tags
type MediaTag struct {
	MediaID   uint      `gorm:"primaryKey;index" json:"media_id"`
	TagID     uint      `gorm:"primaryKey;index" json:"tag_id"`
	Media     Media     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Tag       Tag       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"tag,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (MediaTag) TableName() string {
	return "media_tags"
}
