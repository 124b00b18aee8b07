package model

import (
	"time"
)

type ClickType string

const (
	ClickMedia   ClickType = "media"
	ClickProduct ClickType = "product"
)

// MediaView is an append-only impression event recorded by storefront widgets
type MediaView struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	MediaID    uint      `gorm:"index;not null" json:"media_id"`
	ShopDomain string    `gorm:"type:varchar(255);index" json:"shop_domain"`
	WidgetID   string    `gorm:"type:varchar(100)" json:"widget_id"`
	Referrer   string    `gorm:"type:text" json:"referrer"`
	UserAgent  string    `gorm:"type:text" json:"user_agent"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (MediaView) TableName() string {
	return "media_views"
}

// MediaClick is an append-only click event on a media item or its tagged product
type MediaClick struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	MediaID    uint      `gorm:"index;not null" json:"media_id"`
	ClickType  ClickType `gorm:"type:varchar(20);not null;default:'media'" json:"click_type"`
	ProductID  *string   `gorm:"type:varchar(255);index" json:"product_id"`
	ShopDomain string    `gorm:"type:varchar(255);index" json:"shop_domain"`
	WidgetID   string    `gorm:"type:varchar(100)" json:"widget_id"`
	Referrer   string    `gorm:"type:text" json:"referrer"`
	UserAgent  string    `gorm:"type:text" json:"user_agent"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (MediaClick) TableName() string {
	return "media_clicks"
}
