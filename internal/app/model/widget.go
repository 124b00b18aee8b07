package model

import (
	"time"

	"gorm.io/datatypes"
)

type WidgetType string

const (
	WidgetGallery   WidgetType = "gallery"
	WidgetCarousel  WidgetType = "carousel"
	WidgetStories   WidgetType = "stories"
	WidgetShoppable WidgetType = "shoppable"
)

func (t WidgetType) IsValid() bool {
	switch t {
	case WidgetGallery, WidgetCarousel, WidgetStories, WidgetShoppable:
		return true
	}
	return false
}

// DefaultLimit is the number of items served when the embed does not set data-limit
func (t WidgetType) DefaultLimit() int {
	if t == WidgetGallery {
		return 12
	}
	return 10
}

// MaxLimit caps the feed size per widget type
func (t WidgetType) MaxLimit() int {
	switch t {
	case WidgetGallery:
		return 50
	case WidgetCarousel:
		return 20
	case WidgetStories:
		return 15
	default:
		return 1
	}
}

// WidgetSettings mirrors the data-* attributes of the embed container
type WidgetSettings struct {
	Tags     []string `json:"tags,omitempty"`
	Product  string   `json:"product,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Layout   string   `json:"layout,omitempty"`
	Columns  int      `json:"columns,omitempty"`
	Autoplay bool     `json:"autoplay,omitempty"`
	Interval int      `json:"interval,omitempty"` // ms, carousel
	Duration int      `json:"duration,omitempty"` // ms per story
	MediaID  uint     `json:"media_id,omitempty"` // shoppable video
}

// Widget is a saved storefront embed configuration
type Widget struct {
	ID         uint                               `gorm:"primarykey" json:"id"`
	ShopDomain string                             `gorm:"type:varchar(255);index;not null" json:"-"`
	Name       string                             `gorm:"type:varchar(255);not null" json:"name"`
	Type       WidgetType                         `gorm:"type:varchar(20);not null" json:"type"`
	Settings   datatypes.JSONType[WidgetSettings] `json:"settings"`
	CreatedAt  time.Time                          `json:"created_at"`
	UpdatedAt  time.Time                          `json:"updated_at"`
}

func (Widget) TableName() string {
	return "widgets"
}
