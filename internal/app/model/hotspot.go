package model

import (
	"time"
)

type HotspotPosition string

const (
	PositionTopLeft     HotspotPosition = "top-left"
	PositionTopRight    HotspotPosition = "top-right"
	PositionBottomLeft  HotspotPosition = "bottom-left"
	PositionBottomRight HotspotPosition = "bottom-right"
	PositionCenter      HotspotPosition = "center"
)

const DefaultHotspotDuration = 5.0

func (p HotspotPosition) IsValid() bool {
	switch p {
	case PositionTopLeft, PositionTopRight, PositionBottomLeft, PositionBottomRight, PositionCenter:
		return true
	}
	return false
}

// ProductHotspot marks a product overlay on a video between Timestamp and Timestamp+Duration seconds
type ProductHotspot struct {
	ID        uint            `gorm:"primarykey" json:"id"`
	MediaID   uint            `gorm:"index;not null" json:"media_id"`
	ProductID string          `gorm:"type:varchar(255);not null" json:"product_id"`
	Timestamp float64         `gorm:"not null" json:"timestamp"`
	Duration  float64         `gorm:"not null;default:5" json:"duration"`
	Position  HotspotPosition `gorm:"type:varchar(20);not null;default:'bottom-right'" json:"position"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (ProductHotspot) TableName() string {
	return "product_hotspots"
}

// VisibleAt reports whether the hotspot is shown at playback time t (inclusive on both ends)
func (h ProductHotspot) VisibleAt(t float64) bool {
	return h.Timestamp <= t && t <= h.Timestamp+h.Duration
}

// ActiveHotspots returns the hotspots visible at t, preserving order
func ActiveHotspots(hotspots []ProductHotspot, t float64) []ProductHotspot {
	active := make([]ProductHotspot, 0, len(hotspots))
	for _, h := range hotspots {
		if h.VisibleAt(t) {
			active = append(active, h)
		}
	}
	return active
}
