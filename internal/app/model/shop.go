package model

import (
	"time"
)

// Shop is an installation of the app on a Shopify store
type Shop struct {
	ID             uint       `gorm:"primarykey" json:"id"`
	Domain         string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"domain"`
	AccessToken    string     `gorm:"type:text" json:"-"` // sealed offline token
	Scopes         string     `gorm:"type:text" json:"scopes"`
	PlanID         *string    `gorm:"type:varchar(50)" json:"plan_id"`
	SubscriptionID string     `gorm:"type:varchar(255)" json:"subscription_id,omitempty"`
	Installed      bool       `gorm:"not null;default:true" json:"installed"`
	UninstalledAt  *time.Time `json:"uninstalled_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Shop) TableName() string {
	return "shops"
}
