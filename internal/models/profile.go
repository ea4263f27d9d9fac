package models

import "time"

// EngagementProfile is an outreach target, keyed by its profile URL.
type EngagementProfile struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ProfileURL     string    `gorm:"uniqueIndex;not null;size:1000" json:"profileUrl"`
	Name           string    `gorm:"size:255" json:"name"`
	ConnectionSent bool      `gorm:"not null;default:false" json:"connectionSent"`
	FollowUpSent   bool      `gorm:"not null;default:false" json:"followUpSent"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// SavedSearchURL holds the one saved search URL. The table never has more
// than one row.
type SavedSearchURL struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	ProfileURL string    `gorm:"size:2000;not null" json:"profileUrl"`
	SavedAt    time.Time `gorm:"not null" json:"savedAt"`
}
