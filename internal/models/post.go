package models

import (
	"time"
)

type PostStatus string

const (
	PostStatusDraft       PostStatus = "draft"
	PostStatusScheduled   PostStatus = "scheduled"
	PostStatusPosting     PostStatus = "posting"
	PostStatusCompleted   PostStatus = "completed"
	PostStatusFailed      PostStatus = "failed"
	PostStatusRescheduled PostStatus = "rescheduled"
)

var AllPostStatuses = []PostStatus{
	PostStatusDraft,
	PostStatusScheduled,
	PostStatusPosting,
	PostStatusCompleted,
	PostStatusFailed,
	PostStatusRescheduled,
}

func (s PostStatus) Valid() bool {
	for _, known := range AllPostStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type Post struct {
	ID                    string            `gorm:"primaryKey;size:64" json:"id"`
	Title                 string            `gorm:"size:500;not null" json:"title"`
	Content               string            `gorm:"type:text;not null" json:"content"`
	Hashtags              StringArray       `gorm:"type:text" json:"hashtags"`
	ScheduledTime         *time.Time        `gorm:"index" json:"scheduledTime,omitempty"`
	OriginalScheduledTime *time.Time        `json:"originalScheduledTime,omitempty"`
	Status                PostStatus        `gorm:"size:20;not null;default:'draft';index" json:"status"`
	PostURL               string            `gorm:"size:1000" json:"postUrl,omitempty"`
	Engagement            Engagement        `gorm:"embedded;embeddedPrefix:engagement_" json:"engagement"`
	Error                 *PostError        `gorm:"serializer:json;type:text" json:"error,omitempty"`
	Version               int64             `gorm:"not null;default:1" json:"-"`
	ReschedulingHistory   []RescheduleEntry `gorm:"foreignKey:PostID" json:"reschedulingHistory"`
	Engagers              []Engager         `gorm:"foreignKey:PostID" json:"engagers"`
	CreatedAt             time.Time         `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt             time.Time         `gorm:"autoUpdateTime" json:"updatedAt"`
}

// PostError is the last publication failure of a post.
type PostError struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Engagement counters are overwritten by external reports as-is.
type Engagement struct {
	Likes       int        `gorm:"not null;default:0" json:"likes"`
	Comments    int        `gorm:"not null;default:0" json:"comments"`
	Shares      int        `gorm:"not null;default:0" json:"shares"`
	Views       int        `gorm:"not null;default:0" json:"views"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

// RescheduleEntry rows are insert-only; a post's history is the ordered set
// of its entries.
type RescheduleEntry struct {
	ID        uint       `gorm:"primaryKey" json:"-"`
	PostID    string     `gorm:"size:64;not null;index" json:"-"`
	FromTime  *time.Time `json:"fromTime,omitempty"`
	ToTime    time.Time  `gorm:"not null" json:"toTime"`
	Reason    string     `gorm:"size:500" json:"reason"`
	Timestamp time.Time  `gorm:"not null" json:"timestamp"`
}

type EngagerType string

const (
	EngagerTypeLike    EngagerType = "like"
	EngagerTypeComment EngagerType = "comment"
	EngagerTypeShare   EngagerType = "share"
)

func (t EngagerType) Valid() bool {
	switch t {
	case EngagerTypeLike, EngagerTypeComment, EngagerTypeShare:
		return true
	}
	return false
}

type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionSent     ConnectionStatus = "sent"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionFailed   ConnectionStatus = "failed"
)

type FollowUpStatus string

const (
	FollowUpPending FollowUpStatus = "pending"
	FollowUpSent    FollowUpStatus = "sent"
	FollowUpFailed  FollowUpStatus = "failed"
)

type Engager struct {
	ID               uint             `gorm:"primaryKey" json:"-"`
	PostID           string           `gorm:"size:64;not null;index" json:"-"`
	ProfileURL       string           `gorm:"size:1000;not null" json:"profileUrl"`
	Name             string           `gorm:"size:255" json:"name,omitempty"`
	Type             EngagerType      `gorm:"size:20;not null" json:"type"`
	ConnectionStatus ConnectionStatus `gorm:"size:20;not null;default:'pending'" json:"connectionStatus"`
	FollowUpStatus   FollowUpStatus   `gorm:"size:20;not null;default:'pending'" json:"followUpStatus"`
	Timestamp        time.Time        `gorm:"not null" json:"timestamp"`
}

// HasSchedule reports whether the post currently carries a target time.
func (p *Post) HasSchedule() bool {
	return p.ScheduledTime != nil
}

// LatestReschedule returns the most recent history entry, if any.
func (p *Post) LatestReschedule() *RescheduleEntry {
	if len(p.ReschedulingHistory) == 0 {
		return nil
	}
	return &p.ReschedulingHistory[len(p.ReschedulingHistory)-1]
}
