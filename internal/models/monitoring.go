package models

import (
	"time"
)

// ErrorLog 错误日志表
type ErrorLog struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Level      string     `gorm:"size:20;not null;index" json:"level"`   // ERROR, WARN, INFO
	Source     string     `gorm:"size:100;not null;index" json:"source"` // detector, publisher, realtime
	PostID     *string    `gorm:"size:64;index" json:"post_id"`          // 相关的帖子ID
	Title      string     `gorm:"size:500;not null" json:"title"`
	Message    string     `gorm:"type:text;not null" json:"message"`
	Context    string     `gorm:"type:text" json:"context"` // JSON encoded extra fields
	Resolved   bool       `gorm:"default:false;index" json:"resolved"`
	ResolvedAt *time.Time `json:"resolved_at"`
	CreatedAt  time.Time  `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// DashboardSummary 仪表板汇总信息, computed on request
type DashboardSummary struct {
	PostsByStatus         map[PostStatus]int64 `json:"posts_by_status"`
	TotalPosts            int64                `json:"total_posts"`
	DuePosts              int64                `json:"due_posts"`
	UnresolvedErrorsCount int64                `json:"unresolved_errors_count"`
	ConnectedClients      int                  `json:"connected_clients"`
	GeneratedAt           time.Time            `json:"generated_at"`
}
