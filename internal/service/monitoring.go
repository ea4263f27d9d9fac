package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ifuryst/postpilot/internal/models"
	"github.com/ifuryst/postpilot/internal/store"
	"github.com/ifuryst/postpilot/pkg/apperror"
)

type MonitoringService struct {
	db     *gorm.DB
	posts  store.PostStore
	logger *zap.Logger
}

func NewMonitoringService(db *gorm.DB, posts store.PostStore, logger *zap.Logger) *MonitoringService {
	return &MonitoringService{
		db:     db,
		posts:  posts,
		logger: logger,
	}
}

// RecordError 记录错误日志
func (m *MonitoringService) RecordError(level, source, title, message string, options ...ErrorLogOption) error {
	errorLog := &models.ErrorLog{
		Level:   level,
		Source:  source,
		Title:   title,
		Message: message,
	}

	for _, option := range options {
		option(errorLog)
	}

	return m.db.Create(errorLog).Error
}

// ErrorLogOption 错误日志选项
type ErrorLogOption func(*models.ErrorLog)

// WithPost 设置帖子ID
func WithPost(postID string) ErrorLogOption {
	return func(e *models.ErrorLog) {
		if postID != "" {
			e.PostID = &postID
		}
	}
}

// WithContext 设置上下文信息
func WithContext(context map[string]interface{}) ErrorLogOption {
	return func(e *models.ErrorLog) {
		if contextBytes, err := json.Marshal(context); err == nil {
			e.Context = string(contextBytes)
		}
	}
}

// GetRecentErrors 获取最近的错误
func (m *MonitoringService) GetRecentErrors(ctx context.Context, limit int, unresolvedOnly bool) ([]models.ErrorLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := m.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if unresolvedOnly {
		query = query.Where("resolved = ?", false)
	}

	var logs []models.ErrorLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// ResolveError 标记错误已解决
func (m *MonitoringService) ResolveError(ctx context.Context, id uint) error {
	now := time.Now()
	res := m.db.WithContext(ctx).Model(&models.ErrorLog{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"resolved": true, "resolved_at": &now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.NotFound("Error log not found: %d", id)
	}
	return nil
}

// Summary 仪表板汇总信息
func (m *MonitoringService) Summary(ctx context.Context, connectedClients int) (*models.DashboardSummary, error) {
	counts, err := m.posts.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	summary := &models.DashboardSummary{
		PostsByStatus:    counts,
		ConnectedClients: connectedClients,
		GeneratedAt:      time.Now(),
	}
	for _, n := range counts {
		summary.TotalPosts += n
	}

	due, err := m.posts.FindDuePosts(ctx, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	summary.DuePosts = int64(len(due))

	if err := m.db.WithContext(ctx).Model(&models.ErrorLog{}).
		Where("resolved = ?", false).
		Count(&summary.UnresolvedErrorsCount).Error; err != nil {
		return nil, err
	}

	return summary, nil
}

// CleanupOldData 清理旧数据, resolved errors older than the retention window
func (m *MonitoringService) CleanupOldData(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	res := m.db.WithContext(ctx).
		Where("resolved = ? AND created_at < ?", true, cutoff).
		Delete(&models.ErrorLog{})
	if res.Error != nil {
		return 0, res.Error
	}

	if res.RowsAffected > 0 {
		m.logger.Info("Old error logs cleaned up", zap.Int64("deleted", res.RowsAffected))
	}
	return res.RowsAffected, nil
}
