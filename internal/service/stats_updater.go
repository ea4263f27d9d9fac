package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ifuryst/postpilot/internal/metrics"
	"github.com/ifuryst/postpilot/internal/models"
)

// StatsUpdater refreshes the status gauges and prunes old error logs
type StatsUpdater struct {
	monitoringService *MonitoringService
	metrics           *metrics.Metrics
	logger            *zap.Logger
	retentionDays     int
}

func NewStatsUpdater(monitoringService *MonitoringService, m *metrics.Metrics, logger *zap.Logger, retentionDays int) *StatsUpdater {
	if m == nil {
		m = metrics.NewNop()
	}
	return &StatsUpdater{
		monitoringService: monitoringService,
		metrics:           m,
		logger:            logger,
		retentionDays:     retentionDays,
	}
}

// Update performs one stats refresh
func (s *StatsUpdater) Update(ctx context.Context) {
	s.logger.Debug("Updating statistics")

	counts, err := s.monitoringService.posts.CountByStatus(ctx)
	if err != nil {
		s.logger.Error("Failed to count posts by status", zap.Error(err))
	} else {
		for _, status := range models.AllPostStatuses {
			s.metrics.PostsByStatus.WithLabelValues(string(status)).Set(float64(counts[status]))
		}
	}

	if s.retentionDays > 0 {
		if _, err := s.monitoringService.CleanupOldData(ctx, s.retentionDays); err != nil {
			s.logger.Error("Failed to cleanup old data", zap.Error(err))
		}
	}

	s.logger.Debug("Statistics updated successfully")
}
