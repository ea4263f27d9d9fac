package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ifuryst/postpilot/internal/metrics"
	"github.com/ifuryst/postpilot/internal/models"
)

// DuePostDetector promotes posts whose time has come and broadcasts post_due
// for each one it promoted.
type DuePostDetector struct {
	posts   *PostService
	events  Events
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewDuePostDetector(posts *PostService, events Events, m *metrics.Metrics, logger *zap.Logger) *DuePostDetector {
	if m == nil {
		m = metrics.NewNop()
	}
	return &DuePostDetector{
		posts:   posts,
		events:  events,
		metrics: m,
		logger:  logger,
	}
}

type SweepResult struct {
	PromoteResult
	Skipped  bool
	Duration time.Duration
}

// Sweep runs one detection pass. While no client is connected nothing is
// promoted; the first client to connect claims the due posts instead.
func (d *DuePostDetector) Sweep(ctx context.Context) (SweepResult, error) {
	start := time.Now()
	defer func() {
		d.metrics.SweepDuration.Observe(time.Since(start).Seconds())
	}()

	if d.events.ClientCount() == 0 {
		d.logger.Debug("No clients connected, leaving due posts for the next client")
		return SweepResult{Skipped: true}, nil
	}

	res, err := d.posts.PromoteDue(ctx, func(post *models.Post) {
		d.logger.Info("Post is due",
			zap.String("post_id", post.ID),
			zap.Timep("scheduled_time", post.ScheduledTime))
		d.events.PostDue(post)
	})

	result := SweepResult{PromoteResult: res, Duration: time.Since(start)}
	if err != nil {
		d.logger.Error("Due post sweep failed", zap.Error(err), zap.Duration("duration", result.Duration))
		return result, err
	}

	if res.Due > 0 {
		d.logger.Info("Due post sweep completed",
			zap.Int("due", res.Due),
			zap.Int("promoted", res.Promoted),
			zap.Int("failed", res.Failed),
			zap.Duration("duration", result.Duration))
	}
	return result, nil
}
