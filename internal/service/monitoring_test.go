package service

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ifuryst/postpilot/internal/metrics"
	"github.com/ifuryst/postpilot/internal/models"
	"github.com/ifuryst/postpilot/pkg/apperror"
)

func TestRecordAndResolveErrors(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	require.NoError(t, f.monitoring.RecordError("ERROR", "detector", "Sweep failed", "boom",
		WithPost("p-1"),
		WithContext(map[string]interface{}{"attempt": 2}),
	))
	require.NoError(t, f.monitoring.RecordError("WARN", "realtime", "Client dropped", "slow consumer"))

	logs, err := f.monitoring.GetRecentErrors(ctx, 0, true)
	require.NoError(t, err)
	require.Len(t, logs, 2)

	var detector models.ErrorLog
	for _, l := range logs {
		if l.Source == "detector" {
			detector = l
		}
	}
	require.NotNil(t, detector.PostID)
	assert.Equal(t, "p-1", *detector.PostID)
	assert.JSONEq(t, `{"attempt":2}`, detector.Context)

	require.NoError(t, f.monitoring.ResolveError(ctx, detector.ID))
	unresolved, err := f.monitoring.GetRecentErrors(ctx, 10, true)
	require.NoError(t, err)
	assert.Len(t, unresolved, 1)

	err = f.monitoring.ResolveError(ctx, 9999)
	assert.True(t, apperror.HasCode(err, apperror.CodeNotFound))
}

func TestCleanupKeepsRecentAndUnresolved(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	old := time.Now().AddDate(0, 0, -60)
	require.NoError(t, f.db.Create(&models.ErrorLog{Level: "ERROR", Source: "a", Title: "old resolved", Message: "m", Resolved: true, CreatedAt: old}).Error)
	require.NoError(t, f.db.Create(&models.ErrorLog{Level: "ERROR", Source: "a", Title: "old open", Message: "m", CreatedAt: old}).Error)
	require.NoError(t, f.db.Create(&models.ErrorLog{Level: "ERROR", Source: "a", Title: "new resolved", Message: "m", Resolved: true}).Error)

	n, err := f.monitoring.CleanupOldData(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	logs, err := f.monitoring.GetRecentErrors(ctx, 10, false)
	require.NoError(t, err)
	assert.Len(t, logs, 2)
}

func TestSummary(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	f.createScheduled(t, "one", time.Hour)
	f.createScheduled(t, "two", time.Hour)
	_, err := f.posts.Create(ctx, CreatePostInput{Title: "draft", Content: "body"})
	require.NoError(t, err)
	require.NoError(t, f.monitoring.RecordError("ERROR", "publisher", "t", "m"))

	summary, err := f.monitoring.Summary(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.TotalPosts)
	assert.Equal(t, int64(2), summary.PostsByStatus[models.PostStatusScheduled])
	assert.Equal(t, int64(1), summary.PostsByStatus[models.PostStatusDraft])
	assert.Equal(t, int64(0), summary.PostsByStatus[models.PostStatusFailed])
	assert.Equal(t, int64(1), summary.UnresolvedErrorsCount)
	assert.Equal(t, 3, summary.ConnectedClients)
}

func TestStatsUpdaterSetsGauges(t *testing.T) {
	f := newFixture(t)
	f.createScheduled(t, "one", time.Hour)

	m := metrics.New(prometheus.NewRegistry())
	NewStatsUpdater(f.monitoring, m, zap.NewNop(), 30).Update(t.Context())

	assert.Equal(t, float64(1), testutil.ToFloat64(m.PostsByStatus.WithLabelValues("scheduled")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.PostsByStatus.WithLabelValues("posting")))
}
