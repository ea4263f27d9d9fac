package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifuryst/postpilot/internal/models"
)

func TestCacheListOrdersBySchedule(t *testing.T) {
	c := newPostCache()
	later := fixedNow.Add(2 * time.Hour)
	sooner := fixedNow.Add(time.Hour)

	c.put(models.Post{ID: "draft"})
	c.put(models.Post{ID: "later", ScheduledTime: &later})
	c.put(models.Post{ID: "sooner", ScheduledTime: &sooner})

	var ids []string
	for _, p := range c.list() {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"sooner", "later", "draft"}, ids)
}

func TestCacheMarkRescheduledKeepsOriginalTime(t *testing.T) {
	c := newPostCache()
	original := fixedNow.Add(-time.Minute)
	c.put(models.Post{ID: "p", Status: models.PostStatusPosting, ScheduledTime: &original})

	first := c.markRescheduled(models.Post{ID: "p"}, fixedNow.Add(time.Hour))
	second := c.markRescheduled(models.Post{ID: "p"}, fixedNow.Add(2*time.Hour))

	assert.Equal(t, models.PostStatusRescheduled, first.Status)
	require.NotNil(t, second.OriginalScheduledTime)
	assert.True(t, second.OriginalScheduledTime.Equal(original))
	assert.True(t, second.ScheduledTime.Equal(fixedNow.Add(2*time.Hour)))
	assert.True(t, c.isStale("p"))

	c.put(models.Post{ID: "p", Status: models.PostStatusRescheduled})
	assert.False(t, c.isStale("p"))
}

func TestCacheRemoveReportsPresence(t *testing.T) {
	c := newPostCache()
	c.put(models.Post{ID: "p"})

	assert.True(t, c.remove("p"))
	assert.False(t, c.remove("p"))
}
