package service

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ifuryst/postpilot/internal/models"
	"github.com/ifuryst/postpilot/internal/store"
	"github.com/ifuryst/postpilot/internal/store/storetest"
)

type recordedEvent struct {
	kind  string
	post  models.Post
	id    string
	entry *models.RescheduleEntry
}

type recordingEvents struct {
	mu      sync.Mutex
	clients int
	events  []recordedEvent
}

func (r *recordingEvents) add(ev recordedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingEvents) PostDue(post *models.Post) {
	r.add(recordedEvent{kind: "post_due", post: *post, id: post.ID})
}

func (r *recordingEvents) PostUpdated(post *models.Post) {
	r.add(recordedEvent{kind: "post_updated", post: *post, id: post.ID})
}

func (r *recordingEvents) PostDeleted(id string) {
	r.add(recordedEvent{kind: "post_deleted", id: id})
}

func (r *recordingEvents) PostRescheduled(post *models.Post, entry *models.RescheduleEntry) {
	r.add(recordedEvent{kind: "post_rescheduled", post: *post, id: post.ID, entry: entry})
}

func (r *recordingEvents) ClientCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clients
}

func (r *recordingEvents) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.kind)
	}
	return out
}

func (r *recordingEvents) ofKind(kind string) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedEvent
	for _, ev := range r.events {
		if ev.kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recordingEvents) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type fixture struct {
	db         *gorm.DB
	store      *store.GormStore
	events     *recordingEvents
	monitoring *MonitoringService
	posts      *PostService
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := storetest.NewDB(t)
	st := store.NewGormStore(db)
	events := &recordingEvents{clients: 1}
	logger := zap.NewNop()
	monitoring := NewMonitoringService(db, st, logger)

	f := &fixture{
		db:         db,
		store:      st,
		events:     events,
		monitoring: monitoring,
		posts:      NewPostService(st, events, monitoring, nil, logger),
		now:        time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC),
	}
	f.posts.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) at(d time.Duration) *time.Time {
	t := f.now.Add(d)
	return &t
}

func (f *fixture) createScheduled(t *testing.T, title string, in time.Duration) *models.Post {
	t.Helper()
	post, err := f.posts.Create(t.Context(), CreatePostInput{
		Title:         title,
		Content:       "Content of " + title,
		ScheduledTime: f.at(in),
	})
	require.NoError(t, err)
	return post
}

func jsonUnmarshal(data string, v any) error {
	return json.Unmarshal([]byte(data), v)
}
