package agent

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ifuryst/postpilot/internal/models"
	"github.com/ifuryst/postpilot/pkg/apperror"
)

type frame = map[string]any

// fakeServer accepts one agent at a time. reply, when set, returns the
// frames to answer each inbound request with.
type fakeServer struct {
	url      string
	received chan frame
	reply    func(frame) []frame

	mu   sync.Mutex
	conn *websocket.Conn
}

func newFakeServer(t *testing.T, reply func(frame) []frame) *fakeServer {
	t.Helper()

	fs := &fakeServer{received: make(chan frame, 100), reply: reply}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		fs.mu.Lock()
		fs.conn = conn
		fs.mu.Unlock()

		fs.push(frame{"type": "connection_status", "connected": true, "message": "Connected"})
		for {
			var msg frame
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			fs.received <- msg
			if fs.reply != nil {
				for _, out := range fs.reply(msg) {
					fs.push(out)
				}
			}
		}
	}))
	t.Cleanup(srv.Close)

	fs.url = "ws" + strings.TrimPrefix(srv.URL, "http")
	return fs
}

func (fs *fakeServer) push(f frame) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.conn != nil {
		_ = fs.conn.WriteJSON(f)
	}
}

// expect skips inbound frames until one of type typ arrives.
func (fs *fakeServer) expect(t *testing.T, typ string) frame {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case msg := <-fs.received:
			if msg["type"] == typ {
				return msg
			}
		case <-timeout:
			t.Fatalf("no %s frame received", typ)
			return nil
		}
	}
}

type fakePublisher struct {
	url   string
	err   error
	calls chan PublishContent
}

func newFakePublisher(url string, err error) *fakePublisher {
	return &fakePublisher{url: url, err: err, calls: make(chan PublishContent, 10)}
}

func (p *fakePublisher) GetPlatformName() string { return "fake" }

func (p *fakePublisher) Publish(_ context.Context, content PublishContent) (*PublishResult, error) {
	p.calls <- content
	if p.err != nil {
		return nil, p.err
	}
	return &PublishResult{URL: p.url, PublishedAt: time.Now()}, nil
}

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

func testConfig(url string) *Config {
	return &Config{
		ServerURL:            url,
		ConfirmTimeout:       200 * time.Millisecond,
		Timezone:             "UTC",
		ReconnectMaxInterval: 100 * time.Millisecond,
		SyncInterval:         time.Hour,
	}
}

func startAgent(t *testing.T, fs *fakeServer, pub Publisher, opts ...Option) *Agent {
	t.Helper()

	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	a, err := New(testConfig(fs.url), pub, zap.NewNop(), opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, a.Run(ctx))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	fs.expect(t, "get_posts")
	fs.expect(t, "client_ready")
	return a
}

func postFrame(typ, id string, status models.PostStatus) frame {
	return frame{"type": typ, "postId": id, "content": "Body", "post": frame{
		"id":            id,
		"title":         "Post " + id,
		"content":       "Body",
		"status":        status,
		"scheduledTime": fixedNow.Add(-time.Minute),
	}}
}

func waitForPost(t *testing.T, a *Agent, id string) models.Post {
	t.Helper()
	require.Eventually(t, func() bool {
		_, ok := a.Post(id)
		return ok
	}, 5*time.Second, 10*time.Millisecond)
	post, _ := a.Post(id)
	return post
}

func TestRescheduleTimesOutWithoutConfirmation(t *testing.T) {
	fs := newFakeServer(t, nil)
	a := startAgent(t, fs, newFakePublisher("", nil))

	fs.push(postFrame("post_updated", "p1", models.PostStatusPosting))
	post := waitForPost(t, a, "p1")

	start := time.Now()
	got, err := a.Reschedule(context.Background(), post)
	require.ErrorIs(t, err, ErrConfirmTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)

	sent := fs.expect(t, "post_rescheduled")
	assert.Equal(t, "p1", sent["postId"])
	assert.Equal(t, "2024-03-15T11:00:00Z", sent["newTime"])
	assert.Equal(t, "LinkedIn minimum scheduling time requirement", sent["reason"])

	assert.Equal(t, models.PostStatusRescheduled, got.Status)
	require.NotNil(t, got.ScheduledTime)
	assert.True(t, got.ScheduledTime.Equal(fixedNow.Add(time.Hour)))
	require.NotNil(t, got.OriginalScheduledTime)
	assert.True(t, a.cache.isStale("p1"))

	// Timing out asks the server for a fresh snapshot.
	fs.expect(t, "get_posts")
}

func TestRescheduleResolvesOnConfirmation(t *testing.T) {
	fs := newFakeServer(t, func(msg frame) []frame {
		if msg["type"] != "post_rescheduled" {
			return nil
		}
		confirmed := postFrame("post_rescheduled_confirmed", msg["postId"].(string), models.PostStatusRescheduled)
		confirmed["postId"] = msg["postId"]
		confirmed["newTime"] = msg["newTime"]
		return []frame{confirmed}
	})
	a := startAgent(t, fs, newFakePublisher("", nil))

	fs.push(postFrame("post_updated", "p1", models.PostStatusPosting))
	post := waitForPost(t, a, "p1")

	got, err := a.Reschedule(context.Background(), post)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusRescheduled, got.Status)
	assert.False(t, a.cache.isStale("p1"))
}

func TestRescheduleReturnsServerError(t *testing.T) {
	fs := newFakeServer(t, func(msg frame) []frame {
		if msg["type"] != "post_rescheduled" {
			return nil
		}
		return []frame{{
			"type":        "error",
			"message":     "Error processing post_rescheduled",
			"detail":      "Post not found: p1",
			"code":        "NOT_FOUND",
			"requestType": "post_rescheduled",
			"postId":      msg["postId"],
		}}
	})
	a := startAgent(t, fs, newFakePublisher("", nil))

	fs.push(postFrame("post_updated", "p1", models.PostStatusPosting))
	post := waitForPost(t, a, "p1")

	_, err := a.Reschedule(context.Background(), post)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeNotFound))
	assert.False(t, errors.Is(err, ErrConfirmTimeout))

	require.Eventually(t, func() bool {
		_, ok := a.Post("p1")
		return !ok
	}, 5*time.Second, 10*time.Millisecond)
}

func TestNotFoundErrorDropsCachedPost(t *testing.T) {
	fs := newFakeServer(t, nil)
	a := startAgent(t, fs, newFakePublisher("", nil))

	fs.push(postFrame("post_updated", "p1", models.PostStatusScheduled))
	fs.push(postFrame("post_updated", "p2", models.PostStatusScheduled))
	waitForPost(t, a, "p2")

	fs.push(frame{"type": "error", "code": "NOT_FOUND", "postId": "p1", "message": "Error processing post_status"})

	require.Eventually(t, func() bool {
		_, ok := a.Post("p1")
		return !ok
	}, 5*time.Second, 10*time.Millisecond)
	_, ok := a.Post("p2")
	assert.True(t, ok)
}

func TestPostsListReplacesCache(t *testing.T) {
	fs := newFakeServer(t, nil)
	a := startAgent(t, fs, newFakePublisher("", nil))

	fs.push(postFrame("post_updated", "old", models.PostStatusScheduled))
	waitForPost(t, a, "old")

	fs.push(frame{"type": "posts_list", "posts": []frame{
		{"id": "a", "title": "A", "content": "x", "status": "draft"},
		{"id": "b", "title": "B", "content": "y", "status": "scheduled"},
	}})

	require.Eventually(t, func() bool { return len(a.Posts()) == 2 }, 5*time.Second, 10*time.Millisecond)
	_, ok := a.Post("old")
	assert.False(t, ok)
}

func TestDuePostPublishedReportsCompleted(t *testing.T) {
	fs := newFakeServer(t, nil)
	pub := newFakePublisher("https://www.linkedin.com/feed/update/1", nil)
	startAgent(t, fs, pub)

	fs.push(postFrame("post_due", "p1", models.PostStatusPosting))

	content := <-pub.calls
	assert.Equal(t, "p1", content.ID)

	report := fs.expect(t, "post_status")
	assert.Equal(t, "p1", report["postId"])
	assert.Equal(t, "completed", report["status"])
	assert.Equal(t, "https://www.linkedin.com/feed/update/1", report["postUrl"])
}

func TestDuePostFromFlatFields(t *testing.T) {
	fs := newFakeServer(t, nil)
	pub := newFakePublisher("https://www.linkedin.com/feed/update/2", nil)
	a := startAgent(t, fs, pub)

	fs.push(frame{"type": "post_due", "postId": "p2", "content": "Flat body", "hashtags": []string{"#go"}})

	content := <-pub.calls
	assert.Equal(t, "p2", content.ID)
	assert.Equal(t, "Flat body", content.Content)
	assert.Equal(t, []string{"#go"}, content.Hashtags)

	report := fs.expect(t, "post_status")
	assert.Equal(t, "p2", report["postId"])
	assert.Equal(t, "completed", report["status"])

	post, ok := a.Post("p2")
	require.True(t, ok)
	assert.Equal(t, "Flat body", post.Content)
}

func TestDuePostFailureReportsFailed(t *testing.T) {
	fs := newFakeServer(t, nil)
	startAgent(t, fs, newFakePublisher("", errors.New("editor did not load")))

	fs.push(postFrame("post_due", "p1", models.PostStatusPosting))

	report := fs.expect(t, "post_status")
	assert.Equal(t, "failed", report["status"])
	assert.Equal(t, "editor did not load", report["error"])
}

func TestDuePostWithoutSlotIsRescheduled(t *testing.T) {
	fs := newFakeServer(t, nil)
	startAgent(t, fs, newFakePublisher("", ErrSlotUnavailable))

	fs.push(postFrame("post_due", "p1", models.PostStatusPosting))

	sent := fs.expect(t, "post_rescheduled")
	assert.Equal(t, "p1", sent["postId"])
	assert.Equal(t, "2024-03-15T11:00:00Z", sent["newTime"])
	assert.NotEmpty(t, sent["originalTime"])
}

func TestEncodeFrameFlattensPayload(t *testing.T) {
	data, err := encodeFrame("post_status", struct {
		PostID string `json:"postId"`
	}{PostID: "p1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"post_status","postId":"p1"}`, string(data))

	_, err = encodeFrame("post_status", []string{"x"})
	assert.Error(t, err)
}
