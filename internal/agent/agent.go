// Package agent is the publishing client. It keeps a websocket session with
// the server open, publishes the posts the server marks due and reports the
// outcome back.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pquerna/otp/totp"
	"go.uber.org/zap"

	"github.com/ifuryst/postpilot/internal/lifecycle"
	"github.com/ifuryst/postpilot/internal/models"
	"github.com/ifuryst/postpilot/internal/realtime"
	"github.com/ifuryst/postpilot/internal/service"
	"github.com/ifuryst/postpilot/pkg/apperror"
	"github.com/ifuryst/postpilot/pkg/retry"
)

const (
	dialTimeout  = 15 * time.Second
	writeTimeout = 10 * time.Second
)

var (
	ErrNotConnected = errors.New("not connected to server")
	// ErrConfirmTimeout is returned by Reschedule when the server did not
	// confirm in time. The post is kept locally as rescheduled.
	ErrConfirmTimeout = errors.New("reschedule confirmation timed out")
)

type Agent struct {
	cfg       *Config
	publisher Publisher
	feed      ReactorFeed
	connector Connector
	logger    *zap.Logger
	loc       *time.Location
	now       func() time.Time

	connMu  sync.RWMutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	cache   *postCache
	waiters *waiters
	queue   *dueQueue
}

type Option func(*Agent)

// WithOutreach enables RunOutreach and, when OutreachInterval is set, the
// periodic outreach loop.
func WithOutreach(feed ReactorFeed, connector Connector) Option {
	return func(a *Agent) {
		a.feed = feed
		a.connector = connector
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Agent) {
		a.now = now
	}
}

func New(cfg *Config, publisher Publisher, logger *zap.Logger, opts ...Option) (*Agent, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &Agent{
		cfg:       cfg,
		publisher: publisher,
		logger:    logger,
		loc:       loc,
		now:       time.Now,
		cache:     newPostCache(),
		waiters:   newWaiters(),
		queue:     newDueQueue(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Run keeps a session open until ctx is done, reconnecting with backoff.
func (a *Agent) Run(ctx context.Context) error {
	go a.processDue(ctx)
	if a.cfg.OutreachInterval > 0 && a.feed != nil && a.connector != nil {
		go a.outreachLoop(ctx)
	}

	for {
		conn, err := a.connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		err = a.session(ctx, conn)
		if ctx.Err() != nil {
			return nil
		}
		a.logger.Warn("Connection lost, reconnecting", zap.Error(err))
	}
}

func (a *Agent) Connected() bool {
	a.connMu.RLock()
	defer a.connMu.RUnlock()
	return a.conn != nil
}

// Posts returns the cached posts ordered by scheduled time.
func (a *Agent) Posts() []models.Post {
	return a.cache.list()
}

func (a *Agent) Post(id string) (models.Post, bool) {
	return a.cache.get(id)
}

func (a *Agent) connect(ctx context.Context) (*websocket.Conn, error) {
	maxInterval := a.cfg.ReconnectMaxInterval
	if maxInterval <= 0 {
		maxInterval = 30 * time.Second
	}
	policy := retry.Config{
		InitialInterval: minDuration(time.Second, maxInterval),
		MaxInterval:     maxInterval,
		Multiplier:      2,
	}

	var conn *websocket.Conn
	err := retry.Do(ctx, a.logger, "connect", func() error {
		c, err := a.dial(ctx)
		if err != nil {
			return err
		}
		conn = c
		return nil
	}, policy)
	return conn, err
}

func (a *Agent) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if a.cfg.TOTPSecret != "" {
		code, err := totp.GenerateCode(a.cfg.TOTPSecret, time.Now())
		if err != nil {
			return nil, retry.Permanent(fmt.Errorf("failed to generate one-time password: %w", err))
		}
		header.Set(service.OTPHeader, code)
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, a.cfg.ServerURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %d)", a.cfg.ServerURL, err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial %s: %w", a.cfg.ServerURL, err)
	}
	return conn, nil
}

func (a *Agent) session(ctx context.Context, conn *websocket.Conn) error {
	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-sessCtx.Done()
		conn.Close()
	}()

	a.setConn(conn)
	defer a.setConn(nil)

	a.logger.Info("Connected to server", zap.String("url", a.cfg.ServerURL))

	if err := a.send(realtime.TypeGetPosts, realtime.GetPostsRequest{}); err != nil {
		return err
	}
	if err := a.send(realtime.TypeClientReady, realtime.ClientReadyRequest{}); err != nil {
		return err
	}

	go a.syncLoop(sessCtx)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		a.handleFrame(data)
	}
}

func (a *Agent) setConn(conn *websocket.Conn) {
	a.connMu.Lock()
	a.conn = conn
	a.connMu.Unlock()
}

func (a *Agent) syncLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.requestSync()
		}
	}
}

func (a *Agent) requestSync() {
	if err := a.send(realtime.TypeGetPosts, realtime.GetPostsRequest{}); err != nil {
		a.logger.Debug("Failed to request post sync", zap.Error(err))
	}
}

// send writes one request frame. The payload's fields sit next to "type".
func (a *Agent) send(t realtime.MessageType, payload any) error {
	data, err := encodeFrame(t, payload)
	if err != nil {
		return err
	}

	a.connMu.RLock()
	conn := a.conn
	a.connMu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func encodeFrame(t realtime.MessageType, payload any) ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, fmt.Errorf("payload for %s is not an object: %w", t, err)
		}
	}
	typ, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	fields["type"] = typ
	return json.Marshal(fields)
}

// request sends a frame and waits for the first inbound frame match accepts.
// An accepted error frame is returned as an error.
func (a *Agent) request(ctx context.Context, t realtime.MessageType, payload any, match func(*inbound) bool) (*inbound, error) {
	ch, cancel := a.waiters.add(match)
	defer cancel()

	if err := a.send(t, payload); err != nil {
		return nil, err
	}

	select {
	case in := <-ch:
		if in.Type == realtime.TypeError {
			return in, in.err()
		}
		return in, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *Agent) handleFrame(data []byte) {
	var in inbound
	if err := json.Unmarshal(data, &in); err != nil {
		a.logger.Warn("Dropping malformed frame", zap.Error(err))
		return
	}

	a.waiters.deliver(&in)

	switch in.Type {
	case realtime.TypeConnectionStatus:
		a.logger.Info("Server acknowledged connection", zap.String("message", in.Message))
	case realtime.TypePostsList:
		a.cache.replace(in.Posts)
		a.logger.Debug("Post cache synced", zap.Int("posts", len(in.Posts)))
	case realtime.TypePostDue:
		post, ok := a.duePost(&in)
		if !ok {
			a.logger.Warn("Dropping post_due without a post id")
			return
		}
		a.cache.put(post)
		a.queue.push(post)
	case realtime.TypePostUpdated, realtime.TypePostRescheduledConfirm:
		if in.Post != nil {
			a.cache.put(*in.Post)
		}
	case realtime.TypePostDeleted:
		a.cache.remove(in.PostID)
	case realtime.TypePostStatusUpdated:
		a.cache.setStatus(in.PostID, in.Status)
	case realtime.TypeClientReadyAck:
		a.logger.Info("Client ready acknowledged", zap.Int("due_posts", in.DuePosts))
	case realtime.TypeError:
		a.logger.Warn("Server reported an error",
			zap.String("code", string(in.Code)),
			zap.String("request_type", string(in.RequestType)),
			zap.String("post_id", in.PostID),
			zap.String("detail", in.Detail))
		if in.Code == apperror.CodeNotFound && in.PostID != "" && a.cache.remove(in.PostID) {
			a.logger.Info("Dropped post unknown to server", zap.String("post_id", in.PostID))
		}
	}
}

func (a *Agent) processDue(ctx context.Context) {
	for {
		post, ok := a.queue.pop(ctx)
		if !ok {
			return
		}
		a.handleDue(ctx, post)
	}
}

func (a *Agent) handleDue(ctx context.Context, post models.Post) {
	logger := a.logger.With(zap.String("post_id", post.ID))

	result, err := a.publisher.Publish(ctx, FromPost(&post))
	switch {
	case errors.Is(err, ErrSlotUnavailable):
		logger.Info("Publishing slot unavailable, rescheduling")
		if _, err := a.Reschedule(ctx, post); err != nil {
			logger.Warn("Reschedule incomplete", zap.Error(err))
		}
	case err != nil:
		logger.Error("Publish failed", zap.Error(err))
		a.reportStatus(realtime.PostStatusRequest{
			PostID: post.ID,
			Status: models.PostStatusFailed,
			Error:  err.Error(),
		})
	default:
		logger.Info("Post published", zap.String("url", result.URL))
		a.reportStatus(realtime.PostStatusRequest{
			PostID:  post.ID,
			Status:  models.PostStatusCompleted,
			PostURL: result.URL,
		})
	}
}

func (a *Agent) reportStatus(req realtime.PostStatusRequest) {
	if err := a.send(realtime.TypePostStatus, req); err != nil {
		a.logger.Error("Failed to report post status",
			zap.String("post_id", req.PostID),
			zap.String("status", string(req.Status)),
			zap.Error(err))
	}
}

// Reschedule moves post to the next available slot and waits, for at most
// ConfirmTimeout, for the server to confirm. Without a confirmation the post
// is kept locally as rescheduled, flagged stale and a sync is requested.
func (a *Agent) Reschedule(ctx context.Context, post models.Post) (models.Post, error) {
	newTime := lifecycle.NextAvailableTime(a.now().In(a.loc))
	req := realtime.PostRescheduledRequest{
		PostID:       post.ID,
		NewTime:      newTime,
		OriginalTime: post.ScheduledTime,
		Reason:       lifecycle.DefaultRescheduleReason,
	}

	waitCtx, cancel := context.WithTimeout(ctx, a.cfg.ConfirmTimeout)
	defer cancel()

	in, err := a.request(waitCtx, realtime.TypePostRescheduled, req, func(in *inbound) bool {
		if in.PostID != post.ID {
			return false
		}
		return in.Type == realtime.TypePostRescheduledConfirm ||
			(in.Type == realtime.TypeError && in.RequestType == realtime.TypePostRescheduled)
	})

	switch {
	case err == nil:
		if in.Post != nil {
			return *in.Post, nil
		}
		return a.cache.markRescheduled(post, newTime), nil
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		local := a.cache.markRescheduled(post, newTime)
		a.logger.Warn("Reschedule not confirmed, will reconcile",
			zap.String("post_id", post.ID),
			zap.Time("new_time", newTime),
			zap.Duration("timeout", a.cfg.ConfirmTimeout))
		a.requestSync()
		return local, ErrConfirmTimeout
	default:
		return post, err
	}
}

func minDuration(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

// duePost resolves a post_due frame. The flat postId, content and hashtags
// fields win over the snapshot and the cached copy.
func (a *Agent) duePost(in *inbound) (models.Post, bool) {
	var post models.Post
	if in.Post != nil {
		post = *in.Post
	} else if cached, ok := a.cache.get(in.PostID); ok {
		post = cached
	}
	if in.PostID != "" {
		post.ID = in.PostID
	}
	if post.ID == "" {
		return models.Post{}, false
	}
	if in.Content != "" {
		post.Content = in.Content
	}
	if in.Hashtags != nil {
		post.Hashtags = in.Hashtags
	}
	post.Status = models.PostStatusPosting
	return post, true
}

// inbound is the union of every server frame the agent reads.
type inbound struct {
	Type        realtime.MessageType      `json:"type"`
	PostID      string                    `json:"postId"`
	MessageID   string                    `json:"messageId"`
	RequestType realtime.MessageType      `json:"requestType"`
	Code        apperror.Code             `json:"code"`
	Message     string                    `json:"message"`
	Detail      string                    `json:"detail"`
	Status      models.PostStatus         `json:"status"`
	Content     string                    `json:"content"`
	Hashtags    models.StringArray        `json:"hashtags"`
	Post        *models.Post              `json:"post"`
	Posts       []models.Post             `json:"posts"`
	Profile     *models.EngagementProfile `json:"profile"`
	Created     bool                      `json:"created"`
	Existing    []string                  `json:"existing"`
	NotExisting []string                  `json:"notExisting"`
	DuePosts    int                       `json:"duePosts"`
}

func (in *inbound) err() error {
	detail := in.Detail
	if detail == "" {
		detail = in.Message
	}
	code := in.Code
	if code == "" {
		code = apperror.CodeInternal
	}
	return apperror.New(code, detail)
}

type waiter struct {
	match func(*inbound) bool
	ch    chan *inbound
}

// waiters routes inbound frames to pending requests. A waiter receives at
// most one frame.
type waiters struct {
	mu      sync.Mutex
	next    uint64
	pending map[uint64]*waiter
}

func newWaiters() *waiters {
	return &waiters{pending: make(map[uint64]*waiter)}
}

func (w *waiters) add(match func(*inbound) bool) (<-chan *inbound, func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.next
	w.next++
	wt := &waiter{match: match, ch: make(chan *inbound, 1)}
	w.pending[id] = wt

	return wt.ch, func() {
		w.mu.Lock()
		delete(w.pending, id)
		w.mu.Unlock()
	}
}

func (w *waiters) deliver(in *inbound) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for id, wt := range w.pending {
		if wt.match(in) {
			wt.ch <- in
			delete(w.pending, id)
		}
	}
}

// dueQueue hands due posts from the read loop to the publishing goroutine
// without ever blocking the reader.
type dueQueue struct {
	mu     sync.Mutex
	items  []models.Post
	signal chan struct{}
}

func newDueQueue() *dueQueue {
	return &dueQueue{signal: make(chan struct{}, 1)}
}

func (q *dueQueue) push(post models.Post) {
	q.mu.Lock()
	q.items = append(q.items, post)
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *dueQueue) pop(ctx context.Context) (models.Post, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			post := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return post, true
		}
		q.mu.Unlock()

		select {
		case <-q.signal:
		case <-ctx.Done():
			return models.Post{}, false
		}
	}
}
