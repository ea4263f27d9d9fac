package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ifuryst/postpilot/internal/lifecycle"
	"github.com/ifuryst/postpilot/internal/metrics"
	"github.com/ifuryst/postpilot/internal/models"
	"github.com/ifuryst/postpilot/internal/store"
	"github.com/ifuryst/postpilot/pkg/apperror"
	"github.com/ifuryst/postpilot/pkg/util"
)

// PostService applies the post lifecycle on top of the post store and
// announces every change through Events.
type PostService struct {
	store   store.PostStore
	events  Events
	errors  ErrorRecorder
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewPostService(st store.PostStore, events Events, errors ErrorRecorder, m *metrics.Metrics, logger *zap.Logger) *PostService {
	if events == nil {
		events = NopEvents
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &PostService{
		store:   st,
		events:  events,
		errors:  errors,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *PostService) clock() time.Time {
	return s.now().UTC()
}

type CreatePostInput struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	Hashtags      []string   `json:"hashtags"`
	ScheduledTime *time.Time `json:"scheduledTime"`
}

// OptionalTime tells an absent JSON key apart from an explicit null.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

// UpdatePostInput is a partial update; nil fields are left alone.
type UpdatePostInput struct {
	Title         *string      `json:"title"`
	Content       *string      `json:"content"`
	Hashtags      *[]string    `json:"hashtags"`
	ScheduledTime OptionalTime `json:"scheduledTime"`
}

type StatusReport struct {
	PostID  string            `json:"postId"`
	Status  models.PostStatus `json:"status"`
	PostURL string            `json:"postUrl"`
	Error   string            `json:"error"`
}

type RescheduleInput struct {
	PostID       string     `json:"postId"`
	NewTime      time.Time  `json:"newTime"`
	OriginalTime *time.Time `json:"originalTime"`
	Reason       string     `json:"reason"`
}

type EngagementCounts struct {
	Likes    int `json:"likes"`
	Comments int `json:"comments"`
	Shares   int `json:"shares"`
	Views    int `json:"views"`
}

type EngagerInput struct {
	ProfileURL string             `json:"profileUrl"`
	Name       string             `json:"name"`
	Type       models.EngagerType `json:"type"`
}

func (s *PostService) Create(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" {
		return nil, apperror.Validation("title is required")
	}
	if content == "" {
		return nil, apperror.Validation("content is required")
	}

	post := &models.Post{
		ID:       strings.TrimSpace(in.ID),
		Title:    title,
		Content:  content,
		Hashtags: models.StringArray(util.NormalizeHashtags(in.Hashtags)),
	}

	if in.ScheduledTime != nil {
		at, err := s.futureTime(*in.ScheduledTime)
		if err != nil {
			return nil, err
		}
		post.ScheduledTime = &at
	}
	post.Status = lifecycle.DeriveStatus(models.PostStatusDraft, post.HasSchedule())

	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("Post created",
		zap.String("post_id", post.ID),
		zap.String("status", string(post.Status)))
	s.events.PostUpdated(post)
	return post, nil
}

// Update is the editing path. Writing scheduledTime re-derives the status.
func (s *PostService) Update(ctx context.Context, id string, in UpdatePostInput) (*models.Post, error) {
	var scheduled *time.Time
	if in.ScheduledTime.Set && in.ScheduledTime.Value != nil {
		at, err := s.futureTime(*in.ScheduledTime.Value)
		if err != nil {
			return nil, err
		}
		scheduled = &at
	}

	var from models.PostStatus
	post, err := s.store.UpdatePost(ctx, id, nil, func(p *models.Post) error {
		from = p.Status

		if in.Title != nil {
			title := strings.TrimSpace(*in.Title)
			if title == "" {
				return apperror.Validation("title cannot be empty")
			}
			p.Title = title
		}
		if in.Content != nil {
			content := strings.TrimSpace(*in.Content)
			if content == "" {
				return apperror.Validation("content cannot be empty")
			}
			p.Content = content
		}
		if in.Hashtags != nil {
			p.Hashtags = models.StringArray(util.NormalizeHashtags(*in.Hashtags))
		}
		if in.ScheduledTime.Set {
			p.ScheduledTime = scheduled
			setStatus(p, lifecycle.DeriveStatus(p.Status, p.HasSchedule()))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(from, post.Status)
	s.events.PostUpdated(post)
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeletePost(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Post deleted", zap.String("post_id", id))
	s.events.PostDeleted(id)
	return nil
}

func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	return s.store.FindPost(ctx, id)
}

func (s *PostService) List(ctx context.Context, filter store.PostFilter) ([]models.Post, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperror.Validation("unknown status %q", filter.Status)
	}
	return s.store.ListPosts(ctx, filter)
}

// ReportStatus records the outcome a client observed for a posting post.
func (s *PostService) ReportStatus(ctx context.Context, in StatusReport) (*models.Post, error) {
	if in.PostID == "" {
		return nil, apperror.Validation("postId is required")
	}

	var ev lifecycle.Event
	switch in.Status {
	case models.PostStatusCompleted:
		ev = lifecycle.EventReportSuccess
	case models.PostStatusFailed:
		ev = lifecycle.EventReportFailure
	default:
		return nil, apperror.Validation("status must be %q or %q, got %q",
			models.PostStatusCompleted, models.PostStatusFailed, in.Status)
	}

	now := s.clock()
	var from models.PostStatus
	post, err := s.store.UpdatePost(ctx, in.PostID, lifecycle.SourcesFor(ev), func(p *models.Post) error {
		from = p.Status
		to, err := lifecycle.Transition(p.Status, ev)
		if err != nil {
			return err
		}
		setStatus(p, to)

		if ev == lifecycle.EventReportSuccess {
			p.PostURL = strings.TrimSpace(in.PostURL)
			return nil
		}

		message := strings.TrimSpace(in.Error)
		if message == "" {
			message = "publication failed"
		}
		p.Error = &models.PostError{Message: message, Timestamp: now}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransition(from, post.Status)
	if post.Status == models.PostStatusFailed {
		s.recordFailure(post)
	}

	s.logger.Info("Post status reported",
		zap.String("post_id", post.ID),
		zap.String("status", string(post.Status)),
		zap.String("post_url", post.PostURL))
	s.events.PostUpdated(post)
	return post, nil
}

// Reschedule moves a post to a new time. Any new time is accepted; the
// previous one is kept in the history.
func (s *PostService) Reschedule(ctx context.Context, in RescheduleInput) (*models.Post, *models.RescheduleEntry, error) {
	if in.PostID == "" {
		return nil, nil, apperror.Validation("postId is required")
	}
	if in.NewTime.IsZero() {
		return nil, nil, apperror.Validation("newTime is required")
	}

	reason := strings.TrimSpace(in.Reason)
	if reason == "" {
		reason = lifecycle.DefaultRescheduleReason
	}
	newTime := in.NewTime.UTC()
	now := s.clock()

	var from models.PostStatus
	post, err := s.store.UpdatePost(ctx, in.PostID, lifecycle.SourcesFor(lifecycle.EventReschedule), func(p *models.Post) error {
		from = p.Status
		to, err := lifecycle.Transition(p.Status, lifecycle.EventReschedule)
		if err != nil {
			return err
		}

		fromTime := p.ScheduledTime
		if fromTime == nil && in.OriginalTime != nil {
			t := in.OriginalTime.UTC()
			fromTime = &t
		}
		if p.OriginalScheduledTime == nil && fromTime != nil {
			t := *fromTime
			p.OriginalScheduledTime = &t
		}

		p.ReschedulingHistory = append(p.ReschedulingHistory, models.RescheduleEntry{
			FromTime:  fromTime,
			ToTime:    newTime,
			Reason:    reason,
			Timestamp: now,
		})
		p.ScheduledTime = &newTime
		setStatus(p, to)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	entry := post.LatestReschedule()
	s.recordTransition(from, post.Status)
	s.logger.Info("Post rescheduled",
		zap.String("post_id", post.ID),
		zap.Time("new_time", newTime),
		zap.String("reason", reason),
		zap.Int("reschedules", len(post.ReschedulingHistory)))
	s.events.PostRescheduled(post, entry)
	return post, entry, nil
}

// UpdateEngagement overwrites the counters with the reported values.
func (s *PostService) UpdateEngagement(ctx context.Context, id string, counts EngagementCounts) (*models.Post, error) {
	if counts.Likes < 0 || counts.Comments < 0 || counts.Shares < 0 || counts.Views < 0 {
		return nil, apperror.Validation("engagement counters cannot be negative")
	}

	now := s.clock()
	post, err := s.store.UpdatePost(ctx, id, nil, func(p *models.Post) error {
		p.Engagement = models.Engagement{
			Likes:       counts.Likes,
			Comments:    counts.Comments,
			Shares:      counts.Shares,
			Views:       counts.Views,
			LastUpdated: &now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.PostUpdated(post)
	return post, nil
}

func (s *PostService) AddEngager(ctx context.Context, id string, in EngagerInput) (*models.Post, error) {
	profileURL := strings.TrimSpace(in.ProfileURL)
	if profileURL == "" {
		return nil, apperror.Validation("engager profileUrl is required")
	}
	if !in.Type.Valid() {
		return nil, apperror.Validation("unknown engager type %q", in.Type)
	}

	now := s.clock()
	post, err := s.store.UpdatePost(ctx, id, nil, func(p *models.Post) error {
		p.Engagers = append(p.Engagers, models.Engager{
			ProfileURL:       profileURL,
			Name:             strings.TrimSpace(in.Name),
			Type:             in.Type,
			ConnectionStatus: models.ConnectionPending,
			FollowUpStatus:   models.FollowUpPending,
			Timestamp:        now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.PostUpdated(post)
	return post, nil
}

// PromoteResult summarizes one pass over the due posts.
type PromoteResult struct {
	Due      int
	Promoted int
	Failed   int
}

// PromoteDue promotes every due post to posting and hands each promoted
// post to deliver. A failure on one post is recorded and the pass goes on.
func (s *PostService) PromoteDue(ctx context.Context, deliver func(*models.Post)) (PromoteResult, error) {
	now := s.clock()

	due, err := s.store.FindDuePosts(ctx, now)
	if err != nil {
		s.metrics.SweepFailures.WithLabelValues("find").Inc()
		return PromoteResult{}, err
	}

	result := PromoteResult{Due: len(due)}
	for i := range due {
		post := &due[i]
		if err := ctx.Err(); err != nil {
			return result, err
		}

		promoted, err := s.store.PromotePost(ctx, post.ID, now)
		if err != nil {
			result.Failed++
			s.metrics.SweepFailures.WithLabelValues("promote").Inc()
			s.logger.Error("Failed to promote due post", zap.String("post_id", post.ID), zap.Error(err))
			s.recordError("detector", "Failed to promote due post", err, post.ID)
			continue
		}
		if !promoted {
			// someone else moved it first
			continue
		}

		from := post.Status
		post.Status = models.PostStatusPosting
		post.Version++
		result.Promoted++
		s.metrics.PostsPromoted.Inc()
		s.recordTransition(from, post.Status)

		deliver(post)
	}

	return result, nil
}

func (s *PostService) futureTime(t time.Time) (time.Time, error) {
	t = t.UTC()
	if !t.After(s.clock()) {
		return time.Time{}, apperror.Validation("scheduledTime must be in the future")
	}
	return t, nil
}

// setStatus changes p's status; leaving failed clears the stored error.
func setStatus(p *models.Post, to models.PostStatus) {
	p.Status = to
	if to != models.PostStatusFailed {
		p.Error = nil
	}
}

func (s *PostService) recordTransition(from, to models.PostStatus) {
	if from == "" || from == to {
		return
	}
	s.metrics.PostTransitions.WithLabelValues(string(from), string(to)).Inc()
}

func (s *PostService) recordFailure(post *models.Post) {
	if s.errors == nil || post.Error == nil {
		return
	}
	if err := s.errors.RecordError("ERROR", "publisher", "Post publication failed", post.Error.Message,
		WithPost(post.ID),
		WithContext(map[string]interface{}{"title": post.Title}),
	); err != nil {
		s.logger.Warn("Failed to record publication error", zap.Error(err))
	}
}

func (s *PostService) recordError(source, title string, cause error, postID string) {
	if s.errors == nil {
		return
	}
	if err := s.errors.RecordError("ERROR", source, title, cause.Error(), WithPost(postID)); err != nil {
		s.logger.Warn("Failed to record error", zap.String("source", source), zap.Error(err))
	}
}
