package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifuryst/postpilot/internal/lifecycle"
	"github.com/ifuryst/postpilot/internal/models"
	"github.com/ifuryst/postpilot/internal/store"
	"github.com/ifuryst/postpilot/pkg/apperror"
)

func TestCreateDerivesStatus(t *testing.T) {
	f := newFixture(t)

	draft, err := f.posts.Create(t.Context(), CreatePostInput{Title: "Draft", Content: "body"})
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusDraft, draft.Status)

	scheduled := f.createScheduled(t, "Scheduled", time.Hour)
	assert.Equal(t, models.PostStatusScheduled, scheduled.Status)
	assert.Equal(t, f.now.Add(time.Hour), *scheduled.ScheduledTime)

	assert.Equal(t, []string{"post_updated", "post_updated"}, f.events.kinds())
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.posts.Create(t.Context(), CreatePostInput{Content: "body"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.posts.Create(t.Context(), CreatePostInput{Title: "t", Content: "body", ScheduledTime: f.at(-time.Minute)})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	assert.Empty(t, f.events.kinds())
}

func TestCreateNormalizesHashtags(t *testing.T) {
	f := newFixture(t)

	post, err := f.posts.Create(t.Context(), CreatePostInput{
		Title:    "Tags",
		Content:  "body",
		Hashtags: []string{"#Go", "go", " scheduling "},
	})
	require.NoError(t, err)

	found, err := f.posts.Get(t.Context(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Hashtags, found.Hashtags)
	assert.NotEmpty(t, found.Hashtags)
}

func TestUpdateScheduleRederivesStatus(t *testing.T) {
	f := newFixture(t)
	post := f.createScheduled(t, "Edit me", time.Hour)

	cleared, err := f.posts.Update(t.Context(), post.ID, UpdatePostInput{ScheduledTime: OptionalTime{Set: true}})
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusDraft, cleared.Status)
	assert.Nil(t, cleared.ScheduledTime)

	again, err := f.posts.Update(t.Context(), post.ID, UpdatePostInput{ScheduledTime: OptionalTime{Set: true, Value: f.at(2 * time.Hour)}})
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusScheduled, again.Status)
}

func TestUpdateWithoutScheduleKeepsStatus(t *testing.T) {
	f := newFixture(t)
	post := f.createScheduled(t, "Title", time.Hour)

	title := "New title"
	updated, err := f.posts.Update(t.Context(), post.ID, UpdatePostInput{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "New title", updated.Title)
	assert.Equal(t, models.PostStatusScheduled, updated.Status)
	assert.WithinDuration(t, *post.ScheduledTime, *updated.ScheduledTime, 0)
}

func TestOptionalTimeDistinguishesNullFromAbsent(t *testing.T) {
	var in UpdatePostInput
	require.NoError(t, jsonUnmarshal(`{"title":"x"}`, &in))
	assert.False(t, in.ScheduledTime.Set)

	in = UpdatePostInput{}
	require.NoError(t, jsonUnmarshal(`{"scheduledTime":null}`, &in))
	assert.True(t, in.ScheduledTime.Set)
	assert.Nil(t, in.ScheduledTime.Value)

	in = UpdatePostInput{}
	require.NoError(t, jsonUnmarshal(`{"scheduledTime":"2024-03-15T11:00:00Z"}`, &in))
	require.NotNil(t, in.ScheduledTime.Value)
	assert.Equal(t, 11, in.ScheduledTime.Value.Hour())
}

func TestDeleteBroadcasts(t *testing.T) {
	f := newFixture(t)
	post := f.createScheduled(t, "Gone", time.Hour)
	f.events.reset()

	require.NoError(t, f.posts.Delete(t.Context(), post.ID))
	assert.Equal(t, []string{"post_deleted"}, f.events.kinds())

	err := f.posts.Delete(t.Context(), post.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeNotFound))
}

func TestReportStatusFromPosting(t *testing.T) {
	f := newFixture(t)
	ok := f.createScheduled(t, "ok", time.Minute)
	bad := f.createScheduled(t, "bad", time.Minute)

	f.now = f.now.Add(2 * time.Minute)
	res, err := f.posts.PromoteDue(t.Context(), func(*models.Post) {})
	require.NoError(t, err)
	require.Equal(t, 2, res.Promoted)

	done, err := f.posts.ReportStatus(t.Context(), StatusReport{
		PostID:  ok.ID,
		Status:  models.PostStatusCompleted,
		PostURL: "https://www.linkedin.com/feed/update/1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusCompleted, done.Status)
	assert.Equal(t, "https://www.linkedin.com/feed/update/1", done.PostURL)
	assert.Nil(t, done.Error)

	failed, err := f.posts.ReportStatus(t.Context(), StatusReport{
		PostID: bad.ID,
		Status: models.PostStatusFailed,
		Error:  "session expired",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusFailed, failed.Status)
	require.NotNil(t, failed.Error)
	assert.Equal(t, "session expired", failed.Error.Message)
	assert.Equal(t, f.now, failed.Error.Timestamp)

	logs, err := f.monitoring.GetRecentErrors(t.Context(), 10, true)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, bad.ID, *logs[0].PostID)
}

func TestReportStatusRejectsInvalidTransitions(t *testing.T) {
	f := newFixture(t)
	post := f.createScheduled(t, "not posting", time.Hour)

	_, err := f.posts.ReportStatus(t.Context(), StatusReport{PostID: post.ID, Status: models.PostStatusCompleted})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))

	_, err = f.posts.ReportStatus(t.Context(), StatusReport{PostID: post.ID, Status: models.PostStatusPosting})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.posts.ReportStatus(t.Context(), StatusReport{PostID: "missing", Status: models.PostStatusFailed})
	assert.True(t, apperror.HasCode(err, apperror.CodeNotFound))

	found, err := f.posts.Get(t.Context(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusScheduled, found.Status)
}

func TestFailedPostRetriedWithNewTimeClearsError(t *testing.T) {
	f := newFixture(t)
	post := f.createScheduled(t, "retry", time.Minute)
	f.now = f.now.Add(time.Hour)
	_, err := f.posts.PromoteDue(t.Context(), func(*models.Post) {})
	require.NoError(t, err)
	_, err = f.posts.ReportStatus(t.Context(), StatusReport{PostID: post.ID, Status: models.PostStatusFailed, Error: "boom"})
	require.NoError(t, err)

	retried, err := f.posts.Update(t.Context(), post.ID, UpdatePostInput{ScheduledTime: OptionalTime{Set: true, Value: f.at(time.Hour)}})
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusScheduled, retried.Status)
	assert.Nil(t, retried.Error)
}

func TestRescheduleAppendsHistory(t *testing.T) {
	f := newFixture(t)
	post := f.createScheduled(t, "move", time.Minute)
	original := *post.ScheduledTime
	f.events.reset()

	first := f.now.Add(3 * time.Hour)
	moved, entry, err := f.posts.Reschedule(t.Context(), RescheduleInput{PostID: post.ID, NewTime: first})
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusRescheduled, moved.Status)
	assert.Equal(t, first, *moved.ScheduledTime)
	assert.WithinDuration(t, original, *moved.OriginalScheduledTime, 0)
	require.NotNil(t, entry)
	assert.Equal(t, lifecycle.DefaultRescheduleReason, entry.Reason)
	assert.WithinDuration(t, original, *entry.FromTime, 0)

	second := f.now.Add(5 * time.Hour)
	moved, entry, err = f.posts.Reschedule(t.Context(), RescheduleInput{PostID: post.ID, NewTime: second, Reason: "busy"})
	require.NoError(t, err)
	require.Len(t, moved.ReschedulingHistory, 2)
	assert.WithinDuration(t, first, *entry.FromTime, 0)
	assert.Equal(t, "busy", entry.Reason)
	assert.WithinDuration(t, original, *moved.OriginalScheduledTime, 0)

	found, err := f.posts.Get(t.Context(), post.ID)
	require.NoError(t, err)
	require.Len(t, found.ReschedulingHistory, 2)
	assert.WithinDuration(t, first, found.ReschedulingHistory[0].ToTime, 0)
	assert.WithinDuration(t, second, found.ReschedulingHistory[1].ToTime, 0)

	assert.Equal(t, []string{"post_rescheduled", "post_rescheduled"}, f.events.kinds())
}

func TestRescheduleRejectedForDraftAndCompleted(t *testing.T) {
	f := newFixture(t)
	draft, err := f.posts.Create(t.Context(), CreatePostInput{Title: "draft", Content: "body"})
	require.NoError(t, err)

	_, _, err = f.posts.Reschedule(t.Context(), RescheduleInput{PostID: draft.ID, NewTime: f.now.Add(time.Hour)})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))

	_, _, err = f.posts.Reschedule(t.Context(), RescheduleInput{PostID: draft.ID})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestEngagement(t *testing.T) {
	f := newFixture(t)
	post := f.createScheduled(t, "engage", time.Hour)

	updated, err := f.posts.UpdateEngagement(t.Context(), post.ID, EngagementCounts{Likes: 10, Comments: 2, Views: 300})
	require.NoError(t, err)
	assert.Equal(t, 10, updated.Engagement.Likes)
	require.NotNil(t, updated.Engagement.LastUpdated)

	lower, err := f.posts.UpdateEngagement(t.Context(), post.ID, EngagementCounts{Likes: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, lower.Engagement.Likes)
	assert.Equal(t, 0, lower.Engagement.Views)

	_, err = f.posts.UpdateEngagement(t.Context(), post.ID, EngagementCounts{Likes: -1})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	withEngager, err := f.posts.AddEngager(t.Context(), post.ID, EngagerInput{
		ProfileURL: "https://www.linkedin.com/in/ada",
		Name:       "Ada Lovelace",
		Type:       models.EngagerTypeLike,
	})
	require.NoError(t, err)
	require.Len(t, withEngager.Engagers, 1)
	assert.Equal(t, models.ConnectionPending, withEngager.Engagers[0].ConnectionStatus)

	_, err = f.posts.AddEngager(t.Context(), post.ID, EngagerInput{ProfileURL: "x", Type: "follow"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestPromoteDueIsIdempotent(t *testing.T) {
	f := newFixture(t)
	due := f.createScheduled(t, "due", time.Minute)
	f.createScheduled(t, "later", 3*time.Hour)
	f.now = f.now.Add(time.Hour)

	var delivered []string
	res, err := f.posts.PromoteDue(t.Context(), func(p *models.Post) { delivered = append(delivered, p.ID) })
	require.NoError(t, err)
	assert.Equal(t, PromoteResult{Due: 1, Promoted: 1}, res)
	assert.Equal(t, []string{due.ID}, delivered)

	res, err = f.posts.PromoteDue(t.Context(), func(p *models.Post) { delivered = append(delivered, p.ID) })
	require.NoError(t, err)
	assert.Equal(t, PromoteResult{}, res)
	assert.Len(t, delivered, 1)

	posting, err := f.posts.List(t.Context(), store.PostFilter{Status: models.PostStatusPosting})
	require.NoError(t, err)
	require.Len(t, posting, 1)
	assert.Equal(t, due.ID, posting[0].ID)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)

	_, err := f.posts.List(t.Context(), store.PostFilter{Status: "archived"})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
