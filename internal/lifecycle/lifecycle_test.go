package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifuryst/postpilot/internal/models"
	"github.com/ifuryst/postpilot/pkg/apperror"
)

func TestNextAvailableTimeRollsOverToNineAM(t *testing.T) {
	now := time.Date(2024, 3, 15, 23, 30, 0, 0, time.Local)

	got := NextAvailableTime(now)

	assert.Equal(t, time.Date(2024, 3, 16, 9, 0, 0, 0, time.Local), got)
}

func TestNextAvailableTimeSameDay(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.Local)

	assert.Equal(t, time.Date(2024, 3, 15, 11, 0, 0, 0, time.Local), NextAvailableTime(now))
}

func TestNextAvailableTimeJustBeforeMidnight(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata not available")
	}
	now := time.Date(2024, 12, 31, 22, 59, 59, 0, loc)
	assert.Equal(t, time.Date(2024, 12, 31, 23, 59, 59, 0, loc), NextAvailableTime(now))

	now = time.Date(2024, 12, 31, 23, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2025, 1, 1, 9, 0, 0, 0, loc), NextAvailableTime(now))
}

func TestDeriveStatus(t *testing.T) {
	cases := []struct {
		name    string
		current models.PostStatus
		has     bool
		want    models.PostStatus
	}{
		{"draft gains schedule", models.PostStatusDraft, true, models.PostStatusScheduled},
		{"scheduled loses schedule", models.PostStatusScheduled, false, models.PostStatusDraft},
		{"scheduled keeps schedule", models.PostStatusScheduled, true, models.PostStatusScheduled},
		{"draft stays draft", models.PostStatusDraft, false, models.PostStatusDraft},
		{"failed retried", models.PostStatusFailed, true, models.PostStatusScheduled},
		{"completed cleared", models.PostStatusCompleted, false, models.PostStatusDraft},
		{"posting untouched", models.PostStatusPosting, true, models.PostStatusPosting},
		{"rescheduled untouched", models.PostStatusRescheduled, true, models.PostStatusRescheduled},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveStatus(tc.current, tc.has)
			assert.Equal(t, tc.want, got)
			// applying twice is the same as once
			assert.Equal(t, got, DeriveStatus(got, tc.has))
		})
	}
}

func TestTransitionTable(t *testing.T) {
	to, err := Transition(models.PostStatusScheduled, EventPromote)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPosting, to)

	to, err = Transition(models.PostStatusRescheduled, EventPromote)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusPosting, to)

	to, err = Transition(models.PostStatusPosting, EventReportSuccess)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusCompleted, to)

	to, err = Transition(models.PostStatusPosting, EventReportFailure)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusFailed, to)

	to, err = Transition(models.PostStatusPosting, EventReschedule)
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusRescheduled, to)
}

func TestTransitionRejectsUnknownMoves(t *testing.T) {
	for _, from := range []models.PostStatus{models.PostStatusDraft, models.PostStatusCompleted, models.PostStatusFailed} {
		_, err := Transition(from, EventPromote)
		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition), from)
	}

	_, err := Transition(models.PostStatusScheduled, EventReportSuccess)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))
}

func TestSourcesFor(t *testing.T) {
	assert.ElementsMatch(t, DueEligible, SourcesFor(EventPromote))
	assert.Equal(t, []models.PostStatus{models.PostStatusPosting}, SourcesFor(EventReportSuccess))
	assert.ElementsMatch(t,
		[]models.PostStatus{models.PostStatusScheduled, models.PostStatusPosting, models.PostStatusRescheduled},
		SourcesFor(EventReschedule))
}

func TestIsDue(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.True(t, IsDue(&models.Post{Status: models.PostStatusScheduled, ScheduledTime: &past}, now))
	assert.True(t, IsDue(&models.Post{Status: models.PostStatusScheduled, ScheduledTime: &now}, now))
	assert.True(t, IsDue(&models.Post{Status: models.PostStatusRescheduled, ScheduledTime: &past}, now))
	assert.False(t, IsDue(&models.Post{Status: models.PostStatusScheduled, ScheduledTime: &future}, now))
	assert.False(t, IsDue(&models.Post{Status: models.PostStatusPosting, ScheduledTime: &past}, now))
	assert.False(t, IsDue(&models.Post{Status: models.PostStatusScheduled}, now))
}
