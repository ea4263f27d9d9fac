// Package lifecycle holds the rules a post follows from draft to completion.
// Everything here is pure: callers load a post, ask lifecycle what the next
// state is, and persist the answer with a conditional update.
package lifecycle

import (
	"time"

	"github.com/ifuryst/postpilot/internal/models"
	"github.com/ifuryst/postpilot/pkg/apperror"
)

type Event string

const (
	// EventPromote is fired by the due-post detector.
	EventPromote       Event = "promote"
	EventReportSuccess Event = "report_success"
	EventReportFailure Event = "report_failure"
	EventReschedule    Event = "reschedule"
)

// DefaultRescheduleReason is recorded when a client does not give one.
const DefaultRescheduleReason = "LinkedIn minimum scheduling time requirement"

// DueEligible lists the statuses the detector may promote to posting.
var DueEligible = []models.PostStatus{
	models.PostStatusScheduled,
	models.PostStatusRescheduled,
}

var transitions = map[models.PostStatus]map[Event]models.PostStatus{
	models.PostStatusScheduled: {
		EventPromote:    models.PostStatusPosting,
		EventReschedule: models.PostStatusRescheduled,
	},
	models.PostStatusPosting: {
		EventReportSuccess: models.PostStatusCompleted,
		EventReportFailure: models.PostStatusFailed,
		EventReschedule:    models.PostStatusRescheduled,
	},
	models.PostStatusRescheduled: {
		EventPromote:    models.PostStatusPosting,
		EventReschedule: models.PostStatusRescheduled,
	},
}

// Transition returns the status reached from `from` on ev, or an
// invalid-transition error.
func Transition(from models.PostStatus, ev Event) (models.PostStatus, error) {
	if to, ok := transitions[from][ev]; ok {
		return to, nil
	}
	return "", apperror.InvalidTransition("cannot %s a post in status %q", ev, from)
}

// SourcesFor lists every status from which ev is accepted. Stores use it as
// the expected-status guard of a conditional update.
func SourcesFor(ev Event) []models.PostStatus {
	var sources []models.PostStatus
	for _, from := range models.AllPostStatuses {
		if _, ok := transitions[from][ev]; ok {
			sources = append(sources, from)
		}
	}
	return sources
}

// DeriveStatus is applied on every edit of a post's schedule. Clearing the
// schedule always returns the post to draft; setting one schedules a draft
// or a failed post. Any other status is left alone.
func DeriveStatus(current models.PostStatus, hasScheduledTime bool) models.PostStatus {
	if !hasScheduledTime {
		return models.PostStatusDraft
	}
	switch current {
	case models.PostStatusDraft, models.PostStatusFailed, "":
		return models.PostStatusScheduled
	}
	return current
}

// IsDue reports whether the detector should promote p at now.
func IsDue(p *models.Post, now time.Time) bool {
	if p.ScheduledTime == nil || p.ScheduledTime.After(now) {
		return false
	}
	for _, st := range DueEligible {
		if p.Status == st {
			return true
		}
	}
	return false
}

// NextAvailableTime is the slot a client asks for when a due post cannot be
// published right away: one hour from now, or 09:00 on the following day if
// that hour crosses midnight in now's location.
func NextAvailableTime(now time.Time) time.Time {
	next := now.Add(time.Hour)

	ny, nm, nd := now.Date()
	y, m, d := next.Date()
	if y == ny && m == nm && d == nd {
		return next
	}

	return time.Date(y, m, d, 9, 0, 0, 0, now.Location())
}
