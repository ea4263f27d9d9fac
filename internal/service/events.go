package service

import (
	"github.com/ifuryst/postpilot/internal/models"
)

// Events is how services announce post changes to connected clients. The
// real-time hub provides the implementation.
type Events interface {
	PostDue(post *models.Post)
	PostUpdated(post *models.Post)
	PostDeleted(id string)
	PostRescheduled(post *models.Post, entry *models.RescheduleEntry)
	// ClientCount is the number of clients that would receive a broadcast.
	ClientCount() int
}

// ErrorRecorder persists failures that operators should see later.
type ErrorRecorder interface {
	RecordError(level, source, title, message string, options ...ErrorLogOption) error
}

type nopEvents struct{}

func (nopEvents) PostDue(*models.Post)                                   {}
func (nopEvents) PostUpdated(*models.Post)                               {}
func (nopEvents) PostDeleted(string)                                     {}
func (nopEvents) PostRescheduled(*models.Post, *models.RescheduleEntry) {}
func (nopEvents) ClientCount() int                                       { return 0 }

// NopEvents discards every event.
var NopEvents Events = nopEvents{}
