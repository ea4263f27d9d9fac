package realtime

import (
	"github.com/ifuryst/postpilot/internal/models"
	"github.com/ifuryst/postpilot/internal/service"
)

// Notifier turns service events into hub broadcasts.
type Notifier struct {
	hub *Hub
}

var _ service.Events = (*Notifier)(nil)

func NewNotifier(hub *Hub) *Notifier {
	return &Notifier{hub: hub}
}

func (n *Notifier) PostDue(post *models.Post) {
	n.hub.Broadcast(newPostDue(post))
}

func (n *Notifier) PostUpdated(post *models.Post) {
	n.hub.Broadcast(newPostFrame(TypePostUpdated, post))
}

func (n *Notifier) PostDeleted(id string) {
	n.hub.Broadcast(PostDeleted{Type: TypePostDeleted, PostID: id})
}

func (n *Notifier) PostRescheduled(post *models.Post, entry *models.RescheduleEntry) {
	frame := PostRescheduledConfirmed{
		Type:   TypePostRescheduledConfirm,
		PostID: post.ID,
		Post:   post,
	}
	if entry != nil {
		frame.NewTime = entry.ToTime
		frame.OriginalTime = entry.FromTime
		frame.Reason = entry.Reason
	} else if post.ScheduledTime != nil {
		frame.NewTime = *post.ScheduledTime
	}
	n.hub.Broadcast(frame)
}

func (n *Notifier) ClientCount() int {
	return n.hub.ClientCount()
}
