// Package realtime is the websocket side of the server: the hub that tracks
// connected clients, the typed wire frames and the request handlers.
package realtime

import (
	"time"

	"github.com/ifuryst/postpilot/internal/models"
)

type MessageType string

// Client to server.
const (
	TypeGetPosts               MessageType = "get_posts"
	TypeCheckProfile           MessageType = "check_profile"
	TypeCheckProfilesBatch     MessageType = "check_profiles_batch"
	TypeSaveProfile            MessageType = "save_profile"
	TypeUpdateConnectionStatus MessageType = "update_connection_status"
	TypeUpdateFollowUpStatus   MessageType = "update_followup_status"
	TypePostStatus             MessageType = "post_status"
	TypePostRescheduled        MessageType = "post_rescheduled"
	TypeSaveProfileURL         MessageType = "save_profile_url"
	TypeGetProfileURL          MessageType = "get_profile_url"
	TypeEngagementUpdate       MessageType = "engagement_update"
	TypeNewEngager             MessageType = "new_engager"
	TypeGenerateMessage        MessageType = "generate_message"
	TypeClientReady            MessageType = "client_ready"
)

// Server to client.
const (
	TypeConnectionStatus        MessageType = "connection_status"
	TypeError                   MessageType = "error"
	TypePostDue                 MessageType = "post_due"
	TypePostUpdated             MessageType = "post_updated"
	TypePostDeleted             MessageType = "post_deleted"
	TypePostRescheduledConfirm  MessageType = "post_rescheduled_confirmed"
	TypePostsList               MessageType = "posts_list"
	TypeProfileStatus           MessageType = "profile_status"
	TypeProfilesStatusBatch     MessageType = "profiles_status_batch"
	TypeProfileSaved            MessageType = "profile_saved"
	TypeConnectionStatusUpdated MessageType = "connection_status_updated"
	TypeFollowUpStatusUpdated   MessageType = "followup_status_updated"
	TypePostStatusUpdated       MessageType = "post_status_updated"
	TypeProfileURLSaved         MessageType = "profile_url_saved"
	TypeProfileURLRetrieved     MessageType = "profile_url_retrieved"
	TypeEngagementUpdated       MessageType = "engagement_updated"
	TypeEngagerAdded            MessageType = "engager_added"
	TypeMessageGenerated        MessageType = "message_generated"
	TypeClientReadyAck          MessageType = "client_ready_ack"
)

// Frame is implemented by every outbound message.
type Frame interface {
	FrameType() MessageType
}

// envelope reads just enough of an inbound frame to route it and to label
// an error reply.
type envelope struct {
	Type      MessageType `json:"type"`
	PostID    string      `json:"postId,omitempty"`
	MessageID string      `json:"messageId,omitempty"`
}

type ConnectionStatus struct {
	Type      MessageType `json:"type"`
	Connected bool        `json:"connected"`
	Message   string      `json:"message"`
}

func (f ConnectionStatus) FrameType() MessageType { return TypeConnectionStatus }

type ErrorFrame struct {
	Type        MessageType `json:"type"`
	Message     string      `json:"message"`
	Detail      string      `json:"detail"`
	Code        string      `json:"code"`
	RequestType MessageType `json:"requestType,omitempty"`
	PostID      string      `json:"postId,omitempty"`
	MessageID   string      `json:"messageId,omitempty"`
}

func (f ErrorFrame) FrameType() MessageType { return TypeError }

// PostFrame carries a full post snapshot for post_updated.
type PostFrame struct {
	Type MessageType  `json:"type"`
	Post *models.Post `json:"post"`
}

func (f PostFrame) FrameType() MessageType { return f.Type }

// PostDue tells a client to publish a post. The flat fields are what a
// publisher needs; Post is the full snapshot after promotion.
type PostDue struct {
	Type     MessageType        `json:"type"`
	PostID   string             `json:"postId"`
	Content  string             `json:"content"`
	Hashtags models.StringArray `json:"hashtags"`
	Post     *models.Post       `json:"post"`
}

func (f PostDue) FrameType() MessageType { return TypePostDue }

type PostDeleted struct {
	Type   MessageType `json:"type"`
	PostID string      `json:"postId"`
}

func (f PostDeleted) FrameType() MessageType { return TypePostDeleted }

type PostRescheduledConfirmed struct {
	Type         MessageType  `json:"type"`
	PostID       string       `json:"postId"`
	NewTime      time.Time    `json:"newTime"`
	OriginalTime *time.Time   `json:"originalTime"`
	Reason       string       `json:"reason"`
	Post         *models.Post `json:"post"`
}

func (f PostRescheduledConfirmed) FrameType() MessageType { return TypePostRescheduledConfirm }

type PostsList struct {
	Type  MessageType   `json:"type"`
	Posts []models.Post `json:"posts"`
}

func (f PostsList) FrameType() MessageType { return TypePostsList }

type ProfileStatus struct {
	Type       MessageType               `json:"type"`
	ProfileURL string                    `json:"profileUrl"`
	Exists     bool                      `json:"exists"`
	Profile    *models.EngagementProfile `json:"profile"`
}

func (f ProfileStatus) FrameType() MessageType { return TypeProfileStatus }

type ProfilesStatusBatch struct {
	Type        MessageType `json:"type"`
	Existing    []string    `json:"existing"`
	NotExisting []string    `json:"notExisting"`
}

func (f ProfilesStatusBatch) FrameType() MessageType { return TypeProfilesStatusBatch }

type ProfileSaved struct {
	Type    MessageType               `json:"type"`
	Profile *models.EngagementProfile `json:"profile"`
	Created bool                      `json:"created"`
}

func (f ProfileSaved) FrameType() MessageType { return TypeProfileSaved }

// ProfileFrame answers the connection and follow-up updates.
type ProfileFrame struct {
	Type    MessageType               `json:"type"`
	Profile *models.EngagementProfile `json:"profile"`
}

func (f ProfileFrame) FrameType() MessageType { return f.Type }

type PostStatusUpdated struct {
	Type   MessageType       `json:"type"`
	PostID string            `json:"postId"`
	Status models.PostStatus `json:"status"`
}

func (f PostStatusUpdated) FrameType() MessageType { return TypePostStatusUpdated }

// ProfileURLFrame answers save_profile_url and get_profile_url. Both fields
// are null when no URL was saved.
type ProfileURLFrame struct {
	Type       MessageType `json:"type"`
	ProfileURL *string     `json:"profileUrl"`
	SavedAt    *time.Time  `json:"savedAt"`
}

func (f ProfileURLFrame) FrameType() MessageType { return f.Type }

// PostAck acknowledges engagement_update and new_engager.
type PostAck struct {
	Type   MessageType `json:"type"`
	PostID string      `json:"postId"`
}

func (f PostAck) FrameType() MessageType { return f.Type }

type MessageGenerated struct {
	Type      MessageType `json:"type"`
	MessageID string      `json:"messageId"`
	Message   string      `json:"message"`
}

func (f MessageGenerated) FrameType() MessageType { return TypeMessageGenerated }

type ClientReadyAck struct {
	Type     MessageType `json:"type"`
	DuePosts int         `json:"duePosts"`
}

func (f ClientReadyAck) FrameType() MessageType { return TypeClientReadyAck }

func newPostFrame(t MessageType, post *models.Post) PostFrame {
	return PostFrame{Type: t, Post: post}
}

func newPostDue(post *models.Post) PostDue {
	hashtags := post.Hashtags
	if hashtags == nil {
		hashtags = models.StringArray{}
	}
	return PostDue{
		Type:     TypePostDue,
		PostID:   post.ID,
		Content:  post.Content,
		Hashtags: hashtags,
		Post:     post,
	}
}

func newProfileURLFrame(t MessageType, saved *models.SavedSearchURL) ProfileURLFrame {
	f := ProfileURLFrame{Type: t}
	if saved != nil {
		url, at := saved.ProfileURL, saved.SavedAt
		f.ProfileURL = &url
		f.SavedAt = &at
	}
	return f
}
