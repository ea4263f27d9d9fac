package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ifuryst/postpilot/internal/models"
)

// RequestHandler has one method per client request. Adding a request type
// means adding a method here, so every implementation must handle it.
type RequestHandler interface {
	GetPosts(ctx context.Context, c *Client, req *GetPostsRequest) error
	CheckProfile(ctx context.Context, c *Client, req *CheckProfileRequest) error
	CheckProfilesBatch(ctx context.Context, c *Client, req *CheckProfilesBatchRequest) error
	SaveProfile(ctx context.Context, c *Client, req *SaveProfileRequest) error
	UpdateConnectionStatus(ctx context.Context, c *Client, req *UpdateConnectionStatusRequest) error
	UpdateFollowUpStatus(ctx context.Context, c *Client, req *UpdateFollowUpStatusRequest) error
	PostStatus(ctx context.Context, c *Client, req *PostStatusRequest) error
	PostRescheduled(ctx context.Context, c *Client, req *PostRescheduledRequest) error
	SaveProfileURL(ctx context.Context, c *Client, req *SaveProfileURLRequest) error
	GetProfileURL(ctx context.Context, c *Client, req *GetProfileURLRequest) error
	EngagementUpdate(ctx context.Context, c *Client, req *EngagementUpdateRequest) error
	NewEngager(ctx context.Context, c *Client, req *NewEngagerRequest) error
	GenerateMessage(ctx context.Context, c *Client, req *GenerateMessageRequest) error
	ClientReady(ctx context.Context, c *Client, req *ClientReadyRequest) error
}

type Request interface {
	Dispatch(ctx context.Context, c *Client, h RequestHandler) error
}

type GetPostsRequest struct {
	Status models.PostStatus `json:"status,omitempty"`
}

type CheckProfileRequest struct {
	ProfileURL string `json:"profileUrl"`
}

type CheckProfilesBatchRequest struct {
	ProfileURLs []string `json:"profileUrls"`
}

type SaveProfileRequest struct {
	ProfileURL string `json:"profileUrl"`
	Name       string `json:"name"`
}

type UpdateConnectionStatusRequest struct {
	ProfileURL string `json:"profileUrl"`
}

type UpdateFollowUpStatusRequest struct {
	ProfileURL string `json:"profileUrl"`
}

type PostStatusRequest struct {
	PostID  string            `json:"postId"`
	Status  models.PostStatus `json:"status"`
	PostURL string            `json:"postUrl,omitempty"`
	Error   string            `json:"error,omitempty"`
}

type PostRescheduledRequest struct {
	PostID       string     `json:"postId"`
	NewTime      time.Time  `json:"newTime"`
	OriginalTime *time.Time `json:"originalTime,omitempty"`
	Reason       string     `json:"reason,omitempty"`
}

type SaveProfileURLRequest struct {
	ProfileURL string `json:"profileUrl"`
}

type GetProfileURLRequest struct{}

type EngagementUpdateRequest struct {
	PostID   string `json:"postId"`
	Likes    int    `json:"likes"`
	Comments int    `json:"comments"`
	Shares   int    `json:"shares"`
	Views    int    `json:"views"`
}

type EngagerPayload struct {
	ProfileURL string             `json:"profileUrl"`
	Name       string             `json:"name"`
	Type       models.EngagerType `json:"type"`
}

type NewEngagerRequest struct {
	PostID  string         `json:"postId"`
	Engager EngagerPayload `json:"engager"`
}

type ProfilePayload struct {
	Name    string `json:"name"`
	Caption string `json:"caption"`
}

type GenerateMessageRequest struct {
	MessageID   string         `json:"messageId,omitempty"`
	Profile     ProfilePayload `json:"profile"`
	PostContent string         `json:"postContent"`
}

type ClientReadyRequest struct{}

func (r *GetPostsRequest) Dispatch(ctx context.Context, c *Client, h RequestHandler) error {
	return h.GetPosts(ctx, c, r)
}

func (r *CheckProfileRequest) Dispatch(ctx context.Context, c *Client, h RequestHandler) error {
	return h.CheckProfile(ctx, c, r)
}

func (r *CheckProfilesBatchRequest) Dispatch(ctx context.Context, c *Client, h RequestHandler) error {
	return h.CheckProfilesBatch(ctx, c, r)
}

func (r *SaveProfileRequest) Dispatch(ctx context.Context, c *Client, h RequestHandler) error {
	return h.SaveProfile(ctx, c, r)
}

func (r *UpdateConnectionStatusRequest) Dispatch(ctx context.Context, c *Client, h RequestHandler) error {
	return h.UpdateConnectionStatus(ctx, c, r)
}

func (r *UpdateFollowUpStatusRequest) Dispatch(ctx context.Context, c *Client, h RequestHandler) error {
	return h.UpdateFollowUpStatus(ctx, c, r)
}

func (r *PostStatusRequest) Dispatch(ctx context.Context, c *Client, h RequestHandler) error {
	return h.PostStatus(ctx, c, r)
}

func (r *PostRescheduledRequest) Dispatch(ctx context.Context, c *Client, h RequestHandler) error {
	return h.PostRescheduled(ctx, c, r)
}

func (r *SaveProfileURLRequest) Dispatch(ctx context.Context, c *Client, h RequestHandler) error {
	return h.SaveProfileURL(ctx, c, r)
}

func (r *GetProfileURLRequest) Dispatch(ctx context.Context, c *Client, h RequestHandler) error {
	return h.GetProfileURL(ctx, c, r)
}

func (r *EngagementUpdateRequest) Dispatch(ctx context.Context, c *Client, h RequestHandler) error {
	return h.EngagementUpdate(ctx, c, r)
}

func (r *NewEngagerRequest) Dispatch(ctx context.Context, c *Client, h RequestHandler) error {
	return h.NewEngager(ctx, c, r)
}

func (r *GenerateMessageRequest) Dispatch(ctx context.Context, c *Client, h RequestHandler) error {
	return h.GenerateMessage(ctx, c, r)
}

func (r *ClientReadyRequest) Dispatch(ctx context.Context, c *Client, h RequestHandler) error {
	return h.ClientReady(ctx, c, r)
}

var requestTypes = map[MessageType]func() Request{
	TypeGetPosts:               func() Request { return &GetPostsRequest{} },
	TypeCheckProfile:           func() Request { return &CheckProfileRequest{} },
	TypeCheckProfilesBatch:     func() Request { return &CheckProfilesBatchRequest{} },
	TypeSaveProfile:            func() Request { return &SaveProfileRequest{} },
	TypeUpdateConnectionStatus: func() Request { return &UpdateConnectionStatusRequest{} },
	TypeUpdateFollowUpStatus:   func() Request { return &UpdateFollowUpStatusRequest{} },
	TypePostStatus:             func() Request { return &PostStatusRequest{} },
	TypePostRescheduled:        func() Request { return &PostRescheduledRequest{} },
	TypeSaveProfileURL:         func() Request { return &SaveProfileURLRequest{} },
	TypeGetProfileURL:          func() Request { return &GetProfileURLRequest{} },
	TypeEngagementUpdate:       func() Request { return &EngagementUpdateRequest{} },
	TypeNewEngager:             func() Request { return &NewEngagerRequest{} },
	TypeGenerateMessage:        func() Request { return &GenerateMessageRequest{} },
	TypeClientReady:            func() Request { return &ClientReadyRequest{} },
}

// decodeRequest returns a nil Request for types it does not know.
func decodeRequest(t MessageType, data []byte) (Request, error) {
	newRequest, ok := requestTypes[t]
	if !ok {
		return nil, nil
	}
	req := newRequest()
	if err := json.Unmarshal(data, req); err != nil {
		return nil, err
	}
	return req, nil
}
