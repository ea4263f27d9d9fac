package realtime

import (
	"context"

	"go.uber.org/zap"

	"github.com/ifuryst/postpilot/internal/models"
	"github.com/ifuryst/postpilot/internal/service"
	"github.com/ifuryst/postpilot/internal/store"
)

// Handlers answers client requests on top of the services. Post mutations
// are broadcast by the services themselves through Notifier, so the
// handlers only reply to the requester.
type Handlers struct {
	posts    *service.PostService
	profiles *service.ProfileService
	messages *service.MessageGenerator
	hub      *Hub
	logger   *zap.Logger
}

var _ RequestHandler = (*Handlers)(nil)

func NewHandlers(posts *service.PostService, profiles *service.ProfileService, messages *service.MessageGenerator, hub *Hub, logger *zap.Logger) *Handlers {
	return &Handlers{
		posts:    posts,
		profiles: profiles,
		messages: messages,
		hub:      hub,
		logger:   logger,
	}
}

// OnConnect acknowledges a new client and hands it every post that became
// due while nobody was connected.
func (h *Handlers) OnConnect(ctx context.Context, c *Client) {
	if err := c.Send(ConnectionStatus{
		Type:      TypeConnectionStatus,
		Connected: true,
		Message:   "Connected to PostPilot server",
	}); err != nil {
		c.logger.Warn("Failed to send connection ack", zap.Error(err))
		return
	}

	if _, err := h.deliverDue(ctx, c); err != nil {
		c.logger.Error("Failed to deliver due posts on connect", zap.Error(err))
	}
}

func (h *Handlers) deliverDue(ctx context.Context, c *Client) (int, error) {
	res, err := h.posts.PromoteDue(ctx, func(post *models.Post) {
		if err := c.Send(newPostDue(post)); err != nil {
			c.logger.Warn("Failed to deliver due post", zap.String("post_id", post.ID), zap.Error(err))
		}
		h.hub.Broadcast(newPostFrame(TypePostUpdated, post))
	})
	return res.Promoted, err
}

func (h *Handlers) GetPosts(ctx context.Context, c *Client, req *GetPostsRequest) error {
	posts, err := h.posts.List(ctx, store.PostFilter{Status: req.Status})
	if err != nil {
		return err
	}
	if posts == nil {
		posts = []models.Post{}
	}
	return c.Send(PostsList{Type: TypePostsList, Posts: posts})
}

func (h *Handlers) CheckProfile(ctx context.Context, c *Client, req *CheckProfileRequest) error {
	profile, err := h.profiles.Check(ctx, req.ProfileURL)
	if err != nil {
		return err
	}
	return c.Send(ProfileStatus{
		Type:       TypeProfileStatus,
		ProfileURL: req.ProfileURL,
		Exists:     profile != nil,
		Profile:    profile,
	})
}

func (h *Handlers) CheckProfilesBatch(ctx context.Context, c *Client, req *CheckProfilesBatchRequest) error {
	existing, notExisting, err := h.profiles.CheckBatch(ctx, req.ProfileURLs)
	if err != nil {
		return err
	}
	return c.Send(ProfilesStatusBatch{
		Type:        TypeProfilesStatusBatch,
		Existing:    existing,
		NotExisting: notExisting,
	})
}

func (h *Handlers) SaveProfile(ctx context.Context, c *Client, req *SaveProfileRequest) error {
	profile, created, err := h.profiles.Save(ctx, req.ProfileURL, req.Name)
	if err != nil {
		return err
	}
	return c.Send(ProfileSaved{Type: TypeProfileSaved, Profile: profile, Created: created})
}

func (h *Handlers) UpdateConnectionStatus(ctx context.Context, c *Client, req *UpdateConnectionStatusRequest) error {
	profile, err := h.profiles.MarkConnectionSent(ctx, req.ProfileURL)
	if err != nil {
		return err
	}
	return c.Send(ProfileFrame{Type: TypeConnectionStatusUpdated, Profile: profile})
}

func (h *Handlers) UpdateFollowUpStatus(ctx context.Context, c *Client, req *UpdateFollowUpStatusRequest) error {
	profile, err := h.profiles.MarkFollowUpSent(ctx, req.ProfileURL)
	if err != nil {
		return err
	}
	return c.Send(ProfileFrame{Type: TypeFollowUpStatusUpdated, Profile: profile})
}

func (h *Handlers) PostStatus(ctx context.Context, c *Client, req *PostStatusRequest) error {
	post, err := h.posts.ReportStatus(ctx, service.StatusReport{
		PostID:  req.PostID,
		Status:  req.Status,
		PostURL: req.PostURL,
		Error:   req.Error,
	})
	if err != nil {
		return err
	}
	return c.Send(PostStatusUpdated{Type: TypePostStatusUpdated, PostID: post.ID, Status: post.Status})
}

// PostRescheduled replies through the post_rescheduled_confirmed broadcast,
// which reaches the requester too.
func (h *Handlers) PostRescheduled(ctx context.Context, c *Client, req *PostRescheduledRequest) error {
	_, _, err := h.posts.Reschedule(ctx, service.RescheduleInput{
		PostID:       req.PostID,
		NewTime:      req.NewTime,
		OriginalTime: req.OriginalTime,
		Reason:       req.Reason,
	})
	return err
}

func (h *Handlers) SaveProfileURL(ctx context.Context, c *Client, req *SaveProfileURLRequest) error {
	saved, err := h.profiles.SaveSearchURL(ctx, req.ProfileURL)
	if err != nil {
		return err
	}
	return c.Send(newProfileURLFrame(TypeProfileURLSaved, saved))
}

func (h *Handlers) GetProfileURL(ctx context.Context, c *Client, _ *GetProfileURLRequest) error {
	saved, err := h.profiles.SearchURL(ctx)
	if err != nil {
		return err
	}
	return c.Send(newProfileURLFrame(TypeProfileURLRetrieved, saved))
}

func (h *Handlers) EngagementUpdate(ctx context.Context, c *Client, req *EngagementUpdateRequest) error {
	post, err := h.posts.UpdateEngagement(ctx, req.PostID, service.EngagementCounts{
		Likes:    req.Likes,
		Comments: req.Comments,
		Shares:   req.Shares,
		Views:    req.Views,
	})
	if err != nil {
		return err
	}
	return c.Send(PostAck{Type: TypeEngagementUpdated, PostID: post.ID})
}

func (h *Handlers) NewEngager(ctx context.Context, c *Client, req *NewEngagerRequest) error {
	post, err := h.posts.AddEngager(ctx, req.PostID, service.EngagerInput{
		ProfileURL: req.Engager.ProfileURL,
		Name:       req.Engager.Name,
		Type:       req.Engager.Type,
	})
	if err != nil {
		return err
	}
	return c.Send(PostAck{Type: TypeEngagerAdded, PostID: post.ID})
}

func (h *Handlers) GenerateMessage(_ context.Context, c *Client, req *GenerateMessageRequest) error {
	msg := h.messages.Generate(service.MessageRequest{
		MessageID:   req.MessageID,
		Name:        req.Profile.Name,
		Caption:     req.Profile.Caption,
		PostContent: req.PostContent,
	})
	return c.Send(MessageGenerated{Type: TypeMessageGenerated, MessageID: msg.MessageID, Message: msg.Message})
}

func (h *Handlers) ClientReady(ctx context.Context, c *Client, _ *ClientReadyRequest) error {
	n, err := h.deliverDue(ctx, c)
	if err != nil {
		return err
	}
	return c.Send(ClientReadyAck{Type: TypeClientReadyAck, DuePosts: n})
}
