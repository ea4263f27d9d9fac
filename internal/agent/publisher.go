package agent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/ifuryst/postpilot/internal/models"
)

// ErrSlotUnavailable means the platform refused the scheduled slot and the
// post has to move to a later time.
var ErrSlotUnavailable = errors.New("publishing slot unavailable")

// PublishContent is what the bridge needs to put a post on the platform.
type PublishContent struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Hashtags    []string   `json:"hashtags"`
	PublishDate *time.Time `json:"publishDate,omitempty"`
}

type PublishResult struct {
	PublishID   string    `json:"publishId,omitempty"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Publisher puts a due post live.
type Publisher interface {
	GetPlatformName() string
	Publish(ctx context.Context, content PublishContent) (*PublishResult, error)
}

// Reactor is someone who reacted to a published post.
type Reactor struct {
	ProfileURL   string             `json:"profileUrl"`
	Name         string             `json:"name"`
	ReactionType models.EngagerType `json:"reactionType"`
	Caption      string             `json:"caption"`
}

// ReactorFeed lists the people who reacted to a published post.
type ReactorFeed interface {
	Reactors(ctx context.Context, postURL string) ([]Reactor, error)
}

// Connector sends a connection request with a note.
type Connector interface {
	Connect(ctx context.Context, profileURL, message string) error
}

// FromPost converts a post to PublishContent
func FromPost(post *models.Post) PublishContent {
	return PublishContent{
		ID:          post.ID,
		Title:       post.Title,
		Content:     post.Content,
		Hashtags:    []string(post.Hashtags),
		PublishDate: post.ScheduledTime,
	}
}

// HTTPBridge talks to a local browser-automation bridge over HTTP. It is the
// Publisher, ReactorFeed and Connector of a running agent.
type HTTPBridge struct {
	client *resty.Client
	logger *zap.Logger
}

var (
	_ Publisher   = (*HTTPBridge)(nil)
	_ ReactorFeed = (*HTTPBridge)(nil)
	_ Connector   = (*HTTPBridge)(nil)
)

func NewHTTPBridge(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPBridge {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "postpilot-agent")

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		logger.Debug("Bridge request", zap.String("method", req.Method), zap.String("url", req.URL))
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug("Bridge response", zap.Int("status", resp.StatusCode()), zap.Duration("latency", resp.Time()))
		return nil
	})

	return &HTTPBridge{client: client, logger: logger}
}

func (b *HTTPBridge) GetPlatformName() string {
	return "linkedin"
}

func (b *HTTPBridge) Publish(ctx context.Context, content PublishContent) (*PublishResult, error) {
	var result PublishResult
	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(content).
		SetResult(&result).
		Post("/publish")
	if err != nil {
		return nil, fmt.Errorf("failed to call publisher: %w", err)
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated:
		if result.PublishedAt.IsZero() {
			result.PublishedAt = time.Now()
		}
		return &result, nil
	case http.StatusConflict:
		return nil, ErrSlotUnavailable
	default:
		return nil, fmt.Errorf("publisher returned %d: %s", resp.StatusCode(), resp.String())
	}
}

func (b *HTTPBridge) Reactors(ctx context.Context, postURL string) ([]Reactor, error) {
	var body struct {
		Reactors []Reactor `json:"reactors"`
	}
	resp, err := b.client.R().
		SetContext(ctx).
		SetQueryParam("postUrl", postURL).
		SetResult(&body).
		Get("/reactors")
	if err != nil {
		return nil, fmt.Errorf("failed to list reactors: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("reactor feed returned %d: %s", resp.StatusCode(), resp.String())
	}
	return body.Reactors, nil
}

func (b *HTTPBridge) Connect(ctx context.Context, profileURL, message string) error {
	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"profileUrl": profileURL, "message": message}).
		Post("/connect")
	if err != nil {
		return fmt.Errorf("failed to send connection request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("connector returned %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
