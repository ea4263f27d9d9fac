package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ifuryst/postpilot/internal/models"
	"github.com/ifuryst/postpilot/internal/realtime"
)

type OutreachResult struct {
	Reactors  int      `json:"reactors"`
	Known     int      `json:"known"`
	Contacted int      `json:"contacted"`
	Failed    []string `json:"failed,omitempty"`
}

// RunOutreach contacts everyone who reacted to a published post and is not
// yet in the profile store.
func (a *Agent) RunOutreach(ctx context.Context, post models.Post) (OutreachResult, error) {
	var res OutreachResult
	if a.feed == nil || a.connector == nil {
		return res, fmt.Errorf("outreach is not configured")
	}
	if post.PostURL == "" {
		return res, fmt.Errorf("post %s has no published URL", post.ID)
	}

	reactors, err := a.feed.Reactors(ctx, post.PostURL)
	if err != nil {
		return res, err
	}
	res.Reactors = len(reactors)
	if len(reactors) == 0 {
		return res, nil
	}

	urls := make([]string, 0, len(reactors))
	for _, r := range reactors {
		urls = append(urls, r.ProfileURL)
	}
	_, notExisting, err := a.CheckProfiles(ctx, urls)
	if err != nil {
		return res, err
	}
	fresh := make(map[string]bool, len(notExisting))
	for _, u := range notExisting {
		fresh[u] = true
	}

	logger := a.logger.With(zap.String("post_id", post.ID))
	for _, r := range reactors {
		if !fresh[r.ProfileURL] {
			res.Known++
			continue
		}
		delete(fresh, r.ProfileURL)

		if err := a.contact(ctx, post, r); err != nil {
			logger.Warn("Outreach failed", zap.String("profile_url", r.ProfileURL), zap.Error(err))
			res.Failed = append(res.Failed, r.ProfileURL)
			continue
		}
		res.Contacted++
	}

	logger.Info("Outreach finished",
		zap.Int("reactors", res.Reactors),
		zap.Int("contacted", res.Contacted),
		zap.Int("failed", len(res.Failed)))
	return res, nil
}

func (a *Agent) contact(ctx context.Context, post models.Post, r Reactor) error {
	if _, _, err := a.SaveProfile(ctx, r.ProfileURL, r.Name); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	a.reportEngager(post.ID, r)

	message, err := a.GenerateMessage(ctx, r, post.Content)
	if err != nil {
		return fmt.Errorf("generate message: %w", err)
	}
	if err := a.connector.Connect(ctx, r.ProfileURL, message); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if err := a.MarkConnectionSent(ctx, r.ProfileURL); err != nil {
		return fmt.Errorf("mark connection: %w", err)
	}
	return nil
}

// reportEngager records the reactor on the post. Reactions of an unknown
// type are not recorded.
func (a *Agent) reportEngager(postID string, r Reactor) {
	if !r.ReactionType.Valid() {
		return
	}
	err := a.send(realtime.TypeNewEngager, realtime.NewEngagerRequest{
		PostID: postID,
		Engager: realtime.EngagerPayload{
			ProfileURL: r.ProfileURL,
			Name:       r.Name,
			Type:       r.ReactionType,
		},
	})
	if err != nil {
		a.logger.Debug("Failed to report engager", zap.String("profile_url", r.ProfileURL), zap.Error(err))
	}
}

func (a *Agent) CheckProfiles(ctx context.Context, urls []string) (existing, notExisting []string, err error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.ConfirmTimeout)
	defer cancel()

	in, err := a.request(ctx, realtime.TypeCheckProfilesBatch,
		realtime.CheckProfilesBatchRequest{ProfileURLs: urls},
		replyOrError(realtime.TypeProfilesStatusBatch, realtime.TypeCheckProfilesBatch, nil))
	if err != nil {
		return nil, nil, err
	}
	return in.Existing, in.NotExisting, nil
}

func (a *Agent) SaveProfile(ctx context.Context, profileURL, name string) (*models.EngagementProfile, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.ConfirmTimeout)
	defer cancel()

	in, err := a.request(ctx, realtime.TypeSaveProfile,
		realtime.SaveProfileRequest{ProfileURL: profileURL, Name: name},
		replyOrError(realtime.TypeProfileSaved, realtime.TypeSaveProfile, forProfile(profileURL)))
	if err != nil {
		return nil, false, err
	}
	return in.Profile, in.Created, nil
}

func (a *Agent) MarkConnectionSent(ctx context.Context, profileURL string) error {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.ConfirmTimeout)
	defer cancel()

	_, err := a.request(ctx, realtime.TypeUpdateConnectionStatus,
		realtime.UpdateConnectionStatusRequest{ProfileURL: profileURL},
		replyOrError(realtime.TypeConnectionStatusUpdated, realtime.TypeUpdateConnectionStatus, forProfile(profileURL)))
	return err
}

func (a *Agent) GenerateMessage(ctx context.Context, r Reactor, postContent string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.ConfirmTimeout)
	defer cancel()

	messageID := uuid.NewString()
	in, err := a.request(ctx, realtime.TypeGenerateMessage,
		realtime.GenerateMessageRequest{
			MessageID:   messageID,
			Profile:     realtime.ProfilePayload{Name: r.Name, Caption: r.Caption},
			PostContent: postContent,
		},
		func(in *inbound) bool {
			return in.MessageID == messageID &&
				(in.Type == realtime.TypeMessageGenerated || in.Type == realtime.TypeError)
		})
	if err != nil {
		return "", err
	}
	return in.Message, nil
}

func (a *Agent) outreachLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.OutreachInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, post := range a.cache.list() {
				if post.Status != models.PostStatusCompleted || post.PostURL == "" {
					continue
				}
				if _, err := a.RunOutreach(ctx, post); err != nil {
					a.logger.Warn("Outreach run failed", zap.String("post_id", post.ID), zap.Error(err))
				}
			}
		}
	}
}

// replyOrError matches the success frame of a request, or an error frame
// raised for that request type.
func replyOrError(reply, request realtime.MessageType, also func(*inbound) bool) func(*inbound) bool {
	return func(in *inbound) bool {
		switch in.Type {
		case realtime.TypeError:
			return in.RequestType == request
		case reply:
			return also == nil || also(in)
		default:
			return false
		}
	}
}

func forProfile(profileURL string) func(*inbound) bool {
	return func(in *inbound) bool {
		return in.Profile != nil && in.Profile.ProfileURL == profileURL
	}
}
