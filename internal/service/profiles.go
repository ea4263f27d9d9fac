package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/ifuryst/postpilot/internal/models"
	"github.com/ifuryst/postpilot/internal/store"
	"github.com/ifuryst/postpilot/pkg/apperror"
)

type ProfileService struct {
	store  store.ProfileStore
	logger *zap.Logger
}

func NewProfileService(st store.ProfileStore, logger *zap.Logger) *ProfileService {
	return &ProfileService{store: st, logger: logger}
}

// Check returns the stored profile, or nil when the URL is unknown.
func (s *ProfileService) Check(ctx context.Context, profileURL string) (*models.EngagementProfile, error) {
	profileURL, err := requireURL(profileURL)
	if err != nil {
		return nil, err
	}

	profile, err := s.store.FindProfile(ctx, profileURL)
	if apperror.HasCode(err, apperror.CodeNotFound) {
		return nil, nil
	}
	return profile, err
}

// CheckBatch partitions urls into stored and unknown ones. Every distinct
// input appears in exactly one of the results, in input order.
func (s *ProfileService) CheckBatch(ctx context.Context, urls []string) (existing, notExisting []string, err error) {
	distinct := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		distinct = append(distinct, u)
	}

	found, err := s.store.FindExistingProfiles(ctx, distinct)
	if err != nil {
		return nil, nil, err
	}
	stored := make(map[string]struct{}, len(found))
	for _, u := range found {
		stored[u] = struct{}{}
	}

	existing = make([]string, 0, len(found))
	notExisting = make([]string, 0, len(distinct)-len(found))
	for _, u := range distinct {
		if _, ok := stored[u]; ok {
			existing = append(existing, u)
		} else {
			notExisting = append(notExisting, u)
		}
	}
	return existing, notExisting, nil
}

// Save stores the profile once. Later saves of the same URL return the
// stored record as it is.
func (s *ProfileService) Save(ctx context.Context, profileURL, name string) (*models.EngagementProfile, bool, error) {
	profileURL, err := requireURL(profileURL)
	if err != nil {
		return nil, false, err
	}

	profile, created, err := s.store.UpsertProfile(ctx, profileURL, strings.TrimSpace(name))
	if err != nil {
		return nil, false, err
	}
	if created {
		s.logger.Info("Profile saved", zap.String("profile_url", profileURL))
	}
	return profile, created, nil
}

func (s *ProfileService) MarkConnectionSent(ctx context.Context, profileURL string) (*models.EngagementProfile, error) {
	profileURL, err := requireURL(profileURL)
	if err != nil {
		return nil, err
	}
	return s.store.MarkConnectionSent(ctx, profileURL)
}

func (s *ProfileService) MarkFollowUpSent(ctx context.Context, profileURL string) (*models.EngagementProfile, error) {
	profileURL, err := requireURL(profileURL)
	if err != nil {
		return nil, err
	}
	return s.store.MarkFollowUpSent(ctx, profileURL)
}

func (s *ProfileService) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteAllProfiles(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Warn("All engagement profiles deleted", zap.Int64("count", n))
	return n, nil
}

func (s *ProfileService) SaveSearchURL(ctx context.Context, url string) (*models.SavedSearchURL, error) {
	url, err := requireURL(url)
	if err != nil {
		return nil, err
	}
	return s.store.ReplaceSingletonURL(ctx, url)
}

// SearchURL returns the saved URL, or nil when none was saved yet.
func (s *ProfileService) SearchURL(ctx context.Context) (*models.SavedSearchURL, error) {
	saved, err := s.store.FindSingletonURL(ctx)
	if apperror.HasCode(err, apperror.CodeNotFound) {
		return nil, nil
	}
	return saved, err
}

func requireURL(u string) (string, error) {
	u = strings.TrimSpace(u)
	if u == "" {
		return "", apperror.Validation("profileUrl is required")
	}
	return u, nil
}
