// Package store owns every persisted record. Callers never hold a copy of
// store state past one request or one detector tick.
package store

import (
	"context"
	"time"

	"github.com/ifuryst/postpilot/internal/models"
)

//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock.go -package=mocks

// Mutation edits a freshly loaded post in place. Returning an error aborts
// the update without writing anything.
type Mutation func(p *models.Post) error

type PostFilter struct {
	Status models.PostStatus
	Limit  int
}

type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
	FindPost(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context, filter PostFilter) ([]models.Post, error)
	FindDuePosts(ctx context.Context, now time.Time) ([]models.Post, error)
	// PromotePost moves a due post to posting with one conditional update.
	// It returns false when the post was no longer eligible.
	PromotePost(ctx context.Context, id string, now time.Time) (bool, error)
	// UpdatePost applies mutate to the post only if its status is one of
	// expected (any status when expected is empty). The write is conditional
	// on the row not having changed since it was read.
	UpdatePost(ctx context.Context, id string, expected []models.PostStatus, mutate Mutation) (*models.Post, error)
	DeletePost(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (map[models.PostStatus]int64, error)
}

type ProfileStore interface {
	FindProfile(ctx context.Context, profileURL string) (*models.EngagementProfile, error)
	// FindExistingProfiles returns the subset of urls that are stored.
	FindExistingProfiles(ctx context.Context, urls []string) ([]string, error)
	// UpsertProfile creates the profile on first sight and otherwise returns
	// the stored record untouched.
	UpsertProfile(ctx context.Context, profileURL, name string) (*models.EngagementProfile, bool, error)
	MarkConnectionSent(ctx context.Context, profileURL string) (*models.EngagementProfile, error)
	MarkFollowUpSent(ctx context.Context, profileURL string) (*models.EngagementProfile, error)
	DeleteAllProfiles(ctx context.Context) (int64, error)
	ReplaceSingletonURL(ctx context.Context, url string) (*models.SavedSearchURL, error)
	FindSingletonURL(ctx context.Context) (*models.SavedSearchURL, error)
}
