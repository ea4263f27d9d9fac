package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ifuryst/postpilot/internal/lifecycle"
	"github.com/ifuryst/postpilot/internal/models"
	"github.com/ifuryst/postpilot/pkg/apperror"
)

// maxUpdateAttempts bounds how often UpdatePost re-reads a post that a
// concurrent writer changed underneath it.
const maxUpdateAttempts = 5

// mutableColumns are the post columns UpdatePost may write.
var mutableColumns = []string{
	"title",
	"content",
	"hashtags",
	"scheduled_time",
	"original_scheduled_time",
	"status",
	"post_url",
	"engagement_likes",
	"engagement_comments",
	"engagement_shares",
	"engagement_views",
	"engagement_last_updated",
	"error",
	"version",
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var (
	_ PostStore    = (*GormStore)(nil)
	_ ProfileStore = (*GormStore)(nil)
)

func withChildren(db *gorm.DB) *gorm.DB {
	return db.
		Preload("ReschedulingHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Engagers", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") })
}

func (s *GormStore) CreatePost(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.Status == "" {
		post.Status = models.PostStatusDraft
	}
	if post.Hashtags == nil {
		post.Hashtags = models.StringArray{}
	}
	post.Version = 1

	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Conflict("post %s already exists", post.ID)
		}
		return apperror.Internal("create post", err)
	}
	return nil
}

func (s *GormStore) FindPost(ctx context.Context, id string) (*models.Post, error) {
	return findPost(withChildren(s.db.WithContext(ctx)), id)
}

func findPost(db *gorm.DB, id string) (*models.Post, error) {
	var post models.Post
	if err := db.First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Post not found: %s", id)
		}
		return nil, apperror.Internal("load post", err)
	}
	return &post, nil
}

func (s *GormStore) ListPosts(ctx context.Context, filter PostFilter) ([]models.Post, error) {
	query := withChildren(s.db.WithContext(ctx)).
		Order("scheduled_time ASC").
		Order("created_at ASC")

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var posts []models.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, apperror.Internal("list posts", err)
	}
	return posts, nil
}

func (s *GormStore) FindDuePosts(ctx context.Context, now time.Time) ([]models.Post, error) {
	var posts []models.Post
	err := withChildren(s.db.WithContext(ctx)).
		Where("status IN ? AND scheduled_time IS NOT NULL AND scheduled_time <= ?", lifecycle.DueEligible, now).
		Order("scheduled_time ASC").
		Find(&posts).Error
	if err != nil {
		return nil, apperror.Internal("find due posts", err)
	}
	return posts, nil
}

func (s *GormStore) PromotePost(ctx context.Context, id string, now time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ? AND status IN ? AND scheduled_time <= ?", id, lifecycle.DueEligible, now).
		Updates(map[string]any{
			"status":  models.PostStatusPosting,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return false, apperror.Internal("promote post", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *GormStore) UpdatePost(ctx context.Context, id string, expected []models.PostStatus, mutate Mutation) (*models.Post, error) {
	for attempt := 1; ; attempt++ {
		post, err := s.updatePostOnce(ctx, id, expected, mutate)
		if err == nil {
			return post, nil
		}
		if !errors.Is(err, apperror.ErrConflict) || attempt == maxUpdateAttempts {
			return nil, err
		}
	}
}

func (s *GormStore) updatePostOnce(ctx context.Context, id string, expected []models.PostStatus, mutate Mutation) (*models.Post, error) {
	var updated *models.Post

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := findPost(withChildren(tx), id)
		if err != nil {
			return err
		}
		if len(expected) > 0 && !slices.Contains(expected, current.Status) {
			return apperror.InvalidTransition("post %s is %s, expected one of %v", id, current.Status, expected)
		}

		next := *current
		next.ReschedulingHistory = slices.Clone(current.ReschedulingHistory)
		next.Engagers = slices.Clone(current.Engagers)
		if err := mutate(&next); err != nil {
			return err
		}

		if len(next.ReschedulingHistory) < len(current.ReschedulingHistory) {
			return apperror.Internal("update post", fmt.Errorf("rescheduling history of %s cannot shrink", id))
		}
		if len(next.Engagers) < len(current.Engagers) {
			return apperror.Internal("update post", fmt.Errorf("engagers of %s cannot shrink", id))
		}

		next.ID = current.ID
		next.Version = current.Version + 1

		row := next
		row.ReschedulingHistory = nil
		row.Engagers = nil

		res := tx.Model(&models.Post{}).
			Where("id = ? AND version = ?", id, current.Version).
			Select(mutableColumns).
			Updates(&row)
		if res.Error != nil {
			return apperror.Internal("update post", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.ErrConflict
		}

		for i := len(current.ReschedulingHistory); i < len(next.ReschedulingHistory); i++ {
			entry := &next.ReschedulingHistory[i]
			entry.ID = 0
			entry.PostID = id
			if err := tx.Create(entry).Error; err != nil {
				return apperror.Internal("append rescheduling history", err)
			}
		}
		for i := len(current.Engagers); i < len(next.Engagers); i++ {
			engager := &next.Engagers[i]
			engager.ID = 0
			engager.PostID = id
			if err := tx.Create(engager).Error; err != nil {
				return apperror.Internal("append engager", err)
			}
		}

		next.UpdatedAt = row.UpdatedAt
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *GormStore) DeletePost(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.RescheduleEntry{}).Error; err != nil {
			return apperror.Internal("delete rescheduling history", err)
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Engager{}).Error; err != nil {
			return apperror.Internal("delete engagers", err)
		}
		res := tx.Where("id = ?", id).Delete(&models.Post{})
		if res.Error != nil {
			return apperror.Internal("delete post", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.NotFound("Post not found: %s", id)
		}
		return nil
	})
}

func (s *GormStore) CountByStatus(ctx context.Context) (map[models.PostStatus]int64, error) {
	var rows []struct {
		Status models.PostStatus
		Count  int64
	}
	err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, apperror.Internal("count posts", err)
	}

	counts := make(map[models.PostStatus]int64, len(models.AllPostStatuses))
	for _, st := range models.AllPostStatuses {
		counts[st] = 0
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
