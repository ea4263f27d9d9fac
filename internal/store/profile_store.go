package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ifuryst/postpilot/internal/models"
	"github.com/ifuryst/postpilot/pkg/apperror"
)

func (s *GormStore) FindProfile(ctx context.Context, profileURL string) (*models.EngagementProfile, error) {
	return findProfile(s.db.WithContext(ctx), profileURL)
}

func findProfile(db *gorm.DB, profileURL string) (*models.EngagementProfile, error) {
	var profile models.EngagementProfile
	if err := db.Where("profile_url = ?", profileURL).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Profile not found: %s", profileURL)
		}
		return nil, apperror.Internal("load profile", err)
	}
	return &profile, nil
}

func (s *GormStore) FindExistingProfiles(ctx context.Context, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return []string{}, nil
	}

	var found []string
	err := s.db.WithContext(ctx).
		Model(&models.EngagementProfile{}).
		Where("profile_url IN ?", urls).
		Pluck("profile_url", &found).Error
	if err != nil {
		return nil, apperror.Internal("check profiles", err)
	}
	return found, nil
}

func (s *GormStore) UpsertProfile(ctx context.Context, profileURL, name string) (*models.EngagementProfile, bool, error) {
	db := s.db.WithContext(ctx)

	candidate := models.EngagementProfile{ProfileURL: profileURL, Name: name}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile_url"}},
		DoNothing: true,
	}).Create(&candidate)
	if res.Error != nil {
		return nil, false, apperror.Internal("save profile", res.Error)
	}

	profile, err := findProfile(db, profileURL)
	if err != nil {
		return nil, false, err
	}
	return profile, res.RowsAffected == 1, nil
}

func (s *GormStore) MarkConnectionSent(ctx context.Context, profileURL string) (*models.EngagementProfile, error) {
	return s.markProfile(ctx, profileURL, "connection_sent")
}

func (s *GormStore) MarkFollowUpSent(ctx context.Context, profileURL string) (*models.EngagementProfile, error) {
	return s.markProfile(ctx, profileURL, "follow_up_sent")
}

func (s *GormStore) markProfile(ctx context.Context, profileURL, column string) (*models.EngagementProfile, error) {
	db := s.db.WithContext(ctx)

	res := db.Model(&models.EngagementProfile{}).
		Where("profile_url = ?", profileURL).
		Update(column, true)
	if res.Error != nil {
		return nil, apperror.Internal("update profile", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperror.NotFound("Profile not found: %s", profileURL)
	}
	return findProfile(db, profileURL)
}

func (s *GormStore) DeleteAllProfiles(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.EngagementProfile{})
	if res.Error != nil {
		return 0, apperror.Internal("delete profiles", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *GormStore) ReplaceSingletonURL(ctx context.Context, url string) (*models.SavedSearchURL, error) {
	saved := models.SavedSearchURL{ProfileURL: url, SavedAt: time.Now()}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.SavedSearchURL{}).Error; err != nil {
			return err
		}
		return tx.Create(&saved).Error
	})
	if err != nil {
		return nil, apperror.Internal("save profile url", err)
	}
	return &saved, nil
}

func (s *GormStore) FindSingletonURL(ctx context.Context) (*models.SavedSearchURL, error) {
	var saved models.SavedSearchURL
	if err := s.db.WithContext(ctx).Order("saved_at DESC").First(&saved).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("no profile url saved")
		}
		return nil, apperror.Internal("load profile url", err)
	}
	return &saved, nil
}
