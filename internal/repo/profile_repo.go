// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Profile
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a profile is not found, functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - CreateProfile maps unique-constraint violations on user_id to
//     ErrDuplicate so the service layer can resolve bootstrap races.
//   - On other DB errors, the raw gorm error is propagated.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/domain"
)

// GetProfileByUserID fetches the profile belonging to userID, or ErrNotFound
// if the user has no profile yet.
func GetProfileByUserID(ctx context.Context, db *gorm.DB, userID string) (*domain.Profile, error) {
	var p domain.Profile
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProfile inserts a new profile row for userID with the given username.
// The profile ID is a randomly generated UUID, and CreatedAt is set to UTC.
//
// The profiles table carries a unique index on user_id; a concurrent insert
// for the same user surfaces as ErrDuplicate, which callers should resolve
// by re-reading the winning row.
func CreateProfile(ctx context.Context, db *gorm.DB, userID, username string) (*domain.Profile, error) {
	p := &domain.Profile{
		ID:        uuid.NewString(),
		UserID:    userID,
		Username:  username,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return p, nil
}

// UpdateProfileUsername replaces the stored username for userID. If no row is
// affected (profile missing), it returns ErrNotFound.
func UpdateProfileUsername(ctx context.Context, db *gorm.DB, userID, username string) error {
	res := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("user_id = ?", userID).
		Update("username", username)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProfile overwrites the mutable settings fields (username, bio) of the
// profile owned by userID. Returns ErrNotFound when no profile exists.
func UpdateProfile(ctx context.Context, db *gorm.DB, userID, username, bio string) error {
	res := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"username": username,
			"bio":      bio,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateProfileImageURL stores the public URL of a freshly uploaded avatar.
// Returns ErrNotFound when no profile exists.
func UpdateProfileImageURL(ctx context.Context, db *gorm.DB, userID, url string) error {
	res := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("user_id = ?", userID).
		Update("profile_image_url", url)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
