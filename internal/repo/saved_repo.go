// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the two
// bookmark models: SavedRecipe (local saves) and SavedExternalRecipe
// (denormalized third-party snapshots).
//
// The two tables are intentionally disjoint — local bookmarks reference
// store-generated UUIDs, external bookmarks are keyed by the namespaced
// provider ID — so no cross-table de-duplication is ever needed. The
// aggregation logic that merges both into one listing lives in
// services.SavedService.
//
// Error semantics:
//   - ErrNotFound when a delete matched no row.
//   - On other DB errors, the raw gorm error is propagated. Uniqueness is
//     enforced both by an existence probe in the service layer and by the
//     composite unique indexes as a backstop.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/domain"
)

// ListSavedRecipes returns the user's local bookmarks ordered by save time
// descending (most recently saved first).
func ListSavedRecipes(ctx context.Context, db *gorm.DB, userID string) ([]domain.SavedRecipe, error) {
	var out []domain.SavedRecipe
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// SavedRecipeExists reports whether userID already bookmarked recipeID.
func SavedRecipeExists(ctx context.Context, db *gorm.DB, userID, recipeID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.SavedRecipe{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&n).Error
	return n > 0, err
}

// CreateSavedRecipe inserts a local bookmark row. The (user_id, recipe_id)
// pair is unique; a concurrent duplicate insert surfaces as ErrDuplicate.
func CreateSavedRecipe(ctx context.Context, db *gorm.DB, userID, recipeID string) (*domain.SavedRecipe, error) {
	s := &domain.SavedRecipe{
		ID:        uuid.NewString(),
		UserID:    userID,
		RecipeID:  recipeID,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return s, nil
}

// DeleteSavedRecipe removes the local bookmark identified by
// (userID, recipeID). Returns ErrNotFound when nothing matched.
func DeleteSavedRecipe(ctx context.Context, db *gorm.DB, userID, recipeID string) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&domain.SavedRecipe{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSavedExternalRecipes returns the user's external bookmarks ordered by
// save time descending. Each row carries the full snapshot captured at save
// time.
func ListSavedExternalRecipes(ctx context.Context, db *gorm.DB, userID string) ([]domain.SavedExternalRecipe, error) {
	var out []domain.SavedExternalRecipe
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// SavedExternalExists reports whether userID already bookmarked the external
// recipe identified by its namespaced ID.
func SavedExternalExists(ctx context.Context, db *gorm.DB, userID, externalID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.SavedExternalRecipe{}).
		Where("user_id = ? AND external_recipe_id = ?", userID, externalID).
		Count(&n).Error
	return n > 0, err
}

// CreateSavedExternalRecipe inserts an external bookmark holding the given
// snapshot. The (user_id, external_recipe_id) pair is unique; a concurrent
// duplicate insert surfaces as ErrDuplicate.
func CreateSavedExternalRecipe(ctx context.Context, db *gorm.DB, userID string, snapshot domain.ExternalRecipe) (*domain.SavedExternalRecipe, error) {
	s := &domain.SavedExternalRecipe{
		ID:               uuid.NewString(),
		UserID:           userID,
		ExternalRecipeID: snapshot.ID,
		RecipeData:       snapshot,
		CreatedAt:        time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return s, nil
}

// DeleteSavedExternalRecipe removes the external bookmark identified by
// (userID, externalID). Returns ErrNotFound when nothing matched.
func DeleteSavedExternalRecipe(ctx context.Context, db *gorm.DB, userID, externalID string) error {
	res := db.WithContext(ctx).
		Where("user_id = ? AND external_recipe_id = ?", userID, externalID).
		Delete(&domain.SavedExternalRecipe{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
