// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/domain"
)

// RecipesStats returns aggregate metadata for a user's authored recipes: the
// total number of rows and the maximum UpdatedAt timestamp among those rows.
//
// It executes two lightweight queries against the recipes table scoped to the
// provided ownerID. When the user has no recipes, the returned count is 0 and
// maxUpdatedAt is nil.
//
// Return values:
//   - count:        total recipes authored by ownerID
//   - maxUpdatedAt: pointer to the greatest UpdatedAt, or nil if no rows
//   - err:          database error, if any
func RecipesStats(ctx context.Context, db *gorm.DB, ownerID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Recipe{}).Where("user_id = ?", ownerID)

	// Count
	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// SavedStats returns aggregate metadata for a user's saved list: the combined
// number of local and external bookmarks and the greatest CreatedAt among
// them. Used for weak ETags on the saved-list endpoint.
func SavedStats(ctx context.Context, db *gorm.DB, userID string) (count int64, maxSavedAt *time.Time, err error) {
	var localN, extN int64
	if err = db.WithContext(ctx).Model(&domain.SavedRecipe{}).Where("user_id = ?", userID).Count(&localN).Error; err != nil {
		return 0, nil, err
	}
	if err = db.WithContext(ctx).Model(&domain.SavedExternalRecipe{}).Where("user_id = ?", userID).Count(&extN).Error; err != nil {
		return 0, nil, err
	}
	count = localN + extN
	if count == 0 {
		return 0, nil, nil
	}

	var latest *time.Time
	for _, model := range []any{&domain.SavedRecipe{}, &domain.SavedExternalRecipe{}} {
		var row struct {
			CreatedAt time.Time
		}
		res := db.WithContext(ctx).Model(model).
			Where("user_id = ?", userID).
			Select("created_at").Order("created_at DESC").Limit(1).
			Scan(&row)
		if res.Error != nil {
			return 0, nil, res.Error
		}
		if res.RowsAffected > 0 && (latest == nil || row.CreatedAt.After(*latest)) {
			t := row.CreatedAt
			latest = &t
		}
	}
	return count, latest, nil
}
