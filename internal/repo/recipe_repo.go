// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Recipe
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition. Ownership rules (only the author may
// mutate a recipe) live in services.RecipeService.
//
// Error semantics:
//   - When a recipe is not found, functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/domain"
)

// RecipeFields carries the author-editable attributes of a recipe. It is
// used both for creation and for full-overwrite updates.
type RecipeFields struct {
	Title       string
	Description string
	ImageURL    string
	Ingredients []string
	Steps       []string
	CookingTime int
	IsPublic    bool
}

// CreateRecipe inserts a new Recipe row owned by ownerID. The recipe ID is a
// randomly generated UUID, and both timestamps are set to the same UTC
// instant. Field validation (e.g., non-empty title) is the service's job.
func CreateRecipe(ctx context.Context, db *gorm.DB, ownerID string, f RecipeFields) (*domain.Recipe, error) {
	now := time.Now().UTC()
	r := &domain.Recipe{
		ID:          uuid.NewString(),
		UserID:      ownerID,
		Title:       f.Title,
		Description: f.Description,
		ImageURL:    f.ImageURL,
		Ingredients: domain.StringList(f.Ingredients),
		Steps:       domain.StringList(f.Steps),
		CookingTime: f.CookingTime,
		IsPublic:    f.IsPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := db.WithContext(ctx).Create(r).Error; err != nil {
		return nil, err
	}
	return r, nil
}

// GetRecipe fetches a single recipe by its ID, or ErrNotFound if missing.
func GetRecipe(ctx context.Context, db *gorm.DB, id string) (*domain.Recipe, error) {
	var r domain.Recipe
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// GetRecipesByIDs bulk-fetches recipes for the given IDs in one query.
// Missing IDs are simply absent from the result; no error is raised for
// them. The result order is unspecified — callers that care about order
// should re-sort or index by ID.
func GetRecipesByIDs(ctx context.Context, db *gorm.DB, ids []string) ([]domain.Recipe, error) {
	if len(ids) == 0 {
		return []domain.Recipe{}, nil
	}
	var out []domain.Recipe
	err := db.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&out).Error
	return out, err
}

// UpdateRecipe overwrites the editable fields of the recipe identified by id
// and stamps updated_at. If no rows are affected (recipe missing), it returns
// ErrNotFound. Ownership must be verified by the caller before updating.
func UpdateRecipe(ctx context.Context, db *gorm.DB, id string, f RecipeFields) error {
	res := db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"title":        f.Title,
			"description":  f.Description,
			"image_url":    f.ImageURL,
			"ingredients":  domain.StringList(f.Ingredients),
			"steps":        domain.StringList(f.Steps),
			"cooking_time": f.CookingTime,
			"is_public":    f.IsPublic,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRecipe removes the recipe row for good (hard delete, bypassing the
// soft-delete scope). If no rows are affected, it returns ErrNotFound.
// Ownership must be verified by the caller before deleting.
func DeleteRecipe(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Unscoped().
		Where("id = ?", id).
		Delete(&domain.Recipe{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRecipesByOwner returns all recipes authored by ownerID, ordered by
// creation time descending (most recent first). It returns an empty slice
// when the user has authored nothing.
func ListRecipesByOwner(ctx context.Context, db *gorm.DB, ownerID string) ([]domain.Recipe, error) {
	var out []domain.Recipe
	err := db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// CountRecipesByOwner returns the total number of recipes authored by ownerID.
func CountRecipesByOwner(ctx context.Context, db *gorm.DB, ownerID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Recipe{}).
		Where("user_id = ?", ownerID).
		Count(&total).Error
	return total, err
}

// ListRecipesByOwnerPage returns a paginated slice of the owner's recipes,
// ordered by creation time descending. Use CountRecipesByOwner to obtain the
// total for pagination metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListRecipesByOwnerPage(ctx context.Context, db *gorm.DB, ownerID string, offset, limit int) ([]domain.Recipe, error) {
	var out []domain.Recipe
	err := db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SearchPublicRecipes returns public recipes whose title or description
// contains query, case-insensitively, ordered by creation time descending
// and capped at limit rows. An empty query matches nothing.
func SearchPublicRecipes(ctx context.Context, db *gorm.DB, query string, limit int) ([]domain.Recipe, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.Recipe{}, nil
	}
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + strings.ToLower(query) + "%"
	var out []domain.Recipe
	err := db.WithContext(ctx).
		Where("is_public = ?", true).
		Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern).
		Order("created_at desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}
