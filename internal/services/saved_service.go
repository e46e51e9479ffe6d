// Package services – SavedService
//
// This file implements the SavedService, the aggregator that merges a user's
// two bookmark sources — references to locally authored recipes and
// denormalized snapshots of third-party recipes — into one chronologically
// ordered, de-duplicated listing.
//
// The two sources live in disjoint tables keyed by disjoint identifier
// namespaces (store UUIDs vs. prefixed provider IDs), so no cross-branch
// de-duplication is needed: the aggregator's job is correct sorting and
// dead-reference filtering.
//
// Observability: list and save operations are OpenTelemetry-instrumented.
package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// SavedItem source discriminators.
const (
	SourceLocal    = "local"
	SourceExternal = "external"
)

// SavedItem is one entry of the merged saved list: either a resolved local
// recipe or an external snapshot, tagged with its origin and the time it was
// bookmarked.
type SavedItem struct {
	// Source is "local" or "external".
	Source string `json:"source"`
	// SavedAt is when the user bookmarked the item; the listing is ordered
	// by this field, descending.
	SavedAt time.Time `json:"saved_at"`
	// Recipe is set for local items.
	Recipe *domain.Recipe `json:"recipe,omitempty"`
	// External is set for external items.
	External *domain.ExternalRecipe `json:"external,omitempty"`
}

// SavedService implements the saved-recipe use-cases: the merged listing and
// the save/unsave operations for both sources.
type SavedService struct {
	// DB is the database handle used for all bookmark operations.
	DB *gorm.DB
}

// ListSaved returns the user's merged saved list, ordered by save time
// descending.
//
// Algorithm:
//  1. fetch the local bookmark refs (newest first) and collect recipe IDs
//  2. bulk-fetch the referenced recipes in one query; a ref whose recipe no
//     longer exists (the author deleted it) is silently dropped
//  3. fetch the external snapshots (newest first) and unwrap them
//  4. merge both branches and sort by SavedAt descending; the sort is
//     stable, so same-instant items keep their source order
func (s *SavedService) ListSaved(ctx context.Context, userID string) ([]SavedItem, error) {
	tr := otel.Tracer("services/SavedService")
	ctx, span := tr.Start(ctx, "ListSaved",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	refs, err := repo.ListSavedRecipes(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.RecipeID)
	}
	recipes, err := repo.GetRecipesByIDs(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Recipe, len(recipes))
	for _, r := range recipes {
		byID[r.ID] = r
	}

	items := make([]SavedItem, 0, len(refs))
	for _, ref := range refs {
		r, ok := byID[ref.RecipeID]
		if !ok {
			continue // dead reference: recipe was deleted after being saved
		}
		savedAt := ref.CreatedAt
		r.SavedAt = &savedAt
		rc := r
		items = append(items, SavedItem{
			Source:  SourceLocal,
			SavedAt: savedAt,
			Recipe:  &rc,
		})
	}

	externals, err := repo.ListSavedExternalRecipes(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	for _, row := range externals {
		snap := row.RecipeData
		savedAt := row.CreatedAt
		if snap.SavedAt != nil {
			savedAt = *snap.SavedAt
		} else {
			snap.SavedAt = &savedAt
		}
		sc := snap
		items = append(items, SavedItem{
			Source:   SourceExternal,
			SavedAt:  savedAt,
			External: &sc,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].SavedAt.After(items[j].SavedAt)
	})

	span.SetAttributes(attribute.Int("saved.count", len(items)))
	return items, nil
}

// SaveLocal bookmarks a locally authored recipe for userID. It returns true
// when the bookmark was newly created and false when it already existed (the
// existence probe runs before the insert; the unique index is only a race
// backstop). A missing target recipe yields ErrRecipeNotFound.
func (s *SavedService) SaveLocal(ctx context.Context, userID, recipeID string) (bool, error) {
	tr := otel.Tracer("services/SavedService")
	ctx, span := tr.Start(ctx, "SaveLocal",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("recipe.id", recipeID),
		),
	)
	defer span.End()

	if _, err := repo.GetRecipe(ctx, s.DB, recipeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrRecipeNotFound
		}
		return false, err
	}

	exists, err := repo.SavedRecipeExists(ctx, s.DB, userID, recipeID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	if _, err := repo.CreateSavedRecipe(ctx, s.DB, userID, recipeID); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// Concurrent save won the race; same outcome as "already saved".
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// SaveExternal bookmarks an external recipe for userID, capturing the given
// snapshot verbatim (plus the save timestamp). Semantics mirror SaveLocal:
// true when newly saved, false when the user already saved this external ID.
func (s *SavedService) SaveExternal(ctx context.Context, userID string, ext domain.ExternalRecipe) (bool, error) {
	tr := otel.Tracer("services/SavedService")
	ctx, span := tr.Start(ctx, "SaveExternal",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("external.id", ext.ID),
		),
	)
	defer span.End()

	if ext.ID == "" {
		return false, ErrInvalidExternalRecipe
	}

	exists, err := repo.SavedExternalExists(ctx, s.DB, userID, ext.ID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	now := time.Now().UTC()
	ext.SavedAt = &now
	ext.IsExternal = true

	if _, err := repo.CreateSavedExternalRecipe(ctx, s.DB, userID, ext); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// UnsaveLocal removes the user's bookmark of a local recipe. A missing
// bookmark yields ErrSaveNotFound.
func (s *SavedService) UnsaveLocal(ctx context.Context, userID, recipeID string) error {
	err := repo.DeleteSavedRecipe(ctx, s.DB, userID, recipeID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrSaveNotFound
	}
	return err
}

// UnsaveExternal removes the user's bookmark of an external recipe by its
// namespaced ID. A missing bookmark yields ErrSaveNotFound.
func (s *SavedService) UnsaveExternal(ctx context.Context, userID, externalID string) error {
	err := repo.DeleteSavedExternalRecipe(ctx, s.DB, userID, externalID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrSaveNotFound
	}
	return err
}
