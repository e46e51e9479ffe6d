// Package services – SearchService
//
// This file implements the SearchService, which fans a query out to the two
// recipe sources: the local store (public recipes) and the third-party
// provider. The branches are isolated — a failing provider degrades that
// branch to an empty result and a log line, never the whole search — and run
// concurrently, since neither depends on the other.
//
// The category listing variant resolves a capped number of provider refs one
// detail call at a time with a small fixed delay between calls. The delay is
// a cooperative throttle for the provider's free tier, not a hard rate
// limiter with backoff; keep it unless upstream limits are confirmed absent.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/mealdb"
	"github.com/tbourn/go-recipe-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ExternalSource is the provider contract consumed by SearchService. It is
// satisfied by *mealdb.Client and by test doubles.
type ExternalSource interface {
	// SearchByName returns normalized provider recipes matching the query.
	SearchByName(ctx context.Context, query string) ([]domain.ExternalRecipe, error)
	// FilterByCategory returns slim refs for a category.
	FilterByCategory(ctx context.Context, category string) ([]mealdb.MealRef, error)
	// LookupByID resolves one ref to a full normalized recipe.
	LookupByID(ctx context.Context, nativeID string) (*domain.ExternalRecipe, error)
	// ListCategories returns the provider's category directory.
	ListCategories(ctx context.Context) ([]mealdb.Category, error)
	// Random returns one random provider recipe, or nil when the provider
	// has nothing to offer.
	Random(ctx context.Context) (*domain.ExternalRecipe, error)
}

// SearchResults carries both branches of a dual-source search. A failed
// branch is represented by its empty slice; the other branch is unaffected.
type SearchResults struct {
	Local    []domain.Recipe         `json:"local"`
	External []domain.ExternalRecipe `json:"external"`
}

// SearchService orchestrates dual-source recipe search and category
// browsing.
type SearchService struct {
	// DB is the GORM handle for the local branch.
	DB *gorm.DB
	// External is the provider client for the external branch.
	External ExternalSource

	// SearchLimit caps the local branch's result count.
	SearchLimit int
	// CategoryLimit caps how many refs a category listing resolves.
	CategoryLimit int
	// Throttle is the pause between per-ref detail calls.
	Throttle time.Duration
}

// NewSearchService constructs a SearchService with the provider defaults:
// 20 items per category page and a 150ms inter-call throttle.
func NewSearchService(db *gorm.DB, external ExternalSource) *SearchService {
	return &SearchService{
		DB:            db,
		External:      external,
		SearchLimit:   50,
		CategoryLimit: 20,
		Throttle:      150 * time.Millisecond,
	}
}

// Search runs both branches concurrently and merges nothing: callers get
// each source's results separately. A branch error is logged and yields an
// empty slice for that branch only.
func (s *SearchService) Search(ctx context.Context, query string) SearchResults {
	tr := otel.Tracer("services/SearchService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(attribute.String("query", query)),
	)
	defer span.End()

	results := SearchResults{
		Local:    []domain.Recipe{},
		External: []domain.ExternalRecipe{},
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		local, err := repo.SearchPublicRecipes(ctx, s.DB, query, s.SearchLimit)
		if err != nil {
			log.Error().Err(err).Str("query", query).Msg("local recipe search failed")
			return
		}
		results.Local = local
	}()

	go func() {
		defer wg.Done()
		if s.External == nil {
			return
		}
		external, err := s.External.SearchByName(ctx, query)
		if err != nil {
			log.Warn().Err(err).Str("query", query).Msg("external recipe search failed")
			return
		}
		results.External = external
	}()

	wg.Wait()

	span.SetAttributes(
		attribute.Int("results.local", len(results.Local)),
		attribute.Int("results.external", len(results.External)),
	)
	return results
}

// ByCategory lists provider recipes for a category. The provider's filter
// endpoint returns only IDs, so each ref costs one detail call; refs beyond
// CategoryLimit are skipped and calls are paced by Throttle. Per-ref lookup
// failures are logged and skipped; only the initial filter call can fail the
// whole listing.
func (s *SearchService) ByCategory(ctx context.Context, category string) ([]domain.ExternalRecipe, error) {
	tr := otel.Tracer("services/SearchService")
	ctx, span := tr.Start(ctx, "ByCategory",
		trace.WithAttributes(attribute.String("category", category)),
	)
	defer span.End()

	if s.External == nil {
		return nil, ErrNoExternalSource
	}
	refs, err := s.External.FilterByCategory(ctx, category)
	if err != nil {
		return nil, err
	}
	limit := s.CategoryLimit
	if limit <= 0 {
		limit = 20
	}
	if len(refs) > limit {
		refs = refs[:limit]
	}

	out := make([]domain.ExternalRecipe, 0, len(refs))
	for i, ref := range refs {
		if i > 0 && s.Throttle > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(s.Throttle):
			}
		}
		r, err := s.External.LookupByID(ctx, ref.ID)
		if err != nil {
			log.Warn().Err(err).Str("meal_id", ref.ID).Msg("category detail lookup failed")
			continue
		}
		if r != nil {
			out = append(out, *r)
		}
	}
	return out, nil
}

// Categories returns the provider's category directory.
func (s *SearchService) Categories(ctx context.Context) ([]mealdb.Category, error) {
	if s.External == nil {
		return nil, ErrNoExternalSource
	}
	return s.External.ListCategories(ctx)
}

// Random returns one random provider recipe for the discovery surface.
func (s *SearchService) Random(ctx context.Context) (*domain.ExternalRecipe, error) {
	if s.External == nil {
		return nil, ErrNoExternalSource
	}
	return s.External.Random(ctx)
}
