// Package services – RecipeService
//
// This file implements the RecipeService, which manages the lifecycle of
// user-authored recipes. It validates input, enforces the ownership rule on
// every mutation (only the author may update or delete), and coordinates
// repository operations for creating, fetching, listing (with pagination),
// and searching public recipes.
//
// Service-level errors (e.g., ErrRecipeNotFound, ErrNotOwner) are returned
// for predictable cases so handlers can map them to HTTP results
// consistently.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/repo"
)

// RecipeInput carries the author-editable fields of a recipe as received
// from the transport layer.
type RecipeInput struct {
	Title       string
	Description string
	ImageURL    string
	Ingredients []string
	Steps       []string
	CookingTime int
	IsPublic    bool
}

// RecipeRepo defines the repository contract required by RecipeService.
// Implementations are responsible for persistence of recipe aggregates.
type RecipeRepo interface {
	// CreateRecipe inserts a new recipe row owned by ownerID.
	CreateRecipe(ctx context.Context, db *gorm.DB, ownerID string, f repo.RecipeFields) (*domain.Recipe, error)

	// GetRecipe fetches a recipe by ID.
	GetRecipe(ctx context.Context, db *gorm.DB, id string) (*domain.Recipe, error)

	// UpdateRecipe overwrites the editable fields of a recipe.
	UpdateRecipe(ctx context.Context, db *gorm.DB, id string, f repo.RecipeFields) error

	// DeleteRecipe removes a recipe row permanently.
	DeleteRecipe(ctx context.Context, db *gorm.DB, id string) error

	// ListRecipesByOwner returns all recipes authored by ownerID.
	ListRecipesByOwner(ctx context.Context, db *gorm.DB, ownerID string) ([]domain.Recipe, error)

	// CountRecipesByOwner returns the total for pagination.
	CountRecipesByOwner(ctx context.Context, db *gorm.DB, ownerID string) (int64, error)

	// ListRecipesByOwnerPage returns a page of the owner's recipes.
	ListRecipesByOwnerPage(ctx context.Context, db *gorm.DB, ownerID string, offset, limit int) ([]domain.Recipe, error)

	// SearchPublicRecipes matches public recipes by title/description.
	SearchPublicRecipes(ctx context.Context, db *gorm.DB, query string, limit int) ([]domain.Recipe, error)
}

// RecipeService provides recipe-level operations such as creating, updating,
// deleting, listing, and searching. It enforces validation and ownership
// constraints.
type RecipeService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the recipe repository used by this service.
	Repo RecipeRepo

	// SearchLimit caps public search results.
	SearchLimit int
}

// NewRecipeService constructs a RecipeService with sane defaults.
func NewRecipeService(db *gorm.DB, r RecipeRepo) *RecipeService {
	return &RecipeService{
		DB:          db,
		Repo:        r,
		SearchLimit: 50,
	}
}

// Create inserts a new recipe owned by ownerID. The title is required; all
// other fields are optional. Timestamps and the generated ID are stamped by
// the repository.
func (s *RecipeService) Create(ctx context.Context, ownerID string, in RecipeInput) (*domain.Recipe, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, ErrEmptyTitle
	}
	return s.Repo.CreateRecipe(ctx, s.DB, ownerID, fieldsOf(in))
}

// Get fetches a recipe by ID, mapping a missing row to ErrRecipeNotFound.
func (s *RecipeService) Get(ctx context.Context, id string) (*domain.Recipe, error) {
	r, err := s.Repo.GetRecipe(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	return r, nil
}

// Update overwrites the recipe's editable fields after verifying that
// actorID is the author. The owner and creation timestamp are immutable.
func (s *RecipeService) Update(ctx context.Context, actorID, id string, in RecipeInput) (*domain.Recipe, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, ErrEmptyTitle
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.UserID != actorID {
		return nil, ErrNotOwner
	}

	if err := s.Repo.UpdateRecipe(ctx, s.DB, id, fieldsOf(in)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete removes the recipe permanently after verifying that actorID is the
// author.
func (s *RecipeService) Delete(ctx context.Context, actorID, id string) error {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.UserID != actorID {
		return ErrNotOwner
	}
	if err := s.Repo.DeleteRecipe(ctx, s.DB, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRecipeNotFound
		}
		return err
	}
	return nil
}

// ListByOwner returns all of the owner's recipes, newest first.
// Prefer ListByOwnerPage for scalability on large datasets.
func (s *RecipeService) ListByOwner(ctx context.Context, ownerID string) ([]domain.Recipe, error) {
	return s.Repo.ListRecipesByOwner(ctx, s.DB, ownerID)
}

// ListByOwnerPage returns a page of the owner's recipes (paginated).
// It applies defaults for invalid page/pageSize and returns the total count.
func (s *RecipeService) ListByOwnerPage(ctx context.Context, ownerID string, page, pageSize int) ([]domain.Recipe, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Repo.CountRecipesByOwner(ctx, s.DB, ownerID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Recipe{}, 0, nil
	}

	items, err := s.Repo.ListRecipesByOwnerPage(ctx, s.DB, ownerID, offset, pageSize)
	return items, total, err
}

// Search returns public recipes matching query, newest first.
func (s *RecipeService) Search(ctx context.Context, query string) ([]domain.Recipe, error) {
	return s.Repo.SearchPublicRecipes(ctx, s.DB, query, s.SearchLimit)
}

// fieldsOf maps transport input onto repository fields.
func fieldsOf(in RecipeInput) repo.RecipeFields {
	return repo.RecipeFields{
		Title:       in.Title,
		Description: in.Description,
		ImageURL:    in.ImageURL,
		Ingredients: in.Ingredients,
		Steps:       in.Steps,
		CookingTime: in.CookingTime,
		IsPublic:    in.IsPublic,
	}
}
