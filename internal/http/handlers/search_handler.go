// Search and category-browsing HTTP handlers.
//
// This file exposes the dual-source discovery endpoints:
//   - GET /search                     (local + external search in one call)
//   - GET /categories                 (provider category directory)
//   - GET /categories/{name}/recipes  (provider recipes for a category)
//
// The combined search never fails as a whole: a provider outage yields an
// empty external branch while local matches are still returned.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/mealdb"
	"github.com/tbourn/go-recipe-backend/internal/services"
)

// SearchService defines the dual-source discovery operations consumed by HTTP
// handlers.
type SearchService interface {
	// Search runs the local and external branches concurrently.
	Search(ctx context.Context, query string) services.SearchResults
	// ByCategory lists provider recipes for a category.
	ByCategory(ctx context.Context, category string) ([]domain.ExternalRecipe, error)
	// Categories returns the provider's category directory.
	Categories(ctx context.Context) ([]mealdb.Category, error)
	// Random returns one random provider recipe.
	Random(ctx context.Context) (*domain.ExternalRecipe, error)
}

//
// DTOs
//

// CategoriesResponse wraps the provider's category directory.
type CategoriesResponse struct {
	Categories []mealdb.Category `json:"categories"`
}

// CategoryRecipesResponse wraps provider recipes for one category.
type CategoryRecipesResponse struct {
	Recipes []domain.ExternalRecipe `json:"recipes"`
}

//
// Handlers
//

// SearchAll godoc
// @ID          searchAll
// @Summary     Search recipes across sources
// @Description Runs the query against public local recipes and the external provider concurrently.
// @Description A provider outage degrades the external branch to an empty list; it never fails the request.
// @Tags        Search
// @Produce     json
//
// @Param       q  query  string  true  "Search query"  example(chicken)
//
// @Success     200  {object} services.SearchResults
// @Router      /search [get]
func (h *Handlers) SearchAll(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	res := h.searchSvc.Search(c.Request.Context(), query)
	ok(c, http.StatusOK, res)
}

// ListCategories godoc
// @ID          listCategories
// @Summary     List recipe categories
// @Description Returns the external provider's category directory.
// @Tags        Search
// @Produce     json
//
// @Success     200  {object} handlers.CategoriesResponse
// @Failure     502  {object} handlers.ErrorResponse "Provider unavailable"
// @Router      /categories [get]
func (h *Handlers) ListCategories(c *gin.Context) {
	cats, err := h.searchSvc.Categories(c.Request.Context())
	if err != nil {
		fail(c, http.StatusBadGateway, ErrCodeSearchFailed, "category directory unavailable")
		return
	}
	if cats == nil {
		cats = []mealdb.Category{}
	}
	ok(c, http.StatusOK, CategoriesResponse{Categories: cats})
}

// ListCategoryRecipes godoc
// @ID          listCategoryRecipes
// @Summary     List recipes in a category
// @Description Returns external recipes for the named category, resolved to full detail.
// @Tags        Search
// @Produce     json
//
// @Param       name  path  string  true  "Category name"  example(Seafood)
//
// @Success     200  {object} handlers.CategoryRecipesResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     502  {object} handlers.ErrorResponse "Provider unavailable"
// @Router      /categories/{name}/recipes [get]
func (h *Handlers) ListCategoryRecipes(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "category name required")
		return
	}

	items, err := h.searchSvc.ByCategory(c.Request.Context(), name)
	if err != nil {
		fail(c, http.StatusBadGateway, ErrCodeSearchFailed, "category listing unavailable")
		return
	}
	if items == nil {
		items = []domain.ExternalRecipe{}
	}
	ok(c, http.StatusOK, CategoryRecipesResponse{Recipes: items})
}

// RandomRecipe godoc
// @ID          randomRecipe
// @Summary     Fetch a random recipe
// @Description Returns one random recipe from the external provider.
// @Tags        Search
// @Produce     json
//
// @Success     200  {object} domain.ExternalRecipe
// @Failure     404  {object} handlers.ErrorResponse "Provider returned nothing"
// @Failure     502  {object} handlers.ErrorResponse "Provider unavailable"
// @Router      /recipes/random [get]
func (h *Handlers) RandomRecipe(c *gin.Context) {
	r, err := h.searchSvc.Random(c.Request.Context())
	if err != nil {
		fail(c, http.StatusBadGateway, ErrCodeSearchFailed, "random recipe unavailable")
		return
	}
	if r == nil {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "provider returned no recipe")
		return
	}
	ok(c, http.StatusOK, r)
}
