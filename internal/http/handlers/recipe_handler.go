// Recipe HTTP handlers.
//
// This file exposes REST endpoints for recipe resources:
//   - POST   /recipes          (create; supports Idempotency-Key replay)
//   - GET    /recipes          (own recipes, paginated, ETag support)
//   - GET    /recipes/search   (public recipe search)
//   - GET    /recipes/{id}     (fetch one)
//   - PUT    /recipes/{id}     (update, author only)
//   - DELETE /recipes/{id}     (delete, author only)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/repo"
	"github.com/tbourn/go-recipe-backend/internal/services"
	"github.com/tbourn/go-recipe-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// RecipeService defines recipe lifecycle operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type RecipeService interface {
	// Create inserts a new recipe owned by ownerID.
	Create(ctx context.Context, ownerID string, in services.RecipeInput) (*domain.Recipe, error)
	// Get fetches one recipe by ID.
	Get(ctx context.Context, id string) (*domain.Recipe, error)
	// Update overwrites a recipe's editable fields (author only).
	Update(ctx context.Context, actorID, id string, in services.RecipeInput) (*domain.Recipe, error)
	// Delete removes a recipe permanently (author only).
	Delete(ctx context.Context, actorID, id string) error
	// ListByOwnerPage returns a page of the owner's recipes and the total count.
	ListByOwnerPage(ctx context.Context, ownerID string, page, pageSize int) ([]domain.Recipe, int64, error)
	// Search returns public recipes matching the query.
	Search(ctx context.Context, query string) ([]domain.Recipe, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for recipes, saved recipes, search, profiles,
// and auth. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	recipeSvc  RecipeService
	savedSvc   SavedService
	searchSvc  SearchService
	profileSvc ProfileService
	authSvc    AuthService
	uploader   AvatarUploader
}

// New constructs and returns a Handlers instance bound to the given services.
// authSvc and uploader may be nil; the corresponding endpoints then respond
// with a service-unavailable error.
func New(recipeSvc RecipeService, savedSvc SavedService, searchSvc SearchService, profileSvc ProfileService, authSvc AuthService, uploader AvatarUploader) *Handlers {
	return &Handlers{
		recipeSvc:  recipeSvc,
		savedSvc:   savedSvc,
		searchSvc:  searchSvc,
		profileSvc: profileSvc,
		authSvc:    authSvc,
		uploader:   uploader,
	}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if c != nil && c.Request != nil {
		if h := strings.TrimSpace(c.GetHeader("X-User-ID")); h != "" {
			return h
		}
	}
	return "demo-user"
}

//
// DTOs
//

// RecipeRequest is the JSON payload for creating or updating a recipe.
type RecipeRequest struct {
	// Title is the recipe name (1–255 chars).
	Title string `json:"title" binding:"required,min=1,max=255" example:"Moussaka"`
	// Description is free-form text about the dish.
	Description string `json:"description" example:"Layered eggplant and spiced lamb bake"`
	// ImageURL points at a hero image for the recipe.
	ImageURL string `json:"image_url" example:"https://cdn.example.com/moussaka.jpg"`
	// Ingredients lists the measured ingredients in display order.
	Ingredients []string `json:"ingredients" example:"2 eggplants,500g lamb mince"`
	// Steps lists the preparation steps in order.
	Steps []string `json:"steps" example:"Slice the eggplants,Brown the lamb"`
	// CookingTime is the total time in minutes.
	CookingTime int `json:"cooking_time" example:"90"`
	// IsPublic controls whether the recipe appears in public search.
	IsPublic bool `json:"is_public" example:"true"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListRecipesResponse wraps a page of the user's recipes and pagination
// information.
type ListRecipesResponse struct {
	Recipes    []domain.Recipe `json:"recipes"`
	Pagination Pagination      `json:"pagination"`
}

// SearchRecipesResponse wraps public search matches.
type SearchRecipesResponse struct {
	Recipes []domain.Recipe `json:"recipes"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// recipeInputOf maps the transport payload onto the service input.
func recipeInputOf(req RecipeRequest) services.RecipeInput {
	return services.RecipeInput{
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Ingredients: req.Ingredients,
		Steps:       req.Steps,
		CookingTime: req.CookingTime,
		IsPublic:    req.IsPublic,
	}
}

// recipeDB uncovers the GORM handle behind the recipe service for best-effort
// transport concerns (ETags, idempotency records).
func (h *Handlers) recipeDB() *gorm.DB {
	if svc, ok := h.recipeSvc.(*services.RecipeService); ok {
		return svc.DB
	}
	return nil
}

//
// Handlers
//

// CreateRecipe godoc
// @ID          createRecipe
// @Summary     Create a recipe
// @Description Creates a recipe owned by the current user and returns the resource.
// @Description Supports idempotency via the Idempotency-Key header (same key → same recipe).
// @Tags        Recipes
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID (demo header)"  example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.RecipeRequest  true  "Recipe payload"
//
// @Success     201  {object}  domain.Recipe
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /recipes [post]
func (h *Handlers) CreateRecipe(c *gin.Context) {
	ctx := c.Request.Context()
	currentUser := userID(c)

	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title required (1–255 chars)")
		return
	}

	// Idempotency (replay path) – read validated key if present.
	idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
	if idemKey != "" {
		if db := h.recipeDB(); db != nil {
			if rec, err := repo.GetIdempotency(ctx, db, currentUser, idemKey, time.Now().UTC()); err == nil && rec != nil {
				if prev, err2 := h.recipeSvc.Get(ctx, rec.RecipeID); err2 == nil {
					c.Header("Idempotency-Replayed", "true")
					ok(c, http.StatusCreated, prev)
					return
				}
			}
		}
	}

	r, err := h.recipeSvc.Create(ctx, currentUser, recipeInputOf(req))
	if err != nil {
		if errors.Is(err, services.ErrEmptyTitle) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title required")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeCreateFailed, err.Error())
		return
	}

	// Idempotency (store path) – best effort.
	if idemKey != "" {
		if db := h.recipeDB(); db != nil {
			ttl := 24 * time.Hour
			_, _ = repo.CreateIdempotency(ctx, db, currentUser, idemKey, r.ID, http.StatusCreated, ttl)
		}
	}

	ok(c, http.StatusCreated, r)
}

// ListRecipes godoc
// @ID          listRecipes
// @Summary     List own recipes (paginated)
// @Description Returns a page of the user's recipes. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Recipes
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListRecipesResponse
// @Header      200  {string} ETag           "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /recipes [get]
func (h *Handlers) ListRecipes(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if db := h.recipeDB(); db != nil {
		count, maxTS, err := repo.RecipesStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"recipes:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.recipeSvc.ListByOwnerPage(ctx, uid, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListRecipesResponse{
		Recipes: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// GetRecipe godoc
// @ID          getRecipe
// @Summary     Fetch one recipe
// @Description Returns a single recipe by ID.
// @Tags        Recipes
// @Produce     json
//
// @Param       id  path  string  true  "Recipe ID (UUID)"  format(uuid)
//
// @Success     200  {object} domain.Recipe
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /recipes/{id} [get]
func (h *Handlers) GetRecipe(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "recipe id must be a UUID")
		return
	}

	r, err := h.recipeSvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrRecipeNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "recipe not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, r)
}

// UpdateRecipe godoc
// @ID          updateRecipe
// @Summary     Update a recipe
// @Description Overwrites the editable fields of a recipe owned by the current user.
// @Tags        Recipes
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Recipe ID (UUID)"       format(uuid)
// @Param       body       body    handlers.RecipeRequest  true  "Recipe payload"
//
// @Success     200  {object} domain.Recipe
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     403  {object} handlers.ErrorResponse "Not the author"
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /recipes/{id} [put]
func (h *Handlers) UpdateRecipe(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "recipe id must be a UUID")
		return
	}

	var req RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title required (1–255 chars)")
		return
	}

	r, err := h.recipeSvc.Update(c.Request.Context(), userID(c), id, recipeInputOf(req))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRecipeNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "recipe not found")
		case errors.Is(err, services.ErrNotOwner):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "only the author can modify a recipe")
		case errors.Is(err, services.ErrEmptyTitle):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "title required")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusOK, r)
}

// DeleteRecipe godoc
// @ID          deleteRecipe
// @Summary     Delete a recipe
// @Description Permanently removes a recipe owned by the current user.
// @Tags        Recipes
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Recipe ID (UUID)"       format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     403  {object} handlers.ErrorResponse "Not the author"
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /recipes/{id} [delete]
func (h *Handlers) DeleteRecipe(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "recipe id must be a UUID")
		return
	}

	if err := h.recipeSvc.Delete(c.Request.Context(), userID(c), id); err != nil {
		switch {
		case errors.Is(err, services.ErrRecipeNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "recipe not found")
		case errors.Is(err, services.ErrNotOwner):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "only the author can delete a recipe")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}

// SearchOwnPublicRecipes godoc
// @ID          searchPublicRecipes
// @Summary     Search public recipes
// @Description Case-insensitive substring match on title and description of public recipes.
// @Tags        Recipes
// @Produce     json
//
// @Param       q  query  string  true  "Search query"  example(chicken)
//
// @Success     200  {object} handlers.SearchRecipesResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /recipes/search [get]
func (h *Handlers) SearchOwnPublicRecipes(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))

	items, err := h.recipeSvc.Search(c.Request.Context(), query)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeSearchFailed, err.Error())
		return
	}
	if items == nil {
		items = []domain.Recipe{}
	}
	ok(c, http.StatusOK, SearchRecipesResponse{Recipes: items})
}
