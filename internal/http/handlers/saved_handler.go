// Saved-recipe HTTP handlers.
//
// This file exposes REST endpoints for the user's bookmark collection:
//   - GET    /saved                   (merged local + external listing, ETag support)
//   - POST   /saved/recipes/{id}      (bookmark a local recipe)
//   - DELETE /saved/recipes/{id}      (remove a local bookmark)
//   - POST   /saved/external          (bookmark an external recipe snapshot)
//   - DELETE /saved/external/{id}     (remove an external bookmark)
//
// Saving is idempotent at the API level: repeating a save returns 200 with
// saved=false instead of an error, so mobile clients can retry blindly.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/repo"
	"github.com/tbourn/go-recipe-backend/internal/services"
)

// SavedService defines the bookmark operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type SavedService interface {
	// ListSaved returns the merged saved list, newest first.
	ListSaved(ctx context.Context, userID string) ([]services.SavedItem, error)
	// SaveLocal bookmarks a local recipe; false means it was already saved.
	SaveLocal(ctx context.Context, userID, recipeID string) (bool, error)
	// SaveExternal bookmarks an external snapshot; false means already saved.
	SaveExternal(ctx context.Context, userID string, ext domain.ExternalRecipe) (bool, error)
	// UnsaveLocal removes a local bookmark.
	UnsaveLocal(ctx context.Context, userID, recipeID string) error
	// UnsaveExternal removes an external bookmark by namespaced ID.
	UnsaveExternal(ctx context.Context, userID, externalID string) error
}

//
// DTOs
//

// ListSavedResponse wraps the merged saved listing.
type ListSavedResponse struct {
	Items []services.SavedItem `json:"items"`
}

// SaveResponse reports the outcome of a save operation.
type SaveResponse struct {
	// Saved is true when the bookmark was newly created, false when it
	// already existed.
	Saved bool `json:"saved"`
}

// SaveExternalRequest is the JSON payload for bookmarking an external recipe.
// The client submits the full normalized snapshot it is displaying; the server
// stores it verbatim so the bookmark survives provider changes.
type SaveExternalRequest struct {
	Recipe domain.ExternalRecipe `json:"recipe" binding:"required"`
}

//
// Handlers
//

// ListSaved godoc
// @ID          listSaved
// @Summary     List saved recipes
// @Description Returns the user's saved recipes from both sources, newest first.
// @Description Supports weak ETag via If-None-Match and may return 304.
// @Tags        Saved
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID (demo header)"       example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
//
// @Success     200  {object} handlers.ListSavedResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /saved [get]
func (h *Handlers) ListSaved(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)

	// ETag pre-check (best effort).
	if svc, okSvc := h.savedSvc.(*services.SavedService); okSvc && svc.DB != nil {
		count, maxTS, err := repo.SavedStats(ctx, svc.DB, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"saved:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, err := h.savedSvc.ListSaved(ctx, uid)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, ListSavedResponse{Items: items})
}

// SaveRecipe godoc
// @ID          saveRecipe
// @Summary     Save a local recipe
// @Description Bookmarks a locally authored recipe. Saving twice is not an error.
// @Tags        Saved
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Recipe ID (UUID)"       format(uuid)
//
// @Success     200  {object} handlers.SaveResponse "Already saved"
// @Success     201  {object} handlers.SaveResponse "Newly saved"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Recipe not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /saved/recipes/{id} [post]
func (h *Handlers) SaveRecipe(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "recipe id must be a UUID")
		return
	}

	created, err := h.savedSvc.SaveLocal(c.Request.Context(), userID(c), id)
	if err != nil {
		if errors.Is(err, services.ErrRecipeNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "recipe not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ok(c, status, SaveResponse{Saved: created})
}

// UnsaveRecipe godoc
// @ID          unsaveRecipe
// @Summary     Remove a local bookmark
// @Description Deletes the user's bookmark of a local recipe. The recipe itself is untouched.
// @Tags        Saved
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Recipe ID (UUID)"       format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Bookmark not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /saved/recipes/{id} [delete]
func (h *Handlers) UnsaveRecipe(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "recipe id must be a UUID")
		return
	}

	if err := h.savedSvc.UnsaveLocal(c.Request.Context(), userID(c), id); err != nil {
		if errors.Is(err, services.ErrSaveNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "bookmark not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}

// SaveExternalRecipe godoc
// @ID          saveExternalRecipe
// @Summary     Save an external recipe
// @Description Bookmarks a third-party recipe by storing its full snapshot. Saving twice is not an error.
// @Tags        Saved
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.SaveExternalRequest  true  "External recipe snapshot"
//
// @Success     200  {object} handlers.SaveResponse "Already saved"
// @Success     201  {object} handlers.SaveResponse "Newly saved"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /saved/external [post]
func (h *Handlers) SaveExternalRecipe(c *gin.Context) {
	var req SaveExternalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "recipe snapshot required")
		return
	}

	created, err := h.savedSvc.SaveExternal(c.Request.Context(), userID(c), req.Recipe)
	if err != nil {
		if errors.Is(err, services.ErrInvalidExternalRecipe) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "recipe snapshot must carry an id")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	ok(c, status, SaveResponse{Saved: created})
}

// UnsaveExternalRecipe godoc
// @ID          unsaveExternalRecipe
// @Summary     Remove an external bookmark
// @Description Deletes the user's bookmark of an external recipe by its namespaced ID.
// @Tags        Saved
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"       example(user123)
// @Param       id         path    string  true  "External recipe ID"          example(mealdb-52772)
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Bookmark not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /saved/external/{id} [delete]
func (h *Handlers) UnsaveExternalRecipe(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "external recipe id required")
		return
	}

	if err := h.savedSvc.UnsaveExternal(c.Request.Context(), userID(c), id); err != nil {
		if errors.Is(err, services.ErrSaveNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "bookmark not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	noContent(c)
}
