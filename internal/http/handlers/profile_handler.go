// Profile HTTP handlers.
//
// This file exposes REST endpoints for the user's profile:
//   - GET  /profile        (fetch own profile)
//   - PUT  /profile        (update username and bio)
//   - POST /profile/image  (upload a new avatar, multipart)
//
// Avatar uploads stream through the configured storage chain; on success the
// resulting public URL is persisted on the profile.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recipe-backend/internal/auth"
	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/services"
	"github.com/tbourn/go-recipe-backend/internal/storage"
)

// maxAvatarBytes caps avatar uploads. Mobile clients downscale before
// uploading, so anything bigger is almost certainly a mistake.
const maxAvatarBytes = 5 << 20

// ProfileService defines the profile operations consumed by HTTP handlers,
// including the bootstrap paths used by the auth endpoints.
type ProfileService interface {
	// Get returns the user's profile.
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	// UpdateSettings overwrites username and bio.
	UpdateSettings(ctx context.Context, userID, username, bio string) (*domain.Profile, error)
	// SetImageURL stores the public URL of a freshly uploaded avatar.
	SetImageURL(ctx context.Context, userID, url string) error
	// EnsureProfile guarantees a profile row exists for the identity.
	EnsureProfile(ctx context.Context, identity auth.Identity, candidateUsername string) (*domain.Profile, error)
	// EnsureProfileAsync runs the bootstrap in the background after sign-in.
	EnsureProfileAsync(identity auth.Identity, candidateUsername string) <-chan struct{}
}

// AvatarUploader stores an avatar and returns its public URL. Satisfied by
// *storage.Uploader.
type AvatarUploader interface {
	Upload(ctx context.Context, userID string, f storage.File) (string, error)
}

//
// DTOs
//

// UpdateProfileRequest is the JSON payload for updating profile settings.
type UpdateProfileRequest struct {
	// Username is the display name; blank keeps the stored one.
	Username string `json:"username" example:"JaneCooks"`
	// Bio is free-form text shown on the profile.
	Bio string `json:"bio" example:"Weeknight pasta enthusiast"`
}

// UploadImageResponse returns the public URL of an uploaded avatar.
type UploadImageResponse struct {
	ImageURL string `json:"image_url" example:"https://cdn.example.com/u1/avatar.png"`
}

//
// Handlers
//

// GetProfile godoc
// @ID          getProfile
// @Summary     Fetch own profile
// @Description Returns the authenticated user's profile.
// @Tags        Profile
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
//
// @Success     200  {object} domain.Profile
// @Failure     404  {object} handlers.ErrorResponse "Profile not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /profile [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	p, err := h.profileSvc.Get(c.Request.Context(), userID(c))
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "profile not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, p)
}

// UpdateProfile godoc
// @ID          updateProfile
// @Summary     Update profile settings
// @Description Overwrites the username and bio of the authenticated user's profile.
// @Tags        Profile
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       body       body    handlers.UpdateProfileRequest  true  "Settings payload"
//
// @Success     200  {object} domain.Profile
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Profile not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /profile [put]
func (h *Handlers) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	p, err := h.profileSvc.UpdateSettings(c.Request.Context(), userID(c), req.Username, req.Bio)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "profile not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, p)
}

// UploadProfileImage godoc
// @ID          uploadProfileImage
// @Summary     Upload a profile image
// @Description Accepts a multipart form with an "image" file, stores it via the
// @Description configured storage chain, and persists the public URL on the profile.
// @Tags        Profile
// @Accept      multipart/form-data
// @Produce     json
//
// @Param       X-User-ID  header    string  false "User ID (demo header)"  example(user123)
// @Param       image      formData  file    true  "Avatar image (max 5 MiB)"
//
// @Success     200  {object} handlers.UploadImageResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Profile not found"
// @Failure     502  {object} handlers.ErrorResponse "Upload failed"
// @Failure     503  {object} handlers.ErrorResponse "Uploads not configured"
// @Router      /profile/image [post]
func (h *Handlers) UploadProfileImage(c *gin.Context) {
	if h.uploader == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeUploadFailed, "image uploads are not configured")
		return
	}

	fh, err := c.FormFile("image")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, `multipart field "image" required`)
		return
	}
	if fh.Size > maxAvatarBytes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "image too large: max 5 MiB")
		return
	}

	src, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable upload")
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxAvatarBytes+1))
	if err != nil || int64(len(data)) > maxAvatarBytes {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "image too large: max 5 MiB")
		return
	}

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "only image uploads are accepted")
		return
	}

	ctx := c.Request.Context()
	uid := userID(c)
	url, err := h.uploader.Upload(ctx, uid, storage.File{
		Name:        fh.Filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		fail(c, http.StatusBadGateway, ErrCodeUploadFailed, "image upload failed")
		return
	}

	if err := h.profileSvc.SetImageURL(ctx, uid, url); err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "profile not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, UploadImageResponse{ImageURL: url})
}
