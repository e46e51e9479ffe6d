package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recipe-backend/internal/auth"
	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/services"
	"github.com/tbourn/go-recipe-backend/internal/storage"
)

// Flexible profile-service stub
type stubProfileFlex struct {
	get      func(context.Context, string) (*domain.Profile, error)
	update   func(context.Context, string, string, string) (*domain.Profile, error)
	setImage func(context.Context, string, string) error
}

func (s stubProfileFlex) Get(ctx context.Context, u string) (*domain.Profile, error) {
	if s.get != nil {
		return s.get(ctx, u)
	}
	return &domain.Profile{UserID: u, Username: "chef"}, nil
}

func (s stubProfileFlex) UpdateSettings(ctx context.Context, u, username, bio string) (*domain.Profile, error) {
	if s.update != nil {
		return s.update(ctx, u, username, bio)
	}
	return &domain.Profile{UserID: u, Username: username, Bio: bio}, nil
}

func (s stubProfileFlex) SetImageURL(ctx context.Context, u, url string) error {
	if s.setImage != nil {
		return s.setImage(ctx, u, url)
	}
	return nil
}

func (s stubProfileFlex) EnsureProfile(ctx context.Context, identity auth.Identity, candidateUsername string) (*domain.Profile, error) {
	return &domain.Profile{UserID: identity.UserID, Username: candidateUsername}, nil
}

func (s stubProfileFlex) EnsureProfileAsync(identity auth.Identity, candidateUsername string) <-chan struct{} {
	done := make(chan struct{})
	close(done)
	return done
}

// Fake uploader capturing the stored file
type fakeUploader struct {
	uploadFn func(context.Context, string, storage.File) (string, error)
}

func (f fakeUploader) Upload(ctx context.Context, userID string, file storage.File) (string, error) {
	if f.uploadFn != nil {
		return f.uploadFn(ctx, userID, file)
	}
	return "https://cdn.example.com/" + userID + "/avatar.png", nil
}

func newProfileHandlers(ps ProfileService, up AvatarUploader) *Handlers {
	return New(stubRecipeSvc{}, stubSavedSvc{}, stubSearchSvc{}, ps, nil, up)
}

// pngBytes is a minimal payload that http.DetectContentType sniffs as image/png.
var pngBytes = []byte("\x89PNG\r\n\x1a\n0123456789")

// multipartImage builds a multipart body with one file part carrying an
// explicit Content-Type.
func multipartImage(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return body, mw.FormDataContentType()
}

// ---------- GetProfile ----------

func TestGetProfile_NotFound_Success(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Missing -> 404
	{
		h := newProfileHandlers(stubProfileFlex{
			get: func(ctx context.Context, u string) (*domain.Profile, error) {
				return nil, services.ErrProfileNotFound
			},
		}, nil)
		r := gin.New()
		r.GET("/profile", h.GetProfile)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		req.Header.Set("X-User-ID", "ghost")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("missing profile -> %d", w.Code)
		}
	}

	// Success -> 200
	{
		h := newProfileHandlers(stubProfileFlex{}, nil)
		r := gin.New()
		r.GET("/profile", h.GetProfile)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/profile", nil)
		req.Header.Set("X-User-ID", "u1")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("get profile -> %d", w.Code)
		}
		var out domain.Profile
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if out.UserID != "u1" || out.Username != "chef" {
			t.Fatalf("unexpected profile: %#v", out)
		}
	}
}

// ---------- UpdateProfile ----------

func TestUpdateProfile(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Bad JSON -> 400
	{
		h := newProfileHandlers(stubProfileFlex{}, nil)
		r := gin.New()
		r.PUT("/profile", h.UpdateProfile)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/profile", bytes.NewBufferString("{bad"))
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("bad json -> %d", w.Code)
		}
	}

	// Missing -> 404
	{
		h := newProfileHandlers(stubProfileFlex{
			update: func(ctx context.Context, u, username, bio string) (*domain.Profile, error) {
				return nil, services.ErrProfileNotFound
			},
		}, nil)
		r := gin.New()
		r.PUT("/profile", h.UpdateProfile)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/profile", bytes.NewBufferString(`{"username":"x"}`))
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("missing profile -> %d", w.Code)
		}
	}

	// Success -> 200 with fields forwarded
	{
		h := newProfileHandlers(stubProfileFlex{
			update: func(ctx context.Context, u, username, bio string) (*domain.Profile, error) {
				if u != "u1" || username != "JaneCooks" || bio != "pasta person" {
					t.Fatalf("fields not forwarded: %q %q %q", u, username, bio)
				}
				return &domain.Profile{UserID: u, Username: username, Bio: bio}, nil
			},
		}, nil)
		r := gin.New()
		r.PUT("/profile", h.UpdateProfile)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/profile",
			bytes.NewBufferString(`{"username":"JaneCooks","bio":"pasta person"}`))
		req.Header.Set("X-User-ID", "u1")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("update profile -> %d body=%s", w.Code, w.Body.String())
		}
	}
}

// ---------- UploadProfileImage ----------

func TestUploadProfileImage_NotConfigured(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newProfileHandlers(stubProfileFlex{}, nil)
	r := gin.New()
	r.POST("/profile/image", h.UploadProfileImage)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/profile/image", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("no uploader -> %d", w.Code)
	}
}

func TestUploadProfileImage_Validation(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newProfileHandlers(stubProfileFlex{}, fakeUploader{})
	r := gin.New()
	r.POST("/profile/image", h.UploadProfileImage)

	// Missing file field -> 400
	{
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/profile/image", nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("missing field -> %d", w.Code)
		}
	}

	// Non-image content type -> 400
	{
		body, ct := multipartImage(t, "image", "notes.txt", "text/plain", []byte("hello"))
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/profile/image", body)
		req.Header.Set("Content-Type", ct)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("non-image -> %d", w.Code)
		}
	}

	// Missing part content type but PNG magic bytes -> sniffed as image, accepted
	{
		body, ct := multipartImage(t, "image", "avatar.png", "", pngBytes)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/profile/image", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("X-User-ID", "u1")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("sniffed png -> %d body=%s", w.Code, w.Body.String())
		}
	}
}

func TestUploadProfileImage_SuccessAndFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Success: uploaded bytes and metadata reach the store, URL is persisted.
	{
		var storedURL string
		up := fakeUploader{
			uploadFn: func(ctx context.Context, userID string, f storage.File) (string, error) {
				if userID != "u1" || f.Name != "avatar.png" || f.ContentType != "image/png" {
					t.Fatalf("upload metadata wrong: user=%q file=%#v", userID, f)
				}
				if !bytes.Equal(f.Data, pngBytes) {
					t.Fatalf("upload payload mangled")
				}
				return "https://cdn.example.com/u1/avatar.png", nil
			},
		}
		ps := stubProfileFlex{
			setImage: func(ctx context.Context, u, url string) error {
				storedURL = url
				return nil
			},
		}
		h := newProfileHandlers(ps, up)
		r := gin.New()
		r.POST("/profile/image", h.UploadProfileImage)

		body, ct := multipartImage(t, "image", "avatar.png", "image/png", pngBytes)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/profile/image", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("X-User-ID", "u1")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("upload -> %d body=%s", w.Code, w.Body.String())
		}
		var out UploadImageResponse
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		if out.ImageURL != "https://cdn.example.com/u1/avatar.png" || storedURL != out.ImageURL {
			t.Fatalf("url mismatch: resp=%q stored=%q", out.ImageURL, storedURL)
		}
	}

	// Storage failure -> 502
	{
		up := fakeUploader{
			uploadFn: func(ctx context.Context, userID string, f storage.File) (string, error) {
				return "", errors.New("bucket offline")
			},
		}
		h := newProfileHandlers(stubProfileFlex{}, up)
		r := gin.New()
		r.POST("/profile/image", h.UploadProfileImage)

		body, ct := multipartImage(t, "image", "avatar.png", "image/png", pngBytes)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/profile/image", body)
		req.Header.Set("Content-Type", ct)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadGateway {
			t.Fatalf("storage failure -> %d", w.Code)
		}
	}

	// Profile gone by the time the URL is persisted -> 404
	{
		ps := stubProfileFlex{
			setImage: func(ctx context.Context, u, url string) error {
				return services.ErrProfileNotFound
			},
		}
		h := newProfileHandlers(ps, fakeUploader{})
		r := gin.New()
		r.POST("/profile/image", h.UploadProfileImage)

		body, ct := multipartImage(t, "image", "avatar.png", "image/png", pngBytes)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/profile/image", body)
		req.Header.Set("Content-Type", ct)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("missing profile -> %d", w.Code)
		}
	}
}
