// Auth HTTP handlers.
//
// This file exposes the account endpoints backed by the external identity
// provider:
//   - POST /auth/register  (create account + bootstrap profile)
//   - POST /auth/login     (exchange credentials for a session)
//   - POST /auth/logout    (revoke the current access token)
//
// Profile bootstrap differs by path on purpose: registration creates the
// profile synchronously so the chosen username is never lost, while login
// kicks it off in the background so a profile hiccup cannot block sign-in.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-recipe-backend/internal/auth"
	"github.com/tbourn/go-recipe-backend/internal/domain"
)

// AuthService abstracts the external identity provider for the HTTP layer.
// Satisfied by *auth.Client.
type AuthService interface {
	// SignUp registers a new identity with optional metadata hints.
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (*auth.Session, error)
	// SignIn exchanges credentials for a session.
	SignIn(ctx context.Context, email, password string) (*auth.Session, error)
	// SignOut revokes the given access token. Best effort.
	SignOut(ctx context.Context, accessToken string) error
}

//
// DTOs
//

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email" example:"jane@example.com"`
	Password string `json:"password" binding:"required,min=8" example:"hunter2hunter2"`
	// Username is the display name recorded on the new profile.
	Username string `json:"username" example:"JaneCooks"`
}

// LoginRequest is the JSON payload for signing in.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"jane@example.com"`
	Password string `json:"password" binding:"required" example:"hunter2hunter2"`
}

// SessionUser is the identity summary embedded in session responses.
type SessionUser struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	EmailConfirmed bool   `json:"email_confirmed"`
}

// SessionResponse is the envelope returned by register and login.
type SessionResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresIn   int             `json:"expires_in"`
	User        SessionUser     `json:"user"`
	Profile     *domain.Profile `json:"profile,omitempty"`
}

func sessionEnvelope(s *auth.Session, p *domain.Profile) SessionResponse {
	return SessionResponse{
		AccessToken: s.AccessToken,
		ExpiresIn:   s.ExpiresIn,
		User: SessionUser{
			ID:             s.Identity.UserID,
			Email:          s.Identity.Email,
			EmailConfirmed: s.Identity.EmailConfirmed,
		},
		Profile: p,
	}
}

//
// Handlers
//

// Register godoc
// @ID          register
// @Summary     Create an account
// @Description Registers a new identity with the auth provider and creates the
// @Description user's profile with the chosen username.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterRequest  true  "Registration payload"
//
// @Success     201  {object} handlers.SessionResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     409  {object} handlers.ErrorResponse "Email already registered"
// @Failure     502  {object} handlers.ErrorResponse "Auth provider unavailable"
// @Failure     503  {object} handlers.ErrorResponse "Auth not configured"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	if h.authSvc == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeAuthFailed, "auth is not configured")
		return
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password (min 8 chars) required")
		return
	}
	username := strings.TrimSpace(req.Username)

	ctx := c.Request.Context()
	var metadata map[string]string
	if username != "" {
		metadata = map[string]string{"username": username}
	}

	session, err := h.authSvc.SignUp(ctx, req.Email, req.Password, metadata)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			fail(c, http.StatusConflict, ErrCodeConflict, "email already registered")
			return
		}
		fail(c, http.StatusBadGateway, ErrCodeAuthFailed, "registration failed")
		return
	}

	// Synchronous bootstrap: the chosen username must not be lost, so a
	// profile failure here is surfaced instead of swallowed.
	profile, err := h.profileSvc.EnsureProfile(ctx, session.Identity, username)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "profile creation failed")
		return
	}

	ok(c, http.StatusCreated, sessionEnvelope(session, profile))
}

// Login godoc
// @ID          login
// @Summary     Sign in
// @Description Exchanges credentials for a session. Profile bootstrap runs in the
// @Description background and never blocks or fails the login.
// @Tags        Auth
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LoginRequest  true  "Credentials"
//
// @Success     200  {object} handlers.SessionResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Invalid credentials"
// @Failure     403  {object} handlers.ErrorResponse "Email not verified"
// @Failure     502  {object} handlers.ErrorResponse "Auth provider unavailable"
// @Failure     503  {object} handlers.ErrorResponse "Auth not configured"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	if h.authSvc == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeAuthFailed, "auth is not configured")
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password required")
		return
	}

	session, err := h.authSvc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailNotConfirmed):
			fail(c, http.StatusForbidden, ErrCodeEmailNotVerified, "confirm your email address before signing in")
		case errors.Is(err, auth.ErrInvalidCredentials):
			fail(c, http.StatusUnauthorized, ErrCodeAuthFailed, "invalid email or password")
		default:
			fail(c, http.StatusBadGateway, ErrCodeAuthFailed, "sign-in failed")
		}
		return
	}

	// Fire-and-forget: a missing profile must never abort a login.
	_ = h.profileSvc.EnsureProfileAsync(session.Identity, "")

	ok(c, http.StatusOK, sessionEnvelope(session, nil))
}

// Logout godoc
// @ID          logout
// @Summary     Sign out
// @Description Revokes the presented access token. Always succeeds from the
// @Description client's point of view.
// @Tags        Auth
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer access token"
//
// @Success     204  {string} string "No Content"
// @Failure     503  {object} handlers.ErrorResponse "Auth not configured"
// @Router      /auth/logout [post]
func (h *Handlers) Logout(c *gin.Context) {
	if h.authSvc == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeAuthFailed, "auth is not configured")
		return
	}

	token := ""
	if v := c.GetHeader("Authorization"); strings.HasPrefix(v, "Bearer ") {
		token = strings.TrimSpace(strings.TrimPrefix(v, "Bearer "))
	}
	if token != "" {
		// Best effort: a failed revocation is invisible to the client.
		_ = h.authSvc.SignOut(c.Request.Context(), token)
	}
	noContent(c)
}
