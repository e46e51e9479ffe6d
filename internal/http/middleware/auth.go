// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller's identity for user-scoped routes. Identity
// comes from a Bearer access token (HS256, as issued by GoTrue-compatible auth
// providers) whose subject claim carries the user ID. When no signing secret
// is configured the server runs in development mode and trusts an X-User-ID
// header instead, falling back to a fixed demo identity.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// ctxKeyUserID is the Gin context key under which the resolved user ID is
	// stored; handlers read it via UserID.
	ctxKeyUserID = "userID"

	// headerUserID is the development-mode identity header honored when no
	// JWT secret is configured.
	headerUserID = "X-User-ID"

	// demoUserID is the identity assumed when development mode receives no
	// explicit header.
	demoUserID = "demo-user"
)

// UserID returns the authenticated user's ID as resolved by Auth. The second
// return value indicates presence.
func UserID(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyUserID)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// Auth returns middleware that resolves and stashes the caller identity.
//
// With a non-empty secret, requests must present "Authorization: Bearer
// <jwt>" signed with HS256; the token's subject becomes the user ID and
// invalid or absent tokens are rejected with 401. With an empty secret the
// middleware trusts the X-User-ID header (or demoUserID) so local setups work
// without an auth provider.
func Auth(secret string) gin.HandlerFunc {
	if secret == "" {
		return func(c *gin.Context) {
			uid := strings.TrimSpace(c.GetHeader(headerUserID))
			if uid == "" {
				uid = demoUserID
			}
			c.Set(ctxKeyUserID, uid)
			c.Next()
		}
	}

	key := []byte(secret)
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			unauthorized(c, "missing bearer token")
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			return key, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			unauthorized(c, "invalid access token")
			return
		}

		sub, err := claims.GetSubject()
		if err != nil || sub == "" {
			unauthorized(c, "token has no subject")
			return
		}

		c.Set(ctxKeyUserID, sub)
		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(h string) string {
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    "unauthorized",
		"message": msg,
	})
}
