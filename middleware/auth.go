package middleware

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/city-guide/api-go/session"
	"github.com/city-guide/api-go/utils"
	"github.com/gin-gonic/gin"
)

const authErrorKey = "auth_error"

// Session resolves the request's session through a session gate. A valid
// bearer token yields an authenticated snapshot whose privilege flag comes
// from resolver; no token or an invalid one yields an anonymous snapshot.
// The request is never rejected here.
func Session(secret string, resolver session.PrivilegeResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		var sess *session.Session

		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			bearerToken := strings.Split(authHeader, " ")
			if len(bearerToken) != 2 || !strings.EqualFold(bearerToken[0], "Bearer") {
				c.Set(authErrorKey, "Invalid token format")
			} else if claims, expires, err := utils.ParseToken(secret, bearerToken[1]); err != nil {
				c.Set(authErrorKey, "Invalid token")
			} else {
				sess = &session.Session{
					UserID:      claims.UserID,
					Email:       claims.Email,
					AccessToken: bearerToken[1],
					ExpiresAt:   expires,
				}
				c.Set(string(utils.UserContextKey), claims)
			}
		}

		gate := session.NewGate(resolver)
		snap := gate.Handle(c.Request.Context(), session.Event{Kind: session.InitialSession, Session: sess})
		c.Set(string(utils.SessionContextKey), snap)

		c.Next()
	}
}

// RequireSession rejects requests without an authenticated user.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := utils.GetSession(c)
		if !ok {
			abort(c, session.ErrNotResolved)
			return
		}
		if err := snap.RequireUser(); err != nil {
			abort(c, err)
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects requests unless the user's privilege flag is set.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := utils.GetSession(c)
		if !ok {
			abort(c, session.ErrNotResolved)
			return
		}
		if err := snap.RequireAdmin(); err != nil {
			abort(c, err)
			return
		}
		c.Next()
	}
}

// IngestKey checks the X-Ingest-Key header when key is set.
func IngestKey(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" {
			c.Next()
			return
		}
		got := c.GetHeader("X-Ingest-Key")
		if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid ingest key", "success": false})
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrAccessDenied):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied", "success": false})
	case errors.Is(err, session.ErrNotResolved):
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "session is still loading", "success": false})
	default:
		msg := "Authorization header is required"
		if authErr := c.GetString(authErrorKey); authErr != "" {
			msg = authErr
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "success": false})
	}
}
