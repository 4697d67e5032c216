package utils

import (
	"github.com/city-guide/api-go/session"
	"github.com/gin-gonic/gin"
)

type UserClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
}

type contextKey string

const (
	UserContextKey    contextKey = "user"
	SessionContextKey contextKey = "session"
)

func GetUser(c *gin.Context) *UserClaims {
	user, exists := c.Get(string(UserContextKey))
	if !exists {
		return nil
	}
	if userClaims, ok := user.(*UserClaims); ok {
		return userClaims
	}
	return nil
}

// GetSession returns the resolved session gate snapshot for the request.
func GetSession(c *gin.Context) (session.Snapshot, bool) {
	v, exists := c.Get(string(SessionContextKey))
	if !exists {
		return session.Snapshot{}, false
	}
	snap, ok := v.(session.Snapshot)
	return snap, ok
}
