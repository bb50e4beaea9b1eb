package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/insighthub/internal/model"
	"github.com/xxxsen/insighthub/internal/pkg/errcode"
	"github.com/xxxsen/insighthub/internal/pkg/response"
)

const (
	ContextUserKey    = "user"
	ContextUserIDKey  = "user_id"
	ContextEmailKey   = "user_email"
	bearerAuthScheme  = "Bearer"
	authorizationHead = "Authorization"
)

type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*model.User, error)
}

func JWTAuth(resolver TokenResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(authorizationHead)
		if header == "" {
			response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "missing authorization")
			c.Abort()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], bearerAuthScheme) || strings.TrimSpace(parts[1]) == "" {
			response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "invalid authorization")
			c.Abort()
			return
		}
		user, err := resolver.Resolve(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "could not validate credentials")
			c.Abort()
			return
		}
		c.Set(ContextUserKey, user)
		c.Set(ContextUserIDKey, user.ID)
		c.Set(ContextEmailKey, user.Email)
		c.Next()
	}
}

// CurrentUser returns the identity set by JWTAuth.
func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}
