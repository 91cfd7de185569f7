package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/brnikita/refine-supabase-apps-builder/pkg/auth"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/constants"
	apperrors "github.com/brnikita/refine-supabase-apps-builder/pkg/errors"
	"github.com/brnikita/refine-supabase-apps-builder/pkg/models"
)

// Identity resolves the ambient identity for runtime requests. No token
// degrades to the anonymous session so public runtime reads keep working;
// a token that is present but invalid is rejected rather than silently
// downgraded.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, token, err := userFromHeader(c)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}
		if user == nil {
			anon := auth.AnonymousSession()
			user = &anon
		}
		c.Set(constants.ContextKeyUser, *user)
		if token != "" {
			c.Set(constants.ContextKeyToken, token)
		}
		c.Next()
	}
}

// RequireAuth validates the bearer token and rejects requests without one.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, token, err := userFromHeader(c)
		if err != nil {
			abortUnauthorized(c, err)
			return
		}
		if user == nil {
			abortUnauthorized(c, apperrors.NewUnauthorizedError("no authorization token provided"))
			return
		}
		c.Set(constants.ContextKeyUser, *user)
		c.Set(constants.ContextKeyToken, token)
		c.Next()
	}
}

// userFromHeader parses the Authorization header. (nil, "", nil) means the
// header was absent; a malformed header or invalid token is an error.
func userFromHeader(c *gin.Context) (*models.UserSession, string, error) {
	authHeader := c.GetHeader(constants.HeaderAuthorization)
	if authHeader == "" {
		return nil, "", nil
	}
	if !strings.HasPrefix(authHeader, constants.BearerPrefix) {
		return nil, "", apperrors.NewUnauthorizedError("invalid authorization header format")
	}
	token := strings.TrimPrefix(authHeader, constants.BearerPrefix)
	claims, err := auth.ValidateToken(token)
	if err != nil {
		return nil, "", apperrors.NewUnauthorizedError("invalid or expired token")
	}
	return &claims.User, token, nil
}

func abortUnauthorized(c *gin.Context, err error) {
	resp := apperrors.ToResponse(err)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		constants.ResponseError: resp.Message,
		constants.FieldMessage:  resp.Message,
		"code":                  resp.Code,
		constants.ResponseData:  nil,
	})
}
