package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker/internal/auth"
	"github.com/yukikurage/task-tracker/internal/constants"
	apierrors "github.com/yukikurage/task-tracker/internal/errors"
	"github.com/yukikurage/task-tracker/internal/logger"
	"github.com/yukikurage/task-tracker/internal/models"
)

// SessionResolver turns a session token into the current user.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*models.User, bool, error)
}

type actorKey struct{}

// RequireAuth resolves the session cookie and stores the actor on both the gin
// and the request context. Requests without a live session get 401.
func RequireAuth(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok, err := resolver.ResolveSession(c.Request.Context(), auth.SessionToken(c))
		if err != nil {
			logger.FromGin(c).Error("failed to resolve session", "error", err)
			apierrors.InternalError(c, "")
			return
		}
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}

		c.Set(constants.ContextKeyActor, user)
		c.Set(constants.ContextKeyUserID, user.ID)
		c.Request = c.Request.WithContext(WithActor(c.Request.Context(), user))
		c.Next()
	}
}

// WithActor stores the authenticated user in ctx.
func WithActor(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, actorKey{}, user)
}

// ActorFromContext returns the user stored by WithActor.
func ActorFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(actorKey{}).(*models.User)
	return user, ok && user != nil
}

// GetActor retrieves the authenticated user from the gin context
func GetActor(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(constants.ContextKeyActor)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	v, ok := userID.(uint64)
	return v, ok
}

// MustActor is GetActor for handlers mounted behind RequireAuth. It writes a
// 401 and returns false when no actor is present.
func MustActor(c *gin.Context) (*models.User, bool) {
	user, ok := GetActor(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
	}
	return user, ok
}
