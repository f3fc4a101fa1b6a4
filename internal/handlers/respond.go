package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-tracker/internal/constants"
	apierrors "github.com/yukikurage/task-tracker/internal/errors"
	"github.com/yukikurage/task-tracker/internal/logger"
	"github.com/yukikurage/task-tracker/internal/services"
)

// respondError maps service errors onto API errors. Anything unrecognised is
// logged and reported as a bare 500.
func respondError(c *gin.Context, err error) {
	var fieldErr *services.FieldNotAllowedError

	switch {
	case errors.As(err, &fieldErr):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeFieldNotAllowed, fieldErr.Error(), gin.H{"fields": fieldErr.Fields})
	case errors.Is(err, services.ErrValidation):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrPasswordTooShort):
		apierrors.BadRequest(c, fmt.Sprintf("Password must be at least %d characters", constants.MinPasswordLength))
	case errors.Is(err, services.ErrInvalidRole):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidRole, err.Error(), nil)
	case errors.Is(err, services.ErrInvalidAssignee):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidAssignee, err.Error(), nil)
	case errors.Is(err, services.ErrInvalidStatus):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeInvalidStatus, err.Error(), gin.H{"allowed": statusOptions()})
	case errors.Is(err, services.ErrDuplicateIdentity):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.InvalidCredentials(c)
	case errors.Is(err, services.ErrForbidden):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrAssigneeNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		logger.FromGin(c).Error("request failed", "path", c.FullPath(), "error", err)
		apierrors.InternalError(c, "")
	}
}
