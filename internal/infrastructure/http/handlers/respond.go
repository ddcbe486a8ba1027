package handlers

import (
	"net/http"

	"github.com/alchemorsel/planner/pkg/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const userIDHeader = "X-User-ID"

// requireUser resolves the calling user from the request headers. The
// gateway in front of this service authenticates and injects the id.
func requireUser(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetHeader(userIDHeader)
	if raw == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			errors.ToErrorResponse(errors.NewAppError(errors.CodeUnauthorized, "missing user identity", "")))
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			errors.ToErrorResponse(errors.NewAppError(errors.CodeUnauthorized, "invalid user identity", "")))
		return uuid.Nil, false
	}
	return userID, true
}

// pathUUID parses a uuid path parameter, responding 400 on failure
func pathUUID(c *gin.Context, logger *zap.Logger, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, logger, errors.NewBadRequestError("invalid "+name+" parameter"))
		return uuid.Nil, false
	}
	return id, true
}

// respondError maps an error onto the wire format, logging server-side
// failures
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		appErr = errors.Wrap(err, "request failed")
	}

	status := appErr.StatusCode()
	if status >= 500 {
		logger.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("code", string(appErr.Code)),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, errors.ToErrorResponse(appErr))
}
