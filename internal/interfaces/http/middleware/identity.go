package middleware

import (
	"net/http"

	"github.com/Z3RO333/formularios/internal/infrastructure/logger"
	"github.com/Z3RO333/formularios/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderUserID names the acting user. Authentication happens upstream; this
// service trusts the gateway to set it.
const HeaderUserID = "X-User-ID"

// Identity requires a valid X-User-ID on every request it guards and stores
// it in the request context.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderUserID)
		if raw == "" {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "X-User-ID header is required")
			return
		}
		id, err := uuid.Parse(raw)
		if err != nil || id == uuid.Nil {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "X-User-ID must be a UUID")
			return
		}

		ctx := c.Request.Context()
		ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), id.String())
		c.Request = c.Request.WithContext(ctx)
		annotateSpan(ctx, "user_id", id.String())
		c.Next()
	}
}

// UserID returns the acting user set by Identity
func UserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(logger.UserID(c.Request.Context()))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
