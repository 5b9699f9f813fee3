package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/presentation/http/dto/response"
	"github.com/sangkips/atelier-api/internal/presentation/http/handler"
	"github.com/sangkips/atelier-api/pkg/utils"
)

// ActorHeader carries the authenticated caller, set by the upstream gateway
const ActorHeader = "X-Actor-ID"

// ActorMiddleware attaches the caller identified by X-Actor-ID to the context.
// Requests without a valid actor are rejected.
func ActorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(ActorHeader)
		if raw == "" {
			response.Unauthorized(c, ActorHeader+" header is required")
			c.Abort()
			return
		}

		actorID, err := utils.ParseUUID(raw)
		if err != nil || actorID == uuid.Nil {
			response.Unauthorized(c, "Invalid "+ActorHeader+" header")
			c.Abort()
			return
		}

		c.Set(handler.ActorIDKey, actorID)
		c.Next()
	}
}

// GetActorID returns the actor attached by ActorMiddleware, or uuid.Nil
func GetActorID(c *gin.Context) uuid.UUID {
	if actorID := handler.GetActorID(c); actorID != nil {
		return *actorID
	}
	return uuid.Nil
}
