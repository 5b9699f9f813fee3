package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/atelier-api/internal/presentation/http/dto/response"
	"github.com/sangkips/atelier-api/pkg/utils"
)

// ActorIDKey is the gin context key the actor middleware stores the caller under
const ActorIDKey = "actor_id"

// GetActorID extracts the actor ID from the Gin context
func GetActorID(c *gin.Context) *uuid.UUID {
	actorIDVal, exists := c.Get(ActorIDKey)
	if !exists {
		return nil
	}
	actorID, ok := actorIDVal.(uuid.UUID)
	if !ok {
		return nil
	}
	return &actorID
}

// requireActor writes a 401 and returns false when no actor is attached to the request
func requireActor(c *gin.Context) (uuid.UUID, bool) {
	actorID := GetActorID(c)
	if actorID == nil {
		response.Unauthorized(c, "Actor not identified")
		return uuid.Nil, false
	}
	return *actorID, true
}

// paramUUID parses a UUID path parameter, writing a 400 on failure
func paramUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := utils.ParseUUID(c.Param(name))
	if err != nil {
		response.BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// queryUUID parses an optional UUID query parameter
func queryUUID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := utils.ParseUUID(raw)
	if err != nil {
		response.BadRequest(c, "Invalid "+name)
		return nil, false
	}
	return &id, true
}

// bindJSON decodes the request body, writing a 400 on failure
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
