package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"newsroom/internal/middleware"
	"newsroom/internal/models"
	"newsroom/internal/services"
)

type ReactionHandler struct {
	social *services.Social
	log    zerolog.Logger
}

func NewReactionHandler(social *services.Social, log zerolog.Logger) *ReactionHandler {
	return &ReactionHandler{social: social, log: log}
}

// Toggle 切换回应：/react/:type/:id/:kind，type 为 article 或 comment
func (h *ReactionHandler) Toggle(c *gin.Context) {
	targetType, err := models.ParseTargetType(c.Param("type"))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	kind, err := models.ParseReactionKind(c.Param("kind"))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	visitor := middleware.VisitorID(c)
	if visitor == "" {
		c.AbortWithStatusJSON(http.StatusForbidden, errorBody{Error: "cookies are required to react"})
		return
	}

	res, err := h.social.React(c.Request.Context(), nil, models.Target{Type: targetType, ID: id}, kind, visitor)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
