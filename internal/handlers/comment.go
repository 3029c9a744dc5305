package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"newsroom/internal/comments"
	"newsroom/internal/services"
)

type CommentHandler struct {
	social *services.Social
	log    zerolog.Logger
}

func NewCommentHandler(social *services.Social, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{social: social, log: log}
}

type commentForm struct {
	AuthorName string `json:"author_name" form:"author_name"`
	Content    string `json:"content" form:"content"`
}

// Create 发表顶层评论
func (h *CommentHandler) Create(c *gin.Context) {
	articleID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var form commentForm
	if err := c.ShouldBind(&form); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "invalid comment body"})
		return
	}

	saved, err := h.social.AddComment(c.Request.Context(), nil, comments.NewComment{
		ArticleID:  articleID,
		AuthorName: form.AuthorName,
		Content:    form.Content,
	})
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, renderComment(saved))
}

// Reply 回复评论
func (h *CommentHandler) Reply(c *gin.Context) {
	parentID, ok := paramID(c, "id")
	if !ok {
		return
	}
	var form commentForm
	if err := c.ShouldBind(&form); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "invalid comment body"})
		return
	}

	saved, err := h.social.Reply(c.Request.Context(), nil, parentID, form.AuthorName, form.Content)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, renderComment(saved))
}
