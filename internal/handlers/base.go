package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"newsroom/internal/articles"
	"newsroom/internal/comments"
	"newsroom/internal/models"
	"newsroom/internal/reactions"
	"newsroom/internal/utils"
)

// errorBody 统一的错误响应
type errorBody struct {
	Error string `json:"error"`
}

// statusFor 将领域错误映射为 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, articles.ErrNotFound),
		errors.Is(err, comments.ErrNotFound),
		errors.Is(err, comments.ErrArticleNotFound),
		errors.Is(err, comments.ErrParentNotFound),
		errors.Is(err, reactions.ErrTargetNotFound):
		return http.StatusNotFound
	case errors.Is(err, comments.ErrEmptyContent),
		errors.Is(err, comments.ErrContentTooLong),
		errors.Is(err, comments.ErrAuthorTooLong),
		errors.Is(err, comments.ErrParentMismatch),
		errors.Is(err, models.ErrUnknownReactionKind),
		errors.Is(err, models.ErrUnknownTargetType):
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}

// RespondError 写出错误响应；远端故障只返回笼统信息
func RespondError(c *gin.Context, log zerolog.Logger, err error) {
	code := statusFor(err)
	message := err.Error()
	if code == http.StatusServiceUnavailable {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		message = "service temporarily unavailable, please retry"
	}
	c.AbortWithStatusJSON(code, errorBody{Error: message})
}

// paramID 解析路径参数中的 ID，失败时直接返回 400
func paramID(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorBody{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}
