package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"newsroom/internal/middleware"
	"newsroom/internal/services"
)

type ArticleHandler struct {
	social *services.Social
	log    zerolog.Logger
}

func NewArticleHandler(social *services.Social, log zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{social: social, log: log}
}

// List 文章列表
func (h *ArticleHandler) List(c *gin.Context) {
	list, err := h.social.Articles(c.Request.Context())
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"articles": list})
}

// Detail 文章详情：记一次浏览并返回社交数据
func (h *ArticleHandler) Detail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	article, err := h.social.Article(ctx, id)
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	views, err := h.social.RecordView(ctx, id)
	if err != nil {
		// 浏览数失败不影响阅读
		h.log.Warn().Err(err).Uint("article_id", id).Msg("failed to record view")
		views = article.Views
	}

	view, err := h.social.ArticleStats(ctx, id, middleware.VisitorID(c))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	stats := renderStats(view)
	if views > stats.Views {
		stats.Views = views
	}
	article.Views = stats.Views
	c.JSON(http.StatusOK, articleJSON{Article: article, Stats: stats})
}

// Social 只返回文章的社交数据，不计浏览
func (h *ArticleHandler) Social(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := h.social.ArticleStats(c.Request.Context(), id, middleware.VisitorID(c))
	if err != nil {
		if statusFor(err) != http.StatusServiceUnavailable {
			RespondError(c, h.log, err)
			return
		}
		// 既无远端数据也无缓存时给出空的兜底视图
		h.log.Warn().Err(err).Uint("article_id", id).Msg("serving empty social fallback")
		view = services.EmptyStats(id)
		view.Stale = true
	}
	c.JSON(http.StatusOK, renderStats(view))
}

// Refresh 跳过缓存重新拉取社交数据
func (h *ArticleHandler) Refresh(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	view, err := h.social.Refresh(c.Request.Context(), id, middleware.VisitorID(c))
	if err != nil {
		RespondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, renderStats(view))
}
