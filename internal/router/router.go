package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"newsroom/internal/handlers"
	"newsroom/internal/services"
)

// RegisterRoutes 注册 API 路由；sessions 与访客中间件需在此之前挂载
func RegisterRoutes(r *gin.Engine, social *services.Social, log zerolog.Logger, metrics http.Handler) {
	articleHandler := handlers.NewArticleHandler(social, log)
	commentHandler := handlers.NewCommentHandler(social, log)
	reactionHandler := handlers.NewReactionHandler(social, log)

	api := r.Group("/api")
	{
		api.GET("/articles", articleHandler.List)                  // 文章列表
		api.GET("/articles/:id", articleHandler.Detail)            // 文章详情，计一次浏览
		api.GET("/articles/:id/social", articleHandler.Social)     // 社交数据
		api.POST("/articles/:id/refresh", articleHandler.Refresh)  // 跳过缓存刷新
		api.POST("/articles/:id/comments", commentHandler.Create)  // 发表评论
		api.POST("/comments/:id/replies", commentHandler.Reply)    // 回复评论
		api.POST("/react/:type/:id/:kind", reactionHandler.Toggle) // 切换回应
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics))
	}
}
