/*
 * @Description: API 路由注册
 * @Author: 星河
 * @Date: 2025-03-16 11:02:47
 * @LastEditTime: 2025-08-28 22:30:15
 * @LastEditors: 星河
 */
package router

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/xinghe-v/xinghe-video/internal/app/middleware"
	authhandler "github.com/xinghe-v/xinghe-video/pkg/handler/auth"
	categoryhandler "github.com/xinghe-v/xinghe-video/pkg/handler/category"
	videohandler "github.com/xinghe-v/xinghe-video/pkg/handler/video"
	authsvc "github.com/xinghe-v/xinghe-video/pkg/service/auth"
)

// Handlers 聚合路由需要的所有处理器
type Handlers struct {
	Auth     *authhandler.Handler
	Video    *videohandler.Handler
	Category *categoryhandler.Handler
}

// Register 注册全部 API 路由
func Register(engine *gin.Engine, tokens authsvc.ITokenService, h *Handlers) {
	engine.Use(middleware.CORS())
	engine.Use(middleware.RateLimit(rate.Limit(50), 100))

	api := engine.Group("/api")

	// 认证
	api.POST("/register", h.Auth.Register)
	api.POST("/login", h.Auth.Login)
	api.POST("/refresh", h.Auth.Refresh)

	// 分类：读开放，写仅管理员
	api.GET("/categories", h.Category.List)
	adminCategories := api.Group("/categories", middleware.JWTAuth(tokens), middleware.AdminOnly())
	{
		adminCategories.POST("", h.Category.Create)
		adminCategories.PUT("/:id", h.Category.Update)
		adminCategories.DELETE("/:id", h.Category.Delete)
	}

	// 视频目录与播放：匿名可访问公开内容，带令牌则放宽可见性。
	// 下载也挂在这里：登录态或签名直链二选一，由处理器判定。
	videos := api.Group("/videos", middleware.OptionalJWTAuth(tokens))
	{
		videos.GET("", h.Video.ListVideos)
		videos.GET("/:id", h.Video.GetVideo)
		videos.GET("/:id/stream", h.Video.Stream)
		videos.GET("/:id/download", h.Video.Download)
	}

	// 上传与管理操作需要登录
	authed := api.Group("/videos", middleware.JWTAuth(tokens))
	{
		authed.POST("/upload/init", h.Video.InitUpload)
		authed.POST("/upload/chunk", h.Video.UploadChunk)
		authed.POST("/upload/complete", h.Video.CompleteUpload)
		authed.GET("/upload/status/:sessionId", h.Video.GetUploadStatus)
		authed.DELETE("/upload/abort/:sessionId", h.Video.AbortUpload)

		authed.POST("/:id/direct-link", h.Video.CreateDirectLink)
		authed.PUT("/:id", h.Video.UpdateVideo)
		authed.DELETE("/:id", h.Video.DeleteVideo)
	}
}
