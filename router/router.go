package router

import (
	"ColdVault/internal/handler"
	"ColdVault/utils"

	"github.com/gin-gonic/gin"
)

// InitRouter builds API routes.
func InitRouter() *gin.Engine {
	r := gin.Default()
	r.Use(utils.CORSMiddleware())

	api := r.Group("/api")
	{
		api.POST("/register", handler.Register)
		api.GET("/activate", handler.Activate)
		api.POST("/login", handler.Login)
		api.GET("/health/providers", handler.Health)

		auth := api.Group("")
		auth.Use(utils.AuthMiddleware())

		auth.GET("/me", handler.Me)

		file := auth.Group("/file")
		{
			file.POST("/upload", handler.Upload)
			file.GET("/list", handler.ListFiles)
			file.GET("/search", handler.SearchFiles)
			file.GET("/:file_id", handler.FileDetail)
			file.POST("/:file_id/tag", handler.TagFile)
			file.POST("/:file_id/describe", handler.DescribeFile)
			file.GET("/:file_id/download", handler.Download)
			file.GET("/:file_id/download/url", handler.DownloadURL)
			file.GET("/:file_id/thumbnail", handler.Thumbnail)
		}

		session := auth.Group("/upload/session")
		{
			session.POST("/init", handler.SessionInit)
			session.POST("/:session_id/chunk", handler.SessionChunk)
			session.POST("/:session_id/complete", handler.SessionComplete)
			session.GET("/:session_id/status", handler.SessionStatus)
		}

		retrieval := auth.Group("/retrieval")
		{
			retrieval.POST("/initiate", handler.RetrievalInitiate)
			retrieval.GET("/status/:retrieval_id", handler.RetrievalStatus)
			retrieval.GET("/tasks", handler.RetrievalTasks)
		}
	}
	return r
}
