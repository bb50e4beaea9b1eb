package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/insighthub/internal/middleware"
)

type RouterDeps struct {
	Auth      *AuthHandler
	Datasets  *DatasetHandler
	Chat      *ChatHandler
	Resolver  middleware.TokenResolver
	RateLimit gin.HandlerFunc
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	limit := deps.RateLimit
	if limit == nil {
		limit = func(c *gin.Context) { c.Next() }
	}
	api.POST("/auth/signup", deps.Auth.Signup)
	api.POST("/auth/login", limit, deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.Resolver))
	authGroup.POST("/upload", deps.Datasets.Upload)
	authGroup.GET("/files", deps.Datasets.List)
	authGroup.GET("/files/:name", deps.Datasets.Download)
	authGroup.GET("/insights", deps.Datasets.Insights)
	authGroup.POST("/chat", limit, deps.Chat.Chat)
}
