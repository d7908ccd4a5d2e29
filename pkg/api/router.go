package api

import (
	"github.com/gin-gonic/gin"

	"github.com/LENAX/plan-engine/pkg/api/handler"
	"github.com/LENAX/plan-engine/pkg/api/middleware"
	"github.com/LENAX/plan-engine/pkg/core/engine"
)

// SetupRouter 设置路由
func SetupRouter(eng *engine.Engine, version string) *gin.Engine {
	router := gin.New()

	// 全局中间件
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())

	// 创建handlers
	planHandler := handler.NewPlanHandler(eng)
	eventsHandler := handler.NewEventsHandler(eng)
	healthHandler := handler.NewHealthHandler(version)

	// 健康检查路由（不带前缀）
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// 实时事件推送
	router.GET("/ws/events", eventsHandler.Stream)

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		plans := v1.Group("/plans")
		{
			plans.GET("", planHandler.List)
			plans.POST("", planHandler.Create)
			plans.GET("/:id", planHandler.Get)
			plans.DELETE("/:id", planHandler.Delete)
			plans.GET("/:id/attempts", planHandler.Attempts)
			plans.GET("/:id/dot", planHandler.DOT)
			plans.GET("/:id/levels", planHandler.Levels)
			plans.POST("/:id/execute", planHandler.Execute)
			plans.POST("/:id/schedule", planHandler.Schedule)
		}
	}

	return router
}
