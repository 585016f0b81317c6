package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"school-manager/config"
	"school-manager/internal/api/handler"
	"school-manager/internal/api/middleware"
	"school-manager/pkg/jwt"
	"school-manager/pkg/redis"
)

const (
	maxBodyBytes = 1 << 20

	publishRateLimit  = 5
	publishRateWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
//
// rdb 可为 nil，此时发布接口不限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查与指标 ──
	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var limiter middleware.RateLimiter
	if rdb != nil {
		limiter = rdb
	}

	readers := middleware.RoleAuth(jwt.RoleAdmin, jwt.RoleTeacher, jwt.RoleGuest)
	editors := middleware.RoleAuth(jwt.RoleAdmin)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	{
		v1.GET("/roster", readers, h.Roster.GetRoster)

		// 课表编辑
		editor := v1.Group("/schedule/editor")
		editor.Use(editors)
		{
			editor.GET("", h.Editor.GetState)
			editor.PUT("/date", h.Editor.SelectDate)
			editor.POST("/classes/:class/slots", h.Editor.AddSlot)
			editor.DELETE("/classes/:class/slots/last", h.Editor.RemoveLastSlot)
			editor.PATCH("/classes/:class/slots/:lesson", h.Editor.UpdateSlot)
			editor.POST("/classes/:class/save", h.Editor.SaveClass)
			editor.POST("/publish", middleware.RateLimit(limiter, publishRateLimit, publishRateWindow), h.Editor.Publish)
		}

		// 已发布课表
		published := v1.Group("/schedule/published")
		published.Use(readers)
		{
			published.GET("", h.Published.GetPublished)
			published.GET("/latest", h.Published.GetLatest)
		}

		// 导出
		v1.GET("/export/schedule", readers, h.Export.ExportSchedule)
	}

	return r
}
