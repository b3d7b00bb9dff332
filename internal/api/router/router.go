package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Thinhtran42/mtls-capstone-sub001/config"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/api/handler"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/api/middleware"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/model"
	"github.com/Thinhtran42/mtls-capstone-sub001/pkg/jwt"
	"github.com/Thinhtran42/mtls-capstone-sub001/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil：黑名单检查与限流降级放行
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "gateway": cfg.Gateway.Mode})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(rdb, 10, cfg.Server.SubmitRateWindow), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		authorized.Use(middleware.RoleAuth(model.RoleAdmin, model.RoleTeacher))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)

			// 目录（选择器数据）
			catalog := authorized.Group("/catalog")
			{
				catalog.GET("/courses", h.Catalog.ListCourses)
				catalog.GET("/courses/:id/modules", h.Catalog.ListModules)
				catalog.GET("/modules/:id/sections", h.Catalog.ListSections)
			}

			// 草稿会话（创建/编辑向导）
			drafts := authorized.Group("/drafts")
			{
				drafts.POST("", h.Draft.Start)
				drafts.GET("/:id", h.Draft.Get)
				drafts.PATCH("/:id/fields", h.Draft.UpdateField)
				drafts.POST("/:id/next", h.Draft.Advance)
				drafts.POST("/:id/back", h.Draft.Retreat)
				drafts.POST("/:id/submit",
					middleware.RateLimit(rdb, cfg.Server.SubmitRateLimit, cfg.Server.SubmitRateWindow),
					h.Draft.Submit,
				)
				drafts.DELETE("/:id", h.Draft.Discard)
			}

			// 导出
			export := authorized.Group("/export")
			{
				export.GET("/courses/:id/outline", h.Export.ExportCourseOutline)
			}
		}
	}

	return r
}
