package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Thinhtran42/mtls-capstone-sub001/config"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/api/handler"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/api/router"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/gateway"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/repository"
	"github.com/Thinhtran42/mtls-capstone-sub001/internal/service"
	"github.com/Thinhtran42/mtls-capstone-sub001/pkg/database"
	"github.com/Thinhtran42/mtls-capstone-sub001/pkg/jwt"
	applogger "github.com/Thinhtran42/mtls-capstone-sub001/pkg/logger"
	"github.com/Thinhtran42/mtls-capstone-sub001/pkg/redis"
)

func main() {
	// 1. 加载配置（AUTHOR_CONFIG 指定配置文件路径）
	cfg, err := config.Load(os.Getenv("AUTHOR_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("gateway_mode", cfg.Gateway.Mode),
	)

	// 3. 连接数据库（用户表始终在本地；local 网关同时使用内容表）
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，草稿会话改用进程内存储，Token 黑名单与限流不可用", zap.Error(err))
		rdb = nil
	}

	// 5. 初始化 JWT 管理器
	jwtMgr := jwt.NewManager(&cfg.Auth)

	// 6. 依赖注入: Repository → Gateway → Service → Handler
	repo := repository.NewRepository(db)

	var gw gateway.Gateway
	switch cfg.Gateway.Mode {
	case config.GatewayRemote:
		gw = gateway.NewRemote(&cfg.Gateway, logger)
	default:
		gw = gateway.NewLocal(repo, logger)
	}

	var (
		drafts    repository.DraftStore
		blacklist service.TokenBlacklist
	)
	if rdb != nil {
		drafts = repository.NewRedisDraftStore(rdb, cfg.Draft.SessionTTL)
		blacklist = rdb
	} else {
		drafts = repository.NewMemoryDraftStore(cfg.Draft.SessionTTL)
	}

	svc := service.NewService(cfg, repo, gw, drafts, jwtMgr, blacklist, logger)
	h := handler.NewHandler(svc)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := svc.Auth.EnsureBootstrapUser(bootCtx); err != nil {
		logger.Fatal("创建初始管理员失败", zap.Error(err))
	}
	bootCancel()

	// 7. 初始化路由
	engine := router.Setup(cfg, h, jwtMgr, rdb, logger)

	// 8. 启动 HTTP 服务器（优雅关闭）
	// WriteTimeout 需覆盖一次网关保存的最长耗时
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Gateway.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	if err := sqlDB.Close(); err != nil {
		logger.Error("关闭数据库连接失败", zap.Error(err))
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
