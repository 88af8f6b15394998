/*
 * @Description: 应用装配与启动
 * @Author: 星河
 * @Date: 2025-03-16 12:10:33
 * @LastEditTime: 2025-08-28 23:05:47
 * @LastEditors: 星河
 */
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xinghe-v/xinghe-video/internal/app/listener"
	"github.com/xinghe-v/xinghe-video/internal/app/task"
	"github.com/xinghe-v/xinghe-video/internal/infra/persistence/database"
	"github.com/xinghe-v/xinghe-video/internal/infra/persistence/sqlrepo"
	"github.com/xinghe-v/xinghe-video/internal/infra/router"
	"github.com/xinghe-v/xinghe-video/internal/pkg/event"
	"github.com/xinghe-v/xinghe-video/pkg/config"
	authhandler "github.com/xinghe-v/xinghe-video/pkg/handler/auth"
	categoryhandler "github.com/xinghe-v/xinghe-video/pkg/handler/category"
	videohandler "github.com/xinghe-v/xinghe-video/pkg/handler/video"
	"github.com/xinghe-v/xinghe-video/pkg/idgen"
	authsvc "github.com/xinghe-v/xinghe-video/pkg/service/auth"
	categorysvc "github.com/xinghe-v/xinghe-video/pkg/service/category"
	"github.com/xinghe-v/xinghe-video/pkg/service/probe"
	"github.com/xinghe-v/xinghe-video/pkg/service/upload"
	"github.com/xinghe-v/xinghe-video/pkg/service/utility"
	videosvc "github.com/xinghe-v/xinghe-video/pkg/service/video"
	"github.com/xinghe-v/xinghe-video/pkg/service/volume"
)

// Run 装配所有依赖并启动 HTTP 服务，阻塞到收到退出信号。
func Run() error {
	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}

	if err := idgen.InitSqidsEncoder(); err != nil {
		return err
	}

	// --- 基础设施 ---
	db, dbType, err := database.NewSQLDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db, dbType); err != nil {
		return err
	}

	redisClient := database.NewRedisClient(cfg)
	cacheSvc := utility.NewCacheServiceWithFallback(redisClient)
	locker := utility.NewKeyLocker()
	bus := event.NewBus()
	defer bus.Close()

	// --- 仓储 ---
	userRepo := sqlrepo.NewUserRepository(db, dbType)
	videoRepo := sqlrepo.NewVideoRepository(db, dbType)
	viewRepo := sqlrepo.NewVideoViewRepository(db, dbType)
	categoryRepo := sqlrepo.NewCategoryRepository(db, dbType)

	// --- 服务 ---
	tokenSvc, err := authsvc.NewTokenService(cfg)
	if err != nil {
		return err
	}
	authService := authsvc.NewAuthService(userRepo, tokenSvc)

	policySvc, err := volume.NewStoragePolicyService(cfg)
	if err != nil {
		return err
	}

	videoService := videosvc.NewVideoService(videoRepo, cacheSvc, policySvc)
	streamService := videosvc.NewStreamService(videoService, policySvc)
	viewService := videosvc.NewViewService(viewRepo, videoRepo, cacheSvc)
	linkService, err := videosvc.NewDirectLinkService(cfg)
	if err != nil {
		return err
	}
	categoryService := categorysvc.NewCategoryService(categoryRepo)

	chunkStore := upload.NewChunkStore(cfg.GetString(config.KeyUploadTempDir))
	uploadService := upload.NewUploadService(
		cacheSvc, locker, videoRepo, categoryRepo, policySvc, chunkStore, bus, cfg)

	// --- 事件监听 ---
	probeSvc := probe.NewFFProbeService()
	listener.NewVideoPostProcessingListener(videoRepo, videoService, policySvc, probeSvc).Register(bus)

	// --- 定时任务 ---
	scheduler := task.NewScheduler(uploadService)
	scheduler.RegisterJobs()
	scheduler.Start()
	defer scheduler.Stop()

	// --- HTTP 服务 ---
	if !cfg.GetBool(config.KeyServerDebug) {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery())

	router.Register(engine, tokenSvc, &router.Handlers{
		Auth:     authhandler.NewHandler(authService),
		Video:    videohandler.NewHandler(videoService, streamService, viewService, uploadService, linkService, cfg),
		Category: categoryhandler.NewHandler(categoryService),
	})

	port := cfg.GetInt(config.KeyServerPort)
	if port <= 0 {
		port = 8090
	}
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: engine,
	}

	go func() {
		log.Printf("✅ 星河视频服务已启动，监听端口 %d", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP 服务异常退出: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("收到退出信号，开始优雅关闭...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("关闭 HTTP 服务失败: %w", err)
	}
	log.Println("✅ 服务已退出。")
	return nil
}
