package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/reviewlens/reviewlens/internal/config"
	"github.com/reviewlens/reviewlens/internal/handler"
	"github.com/reviewlens/reviewlens/internal/job"
	"github.com/reviewlens/reviewlens/internal/middleware"
	"github.com/reviewlens/reviewlens/internal/reply"
	"github.com/reviewlens/reviewlens/internal/schedule"
	"github.com/reviewlens/reviewlens/internal/service"
)

func runServer(cfg *config.Config) error {
	logger := logutil.GetLogger(context.Background())
	logger.Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("classifier", cfg.AI.Classifier.Provider),
		zap.Int("generators", len(cfg.AI.Generators)),
		zap.String("archive", cfg.Archive.Type),
	)

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.db.Close()

	if err := a.reviewSvc.RebuildIndex(context.Background()); err != nil {
		logger.Error("initial index build failed, serve empty index", zap.Error(err))
	}

	generator, err := buildGenerator(cfg.AI)
	if err != nil {
		return err
	}
	replyGen := reply.New(generator,
		reply.WithMaxInputChars(cfg.AI.MaxInputChars),
		reply.WithFallbackHook(a.metrics.ReplyFallbacks.Inc),
	)
	replyService := service.NewReplyService(a.reviews, replyGen, cfg.AI.CacheSize, time.Duration(cfg.AI.CacheTTLSeconds)*time.Second)

	deps := handler.RouterDeps{
		System:    handler.NewSystemHandler(version),
		Reviews:   handler.NewReviewHandler(a.reviewSvc, replyService, cfg.MaxIngestBytes),
		Analytics: handler.NewAnalyticsHandler(service.NewAnalyticsService(a.reviews)),
		Metrics:   a.metrics.Handler(),
	}
	if cfg.RateLimit.SuggestReplyWindowMs > 0 {
		deps.ReplyLimit = middleware.RateLimit(time.Duration(cfg.RateLimit.SuggestReplyWindowMs) * time.Millisecond)
	}

	scheduler := schedule.NewCronScheduler(func(name string, _ time.Duration, err error) {
		if err != nil && name == "index_rebuild" {
			a.metrics.RebuildFailed()
		}
	})
	if err := scheduler.AddJob(job.NewIndexRebuildJob(a.index), cfg.Similarity.RebuildCron); err != nil {
		return fmt.Errorf("schedule index rebuild: %w", err)
	}

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	engine, err := webapi.NewEngine(
		"/api/v1",
		addr,
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(cfg.CORSAllowOrigins),
			gzip.Gzip(gzip.DefaultCompression),
			a.metrics.Middleware(),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		logger.Info("http server listening", zap.String("addr", addr))
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("server stopping...")
	return nil
}
