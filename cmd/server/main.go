package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/jengzang/flight-delay-backend-go/internal/api"
	"github.com/jengzang/flight-delay-backend-go/internal/classifier"
	"github.com/jengzang/flight-delay-backend-go/internal/config"
	"github.com/jengzang/flight-delay-backend-go/internal/database"
	"github.com/jengzang/flight-delay-backend-go/internal/logger"
	"github.com/jengzang/flight-delay-backend-go/internal/middleware"
	"github.com/jengzang/flight-delay-backend-go/internal/repository"
	"github.com/jengzang/flight-delay-backend-go/internal/service"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, closer, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path}, log)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	svc := service.NewDelayService(
		repository.NewFlightRepository(db),
		repository.NewTrainingRunRepository(db),
		classifier.Options{
			MaxIter:   cfg.Model.MaxIter,
			C:         cfg.Model.C,
			Tolerance: cfg.Model.Tolerance,
			Balanced:  cfg.Model.Balanced,
		},
		cfg.Training,
		log,
	)

	if err := svc.Bootstrap(ctx); err != nil {
		// An unfit model still serves all-zero predictions
		log.WithError(err).Error("Startup training failed")
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Requests > 0 {
		window := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
		limiter = middleware.NewRateLimiter(cfg.RateLimit.Requests, window, ctx.Done())
	}

	// 初始化路由
	gin.SetMode(cfg.Server.Mode)
	router := api.SetupRouter(api.Dependencies{
		Service: svc,
		Limiter: limiter,
		Logger:  log,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// 优雅关闭
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.WithFields(logrus.Fields{"addr": server.Addr}).Info("Server exited")
	return nil
}
