package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/insighthub/internal/ai"
	"github.com/xxxsen/insighthub/internal/config"
	"github.com/xxxsen/insighthub/internal/dataset"
	"github.com/xxxsen/insighthub/internal/db"
	"github.com/xxxsen/insighthub/internal/filestore"
	"github.com/xxxsen/insighthub/internal/handler"
	"github.com/xxxsen/insighthub/internal/job"
	"github.com/xxxsen/insighthub/internal/middleware"
	"github.com/xxxsen/insighthub/internal/repo"
	"github.com/xxxsen/insighthub/internal/schedule"
	"github.com/xxxsen/insighthub/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "insighthub",
		Short: "insighthub dataset server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run insighthub server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			defer conn.Close()
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sqlx.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("file_store", cfg.FileStore.Type),
		zap.String("ai_provider", cfg.AI.Provider),
	)

	store, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}
	generator, err := ai.NewGeneratorFromConfig(cfg.AI)
	if err != nil {
		return fmt.Errorf("init ai generator: %w", err)
	}

	userRepo := repo.NewUserRepo(conn)
	datasets := dataset.NewStore(store, cfg.Dataset.ListLimit)
	tables := service.NewTableLoader(datasets, cfg.Dataset.CacheSize, time.Duration(cfg.Dataset.CacheTTLSeconds)*time.Second)

	authService := service.NewAuthService(userRepo, []byte(cfg.JWTSecret), time.Duration(cfg.JWTTTLMinutes)*time.Minute)
	datasetService := service.NewDatasetService(datasets, tables)
	chatService := service.NewChatService(datasets, tables, generator, service.ChatConfig{
		MaxRows:     cfg.Dataset.MaxRows,
		ContextRows: cfg.Dataset.ContextRows,
		Timeout:     time.Duration(cfg.AI.Timeout) * time.Second,
	})

	deps := handler.RouterDeps{
		Auth:      handler.NewAuthHandler(authService),
		Datasets:  handler.NewDatasetHandler(datasetService, cfg.Dataset.MaxUploadSize),
		Chat:      handler.NewChatHandler(chatService),
		Resolver:  authService,
		RateLimit: middleware.RateLimit(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst),
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
			middleware.CORS(cfg.CORSOrigins),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if sweeper, ok := store.(filestore.Sweeper); ok {
		sweepJob := job.NewTempSweepJob(sweeper, time.Duration(cfg.TempSweep.MaxAgeMinutes)*time.Minute)
		if err := scheduler.AddJob(sweepJob, cfg.TempSweep.Spec); err != nil {
			return err
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", addr))
	go func() {
		if err := engine.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}
