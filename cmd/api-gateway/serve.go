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

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/maintenance-api/api/swagger"
	"github.com/noah-isme/maintenance-api/internal/handler"
	"github.com/noah-isme/maintenance-api/internal/middleware"
	"github.com/noah-isme/maintenance-api/internal/realtime"
	"github.com/noah-isme/maintenance-api/internal/repository"
	"github.com/noah-isme/maintenance-api/internal/service"
	"github.com/noah-isme/maintenance-api/internal/validation"
	"github.com/noah-isme/maintenance-api/pkg/cache"
	"github.com/noah-isme/maintenance-api/pkg/config"
	"github.com/noah-isme/maintenance-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/maintenance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/maintenance-api/pkg/middleware/requestid"
	"github.com/noah-isme/maintenance-api/pkg/storage"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP server using configuration from .env and the environment.

STORE_DRIVER selects memory, postgres or mongo. The server stops gracefully
on SIGINT or SIGTERM.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := repository.Open(ctx, cfg, logr)
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Store.Driver, err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			logr.Warn("failed to close store", zap.Error(err))
		}
	}()

	router, err := buildRouter(ctx, cfg, store, logr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", store.Driver, "auth", cfg.JWT.Enabled)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// buildRouter wires services over store and returns the gin engine. Optional
// collaborators (redis, metrics, the websocket hub, auth) follow cfg.
func buildRouter(ctx context.Context, cfg *config.Config, store *repository.Store, logr *zap.Logger) (*gin.Engine, error) {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	var metrics *service.MetricsService
	if cfg.Metrics.Enabled {
		metrics = service.NewMetricsService()
	}

	var redisClient *redis.Client
	if cfg.Reports.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("report cache disabled: redis unavailable", zap.Error(err))
		} else {
			redisClient = client
			go func() {
				<-ctx.Done()
				_ = client.Close()
			}()
		}
	}
	reportCache := service.NewCacheService(repository.NewCacheRepository(redisClient), metrics, cfg.Reports.CacheTTL, logr, redisClient != nil)

	var events realtime.Publisher = realtime.Discard{}
	var hub *realtime.Hub
	if cfg.Realtime.Enabled {
		hub = realtime.NewHub(logr)
		go hub.Run(ctx)
		events = hub
	}

	files, err := storage.NewLocalStorage(cfg.Attachments.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("attachments storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Attachments.SignedURLSecret, cfg.Attachments.SignedURLTTL)

	validate := validation.New()
	users := service.NewUserService(store.Users, validate, logr)
	teams := service.NewTeamService(store, validate, logr)
	equipment := service.NewEquipmentService(store, validate, events, metrics, reportCache, logr)
	requests := service.NewMaintenanceRequestService(store, validate, events, metrics, reportCache, cfg.Requests.NumberPrefix, logr)
	reports := service.NewReportService(store, reportCache, logr)
	attachments := service.NewAttachmentService(store.Requests, files, signer, events, service.AttachmentConfig{
		APIPrefix:    cfg.APIPrefix,
		MaxFileSize:  cfg.Attachments.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Attachments.AllowedMIMEs,
	}, logr)

	cors := corsmiddleware.NewPolicy(cfg.CORS.AllowedOrigins)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(cors.Middleware())
	if metrics != nil {
		r.Use(middleware.Metrics(metrics, "/metrics", "/health", "/ready"))
	}

	h := handler.Handlers{
		Users:       handler.NewUserHandler(users),
		Teams:       handler.NewTeamHandler(teams),
		Equipment:   handler.NewEquipmentHandler(equipment),
		Requests:    handler.NewMaintenanceRequestHandler(requests),
		Reports:     handler.NewReportHandler(reports),
		Attachments: handler.NewAttachmentHandler(attachments),
		Ops:         handler.NewMetricsHandler(metrics, store.Driver, store.Ping),
	}
	if hub != nil {
		h.Board = handler.NewBoardHandler(hub, cors.CheckOrigin, logr)
	}

	opts := handler.RouteOptions{APIPrefix: cfg.APIPrefix}
	if cfg.JWT.Enabled {
		opts.Auth = service.NewAuthService(store.Users, authConfig(cfg), logr)
	}
	handler.RegisterRoutes(r, h, opts)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	return r, nil
}

func authConfig(cfg *config.Config) service.AuthConfig {
	return service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer, Expiry: cfg.JWT.Expiration}
}
