package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ifuryst/postpilot/internal/config"
	"github.com/ifuryst/postpilot/internal/metrics"
	"github.com/ifuryst/postpilot/internal/realtime"
	"github.com/ifuryst/postpilot/internal/service"
	"github.com/ifuryst/postpilot/internal/store"
)

type Server struct {
	Config   *config.Config
	DB       *gorm.DB
	Router   *gin.Engine
	Logger   *zap.Logger
	Server   *http.Server
	Registry *prometheus.Registry

	// Services
	PostService       *service.PostService
	ProfileService    *service.ProfileService
	MonitoringService *service.MonitoringService
	AuthService       *service.AuthService
	Detector          *service.DuePostDetector
	Scheduler         *service.Scheduler

	// Realtime
	Hub       *realtime.Hub
	WSHandler *realtime.Handler
}

func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	db, err := service.NewDatabase(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return New(cfg, db, logger), nil
}

// New wires every component on top of an opened, migrated database.
func New(cfg *config.Config, db *gorm.DB, logger *zap.Logger) *Server {
	gin.SetMode(cfg.Server.Mode)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	st := store.NewGormStore(db)

	hub := realtime.NewHub(cfg.Realtime, m, logger.Named("hub"))
	events := realtime.NewNotifier(hub)

	monitoringService := service.NewMonitoringService(db, st, logger)
	postService := service.NewPostService(st, events, monitoringService, m, logger)
	profileService := service.NewProfileService(st, logger)
	authService := service.NewAuthService(logger, cfg.Auth.TOTPSecret)

	detector := service.NewDuePostDetector(postService, events, m, logger.Named("detector"))
	stats := service.NewStatsUpdater(monitoringService, m, logger, cfg.Scheduler.ErrorRetentionDays)
	scheduler := service.NewScheduler(&cfg.Scheduler, logger.Named("scheduler"), detector, stats)

	handlers := realtime.NewHandlers(postService, profileService, service.NewMessageGenerator(), hub, logger)
	wsHandler := realtime.NewHandler(hub, handlers, authService, cfg.Server.CORSOrigins, logger)

	srv := &Server{
		Config:            cfg,
		DB:                db,
		Router:            gin.New(),
		Logger:            logger,
		Registry:          registry,
		PostService:       postService,
		ProfileService:    profileService,
		MonitoringService: monitoringService,
		AuthService:       authService,
		Detector:          detector,
		Scheduler:         scheduler,
		Hub:               hub,
		WSHandler:         wsHandler,
	}

	srv.setupMiddleware()
	srv.setupRoutes()

	return srv
}

func (s *Server) setupMiddleware() {
	s.Router.Use(gin.Recovery())

	s.Router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/health", "/metrics"},
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	corsConfig := cors.DefaultConfig()
	if len(s.Config.Server.CORSOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = s.Config.Server.CORSOrigins
	}
	corsConfig.AddAllowHeaders("Authorization", service.OTPHeader)
	s.Router.Use(cors.New(corsConfig))
}

func (s *Server) setupRoutes() {
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"time":    time.Now().Unix(),
			"clients": s.Hub.ClientCount(),
		})
	})

	s.Router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})))
	s.Router.GET("/ws", s.WSHandler.HandleWebSocket)

	api := s.Router.Group("/api/v1")
	api.Use(s.AuthService.AuthMiddleware())
	{
		posts := api.Group("/posts")
		{
			posts.GET("", s.handleListPosts)
			posts.POST("", s.handleCreatePost)
			posts.GET("/:id", s.handleGetPost)
			posts.PUT("/:id", s.handleUpdatePost)
			posts.DELETE("/:id", s.handleDeletePost)
		}

		engagements := api.Group("/engagements")
		{
			engagements.GET("/profile", s.handleCheckProfile)
			engagements.POST("/profile", s.handleSaveProfile)
			engagements.POST("/check", s.handleCheckProfiles)
			engagements.PATCH("/profile/connection", s.handleMarkConnection)
			engagements.PATCH("/profile/followup", s.handleMarkFollowUp)
			engagements.DELETE("", s.handleDeleteProfiles)
		}

		api.GET("/profile-url", s.handleGetProfileURL)
		api.PUT("/profile-url", s.handleSaveProfileURL)

		api.GET("/errors", s.handleListErrors)
		api.POST("/errors/:id/resolve", s.handleResolveError)
		api.GET("/dashboard", s.handleDashboard)
	}
}

func (s *Server) Start(ctx context.Context) error {
	go s.Hub.Run()

	if err := s.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", s.Config.Server.Host, s.Config.Server.Port)

	s.Server = &http.Server{
		Addr:              addr,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.Logger.Info("Starting HTTP server", zap.String("addr", addr))

	var err error
	if s.Config.Server.CertFile != "" && s.Config.Server.KeyFile != "" {
		err = s.Server.ListenAndServeTLS(s.Config.Server.CertFile, s.Config.Server.KeyFile)
	} else {
		err = s.Server.ListenAndServe()
	}
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	// Stop scheduler first
	s.Scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := s.Hub.Shutdown(shutdownCtx); err != nil {
		s.Logger.Warn("Hub shutdown incomplete", zap.Error(err))
	}

	if s.Server == nil {
		return nil
	}
	return s.Server.Shutdown(shutdownCtx)
}
