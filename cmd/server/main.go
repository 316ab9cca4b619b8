// Package main runs the community workshop HTTP server with graceful
// shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/openclass/backend/config"
	"github.com/openclass/backend/internal/analytics"
	"github.com/openclass/backend/internal/auth"
	"github.com/openclass/backend/internal/badges"
	"github.com/openclass/backend/internal/emaillogs"
	"github.com/openclass/backend/internal/feedback"
	"github.com/openclass/backend/internal/middleware"
	"github.com/openclass/backend/internal/models"
	"github.com/openclass/backend/internal/notifications"
	"github.com/openclass/backend/internal/profiles"
	"github.com/openclass/backend/internal/questions"
	"github.com/openclass/backend/internal/registrations"
	"github.com/openclass/backend/internal/tags"
	"github.com/openclass/backend/internal/workshops"
	"github.com/openclass/backend/pkg/clock"
	"github.com/openclass/backend/pkg/database"
	"github.com/openclass/backend/pkg/queue"
	"github.com/openclass/backend/pkg/redis"
	"github.com/openclass/backend/pkg/response"
	"github.com/openclass/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	var s3Client *storage.S3
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			MediaBucket:          cfg.AWS.MediaBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		}
	}

	clk := clock.System{}
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	dispatcher := notifications.NewDispatcher(jobQueue, logger)

	// Auth
	authRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(authRepo, jwtService, dispatcher, logger)

	// Profiles
	profileRepo := profiles.NewRepository(pool)
	profileSvc := profiles.NewService(profileRepo, dispatcher, clk, logger)
	profileHandler := profiles.NewHandler(profileSvc, s3Client, logger)

	// Badges (also the attendance hook for registrations)
	badgeRepo := badges.NewRepository(pool)
	badgeSvc := badges.NewService(badgeRepo, profileRepo, clk, logger)
	badgeHandler := badges.NewHandler(badgeSvc, s3Client, logger)

	// Workshops
	workshopRepo := workshops.NewRepository(pool)
	workshopSvc := workshops.NewService(workshopRepo, clk, dispatcher, logger)
	workshopHandler := workshops.NewHandler(workshopSvc, s3Client, logger)

	// Registrations
	registrationRepo := registrations.NewRepository(pool)
	registrationSvc := registrations.NewService(registrationRepo, workshopRepo, clk, badgeSvc, logger)
	registrationHandler := registrations.NewHandler(registrationSvc, logger)

	// Questions
	questionRepo := questions.NewRepository(pool)
	questionSvc := questions.NewService(questionRepo, workshopRepo, registrationRepo, clk)
	questionHandler := questions.NewHandler(questionSvc)

	// Feedback
	feedbackRepo := feedback.NewRepository(pool)
	feedbackSvc := feedback.NewService(feedbackRepo, workshopRepo, registrationRepo, clk)
	feedbackHandler := feedback.NewHandler(feedbackSvc)

	// Tags
	tagRepo := tags.NewRepository(pool)
	tagHandler := tags.NewHandler(tagRepo)

	// Analytics
	analyticsRepo := analytics.NewRepository(pool)
	analyticsHandler := analytics.NewHandler(analyticsRepo)

	// Email logs
	emailLogsRepo := emaillogs.NewRepository(pool)
	emailLogsHandler := emaillogs.NewHandler(emailLogsRepo)

	moderators := middleware.RequireRole(models.RoleModerator, models.RoleAdmin)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	// Health
	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Auth and verification (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.POST("/login", authHandler.Login)
	}
	router.GET("/verify/:token", profileHandler.Verify)

	// Protected API (JWT required)
	api := router.Group("")
	api.Use(middleware.JWT(jwtService))
	{
		// Users (admin)
		api.GET("/users", middleware.RequireRole(models.RoleAdmin), authHandler.List)
		api.PUT("/users/:id/role", middleware.RequireRole(models.RoleAdmin), authHandler.SetRole)

		// Workshops
		api.POST("/workshops", workshopHandler.Submit)
		api.GET("/workshops", workshopHandler.List)
		api.GET("/workshops/upcoming", workshopHandler.Upcoming)
		api.GET("/workshops/pending", moderators, workshopHandler.Pending)
		api.GET("/workshops/:id", workshopHandler.GetByID)
		api.PATCH("/workshops/:id", workshopHandler.Update)
		api.POST("/workshops/:id/decision", moderators, workshopHandler.Decide)
		api.POST("/workshops/:id/done", workshopHandler.MarkDone)
		api.POST("/workshops/:id/cancel", workshopHandler.Cancel)
		api.GET("/workshops/:id/days-left", workshopHandler.DaysLeft)
		api.GET("/workshops/:id/topics", workshopHandler.Topics)
		api.POST("/workshops/:id/cover", workshopHandler.UploadCover)
		api.GET("/workshops/:id/cover", workshopHandler.CoverURL)
		api.GET("/workshops/:id/stats", analyticsHandler.WorkshopStats)
		api.GET("/workshops/:id/emails", moderators, emailLogsHandler.ListByWorkshop)
		api.GET("/emails/failed", moderators, emailLogsHandler.ListFailed)

		// Registrations
		api.POST("/workshops/:id/register", registrationHandler.Register)
		api.GET("/workshops/:id/registrations", registrationHandler.ListByWorkshop)
		api.POST("/registrations/:id/decision", registrationHandler.Decide)
		api.POST("/registrations/:id/cancel", registrationHandler.Cancel)
		api.POST("/registrations/:id/presence", moderators, registrationHandler.ConfirmPresence)

		// Questions
		api.POST("/workshops/:id/questions", questionHandler.Ask)
		api.GET("/workshops/:id/questions", questionHandler.ListByWorkshop)

		// Feedback
		api.POST("/feedback/questions", moderators, feedbackHandler.CreateMCQuestion)
		api.POST("/feedback/questions/:id/choices", moderators, feedbackHandler.AddChoice)
		api.GET("/feedback/questions", feedbackHandler.ListCatalog)
		api.PUT("/workshops/:id/feedback-form", moderators, feedbackHandler.SetForm)
		api.GET("/workshops/:id/feedback-form", feedbackHandler.Form)
		api.POST("/workshops/:id/feedback", feedbackHandler.Submit)
		api.GET("/workshops/:id/feedback", feedbackHandler.ListByWorkshop)

		// Profile
		api.GET("/profile", profileHandler.Me)
		api.PATCH("/profile", profileHandler.Update)
		api.GET("/profiles/:id", profileHandler.GetByID)
		api.GET("/profile/registrations", registrationHandler.ListMine)
		api.GET("/profile/workshops/attended", profileHandler.WorkshopsAttended)
		api.GET("/profile/workshops/animated", profileHandler.WorkshopsAnimated)
		api.GET("/profile/interests", profileHandler.Interests)
		api.PUT("/profile/interests", profileHandler.SetInterests)
		api.GET("/profile/preference", profileHandler.Preference)
		api.PUT("/profile/preference", profileHandler.SetPreference)
		api.POST("/profile/photo", profileHandler.UploadPhoto)
		api.GET("/profiles/:id/photo", profileHandler.PhotoURL)

		// Badges
		api.GET("/badges", badgeHandler.List)
		api.GET("/badges/:id", badgeHandler.GetByID)
		api.POST("/badges", moderators, badgeHandler.Create)
		api.DELETE("/badges/:id", moderators, badgeHandler.Delete)
		api.POST("/badges/:id/award", moderators, badgeHandler.Award)
		api.POST("/badges/:id/image", moderators, badgeHandler.UploadImage)
		api.GET("/profile/badges", badgeHandler.ListMine)
		api.PUT("/profile/badges/:id/priority", badgeHandler.SetPriority)

		// Tags
		api.GET("/tags", tagHandler.List)
		api.POST("/tags", moderators, tagHandler.Create)
		api.DELETE("/tags/:id", moderators, tagHandler.Delete)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
