package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/short-answer-api/api/swagger"
	"github.com/noah-isme/short-answer-api/internal/handler"
	"github.com/noah-isme/short-answer-api/internal/middleware"
	"github.com/noah-isme/short-answer-api/internal/models"
	"github.com/noah-isme/short-answer-api/internal/repository"
	"github.com/noah-isme/short-answer-api/internal/service"
	"github.com/noah-isme/short-answer-api/pkg/cache"
	"github.com/noah-isme/short-answer-api/pkg/config"
	"github.com/noah-isme/short-answer-api/pkg/database"
	"github.com/noah-isme/short-answer-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/short-answer-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/short-answer-api/pkg/middleware/requestid"
)

// @title Short Answer API
// @version 1.0.0
// @description Free-text answer submission, grading and roster reporting for course staff
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var rosterCache *repository.CacheRepository
	if cfg.Roster.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, roster cache disabled", "error", err)
		} else {
			rosterCache = repository.NewCacheRepository(redisClient, logr)
			defer redisClient.Close() //nolint:errcheck
		}
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	recordRepo := repository.NewRecordRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "short-answer-api",
	})

	var rosterSvc *service.RosterService
	if rosterCache != nil {
		rosterSvc = service.NewRosterService(questionRepo, enrollmentRepo, recordRepo, rosterCache, cfg.Roster.CacheTTL, metricsSvc, logr)
	} else {
		rosterSvc = service.NewRosterService(questionRepo, enrollmentRepo, recordRepo, nil, cfg.Roster.CacheTTL, metricsSvc, logr)
	}

	submissionSvc := service.NewSubmissionService(questionRepo, recordRepo, rosterSvc, metricsSvc, validate, logr)
	gradingSvc := service.NewGradingService(questionRepo, recordRepo, userRepo, rosterSvc, metricsSvc, logr)
	questionSvc := service.NewQuestionService(questionRepo, recordRepo, userRepo, rosterSvc, validate, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	questionHandler := handler.NewQuestionHandler(questionSvc)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc)
	gradingHandler := handler.NewGradingHandler(gradingSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	authed := api.Group("/questions")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.GET("/:id", questionHandler.StudentView)
		authed.POST("/:id/submission", submissionHandler.Submit)

		staff := authed.Group("")
		staff.Use(middleware.RequireRoles(models.RoleStaff, models.RoleAdmin))
		{
			staff.POST("", questionHandler.Create)
			staff.PATCH("/:id", questionHandler.Edit)
			staff.POST("/:id/grade", gradingHandler.SubmitGrade)
			staff.POST("/:id/grade/remove", gradingHandler.RemoveGrade)
			staff.PUT("/:id/grades-published", gradingHandler.SetGradesPublished)
			staff.GET("/:id/submissions", rosterHandler.List)
			staff.GET("/:id/submissions/csv", rosterHandler.DownloadCSV)
			staff.GET("/:id/submissions/pdf", rosterHandler.DownloadPDF)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
