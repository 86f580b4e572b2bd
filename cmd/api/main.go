package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/binapora/binapora-api/api/swagger"
	"github.com/binapora/binapora-api/internal/handler"
	"github.com/binapora/binapora-api/internal/middleware"
	"github.com/binapora/binapora-api/internal/models"
	"github.com/binapora/binapora-api/internal/repository"
	"github.com/binapora/binapora-api/internal/service"
	"github.com/binapora/binapora-api/pkg/cache"
	"github.com/binapora/binapora-api/pkg/config"
	"github.com/binapora/binapora-api/pkg/database"
	"github.com/binapora/binapora-api/pkg/logger"
	corsmiddleware "github.com/binapora/binapora-api/pkg/middleware/cors"
	reqidmiddleware "github.com/binapora/binapora-api/pkg/middleware/requestid"
)

// @title Bina Pora API
// @version 1.0.0
// @description Sports federation management API: examinations, scoring, rankings
// @BasePath /api/v1
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	userRepo := repository.NewUserRepository(db)
	participantRepo := repository.NewParticipantRepository(db)
	examinationRepo := repository.NewExaminationRepository(db)
	definitionRepo := repository.NewDefinitionRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	resultRepo := repository.NewResultRepository(db)
	comparisonRepo := repository.NewComparisonRepository(db)

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Rankings.CacheTTL, logr, cfg.Rankings.CacheEnabled)
	}

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "binapora-api",
	})
	participantSvc := service.NewParticipantService(participantRepo, nil, logr)
	examinationSvc := service.NewExaminationService(examinationRepo, participantRepo, nil, logr)
	definitionSvc := service.NewDefinitionService(definitionRepo, templateRepo, examinationRepo, nil, logr)
	resultSvc := service.NewResultService(resultRepo, examinationRepo, definitionRepo, cacheSvc, metricsSvc, nil, logr)
	comparisonSvc := service.NewComparisonService(comparisonRepo, examinationRepo, cacheSvc, logr)
	reportSvc := service.NewReportService(comparisonSvc, resultSvc, cfg.Exports.Organization, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	participantHandler := handler.NewParticipantHandler(participantSvc)
	examinationHandler := handler.NewExaminationHandler(examinationSvc)
	definitionHandler := handler.NewDefinitionHandler(definitionSvc)
	resultHandler := handler.NewResultHandler(resultSvc)
	comparisonHandler := handler.NewComparisonHandler(comparisonSvc)
	reportHandler := handler.NewReportHandler(reportSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleCommittee)

	protected.GET("/participants", participantHandler.List)
	protected.GET("/participants/:id", participantHandler.Get)
	protected.POST("/participants", staff,
		middleware.Audit(userRepo, models.AuditActionCreate, "participants"), participantHandler.Create)
	protected.GET("/participants/:id/trend", comparisonHandler.Trend)

	protected.GET("/examinations", examinationHandler.List)
	protected.GET("/examinations/:id", examinationHandler.Get)
	protected.POST("/examinations", staff,
		middleware.Audit(userRepo, models.AuditActionCreate, "examinations"), examinationHandler.Create)
	protected.DELETE("/examinations/:id", staff,
		middleware.Audit(userRepo, models.AuditActionDelete, "examinations"), examinationHandler.Delete)

	protected.GET("/examinations/:id/members", examinationHandler.Members)
	protected.POST("/examinations/:id/members", staff,
		middleware.Audit(userRepo, models.AuditActionCreate, "examination_members"), examinationHandler.Enroll)
	protected.DELETE("/examinations/:id/members/:participantId", staff,
		middleware.Audit(userRepo, models.AuditActionDelete, "examination_members"), examinationHandler.RemoveMember)

	protected.GET("/examinations/:id/definitions", definitionHandler.List)
	protected.PUT("/examinations/:id/definitions", staff,
		middleware.Audit(userRepo, models.AuditActionUpdate, "definitions"), definitionHandler.Save)
	protected.POST("/examinations/:id/definitions/clone-template", staff,
		middleware.Audit(userRepo, models.AuditActionCreate, "definitions"), definitionHandler.CloneTemplate)
	protected.POST("/examinations/:id/definitions/save-template", staff,
		middleware.Audit(userRepo, models.AuditActionCreate, "templates"), definitionHandler.SaveAsTemplate)

	protected.GET("/examinations/:id/results/:participantId", resultHandler.Sheet)
	protected.PUT("/examinations/:id/results/:participantId", staff,
		middleware.Audit(userRepo, models.AuditActionUpdate, "results"), resultHandler.Save)

	protected.GET("/examinations/:id/rankings", comparisonHandler.RankWithin)
	protected.GET("/rankings", comparisonHandler.RankAcross)
	protected.GET("/branches/:branchId/comparison", comparisonHandler.Matrix)

	if cfg.Exports.Enabled {
		protected.GET("/examinations/:id/rankings/export", reportHandler.Ranking)
		protected.GET("/rankings/export", reportHandler.SeriesRanking)
		protected.GET("/examinations/:id/results/:participantId/export", reportHandler.ResultSheet)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
