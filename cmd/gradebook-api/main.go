package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/edukita/gradebook-api/api/swagger"
	"github.com/edukita/gradebook-api/internal/handler"
	"github.com/edukita/gradebook-api/internal/middleware"
	"github.com/edukita/gradebook-api/internal/models"
	"github.com/edukita/gradebook-api/internal/repository"
	"github.com/edukita/gradebook-api/internal/service"
	"github.com/edukita/gradebook-api/pkg/cache"
	"github.com/edukita/gradebook-api/pkg/config"
	"github.com/edukita/gradebook-api/pkg/database"
	"github.com/edukita/gradebook-api/pkg/export"
	"github.com/edukita/gradebook-api/pkg/logger"
	corsmiddleware "github.com/edukita/gradebook-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edukita/gradebook-api/pkg/middleware/requestid"
)

// @title Gradebook API
// @version 1.0.0
// @description Bulk grade ingestion and grade record management
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, scale caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	studentRepo := repository.NewStudentRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	levelRepo := repository.NewAcademicLevelRepository(db)
	periodRepo := repository.NewGradingPeriodRepository(db)
	assignmentRepo := repository.NewTeacherAssignmentRepository(db)
	gradeRecordRepo := repository.NewGradeRecordRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	metricsSvc := service.NewMetricsService()
	scaleCache := repository.NewScaleCache(levelRepo, redisClient, cfg.Ingest.ScaleCacheTTL, metricsSvc, logr)
	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	ingestSvc := service.NewIngestService(
		studentRepo, subjectRepo, assignmentRepo, scaleCache, periodRepo, gradeRecordRepo,
		metricsSvc, validate, logr, cfg.Ingest,
	)
	gradeSvc := service.NewGradeRecordService(gradeRecordRepo, assignmentRepo, validate, logr, cfg.Ingest)

	authHandler := handler.NewAuthHandler(authSvc)
	ingestHandler := handler.NewIngestHandler(ingestSvc, export.NewCSVExporter(), export.NewPDFExporter())
	gradeHandler := handler.NewGradeHandler(gradeSvc)

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	grades := api.Group("/grades", middleware.JWT(authSvc))
	grades.GET("", gradeHandler.List)
	grades.POST("/import",
		middleware.RequireRoles(models.RoleTeacher, models.RoleRegistrar, models.RoleAdmin),
		middleware.Audit(auditRepo, models.AuditActionGradeImport, "grades"),
		ingestHandler.Import)
	grades.POST("/submit",
		middleware.RequireRoles(models.RoleTeacher, models.RoleRegistrar, models.RoleAdmin),
		middleware.Audit(auditRepo, models.AuditActionGradeSubmit, "grades"),
		gradeHandler.Submit)
	grades.POST("/unsubmit",
		middleware.RequireRoles(models.RoleTeacher, models.RoleRegistrar, models.RoleAdmin),
		middleware.Audit(auditRepo, models.AuditActionGradeUnsubmit, "grades"),
		gradeHandler.Unsubmit)
	grades.DELETE("/:id",
		middleware.RequireRoles(models.RoleTeacher, models.RoleRegistrar, models.RoleAdmin),
		middleware.Audit(auditRepo, models.AuditActionGradeDelete, "grades"),
		gradeHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
