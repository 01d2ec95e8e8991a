package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/hms-go/hms-api/api/swagger"
	"github.com/hms-go/hms-api/internal/handler"
	"github.com/hms-go/hms-api/internal/middleware"
	"github.com/hms-go/hms-api/internal/models"
	"github.com/hms-go/hms-api/internal/repository"
	"github.com/hms-go/hms-api/internal/service"
	"github.com/hms-go/hms-api/pkg/cache"
	"github.com/hms-go/hms-api/pkg/config"
	"github.com/hms-go/hms-api/pkg/database"
	"github.com/hms-go/hms-api/pkg/export"
	"github.com/hms-go/hms-api/pkg/logger"
	corsmiddleware "github.com/hms-go/hms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/hms-go/hms-api/pkg/middleware/requestid"
)

// @title HMS API
// @version 1.0.0
// @description Hostel management: room allocation, occupancy reconciliation, fee challans
// @BasePath /
// @schemes http

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
	defer db.Close()

	redisClient, redisErr := cache.NewRedis(cfg.Redis)
	if redisErr != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", redisErr)
	}

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	hostelRepo := repository.NewHostelRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	challanRepo := repository.NewChallanRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close()

	validate := validator.New()

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr, redisErr == nil)
	rosterSvc := service.NewRosterService(hostelRepo, studentRepo, assignmentRepo, cacheSvc, cfg.Allocation.RosterCacheTTL, logr)
	studentSvc := service.NewStudentService(studentRepo, hostelRepo, assignmentRepo, challanRepo, auditRepo, rosterSvc, cfg.Allocation.AllowOverflow, validate, logr)
	hostelSvc := service.NewHostelService(hostelRepo, studentRepo, challanRepo, assignmentRepo, auditRepo, rosterSvc, validate, logr)
	challanSvc := service.NewChallanService(challanRepo, studentRepo, auditRepo, rosterSvc, validate, logr)
	auditSvc := service.NewAuditService(auditRepo, validate, logr)
	userSvc := service.NewUserService(userRepo, auditRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(hostelRepo, studentRepo, userRepo, challanRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	exportSvc := service.NewExportService(studentRepo, export.NewCSVExporter(), export.NewPDFExporter(), logr)
	authSvc := service.NewAuthService(userRepo, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "hms-api",
		Audience:           []string{"hms"},
	})

	authHandler := handler.NewAuthHandler(authSvc)
	hostelHandler := handler.NewHostelHandler(hostelSvc, rosterSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	challanHandler := handler.NewChallanHandler(challanSvc)
	userHandler := handler.NewUserHandler(userSvc)
	auditHandler := handler.NewAuditHandler(auditSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	authed := auth.Group("", middleware.JWT(authSvc))
	authed.POST("/logout", authHandler.Logout)
	authed.POST("/change-password", authHandler.ChangePassword)
	authed.GET("/me", authHandler.Me)

	// Landing views stay public; the roster does not expose anything beyond
	// what the notice board in the lobby already does.
	public := api.Group("/public")
	public.GET("/hostels", hostelHandler.Stats)
	public.GET("/hostels/:name/roster", middleware.OptionalJWT(authSvc), hostelHandler.Roster)

	protected := api.Group("", middleware.JWT(authSvc))

	hostels := protected.Group("/hostels")
	hostels.GET("", hostelHandler.List)
	hostels.GET("/:id", hostelHandler.Get)
	hostels.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleProHost), hostelHandler.Create)
	hostels.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleProHost), hostelHandler.Update)
	hostels.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), hostelHandler.Delete)

	students := protected.Group("/students")
	students.GET("", studentHandler.List)
	students.GET("/:id", studentHandler.Get)
	students.POST("", middleware.ManagementRoles(), studentHandler.Create)
	students.PUT("/:id", middleware.ManagementRoles(), studentHandler.Update)
	students.DELETE("/:id", middleware.ManagementRoles(), studentHandler.Delete)
	students.DELETE("/batch", middleware.RequireRoles(models.RoleAdmin, models.RoleProHost), studentHandler.DeleteBatch)

	challans := protected.Group("/challans")
	challans.GET("", challanHandler.List)
	challans.POST("", middleware.ManagementRoles(), challanHandler.Issue)
	challans.POST("/:id/pay", middleware.ManagementRoles(), challanHandler.MarkPaid)
	protected.GET("/fees/:registration", challanHandler.FeeStructure)

	users := protected.Group("/users", middleware.RequireRoles(models.RoleAdmin))
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)
	protected.GET("/users/:id", middleware.RBAC("ADMIN", "SELF"), userHandler.Get)

	audit := protected.Group("/audit")
	audit.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleProHost, models.RoleWarden), auditHandler.List)
	audit.POST("", auditHandler.Record)

	if cfg.Dashboard.Enabled {
		protected.GET("/dashboard", dashboardHandler.Summary)
	}

	if cfg.Exports.Enabled {
		exports := protected.Group("/exports", middleware.ManagementRoles())
		exports.GET("/students.csv", exportHandler.StudentsCSV)
		exports.GET("/students.pdf", exportHandler.StudentsPDF)
		exports.GET("/fees.pdf", exportHandler.FeeReportPDF)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
