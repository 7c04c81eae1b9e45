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

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	_ "github.com/edupulse/retention-api/api/swagger"
	"github.com/edupulse/retention-api/internal/handler"
	"github.com/edupulse/retention-api/internal/repository"
	"github.com/edupulse/retention-api/internal/service"
	"github.com/edupulse/retention-api/pkg/cache"
	"github.com/edupulse/retention-api/pkg/config"
	"github.com/edupulse/retention-api/pkg/database"
	"github.com/edupulse/retention-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		log.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gradeItemRepo := repository.NewGradeItemRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, log)

	metrics := service.NewMetricsService()
	cacheEnabled := cfg.Dashboard.CacheEnabled && redisClient != nil
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, log, cacheEnabled)

	authSvc := service.NewAuthService(userRepo, studentRepo, cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.RefreshExpiration, validate, log)
	courseSvc := service.NewCourseService(courseRepo, validate, log)
	studentSvc := service.NewStudentService(studentRepo, log)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, courseRepo, validate, log)
	gradeItemSvc := service.NewGradeItemService(gradeItemRepo, courseRepo, validate, log)
	gradeSvc := service.NewGradeService(gradeRepo, gradeItemRepo, courseRepo, enrollmentRepo, cacheSvc, metrics, validate, log)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, courseRepo, validate, log)
	messageSvc := service.NewMessageService(messageRepo, userRepo, validate, log)
	riskSvc := service.NewRiskService(gradeItemRepo, gradeRepo, enrollmentRepo, attendanceRepo, cacheSvc, cfg.Risk, log)
	dashboardSvc := service.NewDashboardService(courseRepo, gradeSvc, riskSvc, attendanceRepo, studentRepo, cacheSvc, log)
	exportSvc := service.NewExportService(gradeSvc, log)

	router := handler.NewRouter(handler.RouterDeps{
		Config:  cfg,
		Logger:  log,
		Auth:    authSvc,
		Metrics: metrics,
		ReadyCheck: func(ctx context.Context) error {
			return db.PingContext(ctx)
		},
		AuthHandler:       handler.NewAuthHandler(authSvc),
		CourseHandler:     handler.NewCourseHandler(courseSvc, enrollmentSvc, studentSvc),
		GradeItemHandler:  handler.NewGradeItemHandler(gradeItemSvc, courseSvc),
		GradeHandler:      handler.NewGradeHandler(gradeSvc, courseSvc, studentSvc, exportSvc),
		AttendanceHandler: handler.NewAttendanceHandler(attendanceSvc, courseSvc),
		RiskHandler:       handler.NewRiskHandler(riskSvc, courseSvc),
		StudentHandler:    handler.NewStudentHandler(studentSvc),
		MessageHandler:    handler.NewMessageHandler(messageSvc),
		DashboardHandler:  handler.NewDashboardHandler(dashboardSvc, studentSvc),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("server starting", zap.Int("port", cfg.Port), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
