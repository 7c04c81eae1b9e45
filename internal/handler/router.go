package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/edupulse/retention-api/internal/middleware"
	"github.com/edupulse/retention-api/internal/models"
	"github.com/edupulse/retention-api/internal/service"
	"github.com/edupulse/retention-api/pkg/config"
	"github.com/edupulse/retention-api/pkg/logger"
	"github.com/edupulse/retention-api/pkg/middleware/cors"
	"github.com/edupulse/retention-api/pkg/middleware/requestid"
)

// RouterDeps collects everything the HTTP surface needs.
type RouterDeps struct {
	Config     *config.Config
	Logger     *zap.Logger
	Auth       *service.AuthService
	Metrics    *service.MetricsService
	ReadyCheck func(ctx context.Context) error

	AuthHandler       *AuthHandler
	CourseHandler     *CourseHandler
	GradeItemHandler  *GradeItemHandler
	GradeHandler      *GradeHandler
	AttendanceHandler *AttendanceHandler
	RiskHandler       *RiskHandler
	StudentHandler    *StudentHandler
	MessageHandler    *MessageHandler
	DashboardHandler  *DashboardHandler
}

// NewRouter wires middleware and routes into a gin engine.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.Middleware())
	router.Use(logger.GinMiddleware(deps.Logger))
	router.Use(cors.New(deps.Config.CORS.AllowedOrigins))
	if deps.Metrics != nil {
		router.Use(middleware.Metrics(deps.Metrics))
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/ready", func(c *gin.Context) {
		if deps.ReadyCheck != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.ReadyCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	if deps.Config.Env != config.EnvProduction {
		router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := deps.Config.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := router.Group(prefix)

	auth := api.Group("/auth")
	{
		auth.POST("/register", deps.AuthHandler.Register)
		auth.POST("/login", deps.AuthHandler.Login)
		auth.POST("/refresh", deps.AuthHandler.Refresh)
	}

	authed := api.Group("")
	authed.Use(middleware.Authenticate(deps.Auth))
	authed.POST("/auth/logout", deps.AuthHandler.Logout)
	authed.GET("/auth/me", deps.AuthHandler.Me)

	professor := middleware.RequireRoles(models.RoleProfessor)

	courses := authed.Group("/courses")
	{
		courses.GET("", deps.CourseHandler.List)
		courses.POST("", professor, deps.CourseHandler.Create)
		courses.GET("/:courseId", deps.CourseHandler.Get)

		courses.GET("/:courseId/students", professor, deps.CourseHandler.Roster)
		courses.POST("/:courseId/students", professor, deps.CourseHandler.Enroll)
		courses.DELETE("/:courseId/students/:studentId", professor, deps.CourseHandler.Unenroll)

		courses.GET("/:courseId/grade-items", deps.GradeItemHandler.List)
		courses.POST("/:courseId/grade-items", professor, deps.GradeItemHandler.Create)
		courses.GET("/:courseId/grade-items/:itemId/grades", professor, deps.GradeHandler.ListForItem)
		courses.POST("/:courseId/grade-items/:itemId/grades", professor, deps.GradeHandler.UpsertForItem)

		courses.GET("/:courseId/marks", professor, deps.GradeHandler.Marks)
		courses.POST("/:courseId/marks", professor, deps.GradeHandler.UpsertMarks)
		courses.GET("/:courseId/summary", professor, deps.GradeHandler.Summary)
		courses.GET("/:courseId/summary/:studentId", deps.GradeHandler.StudentSummary)
		courses.GET("/:courseId/export", professor, deps.GradeHandler.Export)

		courses.POST("/:courseId/attendance", professor, deps.AttendanceHandler.Record)
		courses.GET("/:courseId/attendance", professor, deps.AttendanceHandler.ListForDay)
		courses.GET("/:courseId/attendance/rates", professor, deps.AttendanceHandler.Rates)

		courses.GET("/:courseId/risk", professor, deps.RiskHandler.CourseRisk)
		courses.GET("/:courseId/risk/at-risk", professor, deps.RiskHandler.AtRisk)
	}

	authed.DELETE("/grade-items/:itemId", professor, deps.GradeItemHandler.Delete)
	authed.PUT("/grades", professor, deps.GradeHandler.Upsert)

	students := authed.Group("/students")
	{
		students.GET("", professor, deps.StudentHandler.List)
		students.GET("/children", middleware.RequireRoles(models.RoleParent), deps.StudentHandler.Children)
		students.GET("/:studentId", deps.StudentHandler.Get)
	}

	messages := authed.Group("/messages")
	{
		messages.POST("", deps.MessageHandler.Send)
		messages.GET("", deps.MessageHandler.Mailbox)
		messages.PATCH("/:messageId/read", deps.MessageHandler.MarkRead)
	}

	dashboard := authed.Group("/dashboard")
	{
		dashboard.GET("/professor", professor, deps.DashboardHandler.Professor)
		dashboard.GET("/student/:studentId", deps.DashboardHandler.Student)
	}

	return router
}
