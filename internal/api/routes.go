package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"resumebuilder/internal/api/middleware"
	"resumebuilder/internal/auth"
	"resumebuilder/internal/config"
	"resumebuilder/internal/resume"
	"resumebuilder/internal/users"
)

// Deps 汇总路由所需的服务。Redis、AI、Exports、Links、Mailer 可以为空，
// 对应功能将降级或返回 503。
type Deps struct {
	Config  *config.Config
	Logger  *slog.Logger
	Redis   redis.UniversalClient
	Tokens  *auth.TokenService
	Users   *users.Service
	Resumes *resume.Service
	AI      AIRelay
	Exports ExportQueue
	Links   LinkSigner
	Mailer  WelcomeMailer
}

// RegisterRoutes 注册 API 路由，路径与前端保持一致。
func RegisterRoutes(router *gin.Engine, d Deps) {
	cfg := d.Config

	var limiter rateStore
	var subscriber notifySubscriber
	if d.Redis != nil {
		limiter = d.Redis
		subscriber = d.Redis
	}

	userHandler := NewUserHandler(d.Users, d.Resumes, d.Tokens, limiter, d.Mailer, d.Logger,
		cfg.Auth.LoginRateLimitPerHour, cfg.Auth.LoginLockThreshold, cfg.Auth.LoginLockTTL)
	resumeHandler := NewResumeHandler(d.Resumes, d.Exports, d.Links, d.Logger, cfg.API.MaxUploadBytes)
	aiHandler := NewAIHandler(d.AI, limiter, d.Logger, cfg.AI.RateLimitPerHour, cfg.API.MaxUploadBytes)
	templateHandler := NewTemplateHandler()
	wsHandler := NewWsHandler(subscriber, d.Tokens, d.Logger, cfg.API.AllowedOrigins)
	authMiddleware := middleware.AuthMiddleware(d.Tokens)

	router.GET("/ws", wsHandler.HandleConnection)
	router.GET("/templates", templateHandler.ListTemplates)

	userGroup := router.Group("/users")
	{
		userGroup.POST("/register", userHandler.Register)
		userGroup.POST("/login", userHandler.Login)
		userGroup.GET("/data", authMiddleware, userHandler.GetUserData)
		userGroup.GET("/resumes", authMiddleware, userHandler.GetUserResumes)
	}

	resumeGroup := router.Group("/resumes")
	{
		resumeGroup.GET("/public/:id", resumeHandler.GetPublicResume)
		resumeGroup.GET("/public/:id/view", resumeHandler.ViewPublicResume)

		private := resumeGroup.Group("")
		private.Use(authMiddleware)
		private.POST("/create", resumeHandler.CreateResume)
		private.PUT("/update", resumeHandler.UpdateResume)
		private.DELETE("/delete/:id", resumeHandler.DeleteResume)
		private.GET("/get/:id", resumeHandler.GetResume)
		private.POST("/edit", resumeHandler.EditResume)
		private.GET("/preview/:id", resumeHandler.PreviewResume)
		private.POST("/export/:id", resumeHandler.ExportResume)
		private.GET("/export/:id/link", resumeHandler.GetExportLink)
	}

	aiGroup := router.Group("/ai")
	aiGroup.Use(authMiddleware)
	{
		aiGroup.POST("/enhance-pro-sum", aiHandler.EnhanceProfessionalSummary)
		aiGroup.POST("/enhance-job-desc", aiHandler.EnhanceJobDescription)
		aiGroup.POST("/upload-resume", aiHandler.UploadResume)
	}
}
