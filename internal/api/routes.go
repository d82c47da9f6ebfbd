package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"jobpilot/internal/agent"
	"jobpilot/internal/api/middleware"
	"jobpilot/internal/auth"
	"jobpilot/internal/config"
	"jobpilot/internal/onboarding"
	"jobpilot/internal/storage"
	"jobpilot/internal/store"
)

// RegisterRoutes wires every handler under /v1.
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	asynqClient *asynq.Client,
	authService *auth.AuthService,
	redisClient *redis.Client,
	logger *slog.Logger,
	storageClient *storage.Client,
) {
	dataStore := store.New(db)
	stateRepo := onboarding.NewStateRepo(redisClient, cfg.Onboarding.StateTTL)
	flow := onboarding.NewFlow(stateRepo, dataStore, logger)
	bridge := agent.NewBridge(cfg.Agent.BaseURL, cfg.Agent.Timeout, logger)

	authHandler := NewAuthHandler(db, authService, redisClient, logger, cfg.Auth.LoginRatePerHr)
	profileHandler := NewProfileHandler(dataStore)
	skillsHandler := NewSkillsHandler(dataStore)
	resumeHandler := NewResumeHandler(dataStore, storageClient, asynqClient, logger, cfg.Upload.ClamdAddr, cfg.Upload.MaxBytes)
	onboardingHandler := NewOnboardingHandler(flow)
	agentHandler := NewAgentHandler(bridge, logger)
	chatHandler := NewChatHandler(dataStore)
	jobsHandler := NewJobsHandler(dataStore)
	wsHandler := NewWsHandler(redisClient, authService, logger, cfg.API.Origins())

	authMiddleware := middleware.AuthMiddleware(authService)
	optionalAuth := middleware.OptionalAuthMiddleware(authService)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
		}

		profileGroup := v1.Group("/profile")
		profileGroup.Use(authMiddleware)
		{
			profileGroup.GET("", profileHandler.GetProfile)
			profileGroup.PUT("", profileHandler.UpdateProfile)
		}

		skillsGroup := v1.Group("/skills")
		skillsGroup.Use(authMiddleware)
		{
			skillsGroup.GET("/catalog", skillsHandler.Catalog)
			skillsGroup.GET("/selections", skillsHandler.ListSelections)
			skillsGroup.PUT("/selections", skillsHandler.ReplaceSelections)
		}

		resumeGroup := v1.Group("/resumes")
		resumeGroup.Use(authMiddleware)
		{
			resumeGroup.POST("", resumeHandler.Upload)
			resumeGroup.GET("", resumeHandler.List)
			resumeGroup.PUT("/:id/master", resumeHandler.SetMaster)
			resumeGroup.GET("/:id/download-link", resumeHandler.DownloadLink)
			resumeGroup.DELETE("/:id", resumeHandler.Delete)
		}

		onboardingGroup := v1.Group("/onboarding")
		onboardingGroup.Use(authMiddleware)
		{
			onboardingGroup.GET("/state", onboardingHandler.GetState)
			onboardingGroup.POST("/personal-info", onboardingHandler.SubmitPersonalInfo)
			onboardingGroup.POST("/advance", onboardingHandler.Advance)
			onboardingGroup.POST("/skills", onboardingHandler.SubmitSkills)
			onboardingGroup.POST("/back", onboardingHandler.Back)
			onboardingGroup.POST("/complete", onboardingHandler.Complete)
		}

		chatGroup := v1.Group("/chat")
		chatGroup.Use(authMiddleware)
		{
			chatGroup.GET("/threads", chatHandler.Threads)
			chatGroup.GET("/history", chatHandler.History)
			chatGroup.POST("/messages", chatHandler.Append)
		}

		jobsGroup := v1.Group("/jobs")
		jobsGroup.Use(authMiddleware)
		{
			jobsGroup.GET("", jobsHandler.List)
			jobsGroup.POST("", jobsHandler.Save)
		}

		// The agent proxy resolves identity when a token is present but
		// never rejects the request for lacking one.
		agentGroup := v1.Group("/agent")
		agentGroup.Use(optionalAuth)
		{
			agentGroup.Any("/*path", agentHandler.Proxy)
		}
	}
}
