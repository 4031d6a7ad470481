package handlers

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/config"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/metrics"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/models"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/services"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/session"
	"github.com/amarjyotibairagi/proDriverV2-sub001/internal/utils"
	"github.com/amarjyotibairagi/proDriverV2-sub001/web"
)

type HandlerManager struct {
	authHandler          *AuthHandler
	impersonationHandler *ImpersonationHandler
	userHandler          *UserHandler
	moduleHandler        *ModuleHandler
	contentHandler       *ContentHandler
	assignmentHandler    *AssignmentHandler
	dashboardHandler     *DashboardHandler
	pageHandler          *PageHandler

	services  services.ServiceManager
	cookies   *session.CookieManager
	metrics   *metrics.Metrics
	templates *template.Template
	rules     []GateRule
	loginRate config.RateLimitConfig
	logger    utils.Logger
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	cookies *session.CookieManager,
	cfg *config.Config,
	m *metrics.Metrics,
	logger utils.Logger,
) (*HandlerManager, error) {
	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}
	locale := cfg.SourceLanguage()

	return &HandlerManager{
		authHandler:          NewAuthHandler(serviceManager.Auth(), cookies, cfg.Languages, logger),
		impersonationHandler: NewImpersonationHandler(serviceManager.Impersonation(), cookies, logger),
		userHandler:          NewUserHandler(serviceManager.User(), serviceManager.MasterData(), cookies, logger),
		moduleHandler:        NewModuleHandler(serviceManager.Module(), cookies, locale, logger),
		contentHandler:       NewContentHandler(serviceManager.Translation(), serviceManager.Audio(), serviceManager.Storage(), cookies, logger),
		assignmentHandler:    NewAssignmentHandler(serviceManager.Assignment(), cookies, logger),
		dashboardHandler:     NewDashboardHandler(serviceManager.Dashboard(), serviceManager.Report(), serviceManager.Audit(), cookies, logger),
		pageHandler:          NewPageHandler(serviceManager, cookies, locale, logger),
		services:             serviceManager,
		cookies:              cookies,
		metrics:              m,
		templates:            tmpl,
		rules:                DefaultGateRules(),
		loginRate:            cfg.LoginRateLimit,
		logger:               logger,
	}, nil
}

// SetupRoutes sets up the gate, the pages and all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	if hm.metrics != nil {
		router.Use(hm.metrics.Middleware())
		router.GET("/metrics", gin.WrapH(hm.metrics.Handler()))
	}
	router.GET("/health", hm.health)

	// Every route registered below is checked against the gate rules
	router.Use(AuthGate(hm.cookies, hm.rules, hm.logger))

	router.SetHTMLTemplate(hm.templates)
	router.GET("/", hm.pageHandler.Root)
	router.GET("/login", hm.pageHandler.Login)
	router.GET("/admin", hm.pageHandler.Admin)
	router.GET("/dashboard", hm.pageHandler.Dashboard)
	router.GET("/training/:id", hm.pageHandler.Training)

	// Public API
	auth := router.Group("/api/auth")
	{
		auth.POST("/login", RateLimitMiddleware(hm.loginRate), hm.authHandler.Login)
		auth.POST("/register", RateLimitMiddleware(hm.loginRate), hm.authHandler.Register)
		auth.POST("/logout", hm.authHandler.Logout)
		auth.GET("/session", hm.authHandler.Session)
		auth.POST("/language", hm.authHandler.SetLanguage)
	}
	router.GET("/api/master-data/:kind", hm.userHandler.ListMasterData)

	// Any authenticated identity, including an impersonated one
	me := router.Group("/api/me")
	{
		me.GET("/profile", hm.userHandler.GetProfile)
		me.PUT("/profile", hm.userHandler.UpdateProfile)
		me.POST("/password", hm.authHandler.ChangePassword)
		me.POST("/impersonation/exit", hm.impersonationHandler.Exit)

		me.GET("/dashboard", hm.assignmentHandler.MyDashboard)
		me.GET("/assignments", hm.assignmentHandler.MyAssignments)
		me.POST("/assignments/:id/training/start", hm.assignmentHandler.StartTraining)
		me.POST("/assignments/:id/training/complete", hm.assignmentHandler.CompleteTraining)
		me.POST("/assignments/:id/test/start", hm.assignmentHandler.StartTest)
		me.POST("/assignments/:id/test/submit", hm.assignmentHandler.SubmitTest)

		me.GET("/modules/:id", hm.moduleHandler.LocalizedModule)
	}

	admin := router.Group("/api/admin")
	{
		users := admin.Group("/users")
		{
			users.GET("", hm.userHandler.ListUsers)
			users.POST("", hm.userHandler.CreateUser)
			users.GET("/:id", hm.userHandler.GetUser)
			users.PUT("/:id", hm.userHandler.UpdateUser)
			users.DELETE("/:id", hm.userHandler.DeleteUser)
			users.POST("/:id/reset-password", hm.authHandler.ResetPassword)
		}

		masterData := admin.Group("/master-data/:kind")
		{
			masterData.POST("", hm.userHandler.CreateMasterData)
			masterData.PUT("/:id", hm.userHandler.RenameMasterData)
			masterData.DELETE("/:id", hm.userHandler.DeleteMasterData)
		}

		admin.GET("/shadow-accounts", hm.impersonationHandler.ListShadowAccounts)
		admin.POST("/shadow-accounts", hm.impersonationHandler.CreateShadowAccount)
		admin.POST("/impersonate", hm.impersonationHandler.Impersonate)

		modules := admin.Group("/modules")
		{
			modules.GET("", hm.moduleHandler.ListModules)
			modules.POST("", hm.moduleHandler.CreateModule)
			modules.GET("/export", hm.moduleHandler.ExportModule)
			modules.GET("/:id", hm.moduleHandler.GetModule)
			modules.PUT("/:id", hm.moduleHandler.UpdateModule)
			modules.PUT("/:id/content", hm.moduleHandler.UpdateContent)
			modules.DELETE("/:id", hm.moduleHandler.DeleteModule)
		}

		admin.POST("/translations", hm.contentHandler.Translate)
		admin.POST("/audio-jobs", hm.contentHandler.StartAudioJob)
		admin.GET("/audio-jobs/:id", hm.contentHandler.AudioJobStatus)
		admin.POST("/audio-jobs/:id/stop", hm.contentHandler.StopAudioJob)
		admin.POST("/storage/sign", hm.contentHandler.SignUpload)

		assignments := admin.Group("/assignments")
		{
			assignments.GET("", hm.assignmentHandler.ListAssignments)
			assignments.POST("", hm.assignmentHandler.Assign)
			assignments.DELETE("/:id", hm.assignmentHandler.DeleteAssignment)
		}

		admin.GET("/dashboard", hm.dashboardHandler.GetDashboardStats)
		admin.GET("/reports/assignments", hm.dashboardHandler.DownloadAssignmentReport)
		admin.GET("/audit", hm.dashboardHandler.ListAuditLogs)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.Fail("Not found"))
	})
}

func (hm *HandlerManager) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := hm.services.HealthCheck(ctx); err != nil {
		utils.GetLogger(c, hm.logger).Warn("Health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   "prodriver",
	})
}
