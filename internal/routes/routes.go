// internal/routes/routes.go
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "serial-service/docs"
	"serial-service/internal/config"
	"serial-service/internal/handler"
	"serial-service/internal/middleware"
	"serial-service/internal/service"
	"serial-service/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config         *config.Config
	logger         *zap.Logger
	commandService *service.CommandService
}

// NewRouter creates a new router instance
func NewRouter(config *config.Config, logger *zap.Logger, commandService *service.CommandService) *Router {
	return &Router{
		config:         config,
		logger:         logger,
		commandService: commandService,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	r.addMiddleware(router)
	r.addRoutes(router)
	r.addDocumentationRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(utils.NewServiceLogger(r.logger, "http-server")))
	router.Use(middleware.CORSMiddleware(&r.config.Security))
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.commandService, r.config, r.logger)
	commandHandler := handler.NewCommandHandler(r.commandService, r.logger)

	health := router.Group("")
	{
		health.GET("/health", healthHandler.HealthCheck)
		health.GET("/ready", healthHandler.ReadinessCheck)
		health.GET("/live", healthHandler.LivenessCheck)
	}

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/commands", commandHandler.SendCommand)
		apiV1.POST("/writes", commandHandler.WriteString)
		apiV1.GET("/connection", commandHandler.GetConnection)
	}

	r.logger.Info("All routes configured successfully")
}

// addDocumentationRoutes sets up documentation routes
func (r *Router) addDocumentationRoutes(router *gin.Engine) {
	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))

	// Swagger redirect for convenience
	router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
}
