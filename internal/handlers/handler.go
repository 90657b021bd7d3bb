package handlers

import (
	_ "p2p_transfer/docs"
	"p2p_transfer/internal/logger"
	"p2p_transfer/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services     *service.Service
	log          *logger.Logger
	allowFunding bool
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{services: services, log: log}
}

// EnableFunding registers POST /api/v1/account/fund on the next InitRoutes call.
func (h *Handler) EnableFunding() *Handler {
	h.allowFunding = true
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// API-token endpoints: plain JSON export and its live stream
	router.GET("/api/records", h.exportRecords)
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		api.GET("/account", h.getAccount)
		if h.allowFunding {
			api.POST("/account/fund", h.fundAccount)
		}
		api.GET("/audit", h.getAudit)
		h.registerTransferRoutes(api)
	}
}

func (h *Handler) registerTransferRoutes(api *gin.RouterGroup) {
	transfers := api.Group("/transfers")
	{
		// Body example: {"to_user_id":2,"amount":"30.50"}
		transfers.POST("", h.createTransfer)
		transfers.GET("", h.listTransfers)
	}
}
