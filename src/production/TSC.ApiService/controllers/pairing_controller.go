package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	middleware "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.ApiService/middleware"
	logger "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Logger"
	tscmodels "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Models"
	interfaces "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Repository/Interfaces"
)

// PairingController handles the pairing approval workflow
type PairingController struct {
	pairingRepo    interfaces.PairingRepository
	deviceRepo     interfaces.DeviceRepository
	publisher      HubPublisher
	logger         *logger.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewPairingController creates a new pairing controller
func NewPairingController(pairingRepo interfaces.PairingRepository, deviceRepo interfaces.DeviceRepository, publisher HubPublisher, log *logger.Logger, authMiddleware *middleware.AuthMiddleware) *PairingController {
	return &PairingController{
		pairingRepo:    pairingRepo,
		deviceRepo:     deviceRepo,
		publisher:      publisher,
		logger:         log.WithComponent("pairing-controller"),
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers the pairing routes with Gin
func (c *PairingController) RegisterRoutes(router *gin.Engine) {
	pairing := router.Group("/api/pairing")
	pairing.Use(c.authMiddleware.Authenticate())
	{
		pairing.GET("/requests", c.ListRequests)
		pairing.POST("/requests/:id/approve", c.ApproveRequest)
		pairing.POST("/requests/:id/reject", c.RejectRequest)
	}
}

func (c *PairingController) ListRequests(ctx *gin.Context) {
	status := ctx.Query("status")
	if status != "" && !tscmodels.ValidPairingStatus(status) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "status must be pending, approved, or rejected"})
		return
	}

	requests, err := c.pairingRepo.ListRequests(ctx.Request.Context(), status)
	if err != nil {
		c.logger.ErrorWithError(err, "Failed to list pairing requests")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	ctx.JSON(http.StatusOK, requests)
}

func (c *PairingController) ApproveRequest(ctx *gin.Context) {
	c.resolveRequest(ctx, true)
}

func (c *PairingController) RejectRequest(ctx *gin.Context) {
	c.resolveRequest(ctx, false)
}

// resolveRequest settles a pending request and publishes the decision to
// the hub. Only pending requests can be resolved; a settled request is
// never flipped. Unlike sensor removal, the publish failure surfaces to
// the caller: the hub is waiting on this decision right now.
func (c *PairingController) resolveRequest(ctx *gin.Context, approved bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid pairing request id"})
		return
	}

	resolvedBy := middleware.SubjectFromContext(ctx)

	request, err := c.pairingRepo.ResolveRequest(ctx.Request.Context(), id, approved, resolvedBy)
	if err != nil {
		c.logger.ErrorWithError(err, "Failed to resolve pairing request")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if request == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Pending pairing request not found"})
		return
	}

	device, err := c.deviceRepo.GetDeviceByID(ctx.Request.Context(), request.DeviceID)
	if err != nil {
		c.logger.ErrorWithError(err, "Failed to look up hub for pairing decision")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if device != nil {
		if err := c.publisher.PublishPairingDecision(device.MAC, request.SlaveMAC, approved); err != nil {
			c.logger.ErrorWithError(err, "Failed to publish pairing decision")
			ctx.JSON(http.StatusBadGateway, gin.H{"error": "Failed to notify hub"})
			return
		}
	}

	ctx.JSON(http.StatusOK, request)
}
