package controllers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/gin-gonic/gin"

	middleware "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.ApiService/middleware"
	tscgateway "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Gateway"
	logger "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Logger"
	tscmodels "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Models"
	interfaces "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Repository/Interfaces"
)

// DeviceController handles hub device management requests
type DeviceController struct {
	deviceRepo     interfaces.DeviceRepository
	gateway        *tscgateway.Hub
	logger         *logger.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewDeviceController creates a new device controller
func NewDeviceController(deviceRepo interfaces.DeviceRepository, gateway *tscgateway.Hub, log *logger.Logger, authMiddleware *middleware.AuthMiddleware) *DeviceController {
	return &DeviceController{
		deviceRepo:     deviceRepo,
		gateway:        gateway,
		logger:         log.WithComponent("device-controller"),
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers the device routes with Gin
func (c *DeviceController) RegisterRoutes(router *gin.Engine) {
	devices := router.Group("/api/devices")
	devices.Use(c.authMiddleware.Authenticate())
	{
		// Registration is driven by the logged-in app during provisioning,
		// not by the hub itself, so it sits behind the same token check.
		devices.POST("/register", c.RegisterDevice)

		devices.GET("", c.ListDevices)
		devices.GET("/:mac/status", c.GetDeviceStatus)
	}
}

type RegisterDeviceRequest struct {
	MAC  string  `json:"mac" binding:"required"`
	Name *string `json:"name"`
}

// RegisterDevice upserts a hub by MAC and hands back a fresh API key.
// Re-registering an existing hub rotates the key.
func (c *DeviceController) RegisterDevice(ctx *gin.Context) {
	var req RegisterDeviceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	mac := tscmodels.NormalizeMAC(req.MAC)
	if !tscmodels.ValidMAC(mac) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid MAC address"})
		return
	}

	apiKey, err := generateAPIKey()
	if err != nil {
		c.logger.ErrorWithError(err, "Failed to generate api key")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
		return
	}

	device, err := c.deviceRepo.RegisterDevice(ctx.Request.Context(), mac, req.Name, apiKey)
	if err != nil {
		c.logger.ErrorWithError(err, "Failed to register device")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.logger.WithField("mac", mac).Info("Hub registered")
	ctx.JSON(http.StatusCreated, device)
}

func (c *DeviceController) ListDevices(ctx *gin.Context) {
	devices, err := c.deviceRepo.ListDevices(ctx.Request.Context())
	if err != nil {
		c.logger.ErrorWithError(err, "Failed to list devices")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	ctx.JSON(http.StatusOK, devices)
}

// GetDeviceStatus serves the last status frame the hub published, if any.
func (c *DeviceController) GetDeviceStatus(ctx *gin.Context) {
	mac := tscmodels.NormalizeMAC(ctx.Param("mac"))
	if !tscmodels.ValidMAC(mac) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid MAC address"})
		return
	}

	status, ok := c.gateway.HubStatus(mac)
	if !ok {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "No status reported"})
		return
	}

	ctx.JSON(http.StatusOK, status)
}

func generateAPIKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
