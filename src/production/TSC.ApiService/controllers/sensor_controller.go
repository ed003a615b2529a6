package controllers

import (
	"database/sql"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	middleware "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.ApiService/middleware"
	logger "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Logger"
	interfaces "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Repository/Interfaces"
)

const maxSensorNameLength = 64

// HubPublisher is the broker-facing surface the controllers need:
// pairing decisions must fail loudly when the broker is down, while
// sensor removal degrades to the next sync cycle.
type HubPublisher interface {
	PublishPairingDecision(hubMAC, sensorMAC string, approved bool) error
	PublishSensorRemove(hubMAC, sensorMAC string)
}

// SensorController handles sensor management requests
type SensorController struct {
	sensorRepo     interfaces.SensorRepository
	publisher      HubPublisher
	logger         *logger.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewSensorController creates a new sensor controller
func NewSensorController(sensorRepo interfaces.SensorRepository, publisher HubPublisher, log *logger.Logger, authMiddleware *middleware.AuthMiddleware) *SensorController {
	return &SensorController{
		sensorRepo:     sensorRepo,
		publisher:      publisher,
		logger:         log.WithComponent("sensor-controller"),
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers the sensor routes with Gin
func (c *SensorController) RegisterRoutes(router *gin.Engine) {
	sensors := router.Group("/api/sensors")
	sensors.Use(c.authMiddleware.Authenticate())
	{
		sensors.GET("", c.ListSensors)
		sensors.PUT("/:id", c.RenameSensor)
		sensors.DELETE("/:id", c.DeleteSensor)
	}
}

func (c *SensorController) ListSensors(ctx *gin.Context) {
	sensors, err := c.sensorRepo.ListSensors(ctx.Request.Context())
	if err != nil {
		c.logger.ErrorWithError(err, "Failed to list sensors")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	ctx.JSON(http.StatusOK, sensors)
}

type RenameSensorRequest struct {
	Name string `json:"name"`
}

func (c *SensorController) RenameSensor(ctx *gin.Context) {
	id, err := parseSensorID(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sensor id"})
		return
	}

	var req RenameSensorRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if len(name) > maxSensorNameLength {
		name = name[:maxSensorNameLength]
	}

	sensor, err := c.sensorRepo.RenameSensor(ctx.Request.Context(), id, name)
	if err != nil {
		if err == sql.ErrNoRows {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Sensor not found"})
			return
		}
		c.logger.ErrorWithError(err, "Failed to rename sensor")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	ctx.JSON(http.StatusOK, sensor)
}

// DeleteSensor removes a sensor and its readings, then tells the hub to
// drop the sensor from its own pairing table. The publish is best effort;
// a disconnected broker never fails the delete.
func (c *SensorController) DeleteSensor(ctx *gin.Context) {
	id, err := parseSensorID(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sensor id"})
		return
	}

	sensor, err := c.sensorRepo.GetSensorWithHub(ctx.Request.Context(), id)
	if err != nil {
		c.logger.ErrorWithError(err, "Failed to look up sensor")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if sensor == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Sensor not found"})
		return
	}

	if err := c.sensorRepo.DeleteSensor(ctx.Request.Context(), id); err != nil {
		if err == sql.ErrNoRows {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Sensor not found"})
			return
		}
		c.logger.ErrorWithError(err, "Failed to delete sensor")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.publisher.PublishSensorRemove(sensor.HubMAC, sensor.MAC)

	ctx.Status(http.StatusNoContent)
}

func parseSensorID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, strconv.ErrSyntax
	}
	return id, nil
}
