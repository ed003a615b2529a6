package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	middleware "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.ApiService/middleware"
	logger "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Logger"
	interfaces "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Repository/Interfaces"
)

// ReadingController handles reading query requests
type ReadingController struct {
	readingRepo    interfaces.ReadingRepository
	logger         *logger.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewReadingController creates a new reading controller
func NewReadingController(readingRepo interfaces.ReadingRepository, log *logger.Logger, authMiddleware *middleware.AuthMiddleware) *ReadingController {
	return &ReadingController{
		readingRepo:    readingRepo,
		logger:         log.WithComponent("reading-controller"),
		authMiddleware: authMiddleware,
	}
}

// RegisterRoutes registers the reading routes with Gin
func (c *ReadingController) RegisterRoutes(router *gin.Engine) {
	readings := router.Group("/api/sensors/:id/readings")
	readings.Use(c.authMiddleware.Authenticate())
	{
		readings.GET("", c.GetReadings)
		readings.GET("/latest", c.GetLatestReading)
	}
}

// GetReadings lists readings for a sensor, newest first.
// Query params: from, to (RFC 3339 timestamps), limit.
func (c *ReadingController) GetReadings(ctx *gin.Context) {
	sensorID, err := parseSensorID(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sensor id"})
		return
	}

	var filter interfaces.ReadingFilter

	if raw := ctx.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		filter.Limit = limit
	}

	if raw := ctx.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from timestamp"})
			return
		}
		filter.From = &from
	}

	if raw := ctx.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to timestamp"})
			return
		}
		filter.To = &to
	}

	readings, err := c.readingRepo.ListReadings(ctx.Request.Context(), sensorID, filter)
	if err != nil {
		c.logger.ErrorWithError(err, "Failed to list readings")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	ctx.JSON(http.StatusOK, readings)
}

func (c *ReadingController) GetLatestReading(ctx *gin.Context) {
	sensorID, err := parseSensorID(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sensor id"})
		return
	}

	reading, err := c.readingRepo.LatestReading(ctx.Request.Context(), sensorID)
	if err != nil {
		c.logger.ErrorWithError(err, "Failed to fetch latest reading")
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if reading == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "No readings"})
		return
	}

	ctx.JSON(http.StatusOK, reading)
}
