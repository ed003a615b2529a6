package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	health "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.ApiService/health"
)

// BrokerStatus reports whether the MQTT bridge currently holds a broker
// connection.
type BrokerStatus interface {
	IsConnected() bool
}

// HealthController handles health requests
type HealthController struct {
	checker *health.HealthChecker
	broker  BrokerStatus
}

// NewHealthController creates a new health controller
func NewHealthController(checker *health.HealthChecker, broker BrokerStatus) *HealthController {
	return &HealthController{
		checker: checker,
		broker:  broker,
	}
}

// RegisterRoutes registers the health routes with Gin
func (c *HealthController) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", c.Health)
	router.GET("/health/live", c.HealthLive)
}

func (c *HealthController) HealthLive(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Health reports readiness: database reachability and broker connection.
func (c *HealthController) Health(ctx *gin.Context) {
	status := c.checker.GetHealthStatus(ctx.Request.Context())
	status["mqtt"] = c.broker.IsConnected()

	code := http.StatusOK
	if status["status"] != "ok" {
		code = http.StatusServiceUnavailable
	}

	ctx.JSON(code, status)
}
