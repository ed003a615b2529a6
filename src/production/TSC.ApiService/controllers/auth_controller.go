package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	jwt "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.ApiService/implementation/jwt"
	middleware "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.ApiService/middleware"
	config "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Config"
	logger "gitlab.com/tempsens1/tsc.cloud_server/src/production/TSC.Logger"
)

const (
	loginAttemptsPerWindow = 10
	loginWindow            = time.Minute
)

// AuthController handles authentication requests
type AuthController struct {
	authConfig   config.AuthConfig
	jwtService   *jwt.Service
	loginLimiter *middleware.RateLimiter
	logger       *logger.Logger
}

// NewAuthController creates a new auth controller
func NewAuthController(authConfig config.AuthConfig, jwtService *jwt.Service, log *logger.Logger) *AuthController {
	return &AuthController{
		authConfig:   authConfig,
		jwtService:   jwtService,
		loginLimiter: middleware.NewRateLimiter(loginAttemptsPerWindow, loginWindow),
		logger:       log.WithComponent("auth-controller"),
	}
}

// RegisterRoutes registers the auth routes with Gin
func (h *AuthController) RegisterRoutes(router *gin.Engine) {
	auth := router.Group("/api/auth")
	{
		auth.POST("/login", h.loginLimiter.Limit(), h.Login)
		auth.POST("/refresh", h.Refresh)
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Login checks the admin credentials and issues a token pair
func (h *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Username != h.authConfig.AdminUsername {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(h.authConfig.AdminPasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	tokens, err := h.jwtService.GenerateTokens(req.Username, "admin")
	if err != nil {
		h.logger.ErrorWithError(err, "Failed to generate tokens")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	h.logger.WithField("username", req.Username).Info("Admin logged in")
	c.JSON(http.StatusOK, tokens)
}

// Refresh exchanges a valid refresh token for a new access token
func (h *AuthController) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	accessToken, err := h.jwtService.GenerateAccessToken(claims.Subject, claims.Role)
	if err != nil {
		h.logger.ErrorWithError(err, "Failed to generate access token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": accessToken})
}
