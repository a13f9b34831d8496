package controllers

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"nse_screener_backend/config"
	"nse_screener_backend/middleware"
)

const tokenTTL = 24 * time.Hour

// AuthController handles admin authentication
type AuthController struct {
	cfg     *config.Config
	limiter *middleware.RateLimiter
}

// NewAuthController creates a new auth controller
func NewAuthController(cfg *config.Config, limiter *middleware.RateLimiter) *AuthController {
	return &AuthController{cfg: cfg, limiter: limiter}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies admin credentials and issues a JWT
// POST /api/v1/auth/login
func (ac *AuthController) Login(c *gin.Context) {
	ip := c.ClientIP()
	if locked, remaining := ac.limiter.IsLocked(ip); locked {
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "too_many_attempts",
			"retry_after": int(remaining.Seconds()),
		})
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if ac.cfg.AdminPasswordHash == "" {
		log.Println("Admin login rejected: ADMIN_PASSWORD_HASH not configured")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin login disabled"})
		return
	}

	if req.Username != ac.cfg.AdminUsername ||
		bcrypt.CompareHashAndPassword([]byte(ac.cfg.AdminPasswordHash), []byte(req.Password)) != nil {
		ac.limiter.RecordFailure(ip)
		log.Printf("Admin login failed for user %s", req.Username)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password"})
		return
	}

	token, err := middleware.GenerateToken(ac.cfg.JWTSecret, req.Username, "admin", tokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}

	ac.limiter.RecordSuccess(ip)
	log.Printf("Admin user %s logged in successfully", req.Username)
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_in": int(tokenTTL.Seconds()),
	})
}
