package api

import (
	"errors"
	"net/http"
	"time"

	"membership-api/internal/config"
	"membership-api/internal/database"
	"membership-api/internal/models"
	"membership-api/internal/response"
	"membership-api/internal/utils"
	"membership-api/pkg/logging"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const tokenTTL = 24 * time.Hour

// RegisterRequest represents a member registration request
type RegisterRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=8"`
}

// Register creates a member account and returns an access token
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	if _, err := database.GetUserByEmail(req.Email); err == nil {
		response.ErrorJSON(c, http.StatusConflict, "Email is already registered")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		logging.Errorf("Registration lookup failed: %v", err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		logging.Errorf("Password hashing failed: %v", err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	user := &models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: hash,
		Role:         models.RoleMember,
		IsActive:     true,
	}
	if err := database.CreateUser(user); err != nil {
		logging.Errorf("Failed to create user: %v", err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	token, err := utils.IssueToken(config.AppConfig.JWTSecret, user.ID, user.Role, tokenTTL)
	if err != nil {
		logging.Errorf("Failed to issue token: %v", err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	response.JSON(c, http.StatusCreated, response.Success(gin.H{
		"user":  user,
		"token": token,
	}))
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and returns an access token
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	user, err := database.GetUserByEmail(req.Email)
	if err != nil || !utils.CheckPassword(user.PasswordHash, req.Password) {
		response.ErrorJSON(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if !user.IsActive {
		response.ErrorJSON(c, http.StatusForbidden, "Account is disabled")
		return
	}

	token, err := utils.IssueToken(config.AppConfig.JWTSecret, user.ID, user.Role, tokenTTL)
	if err != nil {
		logging.Errorf("Failed to issue token: %v", err)
		response.ErrorJSON(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	response.SuccessJSON(c, gin.H{
		"user":  user,
		"token": token,
	})
}
