package handlers

import (
	"context"
	"errors"
	"net/http"

	"quizhub/internal/middleware"
	"quizhub/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"},
	)

	registrationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_registration_attempts_total",
			Help: "Total number of registration attempts",
		},
		[]string{"status"},
	)
)

type AuthHandler struct {
	Service *service.UserService
}

func NewAuthHandler(s *service.UserService) *AuthHandler {
	return &AuthHandler{Service: s}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resent, err := h.Service.Register(context.Background(), req.Name, req.Email, req.Password)
	if err != nil {
		registrationAttempts.WithLabelValues("failure").Inc()
		if errors.Is(err, service.ErrAlreadyRegistered) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	registrationAttempts.WithLabelValues("success").Inc()
	if resent {
		c.JSON(http.StatusOK, gin.H{"message": "OTP resent to your email"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "OTP sent to email."})
}

type verifyEmailRequest struct {
	Email string `json:"email" binding:"required"`
	Otp   string `json:"otp" binding:"required"`
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.Service.VerifyEmail(context.Background(), req.Email, req.Otp)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Email verified successfully"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, service.ErrAlreadyVerified):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already verified"})
	case errors.Is(err, service.ErrInvalidOTP):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired OTP"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type emailRequest struct {
	Email string `json:"email" binding:"required"`
}

func (h *AuthHandler) ResendOtp(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.Service.ResendOTP(context.Background(), req.Email)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "OTP resent to email"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, service.ErrAlreadyVerified):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already verified"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.Service.Login(context.Background(), req.Email, req.Password)
	switch {
	case err == nil:
		loginAttempts.WithLabelValues("success").Inc()
		c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": token})
	case errors.Is(err, service.ErrNotVerified):
		loginAttempts.WithLabelValues("failure").Inc()
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Email not verified. Please verify before logging in."})
	case errors.Is(err, service.ErrInvalidCredentials):
		loginAttempts.WithLabelValues("failure").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, service.ErrAccountLocked):
		loginAttempts.WithLabelValues("locked").Inc()
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many failed attempts, try again later"})
	default:
		loginAttempts.WithLabelValues("failure").Inc()
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.Service.ForgotPassword(context.Background(), req.Email)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "OTP sent to email"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required"`
	Otp         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.Service.ResetPassword(context.Background(), req.Email, req.Otp, req.NewPassword)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, service.ErrInvalidOTP):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or expired OTP"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, err := h.Service.GetProfile(context.Background(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}
