package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/mentorlink/internal/middleware"
	"github.com/joshua-takyi/mentorlink/internal/models"
	"github.com/joshua-takyi/mentorlink/internal/services"
)

func Register(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}

		user, err := u.Register(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, models.RegisterResponse{
			Message: "User registered successfully",
			User:    user,
		})
	}
}

// Login returns the bearer token in the body; the client keeps it.
func Login(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}

		session, mentor, err := u.Login(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.LoginResponse{
			Message:     "Login successful",
			AccessToken: session.AccessToken,
			User:        mentor,
		})
	}
}

func VerifySession(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		mentor, err := u.VerifySession(c.Request.Context(), c.GetString(middleware.AccessTokenKey))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SessionResponse{Valid: true, User: mentor})
	}
}

func Logout(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := u.Logout(c.Request.Context(), c.GetString(middleware.AccessTokenKey)); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.MessageResponse{Message: "Logged out successfully"})
	}
}
