package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/mentorlink/internal/models"
	"github.com/joshua-takyi/mentorlink/internal/services"
)

func GetProfile(p *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}

		profile, err := p.Get(c.Request.Context(), user)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ProfileResponse{Profile: profile})
	}
}

func SaveProfile(p *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}

		var body models.Profile
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c)
			return
		}

		profile, err := p.Save(c.Request.Context(), user, &body)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ProfileResponse{
			Message: "Profile saved successfully",
			Profile: profile,
		})
	}
}

func SaveAvailability(p *services.ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}

		var req models.AvailabilityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}

		avail, err := p.SaveAvailability(c.Request.Context(), user, &req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.AvailabilityResponse{
			Message:      "Availability saved successfully",
			Availability: avail,
		})
	}
}
