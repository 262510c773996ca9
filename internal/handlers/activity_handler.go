package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/mentorlink/internal/models"
	"github.com/joshua-takyi/mentorlink/internal/services"
)

func ListActivities(a *services.ActivityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := a.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ActivitiesResponse{Activities: list})
	}
}

func GetActivity(a *services.ActivityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		activity, err := a.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ActivityResponse{Activity: activity})
	}
}

func CreateActivity(a *services.ActivityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}

		var req models.CreateActivityRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}

		activity, err := a.Create(c.Request.Context(), user, &req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.ActivityResponse{
			Message:  "Activity created successfully",
			Activity: activity,
		})
	}
}

func JoinActivity(a *services.ActivityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}

		activity, err := a.Join(c.Request.Context(), user, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ActivityResponse{
			Message:  "Successfully joined the activity",
			Activity: activity,
		})
	}
}

func MyActivities(a *services.ActivityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := requireUser(c)
		if !ok {
			return
		}

		mine, err := a.MyActivities(c.Request.Context(), user)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, mine)
	}
}
