package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/mentorlink/internal/kv"
	"github.com/joshua-takyi/mentorlink/internal/middleware"
	"github.com/joshua-takyi/mentorlink/internal/models"
)

// respondError maps domain errors to a status code. Anything unknown is
// handed to the ErrorHandler middleware, which answers 500.
func respondError(c *gin.Context, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, models.ErrorResponse(verr.Message))
	case errors.Is(err, models.ErrAlreadyJoined), errors.Is(err, models.ErrActivityFull), errors.Is(err, models.ErrLogoutFailed):
		c.JSON(http.StatusBadRequest, models.ErrorResponse(rootMessage(err)))
	case errors.Is(err, models.ErrUnauthorized), errors.Is(err, models.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, models.ErrorResponse(rootMessage(err)))
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrMentorNotFound), errors.Is(err, models.ErrMemberNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse(rootMessage(err)))
	case errors.Is(err, kv.ErrContended):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse("too many concurrent updates, please retry"))
	default:
		_ = c.Error(err)
	}
}

// rootMessage returns the sentinel's text so wrapping context stays in the logs.
func rootMessage(err error) string {
	for _, sentinel := range []error{
		models.ErrAlreadyJoined,
		models.ErrActivityFull,
		models.ErrLogoutFailed,
		models.ErrUnauthorized,
		models.ErrInvalidCredentials,
		models.ErrNotFound,
		models.ErrMentorNotFound,
		models.ErrMemberNotFound,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid request payload"))
}

func requireUser(c *gin.Context) (*models.Identity, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse(models.ErrUnauthorized.Error()))
	}
	return user, ok
}
