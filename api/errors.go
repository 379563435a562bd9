package api

import (
	"errors"
	"net/http"
	"strconv"

	"food-storefront/services"

	"github.com/gin-gonic/gin"
)

// respondError maps service errors to status codes. Validation messages are
// shown as is; anything unexpected is logged and hidden behind fallback.
func (s *Server) respondError(c *gin.Context, err error, fallback string) {
	var verr *services.ValidationError
	var throttled *services.LoginThrottledError
	switch {
	case errors.As(err, &throttled):
		c.Header("Retry-After", strconv.Itoa(throttled.WaitSeconds))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many failed attempts. Try again later.", "retryAfter": throttled.WaitSeconds})
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	case errors.Is(err, services.ErrOrderNotFound), errors.Is(err, services.ErrAssetNotFound),
		errors.Is(err, services.ErrProductNotFound), errors.Is(err, services.ErrCartItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidTransition), errors.Is(err, services.ErrStaleStatus):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	default:
		s.log.Error().Err(err).Str("path", c.Request.URL.Path).Str("request_id", c.GetString("request_id")).Msg(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
