package adapthttp

import (
	"errors"
	"net/http"

	"messenger/internal/domain"

	"github.com/gin-gonic/gin"
)

// retryAfterSeconds is advertised when the store is unavailable.
const retryAfterSeconds = "1"

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidMessage):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrContactNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError responds with {"error": ...}. Unclassified errors are hidden
// behind a generic message.
func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusInternalServerError:
		msg = "internal error"
	case http.StatusServiceUnavailable:
		c.Header("Retry-After", retryAfterSeconds)
		msg = domain.ErrStoreUnavailable.Error()
	case http.StatusUnauthorized:
		if errors.Is(err, domain.ErrInvalidCredentials) {
			msg = domain.ErrInvalidCredentials.Error()
		} else {
			msg = domain.ErrNotAuthenticated.Error()
		}
	}
	c.JSON(status, gin.H{"error": msg})
}

func abortWithError(c *gin.Context, err error) {
	writeError(c, err)
	c.Abort()
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
