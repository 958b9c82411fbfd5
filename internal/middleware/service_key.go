package middleware

import (
	"crypto/subtle"

	apperrors "anggaran/internal/errors"

	"github.com/gin-gonic/gin"
)

const apiKeyHeader = "X-API-Key"

// ServiceActor is the actor recorded for requests authenticated by API key.
const ServiceActor = "service"

// checkServiceKey validates the X-API-Key header against the configured key.
// An unset key disables API-key access entirely.
func checkServiceKey(c *gin.Context, apiKey string) error {
	if apiKey == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidAPIKey, "API key access is not configured")
	}
	key := c.GetHeader(apiKeyHeader)
	if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
		return apperrors.ErrInvalidAPIKey
	}
	return nil
}
