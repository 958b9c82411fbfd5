package handlers

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "anggaran/internal/errors"
	"anggaran/internal/middleware"
	"anggaran/internal/response"
)

const dateLayout = "2006-01-02"

// ErrorResponse documents a failed response envelope.
type ErrorResponse struct {
	Success bool                  `json:"success" example:"false"`
	Data    interface{}           `json:"data"`
	Message string                `json:"message" example:"Item not found"`
	Code    string                `json:"code" example:"ITEM_NOT_FOUND"`
	Errors  []response.FieldError `json:"errors,omitempty"`
}

// MessageResponse documents a successful response that carries no data.
type MessageResponse struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data"`
	Message string      `json:"message" example:"Item deleted"`
}

// getActor extracts the authenticated caller from the Gin context.
// Returns ErrUnauthorized if not present.
func getActor(c *gin.Context) (string, error) {
	actor := c.GetString(middleware.ActorKey)
	if actor == "" {
		return "", apperrors.ErrUnauthorized
	}
	return actor, nil
}

func respond(c *gin.Context, status int, data interface{}, message string) {
	response.OK(c, status, data, message)
}

func respondWithError(c *gin.Context, err error) {
	response.Error(c, err)
}

// respondWithBindError reports a request body or query that failed binding.
func respondWithBindError(c *gin.Context, err error) {
	response.BindError(c, err)
}

// optionalQuery returns a trimmed query parameter, or nil when it is absent or blank.
func optionalQuery(c *gin.Context, name string) *string {
	v := strings.TrimSpace(c.Query(name))
	if v == "" {
		return nil
	}
	return &v
}

// parseBoolQuery parses an optional "true"/"false" query parameter.
func parseBoolQuery(c *gin.Context, name string) (*bool, error) {
	switch c.Query(name) {
	case "":
		return nil, nil
	case "true":
		b := true
		return &b, nil
	case "false":
		b := false
		return &b, nil
	}
	return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, name+" must be 'true' or 'false'")
}

// parseDate accepts a calendar date (2006-01-02) or a full RFC 3339 timestamp.
func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput,
		field+" must be a date in YYYY-MM-DD format")
}
