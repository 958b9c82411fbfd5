// Package response writes the uniform JSON envelope every endpoint returns:
// {success, data, message, code?, errors?}.
package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "anggaran/internal/errors"
	"anggaran/internal/logger"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool         `json:"success"`
	Data    interface{}  `json:"data"`
	Message string       `json:"message"`
	Code    string       `json:"code,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// OK writes a successful envelope.
func OK(c *gin.Context, status int, data interface{}, message string) {
	c.JSON(status, Envelope{Success: true, Data: data, Message: message})
}

// Error writes a failed envelope. AppErrors keep their status, code and
// message; anything else is logged and reported as a generic internal error.
func Error(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.AbortWithStatusJSON(appErr.StatusCode, Envelope{
			Message: appErr.Message,
			Code:    appErr.Code,
		})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.AbortWithStatusJSON(apperrors.ErrInternalServer.StatusCode, Envelope{
		Message: apperrors.ErrInternalServer.Message,
		Code:    apperrors.ErrInternalServer.Code,
	})
}

// BindError writes a 400 envelope for a request that failed binding, with one
// entry per rejected field when the validator reports them.
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		Error(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Message: describe(fe)})
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, Envelope{
		Message: "Validation failed",
		Code:    apperrors.ErrInvalidInput.Code,
		Errors:  fields,
	})
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte", "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte", "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "category_kind", "transaction_kind":
		return "must be RECEIPT or EXPENDITURE"
	case "period_status":
		return "must be DRAFT, ACTIVE or CLOSED"
	case "item_code":
		return "must be a dotted code such as A.1.2"
	case "money":
		return "must have at most 2 decimal places"
	}
	return fmt.Sprintf("failed %s validation", fe.Tag())
}
