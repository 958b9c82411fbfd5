package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "anggaran/internal/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func run(t *testing.T, fn func(c *gin.Context)) (int, Envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	fn(c)

	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestOK(t *testing.T) {
	status, env := run(t, func(c *gin.Context) {
		OK(c, http.StatusCreated, map[string]string{"id": "1"}, "created")
	})
	assert.Equal(t, http.StatusCreated, status)
	assert.True(t, env.Success)
	assert.Equal(t, "created", env.Message)
	assert.Equal(t, map[string]interface{}{"id": "1"}, env.Data)
}

func TestError(t *testing.T) {
	t.Run("app error keeps status and code", func(t *testing.T) {
		status, env := run(t, func(c *gin.Context) {
			Error(c, apperrors.ErrPeriodClosed)
		})
		assert.Equal(t, http.StatusConflict, status)
		assert.False(t, env.Success)
		assert.Equal(t, "PERIOD_CLOSED", env.Code)
		assert.Nil(t, env.Data)
	})

	t.Run("unknown error hides details", func(t *testing.T) {
		status, env := run(t, func(c *gin.Context) {
			Error(c, errors.New("connection reset"))
		})
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "INTERNAL_ERROR", env.Code)
		assert.NotContains(t, env.Message, "connection reset")
	})
}

func TestBindError(t *testing.T) {
	type payload struct {
		Name string `validate:"required"`
	}
	verr := validator.New().Struct(payload{})

	status, env := run(t, func(c *gin.Context) {
		BindError(c, verr)
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_INPUT", env.Code)
	require.Len(t, env.Errors, 1)
	assert.Equal(t, "Name", env.Errors[0].Field)
	assert.Equal(t, "is required", env.Errors[0].Message)
}
