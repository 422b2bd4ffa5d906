package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/retailcore/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type contactBody struct {
	Name  string `json:"name" binding:"required,max=10"`
	Phone string `json:"phone" binding:"required,phone"`
	Email string `json:"email" binding:"omitempty,email"`
}

func validationRouter() *gin.Engine {
	SetupValidator()

	router := gin.New()
	router.Use(RequestID())
	router.POST("/contacts", func(c *gin.Context) {
		var req contactBody
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"name": req.Name})
	})
	return router
}

func postContact(router *gin.Engine, body string) (*httptest.ResponseRecorder, dto.Response) {
	req := httptest.NewRequest(http.MethodPost, "/contacts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(RequestIDHeader, "req-v")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestSetupValidator_Idempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		SetupValidator()
		SetupValidator()
	})
}

func TestValidation_FieldErrorsUseJSONNames(t *testing.T) {
	w, resp := postContact(validationRouter(), `{"name":"a very long name","phone":"abc","email":"nope"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "req-v", resp.Error.RequestID)

	messages := map[string]string{}
	for _, f := range resp.Error.Fields {
		messages[f.Field] = f.Message
	}
	assert.Equal(t, "Must be at most 10 characters", messages["name"])
	assert.Equal(t, "Invalid phone number", messages["phone"])
	assert.Equal(t, "Invalid email format", messages["email"])
}

func TestValidation_PhoneAcceptsFormattedNumbers(t *testing.T) {
	w, _ := postContact(validationRouter(), `{"name":"Ana","phone":"+55 (11) 98765-4321"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestValidation_MissingRequired(t *testing.T) {
	w, resp := postContact(validationRouter(), `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, resp.Error)
	assert.Len(t, resp.Error.Fields, 2)
	assert.Equal(t, "This field is required", resp.Error.Fields[0].Message)
}

func TestFormatValidationErrors_PlainError(t *testing.T) {
	resp := FormatValidationErrors(errors.New("unexpected EOF"), "r1")

	require.NotNil(t, resp.Error)
	require.Len(t, resp.Error.Fields, 1)
	assert.Equal(t, "unexpected EOF", resp.Error.Fields[0].Message)
	assert.Equal(t, "r1", resp.Error.RequestID)
}
