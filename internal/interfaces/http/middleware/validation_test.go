package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaopxt/ze-do-bip-backend/internal/interfaces/http/dto"
)

type scanBody struct {
	SqGuarda   int64  `json:"sq_guarda" binding:"required,gt=0"`
	Incremento int    `json:"incremento" binding:"omitempty,gte=1"`
	Endereco   string `json:"endereco" binding:"required,max=20"`
}

func newValidatedRouter() *gin.Engine {
	SetupValidator()

	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req scanBody
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(req))
	})
	return router
}

func TestHandleValidationError(t *testing.T) {
	router := newValidatedRouter()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
		wantFields map[string]string
	}{
		{
			name:       "valid body passes",
			body:       `{"sq_guarda": 12, "incremento": 2, "endereco": "A01-02"}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "missing fields use json names",
			body:       `{"incremento": 1}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeValidation,
			wantFields: map[string]string{
				"sq_guarda": "Campo obrigatório",
				"endereco":  "Campo obrigatório",
			},
		},
		{
			name:       "bounds are reported",
			body:       `{"sq_guarda": 1, "incremento": 0, "endereco": "` + strings.Repeat("X", 21) + `"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeValidation,
			wantFields: map[string]string{
				"endereco": "Deve ter no máximo 20 caracteres",
			},
		},
		{
			name:       "malformed json is a bad request",
			body:       `{"sq_guarda": `,
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			if tt.wantCode == "" {
				assert.True(t, resp.Success)
				return
			}

			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)

			got := make(map[string]string)
			for _, d := range resp.Error.Details {
				got[d.Field] = d.Message
			}
			for field, msg := range tt.wantFields {
				assert.Equal(t, msg, got[field], field)
			}
		})
	}
}

func TestFormatValidationErrors_PlainError(t *testing.T) {
	resp := FormatValidationErrors(assert.AnError)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	assert.Empty(t, resp.Error.Details)
}
