package dto

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joaopxt/ze-do-bip-backend/internal/domain/guarda"
	"github.com/joaopxt/ze-do-bip-backend/internal/domain/shared"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{guarda.ErrReceiptNotFound.Code, http.StatusNotFound},
		{guarda.ErrLineItemNotFound.Code, http.StatusNotFound},
		{guarda.ErrLineItemMismatch.Code, http.StatusNotFound},
		{guarda.ErrStockerNotFound.Code, http.StatusNotFound},
		{guarda.ErrAlreadyCompleted.Code, http.StatusBadRequest},
		{guarda.ErrInvalidQuantity.Code, http.StatusBadRequest},
		{guarda.ErrInvalidAddress.Code, http.StatusBadRequest},
		{guarda.ErrSyncInProgress.Code, http.StatusConflict},
		{shared.ErrConflict.Code, http.StatusConflict},
		{guarda.ErrPersistence.Code, http.StatusInternalServerError},
		{guarda.ErrUpstreamTimeout.Code, http.StatusGatewayTimeout},
		{ErrCodeValidation, http.StatusBadRequest},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestErrorFor(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:    "domain error keeps its message",
			err:     guarda.ErrInvalidQuantity,
			status:  http.StatusBadRequest,
			code:    "INVALID_QUANTITY",
			message: "Verifique a quantidade bipada",
		},
		{
			name:    "wrapped domain error",
			err:     fmt.Errorf("scan: %w", guarda.ErrAlreadyCompleted),
			status:  http.StatusBadRequest,
			code:    "ALREADY_COMPLETED",
			message: "Produto ja bipado",
		},
		{
			name:    "persistence cause is hidden",
			err:     guarda.ErrPersistence.Wrap(errors.New("pq: deadlock detected")),
			status:  http.StatusInternalServerError,
			code:    "PERSISTENCE_ERROR",
			message: "Erro ao gravar dados da guarda",
		},
		{
			name:    "upstream timeout",
			err:     guarda.ErrUpstreamTimeout,
			status:  http.StatusGatewayTimeout,
			code:    "UPSTREAM_TIMEOUT",
			message: "Timeout na conexão com SIAC",
		},
		{
			name:    "upstream error keeps upstream status",
			err:     &guarda.UpstreamError{Status: 404, Message: "Guarda inexistente"},
			status:  http.StatusNotFound,
			code:    ErrCodeUpstream,
			message: "Guarda inexistente",
		},
		{
			name:    "malformed upstream payload is a bad gateway",
			err:     &guarda.UpstreamError{Status: 200, Message: "invalid payload"},
			status:  http.StatusBadGateway,
			code:    ErrCodeUpstream,
			message: "invalid payload",
		},
		{
			name:    "upstream error without message",
			err:     &guarda.UpstreamError{Status: 500},
			status:  http.StatusInternalServerError,
			code:    ErrCodeUpstream,
			message: guarda.DefaultUpstreamMessage,
		},
		{
			name:    "transport error",
			err:     &guarda.TransportError{Op: "GUARDA_LISTA", Err: errors.New("connection refused")},
			status:  http.StatusBadGateway,
			code:    ErrCodeTransport,
			message: guarda.DefaultUpstreamMessage,
		},
		{
			name:    "request deadline",
			err:     fmt.Errorf("load: %w", context.DeadlineExceeded),
			status:  http.StatusGatewayTimeout,
			code:    ErrCodeRequestTimeout,
			message: MessageTimeout,
		},
		{
			name:    "anything else",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			code:    ErrCodeInternal,
			message: MessageInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, info := ErrorFor(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, info.Code)
			assert.Equal(t, tt.message, info.Message)
		})
	}
}

// ----------------------------------------------------------------------------
// Envelope
// ----------------------------------------------------------------------------

func TestErrorResponse_JSON(t *testing.T) {
	body, err := json.Marshal(NewErrorResponse("RECEIPT_NOT_FOUND", "Guarda nao encontrada"))
	require.NoError(t, err)

	assert.JSONEq(t, `{"success":false,"error":{"code":"RECEIPT_NOT_FOUND","message":"Guarda nao encontrada"}}`, string(body))
}

func TestSuccessResponseWithMetadata_JSON(t *testing.T) {
	meta := NewStoreMetadata("01", "DF", time.Date(2025, 6, 2, 10, 0, 0, 0, time.FixedZone("BRT", -3*3600)))
	body, err := json.Marshal(NewSuccessResponseWithMetadata(map[string]any{"data": []int{}, "total": 0}, meta))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"success": true,
		"data": {"data": [], "total": 0},
		"metadata": {"timestamp": "2025-06-02T13:00:00Z", "loja": "01", "regiao": "DF"}
	}`, string(body))
}
