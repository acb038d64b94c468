package dto

import (
	"context"
	"errors"
	"net/http"

	"github.com/joaopxt/ze-do-bip-backend/internal/domain/guarda"
	"github.com/joaopxt/ze-do-bip-backend/internal/domain/shared"
)

// Error codes produced by the HTTP layer itself. Domain errors keep their
// own codes.
const (
	ErrCodeInternal       = "INTERNAL_ERROR"
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeBadRequest     = "BAD_REQUEST"
	ErrCodeUpstream       = "UPSTREAM_ERROR"
	ErrCodeTransport      = "TRANSPORT_ERROR"
	ErrCodeRequestTimeout = "REQUEST_TIMEOUT"
)

// Operator-facing messages for errors that carry none
const (
	MessageInternal = "Erro interno do servidor"
	MessageTimeout  = "Tempo limite da requisição excedido"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:       http.StatusInternalServerError,
	ErrCodeValidation:     http.StatusBadRequest,
	ErrCodeBadRequest:     http.StatusBadRequest,
	ErrCodeUpstream:       http.StatusBadGateway,
	ErrCodeTransport:      http.StatusBadGateway,
	ErrCodeRequestTimeout: http.StatusGatewayTimeout,

	// shared
	shared.ErrNotFound.Code:     http.StatusNotFound,
	shared.ErrInvalidInput.Code: http.StatusBadRequest,
	shared.ErrConflict.Code:     http.StatusConflict,

	// lookups
	guarda.ErrReceiptNotFound.Code:  http.StatusNotFound,
	guarda.ErrLineItemNotFound.Code: http.StatusNotFound,
	guarda.ErrLineItemMismatch.Code: http.StatusNotFound,
	guarda.ErrAddressNotFound.Code:  http.StatusNotFound,
	guarda.ErrStockerNotFound.Code:  http.StatusNotFound,

	// scan validation
	guarda.ErrAlreadyCompleted.Code: http.StatusBadRequest,
	guarda.ErrInvalidQuantity.Code:  http.StatusBadRequest,
	guarda.ErrInvalidAddress.Code:   http.StatusBadRequest,

	guarda.ErrSyncInProgress.Code:  http.StatusConflict,
	guarda.ErrPersistence.Code:     http.StatusInternalServerError,
	guarda.ErrUpstreamTimeout.Code: http.StatusGatewayTimeout,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// ErrorFor classifies err into an HTTP status and the error body shown to
// the operator. Internal details never reach the body.
func ErrorFor(err error) (int, ErrorInfo) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return GetHTTPStatus(domainErr.Code), ErrorInfo{Code: domainErr.Code, Message: domainErr.Message}
	}

	var upstream *guarda.UpstreamError
	if errors.As(err, &upstream) {
		status := upstream.Status
		if status < http.StatusBadRequest || status > 599 {
			status = http.StatusBadGateway
		}
		message := upstream.Message
		if message == "" {
			message = guarda.DefaultUpstreamMessage
		}
		return status, ErrorInfo{Code: ErrCodeUpstream, Message: message}
	}

	var transport *guarda.TransportError
	if errors.As(err, &transport) {
		return http.StatusBadGateway, ErrorInfo{Code: ErrCodeTransport, Message: guarda.DefaultUpstreamMessage}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, ErrorInfo{Code: ErrCodeRequestTimeout, Message: MessageTimeout}
	}

	return http.StatusInternalServerError, ErrorInfo{Code: ErrCodeInternal, Message: MessageInternal}
}
