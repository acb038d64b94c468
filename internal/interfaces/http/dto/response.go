package dto

import "time"

// Response is the envelope of every API answer
type Response struct {
	Success  bool       `json:"success"`
	Data     any        `json:"data,omitempty"`
	Message  string     `json:"message,omitempty"`
	Error    *ErrorInfo `json:"error,omitempty"`
	Metadata any        `json:"metadata,omitempty"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string             `json:"code"`
	Message string             `json:"message"`
	Details []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail describes one rejected request field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// StoreMetadata identifies the store that produced a listing
type StoreMetadata struct {
	Timestamp string `json:"timestamp"`
	Loja      string `json:"loja"`
	Regiao    string `json:"regiao"`
}

// NewStoreMetadata stamps store metadata with now
func NewStoreMetadata(store, region string, now time.Time) StoreMetadata {
	return StoreMetadata{
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Loja:      store,
		Regiao:    region,
	}
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewSuccessResponseWithMetadata creates a success response carrying metadata
func NewSuccessResponseWithMetadata(data, metadata any) Response {
	return Response{Success: true, Data: data, Metadata: metadata}
}

// NewMessageResponse creates a success response with a message
func NewMessageResponse(message string, data any) Response {
	return Response{Success: true, Message: message, Data: data}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error:   &ErrorInfo{Code: code, Message: message},
	}
}

// NewValidationErrorResponse creates a 400 body listing rejected fields
func NewValidationErrorResponse(message string, details []ValidationDetail) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    ErrCodeValidation,
			Message: message,
			Details: details,
		},
	}
}
