package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joaopxt/ze-do-bip-backend/internal/interfaces/http/dto"
)

// ErrCodeRequestTooLarge marks a body over the engine's byte cap
const ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"

// BodyLimit caps scanner payloads at maxBytes. A declared length over the
// cap is refused up front; chunked bodies are cut while reading and the
// binding error is rendered by HandleValidationError.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	tooLarge := tooLargeResponse(maxBytes)
	return func(c *gin.Context) {
		if c.Request.Body == nil || c.Request.Body == http.NoBody {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, tooLarge)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func tooLargeResponse(limit int64) dto.Response {
	return dto.NewErrorResponse(ErrCodeRequestTooLarge,
		fmt.Sprintf("Corpo da requisição excede o tamanho máximo de %d bytes", limit))
}

// bodyTooLarge reports whether err came from a body cut by BodyLimit
func bodyTooLarge(err error) (int64, bool) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return maxErr.Limit, true
	}
	return 0, false
}
