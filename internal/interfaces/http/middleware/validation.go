package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/joaopxt/ze-do-bip-backend/internal/interfaces/http/dto"
)

var setupOnce sync.Once

// SetupValidator makes gin's validator report json field names
func SetupValidator() {
	setupOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				if name == "" {
					name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
				}
				return name
			})
		}
	})
}

// FormatValidationErrors turns a binding error into the 400 envelope
func FormatValidationErrors(err error) dto.Response {
	var details []dto.ValidationDetail

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			details = append(details, dto.ValidationDetail{
				Field:   e.Field(),
				Message: validationMessage(e),
			})
		}
		return dto.NewValidationErrorResponse("Dados da requisição inválidos", details)
	}

	return dto.NewErrorResponse(dto.ErrCodeBadRequest, "Corpo da requisição inválido")
}

// HandleValidationError aborts with a 400 built from err, or a 413 when
// BodyLimit cut the body short
func HandleValidationError(c *gin.Context, err error) {
	if limit, ok := bodyTooLarge(err); ok {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, tooLargeResponse(limit))
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, FormatValidationErrors(err))
}

func validationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "Campo obrigatório"
	case "min":
		if e.Kind() == reflect.String {
			return "Deve ter pelo menos " + e.Param() + " caracteres"
		}
		return "Deve ser no mínimo " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Deve ter no máximo " + e.Param() + " caracteres"
		}
		return "Deve ser no máximo " + e.Param()
	case "gte":
		return "Deve ser maior ou igual a " + e.Param()
	case "gt":
		return "Deve ser maior que " + e.Param()
	case "numeric":
		return "Deve ser numérico"
	case "dive":
		return "Item inválido"
	default:
		return "Valor inválido"
	}
}
