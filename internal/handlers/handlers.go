package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	apperrors "tourism/internal/errors"
	"tourism/internal/logger"
	"tourism/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

type Handlers struct {
	services *service.Services
}

var bindingOnce sync.Once

func NewHandlers(services *service.Services) *Handlers {
	bindingOnce.Do(func() {
		// Report json field names in binding errors
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(fld reflect.StructField) string {
				name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
				if name == "-" {
					return ""
				}
				return name
			})
		}
	})

	return &Handlers{services: services}
}

// handleServiceError переводит ошибки сервисов в HTTP ответы
func handleServiceError(c *gin.Context, err error, op string) {
	if verr, ok := apperrors.AsValidation(err); ok {
		validationFailed(c, verr.Fields)
		return
	}

	if apperrors.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if conflict, ok := apperrors.AsConflict(err); ok {
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error(), "code": conflict.Reason})
		return
	}

	logger.WithContext(c.Request.Context()).Error("Failed to "+op, "error", err)
	c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed, retry"})
}

func validationFailed(c *gin.Context, fields []apperrors.FieldError) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "validation failed",
		"code":    "validation_error",
		"details": fields,
	})
}

// bindingFailed отвечает 400 на ошибки разбора тела запроса
func bindingFailed(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]apperrors.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, apperrors.FieldError{
				Field:   fe.Field(),
				Message: bindingMessage(fe),
			})
		}
		validationFailed(c, fields)
		return
	}

	validationFailed(c, []apperrors.FieldError{{Field: "request", Message: err.Error()}})
}

func bindingMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fe.Field() + " must be at most " + fe.Param() + " characters"
	case "gte":
		return fe.Field() + " must be greater than or equal to " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		validationFailed(c, []apperrors.FieldError{{Field: name, Message: name + " must be a positive integer"}})
		return 0, false
	}
	return id, true
}

func parseIDQuery(c *gin.Context, name string) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		validationFailed(c, []apperrors.FieldError{{Field: name, Message: name + " must be a positive integer"}})
		return 0, false
	}
	return id, true
}
