package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/raul-padua/agentic-product-price-scrapping/models"
)

// respondError writes err as an ErrorResponse with a status derived from
// its code.
func respondError(c *gin.Context, err error) {
	var pe *models.PipelineError
	if !errors.As(err, &pe) {
		pe = models.NewPipelineError(models.ErrCodeInternal, err.Error(), err)
	}
	c.JSON(statusFor(pe), models.ErrorResponse{OK: false, Error: pe.ToDetail()})
}

// bindError reports a request that failed binding or validation.
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		OK:    false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeInvalidInput,
			Message: validationMessage(err),
		},
	})
}

func invalid(c *gin.Context, message string) {
	bindError(c, errors.New(message))
}

func statusFor(pe *models.PipelineError) int {
	switch pe.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case models.ErrCodeSearchProvider, models.ErrCodeRefineFailure, models.ErrCodeVisionFailure:
		if pe.Status >= 400 && pe.Status <= 599 {
			return pe.Status
		}
		return http.StatusBadGateway
	case models.ErrCodeBrowserUnavailable:
		return http.StatusServiceUnavailable
	case models.ErrCodeNavigationTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// validationMessage flattens validator errors into one readable line.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "url":
			parts = append(parts, fmt.Sprintf("%s must be a valid URL", fe.Field()))
		case "min", "max":
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
