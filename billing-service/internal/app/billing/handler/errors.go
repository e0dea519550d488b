package handler

import (
	"errors"
	"net/http"

	"bodegaclick/billing-service/internal/app/billing/entity"
	"bodegaclick/billing-service/internal/app/billing/service"
	"bodegaclick/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrInvoiceNotFound),
		errors.Is(err, service.ErrExchangeRateNotFound),
		errors.Is(err, service.ErrWebhookNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateInvoiceNumber),
		errors.Is(err, service.ErrSyncInProgress):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidInvoice),
		errors.Is(err, service.ErrInvalidRate),
		errors.Is(err, service.ErrInvalidWebhookURL),
		errors.Is(err, service.ErrInvalidWebhookType),
		errors.Is(err, service.ErrInvalidUnits),
		errors.Is(err, service.ErrInvalidPayload):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoRateAvailable):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrSignatureInvalid),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrRemoteUnavailable):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondServiceError writes the error body. Internal errors are logged and
// answered with the fallback message only.
func respondServiceError(c *gin.Context, err error, fallback string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		c.JSON(status, entity.ErrorResponse{Error: http.StatusText(status), Message: fallback})
		return
	}
	c.JSON(status, entity.ErrorResponse{Error: http.StatusText(status), Message: err.Error()})
}

func respondBadRequest(c *gin.Context, message string, details interface{}) {
	c.JSON(http.StatusBadRequest, entity.ErrorResponse{
		Error:   http.StatusText(http.StatusBadRequest),
		Message: message,
		Details: details,
	})
}

func formatValidationError(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			return fieldError.Field() + " is " + fieldError.Tag()
		}
	}
	return "Validation failed"
}
