package service

import (
	"errors"

	"bodegaclick/billing-service/internal/app/billing/infrastructure/loyverse"
	"bodegaclick/billing-service/internal/app/billing/pricing"
)

// Errors surfaced to handlers and the CLI.
var (
	ErrNoRateAvailable   = pricing.ErrNoRateAvailable
	ErrInvalidUnits      = pricing.ErrInvalidUnits
	ErrRemoteUnavailable = loyverse.ErrRemoteUnavailable
	ErrInvalidRemoteData = loyverse.ErrInvalidRemoteData

	ErrProductNotFound        = errors.New("product not found")
	ErrInvoiceNotFound        = errors.New("invoice not found")
	ErrExchangeRateNotFound   = errors.New("exchange rate not found")
	ErrWebhookNotFound        = errors.New("webhook not found")
	ErrDuplicateInvoiceNumber = errors.New("invoice number already exists")
	ErrSignatureInvalid       = errors.New("webhook signature invalid")
	ErrInvalidInvoice         = errors.New("invalid invoice")
	ErrInvalidRate            = errors.New("invalid exchange rate")
	ErrInvalidWebhookURL      = errors.New("webhook url must be an absolute https url")
	ErrInvalidWebhookType     = errors.New("unsupported webhook event type")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrSyncInProgress         = errors.New("catalog sync already running")
	ErrInvalidPayload         = errors.New("invalid webhook payload")
)
