package handler

import (
	"net/http"

	"bodegaclick/billing-service/internal/app/billing/entity"

	"github.com/gin-gonic/gin"
)

// Login handles POST /auth/login
func (h *BillingHandler) Login(c *gin.Context) {
	var req entity.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", nil)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		respondBadRequest(c, formatValidationError(err), nil)
		return
	}

	resp, err := h.svc.Auth.Login(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err, "Login failed")
		return
	}
	c.JSON(http.StatusOK, resp)
}
