package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/open-builders/contestlet/internal/apperrors"
)

type requestOtpRequest struct {
	Phone string `json:"phone" binding:"required"`
}

func (h *handlers) requestOtp(c *gin.Context) {
	var req requestOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperrors.ValidationFailed(map[string]string{"phone": "is required"}))
		return
	}
	retryAfter, err := h.d.Otp.RequestOtp(c.Request.Context(), req.Phone)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, gin.H{"retry_after_seconds": int(retryAfter.Seconds())})
}

type verifyOtpRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

func (h *handlers) verifyOtp(c *gin.Context) {
	var req verifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperrors.ValidationFailed(map[string]string{"code": "is required"}))
		return
	}
	u, access, refresh, err := h.d.Otp.VerifyOtp(c.Request.Context(), req.Phone, req.Code)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(200, gin.H{
		"user":          userDTO(u),
		"access_token":  access,
		"refresh_token": refresh,
	})
}
