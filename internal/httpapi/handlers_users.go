package httpapi

import (
	"github.com/gin-gonic/gin"

	"github.com/open-builders/contestlet/internal/apperrors"
)

func (h *handlers) getMe(c *gin.Context) {
	actor := actorFrom(c)
	u, err := h.d.Store.GetUserByID(c.Request.Context(), actor.UserID)
	if err != nil {
		h.fail(c, apperrors.NotFound("user not found"))
		return
	}
	c.JSON(200, userDTO(u))
}

type updateMeRequest struct {
	FullName           *string `json:"full_name"`
	Email              *string `json:"email"`
	Bio                *string `json:"bio"`
	Timezone           *string `json:"timezone"`
	TimezoneAutoDetect *bool   `json:"timezone_auto_detect"`
}

func (h *handlers) updateMe(c *gin.Context) {
	actor := actorFrom(c)
	u, err := h.d.Store.GetUserByID(c.Request.Context(), actor.UserID)
	if err != nil {
		h.fail(c, apperrors.NotFound("user not found"))
		return
	}

	var req updateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperrors.ValidationFailed(map[string]string{"body": "invalid JSON"}))
		return
	}
	profile := u.Profile
	if req.FullName != nil {
		profile.FullName = *req.FullName
	}
	if req.Email != nil {
		profile.Email = *req.Email
	}
	if req.Bio != nil {
		profile.Bio = *req.Bio
	}
	if req.Timezone != nil {
		profile.Timezone = *req.Timezone
	}
	if req.TimezoneAutoDetect != nil {
		profile.TimezoneAutoDetect = *req.TimezoneAutoDetect
	}

	if err := h.d.Store.UpdateUserProfile(c.Request.Context(), actor.UserID, profile); err != nil {
		h.fail(c, apperrors.DependencyUnavailable("failed to update profile", err))
		return
	}
	u.Profile = profile
	c.JSON(200, userDTO(u))
}

func (h *handlers) supportedTimezones(c *gin.Context) {
	c.JSON(200, gin.H{"timezones": h.d.SupportedTimezones})
}
