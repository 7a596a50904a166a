package api

import (
	"net/http"

	"gym360/backend/internal/service"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// ProfileHandler serves the caller's own account.
type ProfileHandler struct {
	profileService service.ProfileService
	logger         *log.Logger
}

func NewProfileHandler(profileService service.ProfileService, logger *log.Logger) *ProfileHandler {
	return &ProfileHandler{profileService: profileService, logger: logger}
}

// --- DTOs ---

type UpdateProfileRequest struct {
	Name string `json:"name" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

type AvatarUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"` // image/png, image/jpeg, image/webp or image/gif
}

type ConfirmAvatarRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

// Me godoc
// @Summary Get my profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} UserResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 404 {object} gin.H "User not found"
// @Router /users/me [get]
func (h *ProfileHandler) Me(c *gin.Context) {
	userID, ok := callerID(c) // Set by AuthMiddleware
	if !ok {
		return
	}
	profile, err := h.profileService.Me(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MapProfileToResponse(profile))
}

// UpdateMe godoc
// @Summary Update my display name
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body UpdateProfileRequest true "New name"
// @Success 200 {object} UserResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Router /users/me [put]
func (h *ProfileHandler) UpdateMe(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	profile, err := h.profileService.UpdateName(c.Request.Context(), userID, req.Name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MapProfileToResponse(profile))
}

// ChangePassword godoc
// @Summary Change my password
// @Tags Profile
// @Accept json
// @Security BearerAuth
// @Param passwords body ChangePasswordRequest true "Current and new password"
// @Success 204 "Password changed"
// @Failure 400 {object} gin.H "Wrong current password or weak new password"
// @Router /users/me/password [put]
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if err := h.profileService.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent) // Nothing to return
}

// RequestAvatarUpload returns a presigned PUT URL. The client uploads the
// image directly and then calls ConfirmAvatar with the object key.
// @Summary Get a presigned avatar upload URL
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param upload body AvatarUploadRequest true "Image content type"
// @Success 200 {object} service.UploadURLResponse
// @Failure 400 {object} gin.H "Unsupported content type"
// @Router /users/me/avatar/upload-url [post]
func (h *ProfileHandler) RequestAvatarUpload(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req AvatarUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	resp, err := h.profileService.RequestAvatarUpload(c.Request.Context(), userID, req.ContentType)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmAvatar godoc
// @Summary Attach an uploaded avatar to my profile
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param avatar body ConfirmAvatarRequest true "Object key returned by the upload-url call"
// @Success 200 {object} UserResponse
// @Failure 400 {object} gin.H "Key outside the caller's avatar prefix"
// @Router /users/me/avatar [put]
func (h *ProfileHandler) ConfirmAvatar(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}
	var req ConfirmAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	profile, err := h.profileService.ConfirmAvatar(c.Request.Context(), userID, req.ObjectKey)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, MapProfileToResponse(profile))
}
