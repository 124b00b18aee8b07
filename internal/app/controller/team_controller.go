package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/ugcfy-backend/internal/app/service"
	apperrors "github.com/ikkim/ugcfy-backend/internal/errors"
)

type TeamController struct {
	teamService service.TeamService
}

func NewTeamController(teamService service.TeamService) *TeamController {
	return &TeamController{teamService: teamService}
}

type InviteMemberRequest struct {
	Email         string   `json:"email" binding:"required"`
	Name          string   `json:"name"`
	Permissions   []string `json:"permissions"`
	Preset        string   `json:"preset"`
	ShopifyUserID string   `json:"shopify_user_id"`
}

type UpdatePermissionsRequest struct {
	Permissions []string `json:"permissions"`
	Preset      string   `json:"preset"`
}

// GetTeam GET /api/team
func (ctrl *TeamController) GetTeam(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	overview, err := ctrl.teamService.Overview(shop)
	if err != nil {
		respondServiceError(c, err, "load team")
		return
	}

	c.JSON(http.StatusOK, overview)
}

// InviteMember POST /api/team
func (ctrl *TeamController) InviteMember(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}

	var req InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "email is required")
		return
	}

	member, err := ctrl.teamService.Invite(shop, service.InviteInput{
		Email:         req.Email,
		Name:          req.Name,
		Permissions:   req.Permissions,
		Preset:        req.Preset,
		ShopifyUserID: req.ShopifyUserID,
	})
	if err != nil {
		respondServiceError(c, err, "invite team member")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"member": member})
}

// UpdatePermissions PUT /api/team/:id/permissions
func (ctrl *TeamController) UpdatePermissions(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdatePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	member, err := ctrl.teamService.UpdatePermissions(shop, id, req.Permissions, req.Preset)
	if err != nil {
		respondServiceError(c, err, "update permissions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"member": member})
}

// ToggleActive PUT /api/team/:id/active
func (ctrl *TeamController) ToggleActive(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	member, err := ctrl.teamService.ToggleActive(shop, id)
	if err != nil {
		respondServiceError(c, err, "toggle team member")
		return
	}

	c.JSON(http.StatusOK, gin.H{"member": member})
}

// RemoveMember DELETE /api/team/:id
func (ctrl *TeamController) RemoveMember(c *gin.Context) {
	shop, ok := requireShop(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.teamService.Remove(shop, id); err != nil {
		respondServiceError(c, err, "remove team member")
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
