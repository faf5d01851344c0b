package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hosteldesk/hosteldesk-api/internal/models"
	"github.com/hosteldesk/hosteldesk-api/internal/service"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
	"github.com/hosteldesk/hosteldesk-api/pkg/response"
)

// ApprovalHandler exposes the staff review queues.
type ApprovalHandler struct {
	approvals *service.ApprovalService
}

// NewApprovalHandler constructs ApprovalHandler.
func NewApprovalHandler(approvals *service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvals: approvals}
}

// Queue godoc
// @Summary Pending approvals
// @Description Unapproved accounts and staged profile updates awaiting review
// @Tags Approvals
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /approvals [get]
func (h *ApprovalHandler) Queue(c *gin.Context) {
	queue, err := h.approvals.Queue(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, queue, nil)
}

// ResolveAccount godoc
// @Summary Approve or reject a pending account
// @Description Rejected student accounts are soft-deleted; rejected staff accounts are removed
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Account ID"
// @Param payload body map[string]interface{} true "Role and decision"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /approvals/accounts/{id} [post]
func (h *ApprovalHandler) ResolveAccount(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		Role    models.Role `json:"role" binding:"required"`
		Approve *bool       `json:"approve" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approval payload"))
		return
	}

	if err := h.approvals.ResolveAccount(c.Request.Context(), claims.AccountID, payload.Role, c.Param("id"), *payload.Approve); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ResolveProfileUpdate godoc
// @Summary Approve or reject a staged profile update
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body map[string]bool true "Decision"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /approvals/profile-updates/{id} [post]
func (h *ApprovalHandler) ResolveProfileUpdate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		Approve *bool `json:"approve" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid approval payload"))
		return
	}

	if err := h.approvals.ResolveProfileUpdate(c.Request.Context(), claims.AccountID, c.Param("id"), *payload.Approve); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
