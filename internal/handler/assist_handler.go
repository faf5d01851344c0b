package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hosteldesk/hosteldesk-api/internal/dto"
	"github.com/hosteldesk/hosteldesk-api/internal/service"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
	"github.com/hosteldesk/hosteldesk-api/pkg/response"
)

// AssistHandler exposes the drafting helper.
type AssistHandler struct {
	assist *service.AssistService
}

// NewAssistHandler constructs AssistHandler.
func NewAssistHandler(assist *service.AssistService) *AssistHandler {
	return &AssistHandler{assist: assist}
}

// Rewrite godoc
// @Summary Rewrite a complaint draft
// @Description Returns a cleaned-up suggestion; the original text is never stored
// @Tags Assist
// @Accept json
// @Produce json
// @Param payload body dto.RewriteRequest true "Draft text"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /assist/rewrite [post]
func (h *AssistHandler) Rewrite(c *gin.Context) {
	var req dto.RewriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid rewrite payload"))
		return
	}

	res, err := h.assist.Rewrite(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}
