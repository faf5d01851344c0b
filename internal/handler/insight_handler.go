package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hosteldesk/hosteldesk-api/internal/dto"
	"github.com/hosteldesk/hosteldesk-api/internal/service"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
	"github.com/hosteldesk/hosteldesk-api/pkg/response"
)

// InsightHandler exposes the complaint summarization board.
type InsightHandler struct {
	insights *service.InsightService
}

// NewInsightHandler constructs InsightHandler.
func NewInsightHandler(insights *service.InsightService) *InsightHandler {
	return &InsightHandler{insights: insights}
}

// Generate godoc
// @Summary Per-category complaint insights
// @Description Builds the insight board, generating summaries on cache misses
// @Tags Insights
// @Accept json
// @Produce json
// @Param payload body dto.InsightRequest true "Insight options"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /insights/generate [post]
func (h *InsightHandler) Generate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.InsightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid insight payload"))
		return
	}

	res, err := h.insights.Generate(c.Request.Context(), claims.AccountID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Cached godoc
// @Summary Stored category summaries
// @Description Returns cached summaries without triggering generation
// @Tags Insights
// @Produce json
// @Param gender query string false "Filter by hostel wing"
// @Success 200 {object} response.Envelope
// @Router /insights [get]
func (h *InsightHandler) Cached(c *gin.Context) {
	summaries, err := h.insights.Cached(c.Request.Context(), c.Query("gender"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summaries, nil)
}
