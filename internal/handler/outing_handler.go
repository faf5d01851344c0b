package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hosteldesk/hosteldesk-api/internal/dto"
	"github.com/hosteldesk/hosteldesk-api/internal/middleware"
	"github.com/hosteldesk/hosteldesk-api/internal/models"
	"github.com/hosteldesk/hosteldesk-api/internal/service"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
	"github.com/hosteldesk/hosteldesk-api/pkg/response"
)

// OutingHandler exposes outing request endpoints.
type OutingHandler struct {
	outings *service.OutingService
}

// NewOutingHandler constructs OutingHandler.
func NewOutingHandler(outings *service.OutingService) *OutingHandler {
	return &OutingHandler{outings: outings}
}

// Create godoc
// @Summary Submit an outing request
// @Description A student may hold only one open request at a time
// @Tags Outings
// @Accept json
// @Produce json
// @Param payload body dto.CreateOutingRequest true "Outing payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /outings [post]
func (h *OutingHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateOutingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid outing payload"))
		return
	}

	outing, err := h.outings.Create(c.Request.Context(), claims.AccountID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, outing)
}

// List godoc
// @Summary List outing requests
// @Description Students see only their own requests; staff see everything
// @Tags Outings
// @Produce json
// @Param search query string false "Search by student name, roll no, or purpose"
// @Param status query string false "Filter by status"
// @Param gender query string false "Filter by hostel wing"
// @Param window query string false "Time window"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /outings [get]
func (h *OutingHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var filter models.OutingFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Status = models.OutingStatus(c.Query("status"))
	filter.Gender = c.Query("gender")
	filter.Window = models.ParseTimeWindow(c.Query("window"))
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.Page, filter.PageSize = models.NormalizePage(filter.Page, filter.PageSize)

	outings, total, err := h.outings.List(c.Request.Context(), claims, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, outings, pagination)
}

// Get godoc
// @Summary Get outing request detail
// @Tags Outings
// @Produce json
// @Param id path string true "Outing ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /outings/{id} [get]
func (h *OutingHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	outing, err := h.outings.Get(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, outing, nil)
}

// Decide godoc
// @Summary Approve or reject an outing request
// @Description Rejection requires a reason; decisions are final
// @Tags Outings
// @Accept json
// @Produce json
// @Param id path string true "Outing ID"
// @Param payload body dto.OutingDecisionRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /outings/{id}/decision [post]
func (h *OutingHandler) Decide(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.OutingDecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid decision payload"))
		return
	}

	outing, err := h.outings.Decide(c.Request.Context(), claims.AccountID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, outing, nil)
}

// MarkReturned godoc
// @Summary Mark a student as returned
// @Description Completes an approved outing; recorded only on explicit staff action
// @Tags Outings
// @Produce json
// @Param id path string true "Outing ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /outings/{id}/return [post]
func (h *OutingHandler) MarkReturned(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	outing, err := h.outings.MarkReturned(c.Request.Context(), claims.AccountID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, outing, nil)
}

// Stats godoc
// @Summary Outing statistics
// @Description Aggregated counts by status and submission day
// @Tags Outings
// @Produce json
// @Param gender query string false "Filter by hostel wing"
// @Param window query string false "Time window"
// @Success 200 {object} response.Envelope
// @Router /outings/stats [get]
func (h *OutingHandler) Stats(c *gin.Context) {
	stats, hit, err := h.outings.Stats(c.Request.Context(), c.Query("gender"), models.ParseTimeWindow(c.Query("window")))
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, stats, nil, middleware.ExtractMeta(c))
}

// Active godoc
// @Summary Students currently out
// @Description Approved outings with no recorded return
// @Tags Outings
// @Produce json
// @Param gender query string false "Filter by hostel wing"
// @Success 200 {object} response.Envelope
// @Router /outings/active [get]
func (h *OutingHandler) Active(c *gin.Context) {
	active, err := h.outings.Active(c.Request.Context(), c.Query("gender"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, active, nil)
}
