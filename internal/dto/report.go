package dto

import "github.com/hosteldesk/hosteldesk-api/internal/models"

// ReportRequest captures the POST /reports payload.
type ReportRequest struct {
	Type   models.ReportType   `json:"type"`
	Gender string              `json:"gender,omitempty"`
	Status string              `json:"status,omitempty"`
	Window string              `json:"window,omitempty"`
	Format models.ReportFormat `json:"format"`
}

// ReportJobResponse is returned after enqueueing a report.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse exposes job progress metadata.
type ReportStatusResponse struct {
	ID        string              `json:"id"`
	Status    models.ReportStatus `json:"status"`
	Progress  int                 `json:"progress"`
	ResultURL *string             `json:"result_url,omitempty"`
	Error     *string             `json:"error,omitempty"`
}
