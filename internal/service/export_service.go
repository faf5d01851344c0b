package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hosteldesk/hosteldesk-api/internal/models"
	"github.com/hosteldesk/hosteldesk-api/pkg/export"
	"github.com/hosteldesk/hosteldesk-api/pkg/storage"
)

type exportComplaintSource interface {
	List(ctx context.Context, filter models.ComplaintFilter, now time.Time) ([]models.ComplaintDetail, int, error)
}

type exportOutingSource interface {
	List(ctx context.Context, filter models.OutingFilter, now time.Time) ([]models.OutingDetail, int, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// Export rows are capped so a register export stays a bounded operation.
const exportPageSize = 100

// ExportService builds register datasets and persists rendered files.
type ExportService struct {
	complaints exportComplaintSource
	outings    exportOutingSource
	storage    fileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(complaints exportComplaintSource, outings exportOutingSource, store fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		complaints: complaints,
		outings:    outings,
		storage:    store,
		csv:        csv,
		pdf:        pdf,
		signer:     signer,
		logger:     logger,
		cfg:        cfg,
	}
}

// Generate builds the dataset named by the job and stores the rendered file.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	scope := job.Params.Gender
	if scope == "" {
		scope = "all"
	}
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), scope, timestamp, job.Params.Format)
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeComplaints:
		return s.buildComplaintDataset(ctx, job.Params)
	case models.ReportTypeOutings:
		return s.buildOutingDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildComplaintDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	filter := models.ComplaintFilter{
		Status:   models.ComplaintStatus(params.Status),
		Gender:   params.Gender,
		Window:   params.Window,
		PageSize: exportPageSize,
	}
	now := time.Now().UTC()

	headers := []string{"ID", "Student", "Roll No", "Room", "Category", "Severity", "Status", "Description", "Submitted At", "Resolved By", "Closing Note"}
	rows := make([]map[string]string, 0)
	for page := 1; ; page++ {
		filter.Page = page
		complaints, total, err := s.complaints.List(ctx, filter, now)
		if err != nil {
			return export.Dataset{}, "", err
		}
		for _, c := range complaints {
			rows = append(rows, map[string]string{
				"ID":           c.ID,
				"Student":      c.StudentName,
				"Roll No":      c.StudentRollNo,
				"Room":         c.StudentRoomNumber,
				"Category":     c.Category,
				"Severity":     string(c.Severity),
				"Status":       string(c.Status),
				"Description":  c.Description,
				"Submitted At": c.SubmittedAt.UTC().Format(time.RFC3339),
				"Resolved By":  derefString(c.ResolvedStaffName),
				"Closing Note": derefString(c.ClosingNote),
			})
		}
		if len(rows) >= total || len(complaints) == 0 {
			break
		}
	}

	title := "Complaint Register"
	if params.Gender != "" {
		title = fmt.Sprintf("%s (%s hostel)", title, params.Gender)
	}
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

func (s *ExportService) buildOutingDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	filter := models.OutingFilter{
		Status:   models.OutingStatus(params.Status),
		Gender:   params.Gender,
		Window:   params.Window,
		PageSize: exportPageSize,
	}
	now := time.Now().UTC()

	headers := []string{"ID", "Student", "Roll No", "Room", "Purpose", "Status", "Submitted At", "Return Time", "Decided By", "Returned At"}
	rows := make([]map[string]string, 0)
	for page := 1; ; page++ {
		filter.Page = page
		outings, total, err := s.outings.List(ctx, filter, now)
		if err != nil {
			return export.Dataset{}, "", err
		}
		for _, o := range outings {
			rows = append(rows, map[string]string{
				"ID":           o.ID,
				"Student":      o.StudentName,
				"Roll No":      o.StudentRollNo,
				"Room":         o.StudentRoomNumber,
				"Purpose":      o.Purpose,
				"Status":       string(o.Status),
				"Submitted At": o.SubmittedAt.UTC().Format(time.RFC3339),
				"Return Time":  formatReportTime(o.ReturnTime),
				"Decided By":   derefString(o.DecidedStaffName),
				"Returned At":  formatReportTime(o.ReturnedAt),
			})
		}
		if len(rows) >= total || len(outings) == 0 {
			break
		}
	}

	title := "Outing Register"
	if params.Gender != "" {
		title = fmt.Sprintf("%s (%s hostel)", title, params.Gender)
	}
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func formatReportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
