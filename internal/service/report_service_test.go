package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hosteldesk/hosteldesk-api/internal/dto"
	"github.com/hosteldesk/hosteldesk-api/internal/models"
	"github.com/hosteldesk/hosteldesk-api/internal/repository"
	appErrors "github.com/hosteldesk/hosteldesk-api/pkg/errors"
	"github.com/hosteldesk/hosteldesk-api/pkg/jobs"
)

type mockReportJobStore struct {
	jobs       map[string]*models.ReportJob
	resetStale int64
	resetErr   error
}

func newMockReportJobStore() *mockReportJobStore {
	return &mockReportJobStore{jobs: make(map[string]*models.ReportJob)}
}

func (m *mockReportJobStore) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = "job-generated"
	}
	copied := *job
	m.jobs[job.ID] = &copied
	return nil
}

func (m *mockReportJobStore) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	job, ok := m.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *job
	return &copied, nil
}

func (m *mockReportJobStore) Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error {
	job, ok := m.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (m *mockReportJobStore) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	queued := make([]models.ReportJob, 0)
	for _, job := range m.jobs {
		if job.Status == models.ReportStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

func (m *mockReportJobStore) ResetStaleProcessing(ctx context.Context, olderThan time.Time) (int64, error) {
	return m.resetStale, m.resetErr
}

type mockDispatcher struct {
	enqueued []jobs.Job
	err      error
}

func (m *mockDispatcher) Enqueue(job jobs.Job) error {
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

type mockExportGen struct {
	result *ExportResult
	err    error
}

func (m *mockExportGen) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	return m.result, m.err
}

func newReportService(store *mockReportJobStore, queue *mockDispatcher) *ReportService {
	return NewReportService(store, queue, nil, zap.NewNop(), ReportServiceConfig{})
}

func TestReportServiceCreateJob(t *testing.T) {
	store := newMockReportJobStore()
	queue := &mockDispatcher{}
	svc := newReportService(store, queue)

	resp, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   models.ReportTypeComplaints,
		Format: models.ReportFormatCSV,
		Window: "7d",
	}, "staff-1")
	require.NoError(t, err)

	assert.Equal(t, models.ReportStatusQueued, resp.Status)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, resp.ID, queue.enqueued[0].ID)

	stored := store.jobs[resp.ID]
	require.NotNil(t, stored)
	assert.Equal(t, "staff-1", stored.CreatedBy)
	assert.Equal(t, models.TimeWindow("7d"), stored.Params.Window)
}

func TestReportServiceCreateJobRejectsUnknownType(t *testing.T) {
	svc := newReportService(newMockReportJobStore(), &mockDispatcher{})

	_, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   models.ReportType("grades"),
		Format: models.ReportFormatCSV,
	}, "staff-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReportServiceCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	store := newMockReportJobStore()
	queue := &mockDispatcher{err: errors.New("queue closed")}
	svc := newReportService(store, queue)

	_, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   models.ReportTypeOutings,
		Format: models.ReportFormatPDF,
	}, "staff-1")
	require.Error(t, err)

	require.Len(t, store.jobs, 1)
	for _, job := range store.jobs {
		assert.Equal(t, models.ReportStatusFailed, job.Status)
		require.NotNil(t, job.FinishedAt)
	}
}

func TestReportServiceGetStatusScopedToCreator(t *testing.T) {
	store := newMockReportJobStore()
	store.jobs["job-1"] = &models.ReportJob{ID: "job-1", Status: models.ReportStatusProcessing, CreatedBy: "staff-1"}
	svc := newReportService(store, &mockDispatcher{})

	resp, err := svc.GetStatus(context.Background(), "job-1", "staff-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusProcessing, resp.Status)

	_, err = svc.GetStatus(context.Background(), "job-1", "staff-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.GetStatus(context.Background(), "missing", "staff-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportServiceRecoverPendingJobs(t *testing.T) {
	store := newMockReportJobStore()
	store.resetStale = 1
	store.jobs["job-1"] = &models.ReportJob{ID: "job-1", Type: models.ReportTypeComplaints, Status: models.ReportStatusQueued}
	store.jobs["job-2"] = &models.ReportJob{ID: "job-2", Type: models.ReportTypeOutings, Status: models.ReportStatusFinished}
	queue := &mockDispatcher{}
	svc := newReportService(store, queue)

	svc.RecoverPendingJobs(context.Background())

	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, "job-1", queue.enqueued[0].ID)
}

func TestReportWorkerHandleSuccess(t *testing.T) {
	store := newMockReportJobStore()
	store.jobs["job-1"] = &models.ReportJob{ID: "job-1", Type: models.ReportTypeComplaints, Status: models.ReportStatusQueued}
	gen := &mockExportGen{result: &ExportResult{URL: "/api/v1/export/tok", RelativePath: "file.csv"}}
	worker := NewReportWorker(store, gen, nil, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1"})
	require.NoError(t, err)

	job := store.jobs["job-1"]
	assert.Equal(t, models.ReportStatusFinished, job.Status)
	assert.Equal(t, 100, job.Progress)
	require.NotNil(t, job.ResultURL)
	assert.Equal(t, "/api/v1/export/tok", *job.ResultURL)
	require.NotNil(t, job.FinishedAt)
}

func TestReportWorkerHandleRequeuesOnEarlyFailure(t *testing.T) {
	store := newMockReportJobStore()
	store.jobs["job-1"] = &models.ReportJob{ID: "job-1", Type: models.ReportTypeComplaints, Status: models.ReportStatusQueued}
	gen := &mockExportGen{err: errors.New("render boom")}
	worker := NewReportWorker(store, gen, nil, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 0})
	require.Error(t, err)

	job := store.jobs["job-1"]
	assert.Equal(t, models.ReportStatusQueued, job.Status)
	assert.Equal(t, 0, job.Progress)
	require.NotNil(t, job.ErrorMessage)
}

func TestReportWorkerHandleFailsAfterRetriesExhausted(t *testing.T) {
	store := newMockReportJobStore()
	store.jobs["job-1"] = &models.ReportJob{ID: "job-1", Type: models.ReportTypeComplaints, Status: models.ReportStatusQueued}
	gen := &mockExportGen{err: errors.New("render boom")}
	worker := NewReportWorker(store, gen, nil, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Attempt: 3})
	require.Error(t, err)

	job := store.jobs["job-1"]
	assert.Equal(t, models.ReportStatusFailed, job.Status)
	require.NotNil(t, job.FinishedAt)
	require.NotNil(t, job.ErrorMessage)
	assert.Equal(t, "render boom", *job.ErrorMessage)
}
