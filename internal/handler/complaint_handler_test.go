package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hosteldesk/hosteldesk-api/internal/middleware"
	"github.com/hosteldesk/hosteldesk-api/internal/models"
	"github.com/hosteldesk/hosteldesk-api/internal/service"
)

type fakeComplaintStore struct {
	created    *models.Complaint
	listed     []models.ComplaintDetail
	lastFilter models.ComplaintFilter
}

func (f *fakeComplaintStore) List(ctx context.Context, filter models.ComplaintFilter, now time.Time) ([]models.ComplaintDetail, int, error) {
	f.lastFilter = filter
	return f.listed, len(f.listed), nil
}

func (f *fakeComplaintStore) FindByID(ctx context.Context, id string) (*models.Complaint, error) {
	return nil, nil
}

func (f *fakeComplaintStore) Create(ctx context.Context, complaint *models.Complaint) error {
	f.created = complaint
	return nil
}

func (f *fakeComplaintStore) Acknowledge(ctx context.Context, id, staffID string, expectedUpdatedAt, now time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeComplaintStore) Resolve(ctx context.Context, id, staffID, note string, expectedUpdatedAt, now time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeComplaintStore) Stats(ctx context.Context, gender string, since *time.Time) (*models.ComplaintStats, error) {
	return &models.ComplaintStats{Total: 3}, nil
}

type fakeAuditor struct{}

func (f *fakeAuditor) CreateAuditLog(ctx context.Context, log *models.AuditLog) error { return nil }

func newComplaintHandler(store *fakeComplaintStore) *ComplaintHandler {
	svc := service.NewComplaintService(store, &fakeAuditor{}, nil, nil, zap.NewNop())
	return NewComplaintHandler(svc)
}

func TestComplaintHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeComplaintStore{}
	handler := newComplaintHandler(store)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/complaints", strings.NewReader(`{"category":"Food","description":"cold dinner again"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{AccountID: "student-1", Role: models.RoleStudent})

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, store.created)
	assert.Equal(t, "student-1", store.created.StudentID)
	assert.Equal(t, models.SeverityMedium, store.created.Severity)
}

func TestComplaintHandlerCreateUnauthenticated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newComplaintHandler(&fakeComplaintStore{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/complaints", strings.NewReader(`{"description":"x"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Create(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestComplaintHandlerListScopesStudents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeComplaintStore{}
	handler := newComplaintHandler(store)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/complaints?status=submitted&window=7d", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{AccountID: "student-1", Role: models.RoleStudent})

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "student-1", store.lastFilter.StudentID)
	assert.Equal(t, models.ComplaintStatusSubmitted, store.lastFilter.Status)
	assert.Equal(t, models.WindowLast7d, store.lastFilter.Window)
}

func TestComplaintHandlerListClampsPagination(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeComplaintStore{}
	handler := newComplaintHandler(store)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/complaints?page=0&limit=500", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{AccountID: "staff-1", Role: models.RoleStaff})

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	// The envelope reports the values the query actually used.
	assert.Equal(t, 1, store.lastFilter.Page)
	assert.Equal(t, 20, store.lastFilter.PageSize)

	var envelope struct {
		Pagination *models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 1, envelope.Pagination.Page)
	assert.Equal(t, 20, envelope.Pagination.PageSize)
}

func TestComplaintHandlerStats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newComplaintHandler(&fakeComplaintStore{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/complaints/stats", nil)

	handler.Stats(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope responseEnvelope
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	assert.Equal(t, float64(3), envelope.Data["total"])
}
